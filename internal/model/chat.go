package model

import "time"

// Role identifies who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat transcript.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Zone is a labelled classification of an indicator reading.
type Zone struct {
	Label  string
	Marker string
}

// String renders the zone the way it appears in replies, e.g. "🔴 Overbought (>70)".
func (z Zone) String() string {
	if z.Marker == "" {
		return z.Label
	}
	return z.Marker + " " + z.Label
}
