package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"StockAnalyst/internal/dataset"
	"StockAnalyst/internal/model"
	"StockAnalyst/internal/responder"
	"StockAnalyst/internal/session"
)

// SessionCookie carries the chat session id of a browser.
const SessionCookie = "stockanalyst_session"

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTmpl = template.Must(
	template.New("dashboard.html").
		Funcs(template.FuncMap{"markdown": renderMarkdown}).
		ParseFS(templateFS, "templates/dashboard.html"),
)

type dashboardPage struct {
	Company        string
	Symbol         string
	Loaded         bool
	Source         string
	LoadedAt       time.Time
	RecordCount    int
	ChartTitle     string
	Cards          []dataset.StatCard
	Messages       []model.Message
	QuickQuestions []string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{
		Company:        s.responder.Company,
		QuickQuestions: responder.QuickQuestions,
	}
	if page.Company == "" {
		page.Company = responder.DefaultCompany
	}

	if snap, err := s.holder.Get(); err == nil {
		if summary, err := snap.Summary(); err == nil {
			page.Loaded = true
			page.Symbol = snap.Symbol
			page.Source = snap.Source
			page.LoadedAt = snap.LoadedAt
			page.RecordCount = summary.RecordCount
			page.Cards = dataset.StatCards(summary, snap.Metric)
		}
	}
	page.ChartTitle = chartTitle(page.Company)

	if t := s.sessionFromCookie(r); t != nil {
		page.Messages = t.Messages()
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, page); err != nil {
		s.log.Error().Err(err).Msg("render dashboard")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleChatForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	query, err := cleanQuery(r.PostForm.Get("query"))
	if err == errEmptyQuery {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reply, err := s.answer(query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	t := s.sessionFromCookie(r)
	if t == nil {
		t = s.sessions.Create()
	}
	s.sessions.Exchange(t, query, reply)
	s.setSessionCookie(w, t)
	http.Redirect(w, r, "/#chat", http.StatusSeeOther)
}

func (s *Server) sessionFromCookie(r *http.Request) *session.Transcript {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	t, err := s.sessions.Get(c.Value)
	if err != nil {
		return nil
	}
	return t
}

func (s *Server) setSessionCookie(w http.ResponseWriter, t *session.Transcript) {
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    t.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if s.sessionTTL > 0 {
		c.MaxAge = int(s.sessionTTL.Seconds())
	}
	http.SetCookie(w, c)
}

// renderMarkdown escapes text and turns **bold** spans into <strong>.
// An unpaired marker is left as literal text.
func renderMarkdown(text string) template.HTML {
	parts := strings.Split(text, "**")
	var b strings.Builder
	for i, p := range parts {
		escaped := template.HTMLEscapeString(p)
		switch {
		case i%2 == 0:
			b.WriteString(escaped)
		case i == len(parts)-1:
			b.WriteString("**" + escaped)
		default:
			b.WriteString("<strong>" + escaped + "</strong>")
		}
	}
	return template.HTML(b.String())
}
