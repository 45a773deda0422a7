package notifier

import (
	"fmt"
	"strings"

	"StockAnalyst/internal/dataset"
	"StockAnalyst/internal/model"
	"StockAnalyst/internal/store"
)

// FormatStats renders the dashboard stat cards as a chat message.
func FormatStats(company, symbol string, s model.SeriesSummary, m model.ModelMetric) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 %s (%s) | %s\n\n", company, symbol, s.Latest.Day()))
	for _, c := range dataset.StatCards(s, m) {
		b.WriteString(fmt.Sprintf("%s: %s", c.Title, c.Value))
		if c.Delta != "" {
			b.WriteString(fmt.Sprintf(" (%s)", c.Delta))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\nRecords: %d", s.RecordCount))
	return b.String()
}

// FormatHelp lists the chat commands and the suggested questions.
func FormatHelp(questions []string) string {
	var b strings.Builder
	b.WriteString("🤖 AI Stock Analyst\n\n")
	b.WriteString("/stats - headline figures\n")
	b.WriteString("/refresh - reload the dataset now\n")
	b.WriteString("/help - this message\n\n")
	b.WriteString("💡 Quick questions to try:\n")
	for _, q := range questions {
		b.WriteString(fmt.Sprintf("  %q\n", q))
	}
	return b.String()
}

// FormatRefreshReport summarises a dataset refresh.
func FormatRefreshReport(evt *store.RefreshEvent) string {
	var b strings.Builder
	switch evt.Status {
	case store.StatusOK:
		b.WriteString(fmt.Sprintf("✅ %s refreshed from %s\n", evt.Symbol, evt.Source))
	case store.StatusFallback:
		b.WriteString(fmt.Sprintf("⚠️ %s source %s failed, serving cached records\n", evt.Symbol, evt.Source))
	default:
		b.WriteString(fmt.Sprintf("❌ %s refresh from %s failed\n", evt.Symbol, evt.Source))
	}
	if evt.Records > 0 {
		b.WriteString(fmt.Sprintf("Records: %d (%s to %s)\n", evt.Records, evt.FirstDate, evt.LastDate))
	}
	if evt.Error != "" {
		b.WriteString(fmt.Sprintf("Error: %s\n", evt.Error))
	}
	return strings.TrimRight(b.String(), "\n")
}
