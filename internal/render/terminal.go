// Package render formats a report view for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"

	"sentiscope/internal/domain"
	"sentiscope/internal/intake"
	"sentiscope/internal/report"
)

const barWidth = 30

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			MarginTop(1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(0, 1)

	sentimentStyles = map[domain.SentimentType]lipgloss.Style{
		domain.SentimentPositive: lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")),
		domain.SentimentNeutral:  lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
		domain.SentimentNegative: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	}

	riskStyles = map[domain.RiskLevel]lipgloss.Style{
		domain.RiskHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
		domain.RiskMedium: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B")),
		domain.RiskLow:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6")),
	}
)

// Report renders v as styled terminal text.
func Report(v report.View) string {
	r := v.Report
	if r == nil {
		return mutedStyle.Render("no report")
	}

	var b strings.Builder

	header := []string{titleStyle.Render("Sentiment report " + r.AnalysisID)}
	if kw := r.Keyword(); kw != "" {
		header = append(header, "keyword: "+kw)
	}
	header = append(header,
		fmt.Sprintf("posts: %d   comments: %d", r.TotalPosts, r.TotalComments),
		mutedStyle.Render("created "+v.CreatedAt),
	)
	b.WriteString(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header...)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Sentiment"))
	b.WriteString("\n")
	for _, s := range v.Slices {
		bar := strings.Repeat("█", int(s.Ratio*barWidth))
		fmt.Fprintf(&b, "  %-8s %4d %5s %s\n", s.Label, s.Count, report.Percent(s.Ratio), sentimentStyles[s.Label].Render(bar))
	}

	if len(v.Keywords) > 0 {
		b.WriteString(sectionStyle.Render("Top keywords"))
		b.WriteString("\n")
		words := make([]string, 0, len(v.Keywords))
		for _, k := range v.Keywords {
			words = append(words, sentimentStyles[k.Sentiment].Render(fmt.Sprintf("%s(%d)", k.Word, k.Count)))
		}
		b.WriteString("  " + strings.Join(words, "  ") + "\n")
	}

	if len(v.Alerts) > 0 {
		b.WriteString(sectionStyle.Render("Risk alerts"))
		b.WriteString("\n")
		for _, a := range v.Alerts {
			fmt.Fprintf(&b, "  %s %s\n", riskStyles[a.Level].Render("["+a.Label+"]"), a.Description)
		}
	}

	if len(r.Posts) > 0 {
		b.WriteString(sectionStyle.Render("Posts"))
		b.WriteString("\n")
		for i, p := range r.Posts {
			score := sentimentStyles[p.Sentiment].Render(report.ScoreLabel(p.SentimentScore))
			fmt.Fprintf(&b, "  %2d. %s %s\n", i+1, p.Title, score)
		}
	}

	if s := strings.TrimSpace(r.Summary); s != "" {
		b.WriteString(sectionStyle.Render("Summary"))
		b.WriteString("\n  " + s + "\n")
	}
	writeList(&b, "Insights", r.Insights)
	writeList(&b, "Recommendations", r.Recommendations)

	for _, w := range v.Warnings {
		b.WriteString(mutedStyle.Render("warning: "+w) + "\n")
	}
	return b.String()
}

// Intake renders the outcome of validating a batch of files.
func Intake(res intake.Result, notice intake.Notice) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Accepted (%d)", len(res.Accepted))))
	b.WriteString("\n")
	for _, f := range res.Accepted {
		fmt.Fprintf(&b, "  ✓ %s %s\n", f.Name, mutedStyle.Render(fmt.Sprintf("%s, %d bytes", f.MimeType, f.Size)))
	}
	if len(res.Rejected) > 0 {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("Rejected (%d)", len(res.Rejected))))
		b.WriteString("\n")
		for _, rej := range res.Rejected {
			fmt.Fprintf(&b, "  ✗ %s %s\n", rej.Candidate.Name, riskStyles[domain.RiskHigh].Render(intake.ReasonText(rej.Reason)))
		}
	}
	if notice.Message != "" {
		b.WriteString("\n" + mutedStyle.Render(notice.Message) + "\n")
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(sectionStyle.Render(title))
	b.WriteString("\n")
	for _, it := range items {
		b.WriteString("  • " + it + "\n")
	}
}
