package report

import (
	"math"

	"sentiscope/internal/domain"
)

// Normalize coerces a decoded report into the shape the display layer
// expects: unknown sentiment tags become neutral, unknown risk levels become
// low, scores are clamped to [-1, 1], keywords are capped at MaxKeywords and
// nil lists become empty. It modifies r in place and returns it.
func Normalize(r *domain.Report) *domain.Report {
	if r == nil {
		return nil
	}

	if len(r.TopKeywords) > MaxKeywords {
		r.TopKeywords = r.TopKeywords[:MaxKeywords]
	}
	for i := range r.TopKeywords {
		r.TopKeywords[i].Sentiment = domain.ParseSentiment(string(r.TopKeywords[i].Sentiment))
	}
	for i := range r.Posts {
		p := &r.Posts[i]
		p.Sentiment = domain.ParseSentiment(string(p.Sentiment))
		p.SentimentScore = clamp(p.SentimentScore)
		if p.Keywords == nil {
			p.Keywords = []string{}
		}
	}
	for i := range r.RiskAlerts {
		r.RiskAlerts[i].Level = domain.ParseRiskLevel(string(r.RiskAlerts[i].Level))
		if r.RiskAlerts[i].RelatedPosts == nil {
			r.RiskAlerts[i].RelatedPosts = []string{}
		}
	}

	if r.TopKeywords == nil {
		r.TopKeywords = []domain.KeywordInfo{}
	}
	if r.Posts == nil {
		r.Posts = []domain.PostInfo{}
	}
	if r.Comments == nil {
		r.Comments = []domain.CommentInfo{}
	}
	if r.RiskAlerts == nil {
		r.RiskAlerts = []domain.RiskAlert{}
	}
	if r.Insights == nil {
		r.Insights = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	if r.TotalComments == 0 && len(r.Comments) > 0 {
		r.TotalComments = len(r.Comments)
	}
	return r
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
