package report

import (
	"fmt"

	"sentiscope/internal/domain"
)

// MaxKeywords caps the keyword list shown for a report.
const MaxKeywords = 10

// AlertView is a risk alert tagged for styling. Alerts keep server order.
type AlertView struct {
	domain.RiskAlert `yaml:",inline"`
	Tag              string `json:"tag" yaml:"tag"`
	Label            string `json:"label" yaml:"label"`
}

var riskLabels = map[domain.RiskLevel]string{
	domain.RiskHigh:   "High risk",
	domain.RiskMedium: "Medium risk",
	domain.RiskLow:    "Low risk",
}

// TagAlerts returns the alerts in server order, each tagged by level.
func TagAlerts(r *domain.Report) []AlertView {
	if r == nil {
		return nil
	}
	out := make([]AlertView, 0, len(r.RiskAlerts))
	for _, a := range r.RiskAlerts {
		level := domain.ParseRiskLevel(string(a.Level))
		out = append(out, AlertView{
			RiskAlert: a,
			Tag:       "risk-" + string(level),
			Label:     riskLabels[level],
		})
	}
	return out
}

// KeywordTag is a keyword sized for a tag cloud. Weight is count relative to
// the most frequent keyword, in (0, 1].
type KeywordTag struct {
	Word      string               `json:"word" yaml:"word"`
	Count     int                  `json:"count" yaml:"count"`
	Sentiment domain.SentimentType `json:"sentiment" yaml:"sentiment"`
	Tag       string               `json:"tag" yaml:"tag"`
	Weight    float64              `json:"weight" yaml:"weight"`
}

// KeywordTags builds tag-cloud entries in server order.
func KeywordTags(r *domain.Report) []KeywordTag {
	if r == nil || len(r.TopKeywords) == 0 {
		return nil
	}
	top := 0
	for _, k := range r.TopKeywords {
		if k.Count > top {
			top = k.Count
		}
	}
	out := make([]KeywordTag, 0, len(r.TopKeywords))
	for _, k := range r.TopKeywords {
		w := 0.0
		if top > 0 && k.Count > 0 {
			w = float64(k.Count) / float64(top)
		}
		s := domain.ParseSentiment(string(k.Sentiment))
		out = append(out, KeywordTag{
			Word:      k.Word,
			Count:     k.Count,
			Sentiment: s,
			Tag:       "sentiment-" + string(s),
			Weight:    w,
		})
	}
	return out
}

// ScoreLabel renders a sentiment score in [-1, 1] with an explicit sign.
func ScoreLabel(score float64) string {
	return fmt.Sprintf("%+.2f", score)
}
