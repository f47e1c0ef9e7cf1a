// Package report shapes an analysis report into display-ready aggregates.
package report

import (
	"fmt"
	"math"

	"sentiscope/internal/domain"
)

// ArcScale is the range slice offsets are expressed in.
const ArcScale = 100.0

// ratioTolerance bounds how far server-sent ratios may drift from count/total
// before a consistency warning is raised.
const ratioTolerance = 0.01

// Slice is one proportional segment of the sentiment distribution.
type Slice struct {
	Label  domain.SentimentType `json:"label" yaml:"label"`
	Count  int                  `json:"count" yaml:"count"`
	Ratio  float64              `json:"ratio" yaml:"ratio"`
	Offset float64              `json:"offset" yaml:"offset"`
}

// DeriveSentimentSlices returns the positive, neutral and negative slices in
// that order. Ratios are count/total_posts (0 when there are no posts) and
// Offset is the cumulative ratio of the preceding slices on a 0–100 scale.
func DeriveSentimentSlices(r *domain.Report) []Slice {
	var dist domain.SentimentDistribution
	total := 0
	if r != nil {
		dist = r.SentimentDistribution
		total = r.TotalPosts
	}

	counts := []struct {
		label domain.SentimentType
		count int
	}{
		{domain.SentimentPositive, dist.PositiveCount},
		{domain.SentimentNeutral, dist.NeutralCount},
		{domain.SentimentNegative, dist.NegativeCount},
	}

	slices := make([]Slice, 0, len(counts))
	cumulative := 0.0
	for _, c := range counts {
		ratio := 0.0
		if total > 0 {
			ratio = float64(c.count) / float64(total)
		}
		slices = append(slices, Slice{
			Label:  c.label,
			Count:  c.count,
			Ratio:  ratio,
			Offset: cumulative * ArcScale,
		})
		cumulative += ratio
	}
	return slices
}

// Percent formats a ratio as a whole-number percentage, e.g. "60%".
func Percent(ratio float64) string {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// CheckConsistency returns advisory warnings when the distribution does not
// agree with total_posts. It never fails; the server is not trusted to keep
// these invariants.
func CheckConsistency(r *domain.Report) []string {
	if r == nil {
		return nil
	}
	var warnings []string
	d := r.SentimentDistribution

	for _, c := range []struct {
		name  string
		count int
	}{{"positive", d.PositiveCount}, {"negative", d.NegativeCount}, {"neutral", d.NeutralCount}} {
		if c.count < 0 {
			warnings = append(warnings, fmt.Sprintf("%s count is negative (%d)", c.name, c.count))
		}
	}

	sum := d.PositiveCount + d.NegativeCount + d.NeutralCount
	if sum != r.TotalPosts {
		warnings = append(warnings, fmt.Sprintf("sentiment counts sum to %d but total_posts is %d", sum, r.TotalPosts))
	}
	if r.TotalPosts != len(r.Posts) && len(r.Posts) > 0 {
		warnings = append(warnings, fmt.Sprintf("total_posts is %d but %d posts were returned", r.TotalPosts, len(r.Posts)))
	}

	if r.TotalPosts > 0 {
		total := float64(r.TotalPosts)
		for _, c := range []struct {
			name  string
			count int
			ratio float64
		}{
			{"positive", d.PositiveCount, d.PositiveRatio},
			{"negative", d.NegativeCount, d.NegativeRatio},
			{"neutral", d.NeutralCount, d.NeutralRatio},
		} {
			if want := float64(c.count) / total; math.Abs(want-c.ratio) > ratioTolerance {
				warnings = append(warnings, fmt.Sprintf("%s ratio %.3f does not match %d/%d", c.name, c.ratio, c.count, r.TotalPosts))
			}
		}
		if s := d.PositiveRatio + d.NegativeRatio + d.NeutralRatio; math.Abs(s-1) > ratioTolerance {
			warnings = append(warnings, fmt.Sprintf("sentiment ratios sum to %.3f", s))
		}
	}
	return warnings
}
