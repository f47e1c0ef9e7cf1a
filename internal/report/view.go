package report

import "sentiscope/internal/domain"

// View bundles a report with everything the display layer derives from it.
type View struct {
	Report    *domain.Report `json:"report" yaml:"report"`
	Slices    []Slice        `json:"slices" yaml:"slices"`
	Keywords  []KeywordTag   `json:"keywords" yaml:"keywords"`
	Alerts    []AlertView    `json:"alerts" yaml:"alerts"`
	CreatedAt string         `json:"created_at_display" yaml:"created_at_display"`
	Warnings  []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// BuildView derives the display aggregates for r using locale for dates.
func BuildView(r *domain.Report, locale string) View {
	v := View{
		Report:   r,
		Slices:   DeriveSentimentSlices(r),
		Keywords: KeywordTags(r),
		Alerts:   TagAlerts(r),
		Warnings: CheckConsistency(r),
	}
	if r != nil {
		v.CreatedAt = FormatTimestamp(r.CreatedAt, locale)
	} else {
		v.CreatedAt = FallbackTimestamp
	}
	return v
}
