package domain

import "strings"

// Accepted screenshot MIME types.
const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeJPG  = "image/jpg"
	MimeWebP = "image/webp"
)

// DefaultAllowedTypes lists the MIME types accepted for upload.
var DefaultAllowedTypes = []string{MimePNG, MimeJPEG, MimeJPG, MimeWebP}

// AllowedExtensions maps file extensions (without dot) to their MIME type.
// Used when the caller cannot supply a reliable content type.
var AllowedExtensions = map[string]string{
	"png":  MimePNG,
	"jpg":  MimeJPEG,
	"jpeg": MimeJPEG,
	"webp": MimeWebP,
}

// SelectionMode controls how many screenshots a session holds.
type SelectionMode string

const (
	SelectionModeSingle SelectionMode = "single"
	SelectionModeMulti  SelectionMode = "multi"
)

// ParseSelectionMode maps a user-supplied string to a SelectionMode.
// Unknown or empty values fall back to multi mode.
func ParseSelectionMode(s string) SelectionMode {
	if strings.EqualFold(strings.TrimSpace(s), string(SelectionModeSingle)) {
		return SelectionModeSingle
	}
	return SelectionModeMulti
}

// RejectionReason explains why a candidate was not accepted.
type RejectionReason string

const (
	RejectUnsupportedType     RejectionReason = "unsupported_type"
	RejectTooLarge            RejectionReason = "too_large"
	RejectDuplicateOfExisting RejectionReason = "duplicate_of_existing"
	RejectCapacityExceeded    RejectionReason = "capacity_exceeded"
)

// AnalysisStatus is the workflow state tag.
type AnalysisStatus string

const (
	StatusIdle      AnalysisStatus = "idle"
	StatusUploading AnalysisStatus = "uploading"
	StatusAnalyzing AnalysisStatus = "analyzing"
	StatusComplete  AnalysisStatus = "complete"
	StatusError     AnalysisStatus = "error"
)

// Busy reports whether a submit is in flight.
func (s AnalysisStatus) Busy() bool {
	return s == StatusUploading || s == StatusAnalyzing
}

// SentimentType is the sentiment tag attached to posts and keywords.
type SentimentType string

const (
	SentimentPositive SentimentType = "positive"
	SentimentNegative SentimentType = "negative"
	SentimentNeutral  SentimentType = "neutral"
)

// ParseSentiment normalizes a sentiment tag, defaulting to neutral.
func ParseSentiment(s string) SentimentType {
	switch SentimentType(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// RiskLevel grades a risk alert.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// ParseRiskLevel normalizes a risk level, defaulting to low.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case RiskHigh:
		return RiskHigh
	case RiskMedium:
		return RiskMedium
	default:
		return RiskLow
	}
}
