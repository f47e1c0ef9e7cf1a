package intake

import (
	"fmt"
	"strings"

	"sentiscope/internal/domain"
)

// NoticeKind classifies the feedback shown after a batch is validated.
type NoticeKind string

const (
	NoticeNone             NoticeKind = ""
	NoticeCapacityReached  NoticeKind = "capacity_reached"
	NoticeNoValidFiles     NoticeKind = "no_valid_files"
	NoticePartiallyApplied NoticeKind = "partially_applied"
)

// Notice is user-facing feedback for a validated batch.
type Notice struct {
	Kind    NoticeKind `json:"kind,omitempty"`
	Message string     `json:"message,omitempty"`
}

// Err returns the sentinel error matching the notice, or nil when files were
// accepted.
func (n Notice) Err() error {
	switch n.Kind {
	case NoticeCapacityReached:
		return domain.ErrCapacityReached
	case NoticeNoValidFiles:
		return domain.ErrNoValidFiles
	default:
		return nil
	}
}

// NoticeFor derives the notice for a batch of batchLen candidates validated
// against existingLen held files. A batch that accepts nothing because the
// selection was already full gets the capacity notice rather than the generic
// one.
func NoticeFor(res Result, batchLen, existingLen, maxCount int) Notice {
	if batchLen == 0 {
		return Notice{}
	}
	if len(res.Accepted) == 0 {
		if existingLen >= maxCount {
			return Notice{
				Kind:    NoticeCapacityReached,
				Message: fmt.Sprintf("at most %d screenshots can be selected", maxCount),
			}
		}
		return Notice{Kind: NoticeNoValidFiles, Message: describe(res, domain.ErrNoValidFiles.Error())}
	}
	if len(res.Rejected) > 0 {
		return Notice{
			Kind:    NoticePartiallyApplied,
			Message: describe(res, fmt.Sprintf("added %d of %d screenshots", len(res.Accepted), batchLen)),
		}
	}
	return Notice{}
}

var reasonText = map[domain.RejectionReason]string{
	domain.RejectUnsupportedType:     "unsupported format (PNG, JPG or WebP only)",
	domain.RejectTooLarge:            "larger than the size limit",
	domain.RejectDuplicateOfExisting: "already selected",
	domain.RejectCapacityExceeded:    "over the screenshot limit",
}

// ReasonText returns a short human description of a rejection reason.
func ReasonText(r domain.RejectionReason) string {
	if s, ok := reasonText[r]; ok {
		return s
	}
	return string(r)
}

func describe(res Result, lead string) string {
	counts := res.CountByReason()
	order := []domain.RejectionReason{
		domain.RejectUnsupportedType,
		domain.RejectTooLarge,
		domain.RejectDuplicateOfExisting,
		domain.RejectCapacityExceeded,
	}
	parts := make([]string, 0, len(order))
	for _, r := range order {
		if n := counts[r]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, ReasonText(r)))
		}
	}
	if len(parts) == 0 {
		return lead
	}
	return lead + ": " + strings.Join(parts, ", ")
}
