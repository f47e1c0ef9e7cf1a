// Package intake filters user-supplied screenshots before they enter a selection.
package intake

import (
	"strings"

	"sentiscope/internal/config"
	"sentiscope/internal/domain"
)

const (
	// DefaultMaxFiles is the multi-file selection capacity.
	DefaultMaxFiles = 20
	// DefaultMaxFilesSingle is the single-file selection capacity.
	DefaultMaxFilesSingle = 1
	// DefaultMaxBytes is the per-file size limit (10 MiB).
	DefaultMaxBytes int64 = 10 * 1024 * 1024
)

// Policy bounds what a batch of candidates may add to a selection.
type Policy struct {
	MaxCount     int
	MaxBytes     int64
	AllowedTypes map[string]struct{}
}

// NewPolicy builds a Policy. Type matching is case-insensitive.
func NewPolicy(maxCount int, maxBytes int64, allowedTypes []string) Policy {
	allowed := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			allowed[t] = struct{}{}
		}
	}
	return Policy{MaxCount: maxCount, MaxBytes: maxBytes, AllowedTypes: allowed}
}

// DefaultPolicy returns the default policy for the given selection mode.
func DefaultPolicy(mode domain.SelectionMode) Policy {
	maxCount := DefaultMaxFiles
	if mode == domain.SelectionModeSingle {
		maxCount = DefaultMaxFilesSingle
	}
	return NewPolicy(maxCount, DefaultMaxBytes, domain.DefaultAllowedTypes)
}

// Allows reports whether mimeType is an accepted content type.
func (p Policy) Allows(mimeType string) bool {
	_, ok := p.AllowedTypes[strings.ToLower(strings.TrimSpace(mimeType))]
	return ok
}

// Result is the outcome of validating one batch.
type Result struct {
	Accepted []domain.FileCandidate `json:"accepted"`
	Rejected []domain.Rejection     `json:"rejected"`
}

// Validate applies the policy to candidates in input order against the
// files already held in existing. It has no side effects; the caller applies
// Accepted to its selection.
//
// Once capacity is reached every remaining candidate is rejected with
// RejectCapacityExceeded without further checks.
func Validate(candidates, existing []domain.FileCandidate, policy Policy) Result {
	res := Result{
		Accepted: make([]domain.FileCandidate, 0, len(candidates)),
		Rejected: make([]domain.Rejection, 0),
	}

	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, f := range existing {
		seen[f.DedupKey()] = struct{}{}
	}

	for _, c := range candidates {
		reason, ok := check(c, len(existing)+len(res.Accepted), seen, policy)
		if !ok {
			res.Rejected = append(res.Rejected, domain.Rejection{Candidate: c, Reason: reason})
			continue
		}
		seen[c.DedupKey()] = struct{}{}
		res.Accepted = append(res.Accepted, c)
	}
	return res
}

func check(c domain.FileCandidate, held int, seen map[string]struct{}, policy Policy) (domain.RejectionReason, bool) {
	if held >= policy.MaxCount {
		return domain.RejectCapacityExceeded, false
	}
	if !policy.Allows(c.MimeType) {
		return domain.RejectUnsupportedType, false
	}
	if c.Size > policy.MaxBytes {
		return domain.RejectTooLarge, false
	}
	if _, dup := seen[c.DedupKey()]; dup {
		return domain.RejectDuplicateOfExisting, false
	}
	return "", true
}

// CountByReason tallies rejections per reason.
func (r Result) CountByReason() map[domain.RejectionReason]int {
	counts := make(map[domain.RejectionReason]int, 4)
	for _, rej := range r.Rejected {
		counts[rej.Reason]++
	}
	return counts
}

// PolicyFromConfig builds the policy for mode from configured limits.
func PolicyFromConfig(cfg *config.IntakeConfig, mode domain.SelectionMode) Policy {
	allowed := cfg.AllowedTypes
	if len(allowed) == 0 {
		allowed = domain.DefaultAllowedTypes
	}
	maxBytes := cfg.MaxBytes()
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return NewPolicy(cfg.MaxCount(mode), maxBytes, allowed)
}
