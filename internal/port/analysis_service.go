package port

import (
	"context"
	"time"

	"sentiscope/internal/domain"
)

// OutcomeKind classifies how an analysis call resolved.
type OutcomeKind string

const (
	OutcomeSuccess            OutcomeKind = "success"
	OutcomeApplicationFailure OutcomeKind = "application_failure"
	OutcomeTransportFailure   OutcomeKind = "transport_failure"
)

// AnalysisOutcome is the normalized result of an analysis call.
// Report is set only for OutcomeSuccess. RetryAfter is the back-off the
// service asked for, if any.
type AnalysisOutcome struct {
	Kind       OutcomeKind
	Report     *domain.Report
	Message    string
	RetryAfter time.Duration
}

// Success builds a successful outcome.
func Success(report *domain.Report) AnalysisOutcome {
	return AnalysisOutcome{Kind: OutcomeSuccess, Report: report}
}

// ApplicationFailure builds an outcome for a request the service understood
// but could not fulfil.
func ApplicationFailure(msg string) AnalysisOutcome {
	return AnalysisOutcome{Kind: OutcomeApplicationFailure, Message: msg}
}

// TransportFailure builds an outcome for a failure before any application
// response was available.
func TransportFailure(msg string) AnalysisOutcome {
	return AnalysisOutcome{Kind: OutcomeTransportFailure, Message: msg}
}

// AnalysisService abstracts the remote screenshot analysis service.
type AnalysisService interface {
	// SubmitAnalysis uploads the files with an optional keyword. It never
	// returns an error; failures are folded into the outcome.
	SubmitAnalysis(ctx context.Context, files []domain.FileCandidate, keyword string) AnalysisOutcome
	// CheckAvailability reports whether the service answers its health probe.
	// Any failure means unavailable.
	CheckAvailability(ctx context.Context) bool
}
