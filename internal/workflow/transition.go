// Package workflow sequences one analysis attempt:
// idle → uploading → analyzing → complete | error, and back to idle on reset.
package workflow

import "sentiscope/internal/domain"

// State is the active workflow state. Report is set only when Complete and
// Message only when Error.
type State struct {
	Status  domain.AnalysisStatus `json:"status"`
	Report  *domain.Report        `json:"report,omitempty"`
	Message string                `json:"message,omitempty"`
}

// Idle is the initial state.
func Idle() State {
	return State{Status: domain.StatusIdle}
}

// EventKind names an input to the state machine.
type EventKind string

const (
	EventSubmit           EventKind = "submit"
	EventStageElapsed     EventKind = "stage_elapsed"
	EventSucceeded        EventKind = "succeeded"
	EventFailed           EventKind = "failed"
	EventReset            EventKind = "reset"
	EventSelectionChanged EventKind = "selection_changed"
)

// Event is an input to Transition. SelectionSize is read for EventSubmit,
// Report for EventSucceeded and Message for EventFailed.
type Event struct {
	Kind          EventKind
	SelectionSize int
	Report        *domain.Report
	Message       string
}

// Transition returns the state that follows s on ev. The boolean is false
// when ev is not defined for s, in which case s is returned unchanged.
func Transition(s State, ev Event) (State, bool) {
	switch ev.Kind {
	case EventSubmit:
		if s.Status == domain.StatusIdle && ev.SelectionSize > 0 {
			return State{Status: domain.StatusUploading}, true
		}
	case EventStageElapsed:
		if s.Status == domain.StatusUploading {
			return State{Status: domain.StatusAnalyzing}, true
		}
	case EventSucceeded:
		if s.Status == domain.StatusAnalyzing && ev.Report != nil {
			return State{Status: domain.StatusComplete, Report: ev.Report}, true
		}
	case EventFailed:
		if s.Status == domain.StatusAnalyzing {
			return State{Status: domain.StatusError, Message: ev.Message}, true
		}
	case EventReset, EventSelectionChanged:
		if !s.Status.Busy() {
			return Idle(), true
		}
	}
	return s, false
}
