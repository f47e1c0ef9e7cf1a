package domain

import "errors"

var (
	ErrNotFound           = errors.New("resource not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionClosed      = errors.New("session is closed")
	ErrIndexOutOfRange    = errors.New("selection index out of range")
	ErrSingleModeOnly     = errors.New("replace is only available in single-file mode")
	ErrSelectionRequired  = errors.New("select at least one screenshot before submitting")
	ErrWorkflowBusy       = errors.New("analysis is already in progress")
	ErrResetRequired      = errors.New("reset the previous result before submitting again")
	ErrReportNotReady     = errors.New("no completed report is available")
	ErrNoValidFiles       = errors.New("no valid screenshots in selection")
	ErrCapacityReached    = errors.New("screenshot limit reached; remove some before adding more")
	ErrPreviewReleased    = errors.New("preview already released")
	ErrAnalysisFailed     = errors.New("analysis failed, please try again")
	ErrServiceUnavailable = errors.New("analysis service unavailable")
)
