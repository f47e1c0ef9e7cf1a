package workflow

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"sentiscope/internal/domain"
	"sentiscope/internal/logging"
	"sentiscope/internal/port"
)

// DefaultStageDelay is the pause between entering Uploading and issuing the
// analysis call.
const DefaultStageDelay = 800 * time.Millisecond

// Selection is the view of the selection store the workflow needs.
type Selection interface {
	Files() []domain.FileCandidate
	Clear(ctx context.Context)
}

// Workflow drives the state machine for one session. At most one submit is
// outstanding; user actions during Uploading or Analyzing are refused.
type Workflow struct {
	mu         sync.Mutex
	state      State
	service    port.AnalysisService
	selection  Selection
	stageDelay time.Duration

	subs    map[int]chan State
	nextSub int
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithStageDelay overrides the pause before the analysis call.
func WithStageDelay(d time.Duration) Option {
	return func(w *Workflow) {
		if d >= 0 {
			w.stageDelay = d
		}
	}
}

// New creates an idle workflow.
func New(service port.AnalysisService, selection Selection, opts ...Option) *Workflow {
	w := &Workflow{
		state:      Idle(),
		service:    service,
		selection:  selection,
		stageDelay: DefaultStageDelay,
		subs:       make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Report returns the completed report, or ErrReportNotReady.
func (w *Workflow) Report() (*domain.Report, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Status != domain.StatusComplete || w.state.Report == nil {
		return nil, domain.ErrReportNotReady
	}
	return w.state.Report, nil
}

// Submit runs one analysis attempt to completion and returns the terminal
// state. Guard errors (ErrSelectionRequired, ErrWorkflowBusy,
// ErrResetRequired) leave the state unchanged and no call is made.
func (w *Workflow) Submit(ctx context.Context, keyword string) (State, error) {
	files, err := w.begin()
	if err != nil {
		return w.State(), err
	}
	return w.run(ctx, files, keyword), nil
}

// Start is Submit with the guard evaluated synchronously and the attempt run
// in the background. The returned channel yields the terminal state once.
func (w *Workflow) Start(ctx context.Context, keyword string) (<-chan State, error) {
	files, err := w.begin()
	if err != nil {
		return nil, err
	}
	done := make(chan State, 1)
	go func() {
		done <- w.run(ctx, files, keyword)
		close(done)
	}()
	return done, nil
}

// Reset returns a finished workflow to Idle and drops its report. Resetting
// a complete run also clears the selection; after an error the selection is
// kept so the user can retry.
func (w *Workflow) Reset(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Status.Busy() {
		return domain.ErrWorkflowBusy
	}
	prev := w.state.Status
	w.applyLocked(Event{Kind: EventReset})
	if prev == domain.StatusComplete {
		w.selection.Clear(ctx)
	}
	return nil
}

// ChangeSelection runs mutate while no submit can start, then returns the
// workflow to Idle, discarding any report or error. It is refused while an
// attempt is in flight. When mutate fails the state is left as is.
func (w *Workflow) ChangeSelection(mutate func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Status.Busy() {
		return domain.ErrWorkflowBusy
	}
	if err := mutate(); err != nil {
		return err
	}
	w.applyLocked(Event{Kind: EventSelectionChanged})
	return nil
}

// Subscribe registers for state changes. The channel receives the current
// state first, then every transition. Slow subscribers miss intermediate
// states rather than blocking the workflow. Call cancel to unsubscribe.
func (w *Workflow) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)

	w.mu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch
	ch <- w.state
	w.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subs, id)
			close(ch)
			w.mu.Unlock()
		})
	}
}

func (w *Workflow) begin() ([]domain.FileCandidate, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.state.Status.Busy():
		return nil, domain.ErrWorkflowBusy
	case w.state.Status != domain.StatusIdle:
		return nil, domain.ErrResetRequired
	}

	files := w.selection.Files()
	if !w.applyLocked(Event{Kind: EventSubmit, SelectionSize: len(files)}) {
		return nil, domain.ErrSelectionRequired
	}
	return files, nil
}

func (w *Workflow) run(ctx context.Context, files []domain.FileCandidate, keyword string) State {
	if err := sleep(ctx, w.stageDelay); err != nil {
		// Interrupted before the call: pass through Analyzing so the failure
		// lands on a defined transition.
		w.apply(Event{Kind: EventStageElapsed})
		return w.apply(Event{Kind: EventFailed, Message: "analysis cancelled: " + err.Error()})
	}
	w.apply(Event{Kind: EventStageElapsed})

	keyword = strings.TrimSpace(keyword)
	logging.Debugf("workflow.run: submitting %d screenshots (keyword %q)", len(files), keyword)

	outcome := w.service.SubmitAnalysis(ctx, files, keyword)
	ev := eventFor(outcome)
	if ev.Kind == EventFailed {
		log.Printf("workflow.run: analysis failed (%s): %s", outcome.Kind, ev.Message)
	} else {
		logging.Debugf("workflow.run: analysis %s complete, %d posts", ev.Report.AnalysisID, ev.Report.TotalPosts)
	}
	return w.apply(ev)
}

// eventFor maps a normalized service outcome to a workflow event. A success
// without a report counts as an application failure.
func eventFor(o port.AnalysisOutcome) Event {
	if o.Kind == port.OutcomeSuccess && o.Report != nil {
		return Event{Kind: EventSucceeded, Report: o.Report}
	}
	msg := strings.TrimSpace(o.Message)
	if msg == "" {
		msg = domain.ErrAnalysisFailed.Error()
	}
	return Event{Kind: EventFailed, Message: msg}
}

func (w *Workflow) apply(ev Event) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.applyLocked(ev)
	return w.state
}

func (w *Workflow) applyLocked(ev Event) bool {
	next, ok := Transition(w.state, ev)
	if !ok {
		return false
	}
	w.state = next
	for _, ch := range w.subs {
		select {
		case ch <- next:
		default:
		}
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
