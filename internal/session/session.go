// Package session binds a selection store and an analysis workflow into one
// user session.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"sentiscope/internal/domain"
	"sentiscope/internal/intake"
	"sentiscope/internal/logging"
	"sentiscope/internal/port"
	"sentiscope/internal/selection"
	"sentiscope/internal/workflow"
)

var errUnchanged = errors.New("selection unchanged")

// Session is one user's selection and analysis workflow.
type Session struct {
	ID        string
	Mode      domain.SelectionMode
	CreatedAt time.Time

	policy   intake.Policy
	store    *selection.Store
	workflow *workflow.Workflow

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	notice intake.Notice
	closed bool
}

// New creates an idle session. previews may be nil.
func New(id string, mode domain.SelectionMode, policy intake.Policy, svc port.AnalysisService, previews port.PreviewProvider, opts ...workflow.Option) *Session {
	store := selection.NewStore(mode, previews)
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:        id,
		Mode:      mode,
		CreatedAt: time.Now().UTC(),
		policy:    policy,
		store:     store,
		workflow:  workflow.New(svc, store, opts...),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Policy returns the intake policy applied to new files.
func (s *Session) Policy() intake.Policy {
	return s.policy
}

// AddResult is the outcome of offering a batch of files to a session.
type AddResult struct {
	Accepted []domain.FileCandidate `json:"accepted"`
	Rejected []domain.Rejection     `json:"rejected"`
	Notice   intake.Notice          `json:"notice"`
}

// AddFiles validates candidates and applies the accepted ones. In single
// mode the first accepted file replaces the current selection; in multi mode
// accepted files are appended. A batch that accepts nothing leaves the
// selection and the workflow state untouched.
//
// Previews are acquired before the workflow lock is taken. The batch is
// validated again under the lock and previews of files that no longer pass
// are released.
func (s *Session) AddFiles(ctx context.Context, candidates []domain.FileCandidate) (*AddResult, error) {
	if s.isClosed() {
		return nil, domain.ErrSessionClosed
	}
	if s.workflow.State().Status.Busy() {
		return nil, domain.ErrWorkflowBusy
	}

	pending := s.prepare(ctx, candidates)
	var res intake.Result
	var notice intake.Notice
	var displaced []selection.Entry

	err := s.workflow.ChangeSelection(func() error {
		existing := s.existing()
		res = intake.Validate(candidates, existing, s.policy)
		notice = intake.NoticeFor(res, len(candidates), len(existing), s.policy.MaxCount)
		if len(res.Accepted) == 0 {
			return errUnchanged
		}
		if s.Mode == domain.SelectionModeSingle {
			old, err := s.store.Swap(ctx, pending.take(res.Accepted[0]))
			displaced = old
			return err
		}
		entries := make([]selection.Entry, len(res.Accepted))
		for i, f := range res.Accepted {
			entries[i] = pending.take(f)
		}
		return s.store.Append(ctx, entries)
	})
	s.store.Release(ctx, pending.rest()...)
	s.store.Release(ctx, displaced...)
	if err != nil && !errors.Is(err, errUnchanged) {
		return nil, err
	}

	s.setNotice(notice)
	logging.Debugf("session.AddFiles: %s accepted %d, rejected %d", s.ID, len(res.Accepted), len(res.Rejected))
	return &AddResult{Accepted: res.Accepted, Rejected: res.Rejected, Notice: notice}, nil
}

// RemoveFile removes the file at index.
func (s *Session) RemoveFile(ctx context.Context, index int) error {
	if s.isClosed() {
		return domain.ErrSessionClosed
	}
	var removed selection.Entry
	err := s.workflow.ChangeSelection(func() error {
		var err error
		removed, err = s.store.Take(index)
		return err
	})
	if err != nil {
		return err
	}
	s.store.Release(ctx, removed)
	s.setNotice(intake.Notice{})
	return nil
}

// ClearFiles empties the selection.
func (s *Session) ClearFiles(ctx context.Context) error {
	if s.isClosed() {
		return domain.ErrSessionClosed
	}
	var removed []selection.Entry
	err := s.workflow.ChangeSelection(func() error {
		removed = s.store.TakeAll()
		return nil
	})
	if err != nil {
		return err
	}
	s.store.Release(ctx, removed...)
	s.setNotice(intake.Notice{})
	return nil
}

// Start begins an analysis of the current selection in the background. The
// attempt is bound to the session's lifetime, not to ctx of the caller.
func (s *Session) Start(keyword string) (<-chan workflow.State, error) {
	if s.isClosed() {
		return nil, domain.ErrSessionClosed
	}
	return s.workflow.Start(s.ctx, keyword)
}

// Submit runs an analysis of the current selection and waits for it.
func (s *Session) Submit(ctx context.Context, keyword string) (workflow.State, error) {
	if s.isClosed() {
		return s.workflow.State(), domain.ErrSessionClosed
	}
	return s.workflow.Submit(ctx, keyword)
}

// Reset returns a finished session to Idle.
func (s *Session) Reset(ctx context.Context) error {
	if s.isClosed() {
		return domain.ErrSessionClosed
	}
	if err := s.workflow.Reset(ctx); err != nil {
		return err
	}
	s.setNotice(intake.Notice{})
	return nil
}

// State returns the workflow state.
func (s *Session) State() workflow.State {
	return s.workflow.State()
}

// Report returns the completed report.
func (s *Session) Report() (*domain.Report, error) {
	return s.workflow.Report()
}

// Subscribe streams workflow states; see workflow.Workflow.Subscribe.
func (s *Session) Subscribe(buffer int) (<-chan workflow.State, func()) {
	return s.workflow.Subscribe(buffer)
}

// Snapshot is the display view of a session.
type Snapshot struct {
	ID        string                `json:"id"`
	Mode      domain.SelectionMode  `json:"mode"`
	MaxFiles  int                   `json:"max_files"`
	Status    domain.AnalysisStatus `json:"status"`
	Message   string                `json:"message,omitempty"`
	HasReport bool                  `json:"has_report"`
	Selection []selection.Entry     `json:"selection"`
	Notice    intake.Notice         `json:"notice"`
	CreatedAt time.Time             `json:"created_at"`
}

// Snapshot returns the current display view.
func (s *Session) Snapshot() Snapshot {
	st := s.workflow.State()
	s.mu.Lock()
	notice := s.notice
	s.mu.Unlock()

	entries := s.store.Entries()
	if entries == nil {
		entries = []selection.Entry{}
	}
	return Snapshot{
		ID:        s.ID,
		Mode:      s.Mode,
		MaxFiles:  s.policy.MaxCount,
		Status:    st.Status,
		Message:   st.Message,
		HasReport: st.Report != nil,
		Selection: entries,
		Notice:    notice,
		CreatedAt: s.CreatedAt,
	}
}

// Close cancels any in-flight attempt and releases every preview. Later
// selection changes and submits fail with domain.ErrSessionClosed, and an
// add that was acquiring previews when Close ran releases them itself. It is
// safe to call more than once.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.store.Close(ctx)
	log.Printf("session.Close: %s closed", s.ID)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) setNotice(n intake.Notice) {
	s.mu.Lock()
	s.notice = n
	s.mu.Unlock()
}

// existing is the selection new files are validated against. Single mode
// replaces rather than appends, so nothing is held against the batch.
func (s *Session) existing() []domain.FileCandidate {
	if s.Mode == domain.SelectionModeSingle {
		return nil
	}
	return s.store.Files()
}

// prepare acquires previews for the files a batch would add against the
// current selection.
func (s *Session) prepare(ctx context.Context, candidates []domain.FileCandidate) pendingEntries {
	accepted := intake.Validate(candidates, s.existing(), s.policy).Accepted
	if s.Mode == domain.SelectionModeSingle && len(accepted) > 1 {
		accepted = accepted[:1]
	}
	pending := make(pendingEntries, len(accepted))
	for _, e := range s.store.Acquire(ctx, accepted) {
		pending[e.File.DedupKey()] = e
	}
	return pending
}

// pendingEntries are prepared entries keyed by file identity.
type pendingEntries map[string]selection.Entry

// take hands out the prepared entry for f. A file that became acceptable only
// after preparing, because the selection shrank meanwhile, gets no preview.
func (p pendingEntries) take(f domain.FileCandidate) selection.Entry {
	key := f.DedupKey()
	e, ok := p[key]
	if !ok {
		return selection.Entry{File: f}
	}
	delete(p, key)
	return e
}

// rest returns the entries nobody took.
func (p pendingEntries) rest() []selection.Entry {
	out := make([]selection.Entry, 0, len(p))
	for _, e := range p {
		out = append(out, e)
	}
	return out
}
