package session

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"sentiscope/internal/domain"
	"sentiscope/internal/intake"
	"sentiscope/internal/port"
	"sentiscope/internal/workflow"
)

// DefaultCacheSize bounds the number of live sessions.
const DefaultCacheSize = 256

// PolicyFunc returns the intake policy for a selection mode.
type PolicyFunc func(mode domain.SelectionMode) intake.Policy

// Manager is a bounded registry of sessions. The least recently used
// session is closed when the registry is full.
type Manager struct {
	cache    *lru.Cache[string, *Session]
	service  port.AnalysisService
	previews port.PreviewProvider
	policy   PolicyFunc
	opts     []workflow.Option
}

// NewManager creates a registry holding at most size sessions. A nil policy
// uses intake.DefaultPolicy.
func NewManager(size int, svc port.AnalysisService, previews port.PreviewProvider, policy PolicyFunc, opts ...workflow.Option) (*Manager, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if policy == nil {
		policy = intake.DefaultPolicy
	}
	cache, err := lru.NewWithEvict[string, *Session](size, func(id string, s *Session) {
		log.Printf("session.Manager: releasing session %s", id)
		s.Close(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("creating session cache: %w", err)
	}
	return &Manager{
		cache:    cache,
		service:  svc,
		previews: previews,
		policy:   policy,
		opts:     opts,
	}, nil
}

// Create registers a new idle session.
func (m *Manager) Create(mode domain.SelectionMode) *Session {
	s := New(uuid.New().String(), mode, m.policy(mode), m.service, m.previews, m.opts...)
	m.cache.Add(s.ID, s)
	log.Printf("session.Manager.Create: %s (%s mode)", s.ID, mode)
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.cache.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Delete closes and forgets the session with id.
func (m *Manager) Delete(id string) error {
	if !m.cache.Remove(id) {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.cache.Len()
}

// Close tears down every session.
func (m *Manager) Close() {
	m.cache.Purge()
}
