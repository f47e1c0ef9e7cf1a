// Package memory is an in-process ObjectStorage used when no bucket is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"sentiscope/internal/domain"
	"sentiscope/internal/port"
)

type object struct {
	data        []byte
	contentType string
}

// Store keeps objects in a map keyed by object key.
type Store struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]object
}

// NewStore creates an empty store. Presigned URLs are built on baseURL.
func NewStore(baseURL string) *Store {
	if baseURL == "" {
		baseURL = "memory://previews"
	}
	return &Store{baseURL: baseURL, objects: make(map[string]object)}
}

func (s *Store) Put(_ context.Context, input port.PutInput) error {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return fmt.Errorf("memory put %s: %w", input.Key, err)
	}
	s.mu.Lock()
	s.objects[input.Key] = object{data: data, contentType: input.ContentType}
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("memory presign %s: %w", key, domain.ErrNotFound)
	}
	q := url.Values{}
	q.Set("expires", fmt.Sprintf("%d", int64(expiry.Seconds())))
	return s.baseURL + "/" + (&url.URL{Path: key}).EscapedPath() + "?" + q.Encode(), nil
}

// Get returns an object's content and type.
func (s *Store) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[key]
	return o.data, o.contentType, ok
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
