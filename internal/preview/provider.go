// Package preview issues temporary display URLs for selected screenshots.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentiscope/internal/domain"
	"sentiscope/internal/port"
)

const DefaultExpiry = time.Hour

// Provider stores each screenshot under a unique key and hands out a
// presigned URL for it. Releasing a preview deletes the object.
type Provider struct {
	storage port.ObjectStorage
	prefix  string
	expiry  time.Duration

	mu   sync.Mutex
	live map[string]struct{}
}

// NewProvider creates a provider writing under prefix. A non-positive expiry
// uses DefaultExpiry.
func NewProvider(storage port.ObjectStorage, prefix string, expiry time.Duration) *Provider {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Provider{
		storage: storage,
		prefix:  strings.Trim(prefix, "/"),
		expiry:  expiry,
		live:    make(map[string]struct{}),
	}
}

func (p *Provider) Acquire(ctx context.Context, file domain.FileCandidate) (*port.Preview, error) {
	key := p.key(file.Name)
	err := p.storage.Put(ctx, port.PutInput{
		Key:         key,
		Body:        bytes.NewReader(file.Data),
		ContentType: file.MimeType,
		Size:        file.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("storing preview: %w", err)
	}

	url, err := p.storage.PresignGet(ctx, key, p.expiry)
	if err != nil {
		if delErr := p.storage.Delete(ctx, key); delErr != nil {
			log.Printf("preview.Acquire: cleanup of %s failed: %v", key, delErr)
		}
		return nil, fmt.Errorf("presigning preview: %w", err)
	}

	p.mu.Lock()
	p.live[key] = struct{}{}
	p.mu.Unlock()

	return &port.Preview{Key: key, URL: url}, nil
}

func (p *Provider) Release(ctx context.Context, preview *port.Preview) error {
	if preview == nil {
		return nil
	}
	p.mu.Lock()
	_, ok := p.live[preview.Key]
	delete(p.live, preview.Key)
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("release %s: %w", preview.Key, domain.ErrPreviewReleased)
	}

	if err := p.storage.Delete(ctx, preview.Key); err != nil {
		return fmt.Errorf("deleting preview: %w", err)
	}
	return nil
}

// Live returns the number of acquired previews not yet released.
func (p *Provider) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

func (p *Provider) key(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "screenshot"
	}
	if p.prefix == "" {
		return uuid.New().String() + "/" + base
	}
	return p.prefix + "/" + uuid.New().String() + "/" + base
}
