package analysis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"sentiscope/internal/config"
	"sentiscope/internal/domain"
	"sentiscope/internal/port"
)

// DefaultCooldown is how long a backend is skipped after a transport failure
// that carried no Retry-After hint.
const DefaultCooldown = 30 * time.Second

// circuitState tracks back-off for a single backend.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

func (c *circuitState) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = time.Time{}
}

// Failover tries analysis backends in order, skipping those cooling down
// after a transport failure. An application failure is final: the backend
// answered, so the next one is not consulted.
// It implements port.AnalysisService.
type Failover struct {
	services []port.AnalysisService
	names    []string
	circuits []*circuitState
	cooldown time.Duration
	now      func() time.Time
}

// NewFailover creates a Failover from an ordered list of backends and their
// names. A non-positive cooldown uses DefaultCooldown.
func NewFailover(services []port.AnalysisService, names []string, cooldown time.Duration) *Failover {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	circuits := make([]*circuitState, len(services))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &Failover{
		services: services,
		names:    names,
		circuits: circuits,
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (f *Failover) SubmitAnalysis(ctx context.Context, files []domain.FileCandidate, keyword string) port.AnalysisOutcome {
	now := f.now()
	var last *port.AnalysisOutcome
	var earliestReset time.Time

	for i, svc := range f.services {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Printf("analysis.Failover: skipping %s (cooling down until %s)", f.names[i], resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out := svc.SubmitAnalysis(ctx, files, keyword)
		if out.Kind != port.OutcomeTransportFailure {
			f.circuits[i].close()
			return out
		}

		log.Printf("analysis.Failover: %s failed: %s", f.names[i], out.Message)
		last = &out
		if ctx.Err() != nil {
			return out
		}

		backoff := out.RetryAfter
		if backoff <= 0 {
			backoff = f.cooldown
		}
		resetAt := now.Add(backoff)
		f.circuits[i].open(resetAt)
		if earliestReset.IsZero() || resetAt.Before(earliestReset) {
			earliestReset = resetAt
		}
	}

	if last != nil {
		return *last
	}

	// Every backend was skipped.
	retryAfter := earliestReset.Sub(now)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	out := port.TransportFailure(fmt.Sprintf("all analysis services are unavailable, retry in %ds", int(retryAfter.Seconds())))
	out.RetryAfter = retryAfter
	return out
}

// CheckAvailability reports whether any backend answers its health probe.
func (f *Failover) CheckAvailability(ctx context.Context) bool {
	for _, svc := range f.services {
		if svc.CheckAvailability(ctx) {
			return true
		}
	}
	return false
}

// NewService builds the analysis service for cfg: a single Client, or a
// Failover over the primary and fallback URLs when fallbacks are configured.
func NewService(cfg *config.AnalysisConfig) port.AnalysisService {
	primary := NewClient(cfg)
	if len(cfg.FallbackURLs) == 0 {
		return primary
	}

	services := []port.AnalysisService{primary}
	names := []string{cfg.BaseURL}
	for _, u := range cfg.FallbackURLs {
		fc := *cfg
		fc.BaseURL = u
		fc.FallbackURLs = nil
		services = append(services, NewClient(&fc))
		names = append(names, u)
	}
	return NewFailover(services, names, time.Duration(cfg.CooldownSecs)*time.Second)
}
