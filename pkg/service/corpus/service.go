package corpus

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/errutil"
	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

// ErrUnavailable marks a refresh failure with no prior snapshot to fall
// back on. It is logged, not returned: callers get an empty corpus and
// treat it as "no answer available".
var ErrUnavailable = goerr.New("corpus unavailable")

// DefaultTTL is how long a corpus snapshot stays fresh
const DefaultTTL = time.Hour

// Service serves read-only corpus snapshots. A snapshot is held for the TTL
// and then refreshed on the next call; if the refresh fails and a previous
// snapshot exists, the stale snapshot is served instead of an error.
type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	docs      []model.Document
	fetchedAt time.Time
}

// Option is a functional option for Service configuration
type Option func(*Service)

// WithTTL overrides the snapshot freshness window
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a corpus service over the given store
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, goerr.New("corpus store is required")
	}

	s := &Service{
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Snapshot returns the current corpus documents. An empty corpus is a valid
// snapshot, not an error.
func (s *Service) Snapshot(ctx context.Context) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.fetchedAt.IsZero() && now.Sub(s.fetchedAt) < s.ttl {
		return s.docs, nil
	}

	docs, err := s.store.List(ctx)
	if err != nil {
		if !s.fetchedAt.IsZero() {
			logging.From(ctx).Warn("corpus refresh failed, serving stale snapshot",
				"error", err, "age", now.Sub(s.fetchedAt).String())
			return s.docs, nil
		}
		errutil.Handle(ctx, goerr.Wrap(ErrUnavailable, "failed to load corpus",
			goerr.V("cause", err.Error())), "corpus load failed")
		return nil, nil
	}

	s.docs = docs
	s.fetchedAt = now

	logging.From(ctx).Info("corpus snapshot refreshed", "documents", len(docs))

	return s.docs, nil
}

// Invalidate drops the current snapshot so the next call refetches
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchedAt = time.Time{}
	s.docs = nil
}
