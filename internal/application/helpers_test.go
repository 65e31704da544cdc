package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/config"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Fatal(ctx context.Context, msg string, args ...any) {}
func (l nopLogger) With(args ...any) domain.Logger                   { return l }

type stubConfig struct {
	cfg config.Config
}

func (s *stubConfig) Get() *config.Config { return &s.cfg }

func testConfig() *stubConfig {
	return &stubConfig{cfg: config.Config{
		Cache: config.CacheConfig{
			CartTTLSeconds:       300,
			FavoritesTTLSeconds:  300,
			ProfileTTLSeconds:    600,
			OrdersTTLSeconds:     600,
			PromocodesTTLSeconds: 60,
		},
		Auth: config.AuthConfig{
			JWTSecret:              "test-secret-please-rotate",
			AccessTokenTTLSeconds:  900,
			RefreshTokenTTLSeconds: 3600,
		},
	}}
}

// opRecorder tracks the order of repository writes and cache operations so
// tests can assert that invalidation happens after the durable write.
type opRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *opRecorder) record(op string) {
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
}

func (r *opRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

func (r *opRecorder) indexOf(op string) int {
	for i, recorded := range r.list() {
		if recorded == op {
			return i
		}
	}
	return -1
}

// recordingCache is an in-memory domain.CacheStore that records every call.
type recordingCache struct {
	rec     *opRecorder
	mu      sync.Mutex
	entries map[string][]byte

	failDeletes int // number of Delete/DeletePrefix calls to fail first
}

func newRecordingCache(rec *opRecorder) *recordingCache {
	return &recordingCache{rec: rec, entries: make(map[string][]byte)}
}

func (c *recordingCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rec.record("cache.get:" + key)
	value, ok := c.entries[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return value, nil
}

func (c *recordingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rec.record("cache.set:" + key)
	c.entries[key] = value
	return nil
}

func (c *recordingCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if value, err := c.Get(ctx, key); err == nil {
		return value, nil
	}
	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		return nil, err
	}
	return value, nil
}

func (c *recordingCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failDeletes > 0 {
		c.failDeletes--
		c.rec.record("cache.delete.fail")
		return domain.ErrUnavailable
	}
	for _, key := range keys {
		c.rec.record("cache.delete:" + key)
		delete(c.entries, key)
	}
	return nil
}

func (c *recordingCache) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failDeletes > 0 {
		c.failDeletes--
		c.rec.record("cache.deleteprefix.fail")
		return domain.ErrUnavailable
	}
	c.rec.record("cache.deleteprefix:" + prefix)
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// capturingPublisher collects published events.
type capturingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *capturingPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return nil
}

func (p *capturingPublisher) list() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Event(nil), p.events...)
}

// fakeProfiles satisfies domain.ProfileRepository for user-existence checks
// and profile mutations.
type fakeProfiles struct {
	mu       sync.Mutex
	rec      *opRecorder
	profiles map[uuid.UUID]*domain.Profile
}

func newFakeProfiles(rec *opRecorder, users ...uuid.UUID) *fakeProfiles {
	f := &fakeProfiles{rec: rec, profiles: make(map[uuid.UUID]*domain.Profile)}
	for _, id := range users {
		f.profiles[id] = &domain.Profile{ID: id, Name: "user", Email: id.String() + "@example.com"}
	}
	return f
}

func (f *fakeProfiles) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfiles) Create(ctx context.Context, profile *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *profile
	f.profiles[profile.ID] = &cp
	return nil
}

func (f *fakeProfiles) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	return f.update(id, func(p *domain.Profile) { p.Name = name }, "repo.update_name")
}

func (f *fakeProfiles) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	return f.update(id, func(p *domain.Profile) { p.Email = email }, "repo.update_email")
}

func (f *fakeProfiles) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return f.update(id, func(p *domain.Profile) { p.PasswordHash = hash }, "repo.update_password")
}

func (f *fakeProfiles) update(id uuid.UUID, mutate func(*domain.Profile), op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec != nil {
		f.rec.record(op)
	}
	p, ok := f.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	mutate(p)
	return nil
}

func (f *fakeProfiles) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.profiles[id]
	return ok, nil
}

func (f *fakeProfiles) ExistingUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		_, ok := f.profiles[id]
		result[id] = ok
	}
	return result, nil
}

// fakeCatalog reports a fixed product set as existing.
type fakeCatalog struct {
	products map[int64]bool
}

func newFakeCatalog(ids ...int64) *fakeCatalog {
	f := &fakeCatalog{products: make(map[int64]bool)}
	for _, id := range ids {
		f.products[id] = true
	}
	return f
}

func (f *fakeCatalog) Exists(ctx context.Context, productID int64) (bool, error) {
	return f.products[productID], nil
}
