package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/cachekeys"
)

type fakePromocodeRepo struct {
	mu     sync.Mutex
	rec    *opRecorder
	promos map[string]domain.Promocode
}

func newFakePromocodeRepo(rec *opRecorder) *fakePromocodeRepo {
	return &fakePromocodeRepo{rec: rec, promos: make(map[string]domain.Promocode)}
}

func (f *fakePromocodeRepo) ListActive(ctx context.Context) ([]domain.Promocode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.record("repo.list")
	var out []domain.Promocode
	for _, p := range f.promos {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePromocodeRepo) GetByCode(ctx context.Context, code string) (*domain.Promocode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.promos[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakePromocodeRepo) Create(ctx context.Context, promo domain.Promocode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.record("repo.create")
	if _, exists := f.promos[promo.Code]; exists {
		return domain.ErrInvalidArgument
	}
	f.promos[promo.Code] = promo
	return nil
}

func (f *fakePromocodeRepo) Disable(ctx context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.record("repo.disable")
	p, ok := f.promos[code]
	if !ok || !p.Enabled {
		return false, nil
	}
	p.Enabled = false
	f.promos[code] = p
	return true, nil
}

func (f *fakePromocodeRepo) GetByCodes(ctx context.Context, codes []string) (map[string]domain.Promocode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[string]domain.Promocode, len(codes))
	for _, code := range codes {
		if p, ok := f.promos[code]; ok {
			result[code] = p
		}
	}
	return result, nil
}

func newPromocodeFixture(t *testing.T) (*PromocodeService, *fakePromocodeRepo, *opRecorder) {
	t.Helper()
	rec := &opRecorder{}
	repo := newFakePromocodeRepo(rec)
	cache := newRecordingCache(rec)
	service := NewPromocodeService(nopLogger{}, testConfig(), repo, cache, &capturingPublisher{})
	return service, repo, rec
}

func TestPromocodeService_CreateThenRead(t *testing.T) {
	service, _, rec := newPromocodeFixture(t)
	actor := uuid.New()
	ctx := context.Background()

	_, err := service.Read(ctx)
	require.NoError(t, err)

	change := domain.PromocodeChange{
		Kind:      domain.PromocodeCreate,
		Code:      "  summer10  ",
		Percent:   10,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, service.Mutate(ctx, actor, change))

	writeIdx := rec.indexOf("repo.create")
	invalidateIdx := rec.indexOf("cache.deleteprefix:" + cachekeys.PromocodesPrefix)
	require.GreaterOrEqual(t, writeIdx, 0)
	require.GreaterOrEqual(t, invalidateIdx, 0)
	assert.Less(t, writeIdx, invalidateIdx)

	promos, err := service.Read(ctx)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, "SUMMER10", promos[0].Code)
}

func TestPromocodeService_CreateValidation(t *testing.T) {
	service, _, _ := newPromocodeFixture(t)
	actor := uuid.New()
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	cases := []domain.PromocodeChange{
		{Kind: domain.PromocodeCreate, Code: "", Percent: 10, ExpiresAt: future},
		{Kind: domain.PromocodeCreate, Code: "OK", Percent: 0, ExpiresAt: future},
		{Kind: domain.PromocodeCreate, Code: "OK", Percent: 101, ExpiresAt: future},
		{Kind: domain.PromocodeCreate, Code: "OK", Percent: 10, ExpiresAt: time.Now().Add(-time.Hour)},
	}
	for _, change := range cases {
		err := service.Mutate(ctx, actor, change)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, "change %+v", change)
	}
}

func TestPromocodeService_CreateDuplicate(t *testing.T) {
	service, _, _ := newPromocodeFixture(t)
	actor := uuid.New()
	ctx := context.Background()
	change := domain.PromocodeChange{Kind: domain.PromocodeCreate, Code: "TWICE", Percent: 5, ExpiresAt: time.Now().Add(time.Hour)}

	require.NoError(t, service.Mutate(ctx, actor, change))
	err := service.Mutate(ctx, actor, change)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestPromocodeService_DisableIsIdempotent(t *testing.T) {
	service, _, _ := newPromocodeFixture(t)
	actor := uuid.New()
	ctx := context.Background()

	require.NoError(t, service.Mutate(ctx, actor, domain.PromocodeChange{
		Kind: domain.PromocodeCreate, Code: "GONE", Percent: 5, ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, service.Mutate(ctx, actor, domain.PromocodeChange{Kind: domain.PromocodeDisable, Code: "GONE"}))
	require.NoError(t, service.Mutate(ctx, actor, domain.PromocodeChange{Kind: domain.PromocodeDisable, Code: "GONE"}))
	require.NoError(t, service.Mutate(ctx, actor, domain.PromocodeChange{Kind: domain.PromocodeDisable, Code: "NEVER-EXISTED"}))

	promos, err := service.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, promos)
}

func TestPromocodeService_Status(t *testing.T) {
	service, repo, _ := newPromocodeFixture(t)
	now := time.Now()

	repo.promos["LIVE"] = domain.Promocode{Code: "LIVE", Percent: 10, Enabled: true, ExpiresAt: now.Add(time.Hour)}
	repo.promos["EXPIRED"] = domain.Promocode{Code: "EXPIRED", Percent: 10, Enabled: true, ExpiresAt: now.Add(-time.Hour)}
	repo.promos["DISABLED"] = domain.Promocode{Code: "DISABLED", Percent: 10, Enabled: false, ExpiresAt: now.Add(time.Hour)}

	status, err := service.Status(context.Background(), []string{"live", "EXPIRED", "DISABLED", "MISSING"})
	require.NoError(t, err)
	assert.True(t, status["LIVE"])
	assert.False(t, status["EXPIRED"])
	assert.False(t, status["DISABLED"])
	assert.False(t, status["MISSING"])

	empty, err := service.Status(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPromocodeService_BatchMutateSingleInvalidation(t *testing.T) {
	service, _, rec := newPromocodeFixture(t)
	actor := uuid.New()
	future := time.Now().Add(time.Hour)

	changes := []domain.PromocodeChange{
		{Kind: domain.PromocodeCreate, Code: "A", Percent: 5, ExpiresAt: future},
		{Kind: domain.PromocodeCreate, Code: "B", Percent: 10, ExpiresAt: future},
		{Kind: domain.PromocodeDisable, Code: "A"},
	}
	require.NoError(t, service.BatchMutate(context.Background(), actor, changes))
	assert.Equal(t, 1, countOps(rec, "cache.deleteprefix:"+cachekeys.PromocodesPrefix))
}
