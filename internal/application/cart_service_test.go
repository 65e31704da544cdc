package application

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/cachekeys"
)

type fakeCartRepo struct {
	mu    sync.Mutex
	rec   *opRecorder
	items map[uuid.UUID]map[int64]domain.CartItem
}

func newFakeCartRepo(rec *opRecorder) *fakeCartRepo {
	return &fakeCartRepo{rec: rec, items: make(map[uuid.UUID]map[int64]domain.CartItem)}
}

func (f *fakeCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.record("repo.list")
	var out []domain.CartItem
	for _, item := range f.items[userID] {
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeCartRepo) Upsert(ctx context.Context, item domain.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.record("repo.upsert")
	cart, ok := f.items[item.UserID]
	if !ok {
		cart = make(map[int64]domain.CartItem)
		f.items[item.UserID] = cart
	}
	if existing, ok := cart[item.ProductID]; ok {
		existing.Quantity += item.Quantity
		cart[item.ProductID] = existing
		return nil
	}
	item.AddedAt = time.Now()
	cart[item.ProductID] = item
	return nil
}

func (f *fakeCartRepo) SetQuantity(ctx context.Context, userID uuid.UUID, productID int64, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.record("repo.set_quantity")
	cart := f.items[userID]
	item, ok := cart[productID]
	if !ok {
		return domain.ErrNotFound
	}
	item.Quantity = quantity
	cart[productID] = item
	return nil
}

func (f *fakeCartRepo) Delete(ctx context.Context, userID uuid.UUID, productID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.record("repo.delete")
	cart := f.items[userID]
	if _, ok := cart[productID]; !ok {
		return false, nil
	}
	delete(cart, productID)
	return true, nil
}

func (f *fakeCartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec.record("repo.clear")
	delete(f.items, userID)
	return nil
}

func (f *fakeCartRepo) ExistingProducts(ctx context.Context, userID uuid.UUID, productIDs []int64) (map[int64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart := f.items[userID]
	result := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		_, ok := cart[id]
		result[id] = ok
	}
	return result, nil
}

func newCartFixture(t *testing.T, userID uuid.UUID, products ...int64) (*CartService, *fakeCartRepo, *recordingCache, *opRecorder, *capturingPublisher) {
	t.Helper()
	rec := &opRecorder{}
	repo := newFakeCartRepo(rec)
	cache := newRecordingCache(rec)
	events := &capturingPublisher{}
	service := NewCartService(nopLogger{}, testConfig(), repo, newFakeProfiles(nil, userID), newFakeCatalog(products...), cache, events)
	return service, repo, cache, rec, events
}

func TestCartService_AddThenRead(t *testing.T) {
	userID := uuid.New()
	service, _, _, _, events := newCartFixture(t, userID, 7)
	ctx := context.Background()

	require.NoError(t, service.Mutate(ctx, userID, domain.CartChange{Kind: domain.CartAdd, ProductID: 7, Quantity: 2}))

	items, err := service.Read(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)

	published := events.list()
	require.Len(t, published, 1)
	assert.Equal(t, domain.EventCartChanged, published[0].Type)
	assert.Equal(t, userID, published[0].UserID)
}

// A mutation must hit the store before the cache entry goes away, and any
// read after the mutation returns must see the new state.
func TestCartService_WriteThenInvalidateOrdering(t *testing.T) {
	userID := uuid.New()
	service, _, _, rec, _ := newCartFixture(t, userID, 7)
	ctx := context.Background()

	// Populate the cache first.
	_, err := service.Read(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, service.Mutate(ctx, userID, domain.CartChange{Kind: domain.CartAdd, ProductID: 7}))

	writeIdx := rec.indexOf("repo.upsert")
	invalidateIdx := rec.indexOf("cache.delete:" + cachekeys.CartKey(userID))
	require.GreaterOrEqual(t, writeIdx, 0)
	require.GreaterOrEqual(t, invalidateIdx, 0)
	assert.Less(t, writeIdx, invalidateIdx, "invalidation must follow the durable write")

	// Read-your-write: the next read recomputes from the store.
	items, err := service.Read(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

// The concrete end-to-end scenario: a user adds product 7, a subsequent read
// includes it, removal then excludes it again, with no stale intermediate view.
func TestCartService_AddRemoveScenario(t *testing.T) {
	userID := uuid.MustParse("00000000-0000-0000-0000-000000000042")
	service, _, _, _, _ := newCartFixture(t, userID, 7)
	ctx := context.Background()

	items, err := service.Read(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, service.Mutate(ctx, userID, domain.CartChange{Kind: domain.CartAdd, ProductID: 7}))
	items, err = service.Read(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].ProductID)

	require.NoError(t, service.Mutate(ctx, userID, domain.CartChange{Kind: domain.CartRemove, ProductID: 7}))
	items, err = service.Read(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartService_RemoveAbsentIsNoop(t *testing.T) {
	userID := uuid.New()
	service, _, _, _, _ := newCartFixture(t, userID, 7)

	err := service.Mutate(context.Background(), userID, domain.CartChange{Kind: domain.CartRemove, ProductID: 7})
	assert.NoError(t, err)
}

func TestCartService_AddUnknownProduct(t *testing.T) {
	userID := uuid.New()
	service, _, _, _, events := newCartFixture(t, userID, 7)

	err := service.Mutate(context.Background(), userID, domain.CartChange{Kind: domain.CartAdd, ProductID: 999})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, events.list())
}

func TestCartService_UnknownUser(t *testing.T) {
	userID := uuid.New()
	service, _, _, _, _ := newCartFixture(t, userID, 7)

	err := service.Mutate(context.Background(), uuid.New(), domain.CartChange{Kind: domain.CartAdd, ProductID: 7})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartService_SetQuantityValidation(t *testing.T) {
	userID := uuid.New()
	service, _, _, _, _ := newCartFixture(t, userID, 7)
	ctx := context.Background()

	err := service.Mutate(ctx, userID, domain.CartChange{Kind: domain.CartSetQuantity, ProductID: 7, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	// Setting quantity on an item that is not in the cart is a conflict.
	err = service.Mutate(ctx, userID, domain.CartChange{Kind: domain.CartSetQuantity, ProductID: 7, Quantity: 3})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartService_BatchMutateSingleInvalidation(t *testing.T) {
	userID := uuid.New()
	service, _, _, rec, _ := newCartFixture(t, userID, 7, 8, 9)
	ctx := context.Background()

	changes := []domain.CartChange{
		{Kind: domain.CartAdd, ProductID: 7},
		{Kind: domain.CartAdd, ProductID: 8, Quantity: 2},
		{Kind: domain.CartAdd, ProductID: 9},
	}
	require.NoError(t, service.BatchMutate(ctx, userID, changes))

	deletes := 0
	for _, op := range rec.list() {
		if op == "cache.delete:"+cachekeys.CartKey(userID) {
			deletes++
		}
	}
	assert.Equal(t, 1, deletes, "batch performs one aggregate invalidation")

	items, err := service.Read(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestCartService_BatchMutateFailureStillInvalidates(t *testing.T) {
	userID := uuid.New()
	service, _, _, rec, _ := newCartFixture(t, userID, 7)
	ctx := context.Background()

	changes := []domain.CartChange{
		{Kind: domain.CartAdd, ProductID: 7},
		{Kind: domain.CartAdd, ProductID: 404}, // unknown product
	}
	err := service.BatchMutate(ctx, userID, changes)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// The partial write already happened, so the aggregate entry must be gone.
	assert.GreaterOrEqual(t, rec.indexOf("cache.delete:"+cachekeys.CartKey(userID)), 0)

	items, err := service.Read(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCartService_InvalidationRetriesOnce(t *testing.T) {
	userID := uuid.New()
	service, _, cache, rec, _ := newCartFixture(t, userID, 7)
	ctx := context.Background()

	_, err := service.Read(ctx, userID)
	require.NoError(t, err)

	cache.failDeletes = 1
	require.NoError(t, service.Mutate(ctx, userID, domain.CartChange{Kind: domain.CartAdd, ProductID: 7}))

	assert.GreaterOrEqual(t, rec.indexOf("cache.delete.fail"), 0)
	// The retry succeeded, so the read recomputes from the store.
	items, err := service.Read(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCartService_ReadUsesCache(t *testing.T) {
	userID := uuid.New()
	service, _, cache, rec, _ := newCartFixture(t, userID, 7)
	ctx := context.Background()

	require.NoError(t, service.Mutate(ctx, userID, domain.CartChange{Kind: domain.CartAdd, ProductID: 7}))

	_, err := service.Read(ctx, userID)
	require.NoError(t, err)
	listsAfterFirstRead := countOps(rec, "repo.list")

	_, err = service.Read(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, listsAfterFirstRead, countOps(rec, "repo.list"), "second read is served from cache")

	// The cached bytes decode to the same items.
	raw, err := cache.Get(ctx, cachekeys.CartKey(userID))
	require.NoError(t, err)
	var cached []domain.CartItem
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Len(t, cached, 1)
}

func TestCartService_Status(t *testing.T) {
	userID := uuid.New()
	service, _, _, _, _ := newCartFixture(t, userID, 7, 8)
	ctx := context.Background()

	require.NoError(t, service.Mutate(ctx, userID, domain.CartChange{Kind: domain.CartAdd, ProductID: 7}))

	status, err := service.Status(ctx, userID, []int64{7, 8})
	require.NoError(t, err)
	assert.True(t, status[7])
	assert.False(t, status[8])

	empty, err := service.Status(ctx, userID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func countOps(rec *opRecorder, op string) int {
	n := 0
	for _, recorded := range rec.list() {
		if recorded == op {
			n++
		}
	}
	return n
}
