package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lalith-99/visaflow/internal/apperr"
	"github.com/lalith-99/visaflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func frozenClock() func() time.Time {
	return func() time.Time { return fixedNow }
}

// sequenceTokens yields the given tokens, then numbered ones.
func sequenceTokens(tokens ...string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		if n <= len(tokens) {
			return tokens[n-1]
		}
		return fmt.Sprintf("client-seq%05d", n)
	}
}

func testOpts(extra ...Option) []Option {
	return append([]Option{WithLatency(Latency{Scale: 0}), WithClock(frozenClock())}, extra...)
}

func seedClients() []models.Client {
	return []models.Client{
		{ID: 1, Name: "Sarah Johnson", Email: "sarah@example.com", Phone: "+61 400 111 222", PortalLink: "portal/client-abc123def", CreatedAt: fixedNow.Add(-72 * time.Hour)},
		{ID: 4, Name: "Raj Patel", Email: "raj@example.com", Phone: "+61 400 333 444", PortalLink: "portal/client-xyz789ghi", CreatedAt: fixedNow.Add(-48 * time.Hour)},
	}
}

func TestClientStore_Create_AssignsIDAndPortalLink(t *testing.T) {
	ctx := context.Background()
	s := NewClientStore(seedClients(), testOpts()...)

	before, err := s.GetAll(ctx)
	require.NoError(t, err)

	c, err := s.Create(ctx, models.Client{Name: "A", Email: "a@b.com", Phone: "1"})
	require.NoError(t, err)

	assert.Equal(t, int64(5), c.ID)
	assert.Regexp(t, `^portal/client-[0-9a-f]{9}$`, c.PortalLink)
	assert.Equal(t, fixedNow, c.CreatedAt)
	assert.Nil(t, c.ActiveApplicationID)

	after, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)
}

func TestClientStore_Create_EmptyStoreStartsAtOne(t *testing.T) {
	s := NewClientStore(nil, testOpts()...)

	c, err := s.Create(context.Background(), models.Client{Name: "First"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
}

func TestClientStore_Create_IDsIncreaseAndLinksUnique(t *testing.T) {
	ctx := context.Background()
	s := NewClientStore(seedClients(), testOpts()...)

	seen := map[string]bool{}
	for _, c := range seedClients() {
		seen[c.PortalLink] = true
	}
	var last int64 = 4
	for i := 0; i < 25; i++ {
		c, err := s.Create(ctx, models.Client{Name: fmt.Sprintf("client %d", i)})
		require.NoError(t, err)
		assert.Greater(t, c.ID, last)
		last = c.ID
		assert.False(t, seen[c.PortalLink], "duplicate portal link %s", c.PortalLink)
		seen[c.PortalLink] = true
	}
}

func TestClientStore_Create_RerollsCollidingToken(t *testing.T) {
	s := NewClientStore(seedClients(), testOpts(WithTokenSource(sequenceTokens("client-abc123def", "client-fresh0001")))...)

	c, err := s.Create(context.Background(), models.Client{Name: "Collision"})
	require.NoError(t, err)
	assert.Equal(t, "portal/client-fresh0001", c.PortalLink)
}

func TestClientStore_Create_IgnoresAssignedFields(t *testing.T) {
	active := int64(77)
	s := NewClientStore(seedClients(), testOpts()...)

	c, err := s.Create(context.Background(), models.Client{
		ID:                  900,
		Name:                "Spoof",
		PortalLink:          "portal/client-abc123def",
		ActiveApplicationID: &active,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), c.ID)
	assert.NotEqual(t, "portal/client-abc123def", c.PortalLink)
	assert.Nil(t, c.ActiveApplicationID)
}

func TestClientStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewClientStore(seedClients(), testOpts()...)

	in := models.Client{Name: "Amelia Chen", Email: "amelia@example.com", Phone: "+61 400 555 666"}
	created, err := s.Create(ctx, in)
	require.NoError(t, err)

	got, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Email, got.Email)
	assert.Equal(t, in.Phone, got.Phone)
}

func TestClientStore_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewClientStore(seedClients(), testOpts()...)

	_, err := s.GetByID(ctx, 9999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Contains(t, err.Error(), "Client not found")

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, seedClients(), all)
}

func TestClientStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewClientStore(seedClients(), testOpts()...)

	got, err := s.GetByID(ctx, 1)
	require.NoError(t, err)
	got.Name = "Mutated"

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	all[0].Email = "mutated@example.com"

	again, err := s.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", again.Name)
	assert.Equal(t, "sarah@example.com", again.Email)
}

func TestClientStore_Update_MergesPresentFields(t *testing.T) {
	ctx := context.Background()
	s := NewClientStore(seedClients(), testOpts()...)

	phone := "+61 499 999 999"
	c, err := s.Update(ctx, 4, models.ClientPatch{Phone: &phone})
	require.NoError(t, err)

	assert.Equal(t, "Raj Patel", c.Name)
	assert.Equal(t, "raj@example.com", c.Email)
	assert.Equal(t, phone, c.Phone)
	assert.Equal(t, "portal/client-xyz789ghi", c.PortalLink)

	_, err = s.Update(ctx, 9999, models.ClientPatch{Phone: &phone})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestClientStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewClientStore(seedClients(), testOpts()...)

	require.NoError(t, s.Delete(ctx, 1))
	_, err := s.GetByID(ctx, 1)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = s.Delete(ctx, 1)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestClientStore_SetActiveApplication(t *testing.T) {
	ctx := context.Background()
	s := NewClientStore(seedClients(), testOpts()...)

	require.NoError(t, s.SetActiveApplication(ctx, 4, 12))
	c, err := s.GetByID(ctx, 4)
	require.NoError(t, err)
	require.NotNil(t, c.ActiveApplicationID)
	assert.Equal(t, int64(12), *c.ActiveApplicationID)

	*c.ActiveApplicationID = 99
	again, _ := s.GetByID(ctx, 4)
	assert.Equal(t, int64(12), *again.ActiveApplicationID)

	assert.True(t, errors.Is(s.SetActiveApplication(ctx, 9999, 1), apperr.ErrNotFound))
}

func TestClientStore_LatencyHonorsContext(t *testing.T) {
	s := NewClientStore(seedClients(), WithLatency(Latency{Scale: 100}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.GetAll(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClientStore_LatencyDelays(t *testing.T) {
	s := NewClientStore(seedClients(), WithLatency(Latency{Scale: 0.1}))

	start := time.Now()
	_, err := s.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestClientStore_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s := NewClientStore(nil, testOpts()...)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, models.Client{Name: "parallel"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	ids := map[int64]bool{}
	for _, c := range all {
		ids[c.ID] = true
	}
	assert.Len(t, ids, 20)
}
