package cart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pratikmahatara/Shoe/internal/domain"
	"github.com/Pratikmahatara/Shoe/internal/repository/memory"
	apperrors "github.com/Pratikmahatara/Shoe/pkg/errors"
)

// countingSlots wraps the memory backend and counts writes.
type countingSlots struct {
	*memory.CartSlots
	mu    sync.Mutex
	saves int
	fail  error
}

func (c *countingSlots) Save(ctx context.Context, id string, data []byte) error {
	c.mu.Lock()
	c.saves++
	fail := c.fail
	c.mu.Unlock()
	if fail != nil {
		return fail
	}
	return c.CartSlots.Save(ctx, id, data)
}

func (c *countingSlots) Load(ctx context.Context, id string) ([]byte, error) {
	c.mu.Lock()
	fail := c.fail
	c.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return c.CartSlots.Load(ctx, id)
}

func (c *countingSlots) Saves() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []int
	err   error
}

func (n *recordingNotifier) CartChanged(_ context.Context, _ string, items []domain.LineItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, domain.Count(items))
	return n.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *countingSlots) {
	t.Helper()
	slots := &countingSlots{CartSlots: memory.NewCartSlots()}
	reg := NewRegistry(slots, NewHub(), quietLogger(), opts...)
	return reg.Store("cart-1"), slots
}

var (
	productA = domain.Product{ID: 1, Name: "Runner", Price: "49.99"}
	productB = domain.Product{ID: 2, Name: "Boot", Price: "120.00"}
	ten      = domain.TextSize("10")
)

func mustRead(t *testing.T, s *Store) []domain.LineItem {
	t.Helper()
	items, err := s.Read(context.Background())
	require.NoError(t, err)
	return items
}

func TestStore_ReadEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	items := mustRead(t, s)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestStore_Scenario(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, productA, 1, ten, "black"))
	items := mustRead(t, s)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)

	require.NoError(t, s.Add(ctx, productA, 2, ten, "black"))
	items = mustRead(t, s)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	require.NoError(t, s.Add(ctx, productA, 1, ten, "white"))
	assert.Len(t, mustRead(t, s), 2)

	require.NoError(t, s.SetQuantity(ctx, productA.ID, ten, "black", 0))
	items = mustRead(t, s)
	require.Len(t, items, 1)
	assert.Equal(t, "white", items[0].SelectedColor)
	assert.Equal(t, 1, items[0].Quantity)

	require.NoError(t, s.Clear(ctx))
	items = mustRead(t, s)
	assert.Empty(t, items)
	assert.Equal(t, 0, domain.Count(items))
}

func TestStore_MergeKeepsFirstPosition(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, productA, 1, ten, "black"))
	require.NoError(t, s.Add(ctx, productB, 1, ten, "black"))
	require.NoError(t, s.Add(ctx, productA, 4, ten, "black"))

	items := mustRead(t, s)
	require.Len(t, items, 2)
	assert.Equal(t, productA.ID, items[0].Product.ID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, productB.ID, items[1].Product.ID)
}

func TestStore_NumericAndTextSizesAreDistinct(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, productA, 1, domain.NumberSize(5), "red"))
	require.NoError(t, s.Add(ctx, productA, 1, domain.TextSize("5"), "red"))

	items := mustRead(t, s)
	require.Len(t, items, 2)
	assert.True(t, items[0].SelectedSize.IsNumber())
	assert.False(t, items[1].SelectedSize.IsNumber())
}

func TestStore_AddRejectsNonPositiveQuantity(t *testing.T) {
	s, slots := newTestStore(t)

	err := s.Add(context.Background(), productA, 0, ten, "black")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, 0, slots.Saves())
}

func TestStore_RemoveAbsentStillPersistsAndSignals(t *testing.T) {
	s, slots := newTestStore(t)
	sub := s.Subscribe()
	defer sub.Close()

	require.NoError(t, s.Remove(context.Background(), 99, ten, "black"))
	assert.Equal(t, 1, slots.Saves())
	assert.True(t, received(sub))
}

func TestStore_SetQuantity(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, productA, 1, ten, "black"))

	require.NoError(t, s.SetQuantity(ctx, productA.ID, ten, "black", 7))
	items := mustRead(t, s)
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
}

func TestStore_SetQuantityWithoutMatchDoesNothing(t *testing.T) {
	s, slots := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, productA, 1, ten, "black"))
	sub := s.Subscribe()
	defer sub.Close()

	require.NoError(t, s.SetQuantity(ctx, productA.ID, ten, "green", 3))
	assert.Equal(t, 1, slots.Saves())
	assert.False(t, received(sub))
}

func TestStore_NonPositiveSetQuantityEqualsRemove(t *testing.T) {
	ctx := context.Background()
	seed := func(s *Store) {
		require.NoError(t, s.Add(ctx, productA, 2, ten, "black"))
		require.NoError(t, s.Add(ctx, productB, 1, ten, "black"))
	}

	viaSet, _ := newTestStore(t)
	seed(viaSet)
	require.NoError(t, viaSet.SetQuantity(ctx, productA.ID, ten, "black", -3))

	viaRemove, _ := newTestStore(t)
	seed(viaRemove)
	require.NoError(t, viaRemove.Remove(ctx, productA.ID, ten, "black"))

	assert.Equal(t, mustRead(t, viaRemove), mustRead(t, viaSet))
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	s, slots := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, productA, 1, ten, "black"))

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, mustRead(t, s))
	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, mustRead(t, s))

	raw, err := slots.CartSlots.Load(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(raw))
}

func TestStore_CorruptSlotReadsEmpty(t *testing.T) {
	s, slots := newTestStore(t)
	slots.Put("cart-1", []byte(`{not json`))

	assert.Empty(t, mustRead(t, s))

	require.NoError(t, s.Add(context.Background(), productA, 1, ten, "black"))
	assert.Len(t, mustRead(t, s), 1)
}

func TestStore_BackendFailure(t *testing.T) {
	s, slots := newTestStore(t)
	sub := s.Subscribe()
	defer sub.Close()
	slots.fail = errors.New("connection refused")

	_, err := s.Read(context.Background())
	require.Error(t, err)

	err = s.Add(context.Background(), productA, 1, ten, "black")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, received(sub))
}

func TestStore_SubscriberSeesNewState(t *testing.T) {
	s, _ := newTestStore(t)
	other := s.reg.Store("cart-1")
	sub := other.Subscribe()
	defer sub.Close()

	require.NoError(t, s.Add(context.Background(), productA, 2, ten, "black"))

	require.True(t, received(sub))
	summary, err := other.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, "99.98", summary.SubtotalDisplay)
}

func TestStore_SubtotalScenario(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, productA, 2, ten, "black"))
	require.NoError(t, s.Add(ctx, productB, 1, ten, "black"))

	summary, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, "219.98", summary.SubtotalDisplay)
}

func TestStore_ConcurrentAddsAreSerialised(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Add(ctx, productA, 1, ten, "black"))
		}()
	}
	wg.Wait()

	items := mustRead(t, s)
	require.Len(t, items, 1)
	assert.Equal(t, 50, items[0].Quantity)
}

func TestStore_NotifierCalledAfterPersist(t *testing.T) {
	n := &recordingNotifier{}
	s, _ := newTestStore(t, WithNotifier(n))
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, productA, 2, ten, "black"))
	require.NoError(t, s.SetQuantity(ctx, productA.ID, ten, "white", 1))
	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, []int{2, 0}, n.calls)
}

func TestStore_NotifierFailureDoesNotFailMutation(t *testing.T) {
	n := &recordingNotifier{err: errors.New("broker down")}
	s, _ := newTestStore(t, WithNotifier(n))

	require.NoError(t, s.Add(context.Background(), productA, 1, ten, "black"))
	assert.Len(t, mustRead(t, s), 1)
}

// blockingNotifier holds CartChanged for one cart until released.
type blockingNotifier struct {
	cartID  string
	entered chan struct{}
	release chan struct{}
}

func (b *blockingNotifier) CartChanged(_ context.Context, cartID string, _ []domain.LineItem) error {
	if cartID == b.cartID {
		close(b.entered)
		<-b.release
	}
	return nil
}

func TestStore_SlowNotifierDoesNotHoldLockStripe(t *testing.T) {
	n := &blockingNotifier{cartID: "cart-A", entered: make(chan struct{}), release: make(chan struct{})}
	reg := NewRegistry(memory.NewCartSlots(), NewHub(), quietLogger(), WithNotifier(n))
	ctx := context.Background()

	var neighbour string
	for i := 0; neighbour == ""; i++ {
		if id := fmt.Sprintf("cart-%d", i); reg.lockFor(id) == reg.lockFor("cart-A") {
			neighbour = id
		}
	}

	firstDone := make(chan error, 1)
	go func() { firstDone <- reg.Store("cart-A").Add(ctx, productA, 1, ten, "black") }()
	<-n.entered

	secondDone := make(chan error, 1)
	go func() { secondDone <- reg.Store(neighbour).Add(ctx, productB, 1, ten, "black") }()

	select {
	case err := <-secondDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		close(n.release)
		t.Fatalf("add on %s waited for the notifier of cart-A", neighbour)
	}

	// cart-A's write is already visible while its notification is pending.
	assert.Len(t, mustRead(t, reg.Store("cart-A")), 1)

	close(n.release)
	require.NoError(t, <-firstDone)
}

func TestStore_SlotEncoding(t *testing.T) {
	s, slots := newTestStore(t)
	require.NoError(t, s.Add(context.Background(), productA, 1, domain.NumberSize(10), "black"))

	raw, err := slots.CartSlots.Load(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"selectedSize":10`)
	assert.Contains(t, string(raw), `"selectedColor":"black"`)
	assert.Contains(t, string(raw), `"quantity":1`)
}

func TestRegistry_SharedLockStripe(t *testing.T) {
	reg := NewRegistry(memory.NewCartSlots(), NewHub(), quietLogger())
	assert.Same(t, reg.lockFor("abc"), reg.lockFor("abc"))
	assert.NoError(t, reg.Ping(context.Background()))
	assert.Equal(t, "abc", reg.Store("abc").ID())
}
