package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkngo/internal/entities"
)

type stubDirectory struct {
	nearbyFn func(ctx context.Context, lat, lon float64, radius int) ([]entities.ParkingLot, error)
	searchFn func(ctx context.Context, query string, lat, lon float64, radius int) ([]entities.ParkingLot, error)
	spotsFn  func(ctx context.Context, lotID int) ([]entities.ParkingSpot, error)
}

func (s *stubDirectory) NearbyLots(ctx context.Context, lat, lon float64, radius int) ([]entities.ParkingLot, error) {
	if s.nearbyFn == nil {
		return nil, nil
	}
	return s.nearbyFn(ctx, lat, lon, radius)
}

func (s *stubDirectory) SearchLots(ctx context.Context, query string, lat, lon float64, radius int) ([]entities.ParkingLot, error) {
	if s.searchFn == nil {
		return nil, nil
	}
	return s.searchFn(ctx, query, lat, lon, radius)
}

func (s *stubDirectory) AvailableSpots(ctx context.Context, lotID int) ([]entities.ParkingSpot, error) {
	if s.spotsFn == nil {
		return nil, nil
	}
	return s.spotsFn(ctx, lotID)
}

func lotsNamed(names ...string) []entities.ParkingLot {
	out := make([]entities.ParkingLot, len(names))
	for i, name := range names {
		out[i] = entities.ParkingLot{ID: i + 1, Name: name, IsActive: true}
	}
	return out
}

func watchChanges(c *Coordinator) <-chan struct{} {
	changed := make(chan struct{}, 64)
	c.OnChange = func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	return changed
}

func waitChange(t *testing.T, changed <-chan struct{}) {
	t.Helper()
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a state change")
	}
}

func TestStaleSearchResponseIsDiscarded(t *testing.T) {
	entered := map[string]chan struct{}{
		"par":  make(chan struct{}),
		"park": make(chan struct{}),
	}
	release := map[string]chan struct{}{
		"par":  make(chan struct{}),
		"park": make(chan struct{}),
	}
	results := map[string][]entities.ParkingLot{
		"par":  lotsNamed("Stale Lot"),
		"park": lotsNamed("Fresh Lot"),
	}

	dir := &stubDirectory{
		searchFn: func(ctx context.Context, query string, lat, lon float64, radius int) ([]entities.ParkingLot, error) {
			close(entered[query])
			<-release[query]
			return results[query], nil
		},
	}
	c := NewCoordinator(dir, Options{Debounce: time.Millisecond})
	changed := watchChanges(c)
	ctx := context.Background()

	// First query fires and hangs in flight.
	c.SetQuery(ctx, "par")
	<-entered["par"]

	// Second query is issued while the first is still outstanding.
	c.SetQuery(ctx, "park")
	<-entered["park"]

	// The newer request completes first and is applied.
	close(release["park"])
	waitChange(t, changed)
	require.Equal(t, "park", c.Results().Query)

	// The older response straggles in afterwards and must be dropped.
	close(release["par"])
	time.Sleep(50 * time.Millisecond)
	got := c.Results()
	assert.Equal(t, "park", got.Query)
	require.Len(t, got.Lots, 1)
	assert.Equal(t, "Fresh Lot", got.Lots[0].Name)
}

func TestShortQueryFallsBackToNearby(t *testing.T) {
	var searchCalls int32
	nearby := lotsNamed("Near One", "Near Two")

	dir := &stubDirectory{
		nearbyFn: func(ctx context.Context, lat, lon float64, radius int) ([]entities.ParkingLot, error) {
			return nearby, nil
		},
		searchFn: func(ctx context.Context, query string, lat, lon float64, radius int) ([]entities.ParkingLot, error) {
			atomic.AddInt32(&searchCalls, 1)
			return nil, nil
		},
	}
	c := NewCoordinator(dir, Options{Debounce: time.Millisecond})
	changed := watchChanges(c)
	ctx := context.Background()

	c.RefreshNearby(ctx, -6.8, 39.2, 0)
	waitChange(t, changed)

	c.SetQuery(ctx, "pa")
	waitChange(t, changed)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&searchCalls), "queries under the minimum length never hit the remote search")
	got := c.Results()
	assert.Empty(t, got.Query)
	assert.Equal(t, nearby, got.Lots)
}

func TestShorteningQueryInvalidatesInFlightSearch(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	dir := &stubDirectory{
		searchFn: func(ctx context.Context, query string, lat, lon float64, radius int) ([]entities.ParkingLot, error) {
			close(entered)
			<-release
			return lotsNamed("Should Not Appear"), nil
		},
	}
	c := NewCoordinator(dir, Options{Debounce: time.Millisecond})
	changed := watchChanges(c)
	ctx := context.Background()

	c.SetQuery(ctx, "park")
	<-entered

	// User deletes back below the threshold while the search is in flight.
	c.SetQuery(ctx, "pa")
	waitChange(t, changed)

	close(release)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, c.Results().Query)
	assert.Empty(t, c.Results().Lots)
}

func TestDebounceCoalescesKeystrokes(t *testing.T) {
	var searchCalls int32
	var lastQuery atomic.Value

	dir := &stubDirectory{
		searchFn: func(ctx context.Context, query string, lat, lon float64, radius int) ([]entities.ParkingLot, error) {
			atomic.AddInt32(&searchCalls, 1)
			lastQuery.Store(query)
			return lotsNamed("Lot"), nil
		},
	}
	c := NewCoordinator(dir, Options{Debounce: 40 * time.Millisecond})
	changed := watchChanges(c)
	ctx := context.Background()

	// Keystrokes land well inside the quiescence interval.
	for _, q := range []string{"par", "park", "parki", "parkin", "parking"} {
		c.SetQuery(ctx, q)
		time.Sleep(5 * time.Millisecond)
	}

	waitChange(t, changed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&searchCalls), "only the final quiescent query may fire")
	assert.Equal(t, "parking", lastQuery.Load())
	assert.Equal(t, "parking", c.Results().Query)
}

func TestSelectLotFetchesSpotsAndEvictsOldCache(t *testing.T) {
	lotA := &entities.ParkingLot{ID: 1, Name: "Lot A"}
	lotB := &entities.ParkingLot{ID: 2, Name: "Lot B"}

	var mu sync.Mutex
	release := map[int]chan struct{}{
		1: make(chan struct{}),
		2: make(chan struct{}),
	}
	spotsByLot := map[int][]entities.ParkingSpot{
		1: {{ID: 101, SpotNumber: "A1", IsAvailable: true}},
		2: {{ID: 201, SpotNumber: "B1", IsAvailable: true}},
	}

	dir := &stubDirectory{
		spotsFn: func(ctx context.Context, lotID int) ([]entities.ParkingSpot, error) {
			mu.Lock()
			ch := release[lotID]
			mu.Unlock()
			<-ch
			return spotsByLot[lotID], nil
		},
	}
	c := NewCoordinator(dir, Options{Debounce: time.Millisecond})
	changed := watchChanges(c)
	ctx := context.Background()

	// Lot A selected; its fetch is slow. Lot B selected before A answers.
	c.SelectLot(ctx, lotA)
	waitChange(t, changed)
	c.SelectLot(ctx, lotB)
	waitChange(t, changed)

	close(release[2])
	waitChange(t, changed)

	// A's late response must not merge into B's cache.
	close(release[1])
	time.Sleep(50 * time.Millisecond)

	spots := c.Spots()
	require.Len(t, spots, 1)
	assert.Equal(t, "B1", spots[0].SpotNumber)

	lot, spot := c.Selection()
	require.NotNil(t, lot)
	assert.Equal(t, 2, lot.ID)
	assert.Nil(t, spot, "switching lots clears the selected spot")
}

func TestSelectSpotRequiresLot(t *testing.T) {
	c := NewCoordinator(&stubDirectory{}, Options{Debounce: time.Millisecond})

	c.SelectSpot(&entities.ParkingSpot{ID: 101})
	lot, spot := c.Selection()
	assert.Nil(t, lot)
	assert.Nil(t, spot)
}

func TestClearSelectionIsAtomic(t *testing.T) {
	lot := &entities.ParkingLot{ID: 1, Name: "Lot A"}
	dir := &stubDirectory{
		spotsFn: func(ctx context.Context, lotID int) ([]entities.ParkingSpot, error) {
			return []entities.ParkingSpot{{ID: 101, SpotNumber: "A1", IsAvailable: true}}, nil
		},
	}
	c := NewCoordinator(dir, Options{Debounce: time.Millisecond})
	changed := watchChanges(c)
	ctx := context.Background()

	c.SelectLot(ctx, lot)
	waitChange(t, changed) // selection applied
	waitChange(t, changed) // spots applied
	c.SelectSpot(&entities.ParkingSpot{ID: 101, SpotNumber: "A1"})

	c.ClearSelection()

	gotLot, gotSpot := c.Selection()
	assert.Nil(t, gotLot)
	assert.Nil(t, gotSpot)
	assert.Empty(t, c.Spots())
}

func TestClearSelectionDropsInFlightSpotFetch(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	dir := &stubDirectory{
		spotsFn: func(ctx context.Context, lotID int) ([]entities.ParkingSpot, error) {
			close(entered)
			<-release
			return []entities.ParkingSpot{{ID: 101}}, nil
		},
	}
	c := NewCoordinator(dir, Options{Debounce: time.Millisecond})
	ctx := context.Background()

	c.SelectLot(ctx, &entities.ParkingLot{ID: 1})
	<-entered
	c.ClearSelection()

	close(release)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, c.Spots())
}

func TestRemoteErrorReachesOnError(t *testing.T) {
	dir := &stubDirectory{
		nearbyFn: func(ctx context.Context, lat, lon float64, radius int) ([]entities.ParkingLot, error) {
			return nil, context.DeadlineExceeded
		},
	}
	c := NewCoordinator(dir, Options{Debounce: time.Millisecond})

	type failure struct {
		op  string
		err error
	}
	failed := make(chan failure, 1)
	c.OnError = func(op string, err error) {
		failed <- failure{op, err}
	}

	c.RefreshNearby(context.Background(), 0, 0, 0)

	select {
	case f := <-failed:
		assert.Equal(t, "nearby_lots", f.op)
		assert.ErrorIs(t, f.err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the error callback")
	}
}
