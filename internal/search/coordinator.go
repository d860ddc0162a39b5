package search

import (
	"context"
	"log"
	"sync"
	"time"

	"parkngo/internal/entities"
)

// Directory is the slice of the remote API the coordinator drives. The
// HTTP client satisfies it; tests substitute fakes.
type Directory interface {
	NearbyLots(ctx context.Context, lat, lon float64, radius int) ([]entities.ParkingLot, error)
	SearchLots(ctx context.Context, query string, lat, lon float64, radius int) ([]entities.ParkingLot, error)
	AvailableSpots(ctx context.Context, lotID int) ([]entities.ParkingSpot, error)
}

const (
	DefaultDebounce    = 500 * time.Millisecond
	DefaultMinQueryLen = 3
)

// ResultSet is the displayed list of lots, tagged with the query that
// produced it. An empty Query means the passive nearby set.
type ResultSet struct {
	Query string
	Lots  []entities.ParkingLot
}

type Options struct {
	Debounce    time.Duration
	MinQueryLen int
}

// Coordinator reconciles the debounced text search and the passive nearby
// query into one displayed result set, and tracks the single selected
// lot/spot. Each remote channel (search, nearby, spots) carries a
// monotonically increasing sequence number; a response is applied only if
// its sequence is still the latest issued on its channel, so issuance
// order wins over completion order. Superseded responses are dropped
// without logging.
type Coordinator struct {
	dir  Directory
	opts Options
	slot Slot

	// OnChange, when set, runs after every applied state change.
	OnChange func()
	// OnError receives remote failures with the failed operation's name.
	// Unset, failures are logged.
	OnError func(op string, err error)

	mu           sync.Mutex
	searchSeq    uint64
	nearbySeq    uint64
	spotsSeq     uint64
	query        string
	results      ResultSet
	nearby       []entities.ParkingLot
	bias         geoBias
	selectedLot  *entities.ParkingLot
	selectedSpot *entities.ParkingSpot
	spots        []entities.ParkingSpot
}

type geoBias struct {
	lat, lon float64
	radius   int
}

func NewCoordinator(dir Directory, opts Options) *Coordinator {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinQueryLen <= 0 {
		opts.MinQueryLen = DefaultMinQueryLen
	}
	return &Coordinator{dir: dir, opts: opts}
}

// RefreshNearby issues a nearby-lots fetch around the given location. The
// location also becomes the geo bias for subsequent text searches.
func (c *Coordinator) RefreshNearby(ctx context.Context, lat, lon float64, radius int) {
	c.mu.Lock()
	c.nearbySeq++
	seq := c.nearbySeq
	c.bias = geoBias{lat: lat, lon: lon, radius: radius}
	c.mu.Unlock()

	go func() {
		lots, err := c.dir.NearbyLots(ctx, lat, lon, radius)
		if err != nil {
			c.fail("nearby_lots", err)
			return
		}
		c.mu.Lock()
		if seq != c.nearbySeq {
			c.mu.Unlock()
			return
		}
		c.nearby = lots
		if len(c.query) < c.opts.MinQueryLen {
			c.results = ResultSet{Lots: lots}
		}
		c.mu.Unlock()
		c.notify()
	}()
}

// SetQuery records a keystroke. Queries shorter than the minimum never
// reach the remote search: the display falls back to the nearby set and
// any armed or in-flight search is invalidated. Longer queries re-arm the
// debounce slot, so the remote call fires only once typing has been quiet
// for the full interval.
func (c *Coordinator) SetQuery(ctx context.Context, query string) {
	c.mu.Lock()
	c.query = query
	if len(query) < c.opts.MinQueryLen {
		c.searchSeq++
		c.results = ResultSet{Lots: c.nearby}
		c.mu.Unlock()
		c.slot.Cancel()
		c.notify()
		return
	}
	c.mu.Unlock()

	c.slot.Schedule(c.opts.Debounce, func() {
		c.runSearch(ctx, query)
	})
}

func (c *Coordinator) runSearch(ctx context.Context, query string) {
	c.mu.Lock()
	if c.query != query {
		// A keystroke landed after this task was armed.
		c.mu.Unlock()
		return
	}
	c.searchSeq++
	seq := c.searchSeq
	bias := c.bias
	c.mu.Unlock()

	lots, err := c.dir.SearchLots(ctx, query, bias.lat, bias.lon, bias.radius)
	if err != nil {
		c.fail("search_lots", err)
		return
	}

	c.mu.Lock()
	if seq != c.searchSeq {
		c.mu.Unlock()
		return
	}
	c.results = ResultSet{Query: query, Lots: lots}
	c.mu.Unlock()
	c.notify()
}

// SelectLot makes lot the single active selection, clears the selected
// spot, evicts the previous lot's spot cache and issues a fresh
// availability fetch. Passing nil only clears.
func (c *Coordinator) SelectLot(ctx context.Context, lot *entities.ParkingLot) {
	c.mu.Lock()
	c.selectedLot = lot
	c.selectedSpot = nil
	c.spots = nil
	c.spotsSeq++
	seq := c.spotsSeq
	c.mu.Unlock()
	c.notify()

	if lot == nil {
		return
	}
	lotID := lot.ID

	go func() {
		spots, err := c.dir.AvailableSpots(ctx, lotID)
		if err != nil {
			c.fail("available_spots", err)
			return
		}
		c.mu.Lock()
		if seq != c.spotsSeq || c.selectedLot == nil || c.selectedLot.ID != lotID {
			c.mu.Unlock()
			return
		}
		c.spots = spots
		c.mu.Unlock()
		c.notify()
	}()
}

// SelectSpot is a no-op unless a lot is currently selected.
func (c *Coordinator) SelectSpot(spot *entities.ParkingSpot) {
	c.mu.Lock()
	if c.selectedLot == nil {
		c.mu.Unlock()
		return
	}
	c.selectedSpot = spot
	c.mu.Unlock()
	c.notify()
}

// ClearSelection resets lot, spot and the cached spot list together;
// no observer can see a spot without its lot. In-flight spot fetches are
// invalidated.
func (c *Coordinator) ClearSelection() {
	c.mu.Lock()
	c.selectedLot = nil
	c.selectedSpot = nil
	c.spots = nil
	c.spotsSeq++
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) Results() ResultSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}

func (c *Coordinator) Selection() (*entities.ParkingLot, *entities.ParkingSpot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLot, c.selectedSpot
}

func (c *Coordinator) Spots() []entities.ParkingSpot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spots
}

func (c *Coordinator) notify() {
	if c.OnChange != nil {
		c.OnChange()
	}
}

func (c *Coordinator) fail(op string, err error) {
	if c.OnError != nil {
		c.OnError(op, err)
		return
	}
	log.Printf("Failed to %s: %v", op, err)
}
