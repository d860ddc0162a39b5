package sim

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"parkngo/internal/booking"
	"parkngo/internal/entities"
)

var (
	ErrLotNotFound     = errors.New("parking lot not found")
	ErrSpotNotFound    = errors.New("parking spot not found")
	ErrSpotUnavailable = errors.New("parking spot is no longer available")
	ErrBookingNotFound = errors.New("booking not found")
)

const (
	statusPending  = "pending"
	statusActive   = "active"
	statusFinished = "finished"
)

// Store is the in-memory state behind the simulator. One mutex guards
// everything; the dataset is a handful of seeded lots.
type Store struct {
	mu            sync.Mutex
	lots          []entities.ParkingLot
	spots         map[int][]entities.ParkingSpot
	bookings      []entities.Booking
	vehicles      map[int][]entities.Vehicle
	nextBookingID int
	nextVehicleID int
}

func NewStore() *Store {
	s := &Store{
		spots:         make(map[int][]entities.ParkingSpot),
		vehicles:      make(map[int][]entities.Vehicle),
		nextBookingID: 1,
		nextVehicleID: 1,
	}
	s.seed()
	return s
}

func (s *Store) seed() {
	s.lots = []entities.ParkingLot{
		{ID: 1, Name: "City Mall Parking", Address: "12 Samora Ave", Latitude: "-6.8160", Longitude: "39.2894", OperatorName: "City Mall Ltd", OpeningHours: "06:00", ClosingHours: "23:00", IsActive: true},
		{ID: 2, Name: "Harbour View Garage", Address: "3 Sokoine Dr", Latitude: "-6.8201", Longitude: "39.2951", OperatorName: "Harbour Estates", OpeningHours: "00:00", ClosingHours: "23:59", IsActive: true},
		{ID: 3, Name: "Airport Long Stay", Address: "Julius Nyerere Rd", Latitude: "-6.8740", Longitude: "39.2026", OperatorName: "Airports Authority", OpeningHours: "00:00", ClosingHours: "23:59", IsActive: true},
	}
	s.spots[1] = []entities.ParkingSpot{
		{ID: 101, SpotNumber: "A1", SpotType: "standard", HourlyRate: 1000, IsAvailable: true},
		{ID: 102, SpotNumber: "A2", SpotType: "standard", HourlyRate: 1000, IsAvailable: true},
		{ID: 103, SpotNumber: "B1", SpotType: "covered", HourlyRate: 1500, IsAvailable: true},
	}
	s.spots[2] = []entities.ParkingSpot{
		{ID: 201, SpotNumber: "G1", SpotType: "standard", HourlyRate: 800, IsAvailable: true},
		{ID: 202, SpotNumber: "G2", SpotType: "disabled", HourlyRate: 800, IsAvailable: true},
	}
	s.spots[3] = []entities.ParkingSpot{
		{ID: 301, SpotNumber: "L1", SpotType: "long-stay", HourlyRate: 500, IsAvailable: true},
		{ID: 302, SpotNumber: "L2", SpotType: "long-stay", HourlyRate: 500, IsAvailable: false},
	}
}

func (s *Store) withCounts(lots []entities.ParkingLot) []entities.ParkingLot {
	out := make([]entities.ParkingLot, len(lots))
	for i, lot := range lots {
		available := 0
		for _, spot := range s.spots[lot.ID] {
			if spot.IsAvailable {
				available++
			}
		}
		lot.AvailableSpotsCount = available
		out[i] = lot
	}
	return out
}

// NearbyLots returns active lots ordered by distance from the given point.
func (s *Store) NearbyLots(lat, lon float64) []entities.ParkingLot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []entities.ParkingLot
	for _, lot := range s.lots {
		if lot.IsActive {
			active = append(active, lot)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return lotDistance(active[i], lat, lon) < lotDistance(active[j], lat, lon)
	})
	return s.withCounts(active)
}

func lotDistance(lot entities.ParkingLot, lat, lon float64) float64 {
	lotLat, _ := strconv.ParseFloat(lot.Latitude, 64)
	lotLon, _ := strconv.ParseFloat(lot.Longitude, 64)
	return math.Hypot(lotLat-lat, lotLon-lon)
}

// SearchLots matches the query case-insensitively against lot names and
// addresses.
func (s *Store) SearchLots(query string) []entities.ParkingLot {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	var matched []entities.ParkingLot
	for _, lot := range s.lots {
		if !lot.IsActive {
			continue
		}
		if strings.Contains(strings.ToLower(lot.Name), q) || strings.Contains(strings.ToLower(lot.Address), q) {
			matched = append(matched, lot)
		}
	}
	return s.withCounts(matched)
}

func (s *Store) GetLot(lotID int) (*entities.ParkingLot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, lot := range s.lots {
		if lot.ID == lotID {
			counted := s.withCounts([]entities.ParkingLot{lot})
			return &counted[0], nil
		}
	}
	return nil, ErrLotNotFound
}

func (s *Store) AvailableSpots(lotID int) ([]entities.ParkingSpot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spots, ok := s.spots[lotID]
	if !ok {
		return nil, ErrLotNotFound
	}
	out := make([]entities.ParkingSpot, len(spots))
	copy(out, spots)
	return out, nil
}

// CreateBooking re-checks the window and spot availability server-side,
// claims the spot and prices the stay with the same ceiling rule the
// client quotes with.
func (s *Store) CreateBooking(userID int, req *entities.BookingRequest) (*entities.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := booking.Window{Start: req.StartTime, End: req.EndTime}
	if !w.IsComplete() || !w.End.After(w.Start) {
		return nil, fmt.Errorf("invalid booking window: %w", booking.ErrInvertedWindow)
	}
	if d := w.Duration(); d < booking.MinDuration || d > booking.MaxDuration {
		return nil, fmt.Errorf("booking duration %s outside allowed range", d)
	}

	spots, ok := s.spots[req.ParkingLot]
	if !ok {
		return nil, ErrLotNotFound
	}
	idx := -1
	for i, spot := range spots {
		if spot.ID == req.ParkingSpot {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrSpotNotFound
	}
	if !spots[idx].IsAvailable {
		return nil, ErrSpotUnavailable
	}

	est, err := booking.Quote(w, spots[idx].HourlyRate)
	if err != nil {
		return nil, err
	}

	spots[idx].IsAvailable = false
	b := entities.Booking{
		ID:           s.nextBookingID,
		User:         userID,
		ParkingLot:   req.ParkingLot,
		ParkingSpot:  req.ParkingSpot,
		LicensePlate: req.LicensePlate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Cost:         est.Cost,
		Status:       statusActive,
		BookingTime:  time.Now().UTC(),
	}
	s.nextBookingID++
	s.bookings = append(s.bookings, b)
	return &b, nil
}

func (s *Store) BookingsForUser(userID int) []entities.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entities.Booking
	for _, b := range s.bookings {
		if b.User == userID {
			out = append(out, b)
		}
	}
	return out
}

func (s *Store) GetBooking(bookingID int) (*entities.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bookings {
		if b.ID == bookingID {
			return &b, nil
		}
	}
	return nil, ErrBookingNotFound
}

// ExpireFinished marks active bookings past their end time as finished and
// frees their spots. Returns how many bookings were closed.
func (s *Store) ExpireFinished(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	closed := 0
	for i := range s.bookings {
		b := &s.bookings[i]
		if b.Status != statusActive || b.EndTime.After(now) {
			continue
		}
		b.Status = statusFinished
		closed++
		for lotID, spots := range s.spots {
			if lotID != b.ParkingLot {
				continue
			}
			for j := range spots {
				if spots[j].ID == b.ParkingSpot {
					spots[j].IsAvailable = true
				}
			}
		}
	}
	return closed
}

func (s *Store) VehiclesForUser(userID int) []entities.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.Vehicle, len(s.vehicles[userID]))
	copy(out, s.vehicles[userID])
	return out
}

func (s *Store) AddVehicle(userID int, req *entities.VehicleRequest) *entities.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := entities.Vehicle{
		ID:           s.nextVehicleID,
		LicensePlate: req.LicensePlate,
		VehicleType:  req.VehicleType,
		Make:         req.Make,
		Model:        req.Model,
		Color:        req.Color,
	}
	s.nextVehicleID++
	s.vehicles[userID] = append(s.vehicles[userID], v)
	return &v
}
