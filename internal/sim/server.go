package sim

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"parkngo/internal/entities"
)

type userRecord struct {
	ID        int
	FirstName string
	LastName  string
	Phone     string
	Password  string
	Verified  bool
}

type ctxKey int

const userIDKey ctxKey = 0

// Server is an in-memory stand-in for the real parking service, used for
// local development and integration tests. It mirrors the production
// endpoint paths and response shapes but holds no state beyond process
// memory.
type Server struct {
	store     *Store
	jwtSecret []byte

	mu         sync.Mutex
	users      map[string]*userRecord
	payments   map[string]entities.Payment
	nextUserID int
}

func NewServer(store *Store, jwtSecret string) *Server {
	s := &Server{
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		users:      make(map[string]*userRecord),
		payments:   make(map[string]entities.Payment),
		nextUserID: 1,
	}
	// A ready-made account so the CLI works out of the box.
	s.users["+255700000001"] = &userRecord{
		ID: s.nextUserID, FirstName: "Demo", LastName: "Driver",
		Phone: "+255700000001", Password: "parkngo", Verified: true,
	}
	s.nextUserID++
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/register/", s.Register).Methods("POST")
	r.HandleFunc("/api/auth/verify-otp/", s.VerifyOTP).Methods("POST")
	r.HandleFunc("/api/auth/login/", s.Login).Methods("POST")
	r.HandleFunc("/api/parking/lots/nearby/", s.NearbyLots).Methods("GET")
	r.HandleFunc("/api/parking/lots/search/", s.SearchLots).Methods("GET")
	r.HandleFunc("/api/parking/lots/{id}/", s.GetLot).Methods("GET")
	r.HandleFunc("/api/parking/lots/{id}/available-spots/", s.AvailableSpots).Methods("GET")

	// Authenticated endpoints
	authed := r.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)
	authed.HandleFunc("/api/auth/profile/me/", s.Profile).Methods("GET")
	authed.HandleFunc("/api/parking/bookings/", s.CreateBooking).Methods("POST")
	authed.HandleFunc("/api/parking/bookings/", s.ListBookings).Methods("GET")
	authed.HandleFunc("/api/parking/payments/", s.InitiatePayment).Methods("POST")
	authed.HandleFunc("/api/parking/vehicles/", s.ListVehicles).Methods("GET")
	authed.HandleFunc("/api/parking/vehicles/", s.AddVehicle).Methods("POST")

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.userFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func (s *Server) userFromRequest(r *http.Request) (int, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return 0, false
	}
	claims := struct {
		UserID int `json:"user_id"`
		jwt.RegisteredClaims
	}{}
	tok, err := jwt.ParseWithClaims(header[len(prefix):], &claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return 0, false
	}
	return claims.UserID, true
}

func (s *Server) mintToken(u *userRecord, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":      u.ID,
		"first_name":   u.FirstName,
		"last_name":    u.LastName,
		"phone_number": u.Phone,
		"iat":          time.Now().Unix(),
		"exp":          time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req entities.Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.PhoneNumber == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "phone_number and password are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.PhoneNumber]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "phone number already registered")
		return
	}
	s.users[req.PhoneNumber] = &userRecord{
		ID:        s.nextUserID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.PhoneNumber,
		Password:  req.Password,
	}
	s.nextUserID++
	s.mu.Unlock()

	// The real service texts a code; the simulator accepts a fixed one.
	log.Printf("Registered %s, OTP is 123456", req.PhoneNumber)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "OTP sent"})
}

func (s *Server) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req entities.OTPVerification
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	s.mu.Lock()
	u, exists := s.users[req.PhoneNumber]
	if exists && req.OTP == "123456" {
		u.Verified = true
	}
	s.mu.Unlock()

	if !exists || req.OTP != "123456" {
		writeError(w, http.StatusBadRequest, "invalid code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "verified"})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var creds entities.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	s.mu.Lock()
	u, exists := s.users[creds.PhoneNumber]
	s.mu.Unlock()

	if !exists || u.Password != creds.Password || !u.Verified {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	access, err := s.mintToken(u, time.Hour)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	refresh, err := s.mintToken(u, 7*24*time.Hour)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, entities.TokenPair{Access: access, Refresh: refresh})
}

func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			writeJSON(w, http.StatusOK, entities.User{
				UserID:      u.ID,
				FirstName:   u.FirstName,
				LastName:    u.LastName,
				PhoneNumber: u.Phone,
			})
			return
		}
	}
	writeError(w, http.StatusNotFound, "user not found")
}

func (s *Server) NearbyLots(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}
	writeJSON(w, http.StatusOK, s.store.NearbyLots(lat, lon))
}

func (s *Server) SearchLots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	writeJSON(w, http.StatusOK, s.store.SearchLots(query))
}

func (s *Server) GetLot(w http.ResponseWriter, r *http.Request) {
	lotID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lot id")
		return
	}
	lot, err := s.store.GetLot(lotID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Parking lot not found")
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

func (s *Server) AvailableSpots(w http.ResponseWriter, r *http.Request) {
	lotID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lot id")
		return
	}
	spots, err := s.store.AvailableSpots(lotID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Parking lot not found")
		return
	}
	writeJSON(w, http.StatusOK, spots)
}

func (s *Server) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int)

	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	b, err := s.store.CreateBooking(userID, &req)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int)
	bookings := s.store.BookingsForUser(userID)
	if bookings == nil {
		bookings = []entities.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (s *Server) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req entities.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	b, err := s.store.GetBooking(req.BookingID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Booking not found")
		return
	}

	now := time.Now().UTC()
	payment := entities.Payment{
		ID:            uuid.NewString(),
		PhoneNumber:   req.PhoneNumber,
		BookingID:     b.ID,
		Amount:        b.Cost,
		TransactionID: uuid.NewString(),
		Status:        statusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	s.payments[payment.ID] = payment
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, payment)
}

func (s *Server) ListVehicles(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int)
	writeJSON(w, http.StatusOK, s.store.VehiclesForUser(userID))
}

func (s *Server) AddVehicle(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int)

	var req entities.VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.LicensePlate == "" {
		writeError(w, http.StatusBadRequest, "license_plate is required")
		return
	}
	writeJSON(w, http.StatusCreated, s.store.AddVehicle(userID, &req))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
