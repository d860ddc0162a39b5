package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"parkngo/internal/entities"
)

// TokenSource supplies the bearer token attached to every request. An
// empty token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

type Config struct {
	BaseURL string
	// Timeout bounds each request; zero leaves the transport default.
	Timeout time.Duration
}

// Client is the HTTP implementation of the parking service API. It does
// not retry: a failed call is reported once and refetching is up to the
// user.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
}

func New(cfg Config, tokens TokenSource) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: cfg.Timeout},
		tokens: tokens,
	}, nil
}

func (c *Client) NearbyLots(ctx context.Context, lat, lon float64, radius int) ([]entities.ParkingLot, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	if radius > 0 {
		q.Set("radius", strconv.Itoa(radius))
	}
	var lots []entities.ParkingLot
	err := c.do(ctx, "nearby_lots", http.MethodGet, "/api/parking/lots/nearby/", q, nil, nil, &lots)
	return lots, err
}

func (c *Client) SearchLots(ctx context.Context, query string, lat, lon float64, radius int) ([]entities.ParkingLot, error) {
	q := url.Values{}
	q.Set("q", query)
	if lat != 0 || lon != 0 {
		q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	}
	if radius > 0 {
		q.Set("radius", strconv.Itoa(radius))
	}
	var lots []entities.ParkingLot
	err := c.do(ctx, "search_lots", http.MethodGet, "/api/parking/lots/search/", q, nil, nil, &lots)
	return lots, err
}

func (c *Client) GetLot(ctx context.Context, lotID int) (*entities.ParkingLot, error) {
	var lot entities.ParkingLot
	path := fmt.Sprintf("/api/parking/lots/%d/", lotID)
	if err := c.do(ctx, "get_lot", http.MethodGet, path, nil, nil, nil, &lot); err != nil {
		return nil, err
	}
	return &lot, nil
}

func (c *Client) AvailableSpots(ctx context.Context, lotID int) ([]entities.ParkingSpot, error) {
	var spots []entities.ParkingSpot
	path := fmt.Sprintf("/api/parking/lots/%d/available-spots/", lotID)
	err := c.do(ctx, "available_spots", http.MethodGet, path, nil, nil, nil, &spots)
	return spots, err
}

// CreateBooking submits a validated booking payload. Every submission
// carries a fresh Idempotency-Key so an ambiguous network failure cannot
// double-book on a blind user retry.
func (c *Client) CreateBooking(ctx context.Context, req *entities.BookingRequest) (*entities.Booking, error) {
	headers := http.Header{}
	headers.Set("Idempotency-Key", uuid.NewString())
	var booking entities.Booking
	if err := c.do(ctx, "create_booking", http.MethodPost, "/api/parking/bookings/", nil, req, headers, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) MyBookings(ctx context.Context) ([]entities.Booking, error) {
	var bookings []entities.Booking
	err := c.do(ctx, "list_bookings", http.MethodGet, "/api/parking/bookings/", nil, nil, nil, &bookings)
	return bookings, err
}

func (c *Client) InitiatePayment(ctx context.Context, bookingID int, phone string) (*entities.Payment, error) {
	req := entities.PaymentRequest{BookingID: bookingID, PhoneNumber: phone}
	var payment entities.Payment
	if err := c.do(ctx, "initiate_payment", http.MethodPost, "/api/parking/payments/", nil, req, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *Client) Vehicles(ctx context.Context) ([]entities.Vehicle, error) {
	var vehicles []entities.Vehicle
	err := c.do(ctx, "list_vehicles", http.MethodGet, "/api/parking/vehicles/", nil, nil, nil, &vehicles)
	return vehicles, err
}

func (c *Client) AddVehicle(ctx context.Context, req *entities.VehicleRequest) (*entities.Vehicle, error) {
	var vehicle entities.Vehicle
	if err := c.do(ctx, "add_vehicle", http.MethodPost, "/api/parking/vehicles/", nil, req, nil, &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (c *Client) Register(ctx context.Context, req *entities.Registration) error {
	return c.do(ctx, "register", http.MethodPost, "/api/auth/register/", nil, req, nil, nil)
}

func (c *Client) VerifyOTP(ctx context.Context, req *entities.OTPVerification) error {
	return c.do(ctx, "verify_otp", http.MethodPost, "/api/auth/verify-otp/", nil, req, nil, nil)
}

func (c *Client) Login(ctx context.Context, creds *entities.Credentials) (*entities.TokenPair, error) {
	var pair entities.TokenPair
	if err := c.do(ctx, "login", http.MethodPost, "/api/auth/login/", nil, creds, nil, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *Client) Profile(ctx context.Context) (*entities.User, error) {
	var user entities.User
	if err := c.do(ctx, "get_profile", http.MethodGet, "/api/auth/profile/me/", nil, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, headers http.Header, out any) error {
	u := *c.base
	u.Path, _ = url.JoinPath(u.Path, path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var e struct {
			Message string `json:"message"`
			Detail  string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		msg := e.Message
		if msg == "" {
			msg = e.Detail
		}
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return nil
}
