package entities

import "time"

// BookingRequest is the write-once payload sent to the booking endpoint.
// It is produced by a validated booking form and never mutated afterwards.
type BookingRequest struct {
	ParkingLot   int       `json:"parking_lot"`
	ParkingSpot  int       `json:"parking_spot"`
	LicensePlate string    `json:"license_plate"`
	PhoneNumber  string    `json:"phone_number"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Cost         float64   `json:"cost"`
}

type Booking struct {
	ID           int       `json:"id"`
	User         int       `json:"user"`
	ParkingLot   int       `json:"parking_lot"`
	ParkingSpot  int       `json:"parking_spot"`
	LicensePlate string    `json:"license_plate"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Cost         float64   `json:"cost"`
	Status       string    `json:"status"`
	BookingTime  time.Time `json:"booking_time"`
}

type PaymentRequest struct {
	BookingID   int    `json:"booking_id"`
	PhoneNumber string `json:"phone_number"`
}

type Payment struct {
	ID            string    `json:"id"`
	PhoneNumber   string    `json:"phone_number"`
	BookingID     int       `json:"booking_id"`
	Amount        float64   `json:"amount"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
