package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"parkngo/internal/auth"
	"parkngo/internal/booking"
	"parkngo/internal/client"
	"parkngo/internal/entities"
)

// parkcli walks the whole booking flow against a running server: sign in,
// find a lot, pick the first free spot, book it for the requested stay and
// initiate payment.
func main() {
	godotenv.Load()

	var (
		baseURL = flag.String("base", envOr("PARKNGO_API_URL", "http://localhost:8080"), "API base URL")
		phone   = flag.String("phone", "+255700000001", "account phone number")
		pass    = flag.String("password", "parkngo", "account password")
		query   = flag.String("query", "", "free-text lot search (empty uses nearby)")
		lat     = flag.Float64("lat", -6.8160, "latitude for nearby search")
		lon     = flag.Float64("lon", 39.2894, "longitude for nearby search")
		plate   = flag.String("plate", "T123ABC", "vehicle license plate")
		hours   = flag.Float64("hours", 1.5, "parking duration in hours")
	)
	flag.Parse()

	session := auth.NewSession()
	api, err := client.New(client.Config{BaseURL: *baseURL, Timeout: 10 * time.Second}, session)
	if err != nil {
		log.Fatalf("Bad configuration: %v", err)
	}
	ctx := context.Background()

	pair, err := api.Login(ctx, &entities.Credentials{PhoneNumber: *phone, Password: *pass})
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	session.SetTokens(*pair)
	user, err := session.User()
	if err != nil {
		log.Fatalf("Could not decode session token: %v", err)
	}
	log.Printf("Signed in as %s %s (%s)", user.FirstName, user.LastName, user.PhoneNumber)

	var lots []entities.ParkingLot
	if *query != "" {
		lots, err = api.SearchLots(ctx, *query, *lat, *lon, 0)
	} else {
		lots, err = api.NearbyLots(ctx, *lat, *lon, 0)
	}
	if err != nil {
		log.Fatalf("Lot lookup failed: %v", err)
	}
	if len(lots) == 0 {
		log.Fatal("No parking lots found")
	}
	lot := lots[0]
	log.Printf("Selected lot: %s (%s), %d spots available", lot.Name, lot.Address, lot.AvailableSpotsCount)

	spots, err := api.AvailableSpots(ctx, lot.ID)
	if err != nil {
		log.Fatalf("Spot lookup failed: %v", err)
	}
	var spot *entities.ParkingSpot
	for i := range spots {
		if spots[i].IsAvailable {
			spot = &spots[i]
			break
		}
	}
	if spot == nil {
		log.Fatal("No free spots in this lot")
	}
	log.Printf("Selected spot %s (%s) at %.0f/hour", spot.SpotNumber, spot.SpotType, spot.HourlyRate)

	form := booking.NewForm()
	now := time.Now()
	form.SetStart(now)
	form.SetEnd(now.Add(time.Duration(*hours * float64(time.Hour))))
	form.SetLicensePlate(*plate)
	form.SetPhoneNumber(user.PhoneNumber)

	est, err := booking.Quote(form.Window(), spot.HourlyRate)
	if err != nil {
		log.Fatalf("Could not price booking: %v", err)
	}
	log.Printf("Stay of %.2f hours bills as %.0f", est.DurationHours, est.Cost)

	req, err := form.Submit(lot.ID, *spot)
	if err != nil {
		log.Fatalf("Booking rejected: %v", err)
	}
	created, err := api.CreateBooking(ctx, req)
	if err != nil {
		log.Fatalf("Booking failed: %v", err)
	}
	log.Printf("Booking %d confirmed for spot %s, cost %.0f", created.ID, spot.SpotNumber, created.Cost)

	payment, err := api.InitiatePayment(ctx, created.ID, user.PhoneNumber)
	if err != nil {
		log.Fatalf("Payment initiation failed: %v", err)
	}
	log.Printf("Payment %s is %s (transaction %s)", payment.ID, payment.Status, payment.TransactionID)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
