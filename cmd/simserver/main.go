package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"parkngo/internal/sim"
)

func main() {
	godotenv.Load()

	secret := os.Getenv("SIM_JWT_SECRET")
	if secret == "" {
		secret = "parkngo-dev-secret"
		log.Println("SIM_JWT_SECRET not set, using dev default")
	}

	store := sim.NewStore()
	server := sim.NewServer(store, secret)

	c := cron.New()
	_, err := c.AddFunc("@every 1m", func() {
		if n := store.ExpireFinished(time.Now().UTC()); n > 0 {
			log.Printf("Expiry job: finished %d bookings and freed their spots", n)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule expiry job: %v", err)
	}
	c.Start()

	handler := handlers.LoggingHandler(os.Stdout, handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "Idempotency-Key"}),
	)(server.Router()))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Simulator running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
