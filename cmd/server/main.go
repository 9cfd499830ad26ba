/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the reservation engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load environment config
  2. Initialize SQLite store
  3. Rebuild the interval index from persisted reservations
  4. Load the scoring profile, wire the substitution coordinator and
     replay assigned cover into the candidate calendar
  5. Start the offer-expiry scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (overrides PORT)
  -db       SQLite database path (overrides DB_PATH)
            Use ":memory:" for in-memory database
  -profile  Scoring profile JSON path (overrides SCORING_PROFILE)

ENVIRONMENT:
  PORT, DB_PATH, AMQP_URL, AMQP_EXCHANGE, SCORING_PROFILE,
  OFFER_SWEEP_INTERVAL_SEC. See config/config.go. An empty AMQP_URL
  falls back to the console notifier.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler, close the notifier and database
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Offer expiry sweep
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/reservation-engine/api"
	"github.com/warp/reservation-engine/booking"
	"github.com/warp/reservation-engine/config"
	"github.com/warp/reservation-engine/factory"
	"github.com/warp/reservation-engine/interval"
	"github.com/warp/reservation-engine/notify"
	"github.com/warp/reservation-engine/store/sqlite"
	"github.com/warp/reservation-engine/substitution"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override environment for local runs.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	profilePath := flag.String("profile", cfg.ScoringProfilePath, "scoring profile JSON path")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Reservation engine: rebuild the in-memory interval index before
	// serving, so conflict checks see reservations from previous runs.
	bookingIndex := interval.NewIndex()
	manager := booking.NewManager(store, bookingIndex)
	if err := manager.Rehydrate(context.Background()); err != nil {
		log.Fatalf("Failed to rebuild interval index: %v", err)
	}

	// Scoring profile
	profile, err := factory.LoadProfile(*profilePath)
	if err != nil {
		log.Fatalf("Failed to load scoring profile: %v", err)
	}
	log.Printf("Using scoring profile %q (offer window %v)", profile.Name, profile.OfferWindow)

	// Notifier: AMQP when configured, console otherwise.
	var notifier notify.Notifier
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("Failed to connect to AMQP broker: %v", err)
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	} else {
		notifier = notify.NewConsole()
	}

	// Substitution coordinator. Candidate availability lives in its own
	// interval index keyed by candidate id; the coordinator records
	// accepted cover there so the hard filter sees commitments.
	ranker := &substitution.Ranker{
		Weights:      profile.Weights,
		Directory:    store,
		Availability: &substitution.IndexAvailability{Index: interval.NewIndex()},
	}
	coordinator := substitution.NewCoordinator(store, ranker, notifier, profile.OfferWindow)
	if err := coordinator.Rehydrate(context.Background()); err != nil {
		log.Fatalf("Failed to rebuild candidate calendar: %v", err)
	}

	// Offer expiry sweep
	scheduler := api.NewOfferScheduler(coordinator)
	scheduler.SweepInterval = time.Duration(cfg.SweepIntervalSec) * time.Second
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	handler := api.NewHandler(manager, coordinator, store)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
