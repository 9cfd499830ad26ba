/*
scheduler.go - Offer expiry sweep

PURPOSE:
  Offer deadlines are persisted, not held in timers, so a restart never
  loses one. This scheduler periodically expires pending offers whose
  deadline has passed and lets the coordinator advance those requests to
  the next-ranked candidate.

DESIGN:
  - Runs a background goroutine with a configurable sweep interval
  - Each sweep calls Coordinator.ExpireDue, which handles the protocol
  - Late responses are rejected by Respond regardless of the sweep, so
    the interval only bounds how long an overdue offer blocks advancement

USAGE:
  scheduler := NewOfferScheduler(coordinator)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - substitution/coordinator.go: ExpireDue
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/reservation-engine/substitution"
)

// OfferScheduler expires overdue offers in the background.
type OfferScheduler struct {
	Coordinator   *substitution.Coordinator
	SweepInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewOfferScheduler creates a new scheduler with a 30s sweep interval.
func NewOfferScheduler(coordinator *substitution.Coordinator) *OfferScheduler {
	return &OfferScheduler{
		Coordinator:   coordinator,
		SweepInterval: 30 * time.Second,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweep loop.
func (os *OfferScheduler) Start() {
	os.mu.Lock()
	defer os.mu.Unlock()

	if !os.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	os.ticker = time.NewTicker(os.SweepInterval)
	os.wg.Add(1)

	go os.run()

	log.Printf("[Scheduler] Started with sweep interval: %v", os.SweepInterval)
}

// Stop halts the sweep loop and waits for the current sweep to finish.
func (os *OfferScheduler) Stop() {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.ticker == nil {
		return
	}

	os.ticker.Stop()
	close(os.stop)
	os.wg.Wait()

	log.Println("[Scheduler] Stopped")
}

func (os *OfferScheduler) run() {
	defer os.wg.Done()

	// Sweep once at startup: offers may have expired while we were down.
	os.sweep()

	for {
		select {
		case <-os.ticker.C:
			os.sweep()
		case <-os.stop:
			return
		}
	}
}

func (os *OfferScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := os.Coordinator.ExpireDue(ctx)
	if err != nil {
		log.Printf("[Scheduler] Sweep failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("[Scheduler] Expired %d overdue offer(s)", expired)
	}
}
