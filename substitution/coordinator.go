/*
coordinator.go - Substitution request lifecycle and sequential offer protocol

PURPOSE:
  Orchestrates the full flow:

  1. Report:  RequestSubstitution creates the request and sends a
              one-time verification code to the reporter.
  2. Verify:  Verify gates ranking behind the code (3 wrong attempts
              reject the request).
  3. Offers:  StartOffers issues an offer to the rank-1 candidate.
              On decline or expiry the next-ranked candidate is offered.
              On accept the request is assigned, the cover window is
              recorded in the candidate calendar, and the protocol stops.
              List exhausted -> request failed, full outcome list surfaced.

OFFER DEADLINES:
  ExpiresAt is persisted, not held in a timer, so deadlines survive
  restarts. Respond checks the deadline directly; the api.OfferScheduler
  sweep expires overdue offers between responses. Once expired, a late
  acceptance fails with ErrOfferExpired even microseconds past the
  deadline - the at-most-one-pending-offer invariant stays strict.

  Ranking is recomputed on each advance (availability may have changed);
  candidates already offered in this request are skipped.

NOTIFICATION:
  Sends are best-effort side effects. A failed send is logged and never
  rolls back offer or request state.

SEE ALSO:
  - ranking.go: Candidate ordering
  - store.go: Persistence contract
  - api/scheduler.go: Expiry sweep
*/
package substitution

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/reservation-engine/interval"
	"github.com/warp/reservation-engine/notify"
)

const defaultMaxVerifyAttempts = 3

// =============================================================================
// COORDINATOR
// =============================================================================

type Coordinator struct {
	store    Store
	ranker   *Ranker
	notifier notify.Notifier

	// calendar records accepted cover as a commitment, so the ranking's
	// hard availability filter excludes the candidate from overlapping
	// requests. Nil when the ranker's Availability source is read-only.
	calendar Calendar

	// OfferWindow is the fixed response window per offer.
	OfferWindow       time.Duration
	MaxVerifyAttempts int

	// Injectable for deterministic tests.
	Now     func() time.Time
	NewCode func() string

	// Serializes protocol transitions so at most one offer can be
	// pending per request.
	mu sync.Mutex
}

func NewCoordinator(store Store, ranker *Ranker, notifier notify.Notifier, offerWindow time.Duration) *Coordinator {
	if notifier == nil {
		notifier = notify.NewConsole()
	}
	c := &Coordinator{
		store:             store,
		ranker:            ranker,
		notifier:          notifier,
		OfferWindow:       offerWindow,
		MaxVerifyAttempts: defaultMaxVerifyAttempts,
		Now:               time.Now,
		NewCode:           randomCode,
	}
	// Write acceptances back to the same source the filter reads from.
	if cal, ok := ranker.Availability.(Calendar); ok {
		c.calendar = cal
	}
	return c
}

// Rehydrate replays assigned requests into the candidate calendar.
// Call once on startup before serving, mirroring the reservation
// index rebuild.
func (c *Coordinator) Rehydrate(ctx context.Context) error {
	if c.calendar == nil {
		return nil
	}
	assigned, err := c.store.AssignedRequests(ctx)
	if err != nil {
		return fmt.Errorf("failed to list assigned requests: %w", err)
	}
	for _, req := range assigned {
		c.calendar.MarkBusy(req.AssignedTo, c.coverWindow(ctx, req), string(req.ID))
	}
	return nil
}

// coverWindow is the interval a replacement actually commits to: the
// reported unavailable interval, or the assignment's own window when
// the report carried none. Must match the window Rank filters on.
func (c *Coordinator) coverWindow(ctx context.Context, req Request) interval.Interval {
	if !req.Unavailable.IsZero() {
		return req.Unavailable
	}
	a, err := c.ranker.Directory.Assignment(ctx, req.AssignmentID)
	if err != nil {
		log.Printf("[Substitution] failed to load assignment %s for calendar entry: %v", req.AssignmentID, err)
		return req.Unavailable
	}
	return a.Window
}

// randomCode returns a 6-digit one-time verification code.
func randomCode() string {
	n, err := crand.Int(crand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// a time-derived code rather than aborting a sick-leave report.
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

func (c *Coordinator) send(ctx context.Context, recipient, subject, message string) {
	if recipient == "" {
		return
	}
	if err := c.notifier.Send(ctx, recipient, subject, message); err != nil {
		log.Printf("[Substitution] notify failed (recipient=%s subject=%q): %v", recipient, subject, err)
	}
}

// =============================================================================
// REPORT & VERIFY
// =============================================================================

// RequestSubstitution records an unavailability report and sends the
// reporter a one-time verification code.
func (c *Coordinator) RequestSubstitution(
	ctx context.Context,
	assignmentID AssignmentID,
	originalAssignee CandidateID,
	unavailable interval.Interval,
	reason string,
	reporterContact string,
) (Request, error) {
	if !unavailable.IsZero() && !unavailable.IsValid() {
		return Request{}, fmt.Errorf("window %s: %w", unavailable, ErrInvalidWindow)
	}
	if _, err := c.ranker.Directory.Assignment(ctx, assignmentID); err != nil {
		return Request{}, err
	}

	now := c.Now()
	req := Request{
		ID:               RequestID(uuid.NewString()),
		AssignmentID:     assignmentID,
		OriginalAssignee: originalAssignee,
		Unavailable:      unavailable,
		Reason:           reason,
		Verification:     VerificationPending,
		VerifyCode:       c.NewCode(),
		Replacement:      ReplacementPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := c.store.SaveRequest(ctx, req); err != nil {
		return Request{}, fmt.Errorf("failed to persist substitution request: %w", err)
	}

	c.send(ctx, reporterContact, "verification code",
		fmt.Sprintf("Your verification code is %s", req.VerifyCode))
	return req, nil
}

// Verify checks the one-time code. Three wrong attempts reject the
// request permanently.
func (c *Coordinator) Verify(ctx context.Context, id RequestID, code string) (Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := c.store.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.Verification != VerificationPending {
		return Request{}, fmt.Errorf("request %s is %s: %w", id, req.Verification, ErrInvalidState)
	}

	if code != req.VerifyCode {
		req.VerifyAttempts++
		if req.VerifyAttempts >= c.MaxVerifyAttempts {
			req.Verification = VerificationRejected
		}
		req.UpdatedAt = c.Now()
		if uerr := c.store.UpdateRequest(ctx, req); uerr != nil {
			return Request{}, fmt.Errorf("failed to record verification attempt: %w", uerr)
		}
		return Request{}, fmt.Errorf("request %s: %w", id, ErrCodeMismatch)
	}

	req.Verification = VerificationVerified
	req.UpdatedAt = c.Now()
	if err := c.store.UpdateRequest(ctx, req); err != nil {
		return Request{}, fmt.Errorf("failed to mark request verified: %w", err)
	}
	return req, nil
}

// =============================================================================
// RANKING (read-only) & OFFERS
// =============================================================================

// RankedCandidates returns the current ranking for UI display before
// committing to the offer protocol. Verified requests only.
func (c *Coordinator) RankedCandidates(ctx context.Context, id RequestID) ([]Score, error) {
	req, err := c.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Verification != VerificationVerified {
		return nil, fmt.Errorf("request %s: %w", id, ErrVerificationRequired)
	}
	return c.ranker.Rank(ctx, req)
}

// StartOffers begins the sequential protocol: issues an offer to the
// rank-1 candidate and moves the request to in_progress.
func (c *Coordinator) StartOffers(ctx context.Context, id RequestID) (Offer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := c.store.GetRequest(ctx, id)
	if err != nil {
		return Offer{}, err
	}
	if req.Verification != VerificationVerified {
		return Offer{}, fmt.Errorf("request %s: %w", id, ErrVerificationRequired)
	}
	if req.Replacement != ReplacementPending {
		return Offer{}, fmt.Errorf("request %s replacement is %s: %w", id, req.Replacement, ErrInvalidState)
	}

	req.Replacement = ReplacementInProgress
	req.UpdatedAt = c.Now()
	if err := c.store.UpdateRequest(ctx, req); err != nil {
		return Offer{}, fmt.Errorf("failed to start offer protocol: %w", err)
	}

	offer, err := c.advance(ctx, req)
	if err != nil {
		return Offer{}, err
	}
	return *offer, nil
}

// RespondResult reports the state after a candidate response.
type RespondResult struct {
	Offer   Offer
	Request Request
	// NextOffer is set when a decline advanced the protocol to the next
	// ranked candidate.
	NextOffer *Offer
}

// Respond records a candidate's accept/decline. Late responses fail
// with ErrOfferExpired and do not change request state.
func (c *Coordinator) Respond(ctx context.Context, offerID OfferID, accept bool) (*RespondResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	offer, err := c.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}

	switch offer.Response {
	case OfferPending:
		// fall through to deadline check
	case OfferExpired:
		return nil, fmt.Errorf("offer %s: %w", offerID, ErrOfferExpired)
	default:
		return nil, fmt.Errorf("offer %s is %s: %w", offerID, offer.Response, ErrOfferResolved)
	}

	now := c.Now()
	req, err := c.store.GetRequest(ctx, offer.RequestID)
	if err != nil {
		return nil, err
	}

	// Hard deadline: a response after ExpiresAt is rejected even if the
	// sweep hasn't run yet.
	if !now.Before(offer.ExpiresAt) {
		if _, err := c.expireAndAdvance(ctx, offer, req); err != nil && !errors.Is(err, ErrSubstitutionExhausted) {
			return nil, err
		}
		return nil, fmt.Errorf("offer %s: %w", offerID, ErrOfferExpired)
	}

	if accept {
		offer.Response = OfferAccepted
		offer.RespondedAt = &now
		if err := c.store.UpdateOffer(ctx, offer); err != nil {
			return nil, fmt.Errorf("failed to record acceptance: %w", err)
		}
		req.Replacement = ReplacementAssigned
		req.AssignedTo = offer.CandidateID
		req.UpdatedAt = now
		if err := c.store.UpdateRequest(ctx, req); err != nil {
			return nil, fmt.Errorf("failed to mark request assigned: %w", err)
		}
		// The accepted cover is now a commitment: without this entry the
		// candidate would still rank as free for an overlapping request
		// and could be double-committed.
		if c.calendar != nil {
			c.calendar.MarkBusy(offer.CandidateID, c.coverWindow(ctx, req), string(req.ID))
		}
		log.Printf("[Substitution] request %s assigned to candidate %s", req.ID, offer.CandidateID)
		return &RespondResult{Offer: offer, Request: req}, nil
	}

	offer.Response = OfferDeclined
	offer.RespondedAt = &now
	if err := c.store.UpdateOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to record decline: %w", err)
	}

	next, err := c.advance(ctx, req)
	if err != nil {
		if errors.Is(err, ErrSubstitutionExhausted) {
			// Re-read so the result reflects the failed state written by
			// the exhaustion step. If the re-read fails, apply the same
			// transition locally rather than returning a stale request.
			if updated, rerr := c.store.GetRequest(ctx, req.ID); rerr == nil {
				req = updated
			} else {
				log.Printf("[Substitution] failed to re-read request %s after exhaustion: %v", req.ID, rerr)
				req.Replacement = ReplacementFailed
				req.UpdatedAt = c.Now()
			}
			return &RespondResult{Offer: offer, Request: req}, err
		}
		return nil, err
	}
	req, err = c.store.GetRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &RespondResult{Offer: offer, Request: req, NextOffer: next}, nil
}

// ExpireDue expires every pending offer whose deadline has passed and
// advances each affected request. Returns the number of offers expired.
// Called by the scheduler sweep.
func (c *Coordinator) ExpireDue(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	due, err := c.store.PendingOffersDueBy(ctx, c.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to query due offers: %w", err)
	}

	expired := 0
	for _, offer := range due {
		req, err := c.store.GetRequest(ctx, offer.RequestID)
		if err != nil {
			return expired, err
		}
		if _, err := c.expireAndAdvance(ctx, offer, req); err != nil {
			if errors.Is(err, ErrSubstitutionExhausted) {
				log.Printf("[Substitution] request %s exhausted after expiry of offer %s", req.ID, offer.ID)
			} else {
				return expired, err
			}
		}
		expired++
	}
	return expired, nil
}

// =============================================================================
// INTERNAL PROTOCOL STEPS (callers hold c.mu)
// =============================================================================

func (c *Coordinator) expireAndAdvance(ctx context.Context, offer Offer, req Request) (*Offer, error) {
	now := c.Now()
	offer.Response = OfferExpired
	offer.RespondedAt = &now
	if err := c.store.UpdateOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to expire offer: %w", err)
	}
	return c.advance(ctx, req)
}

// advance issues the next offer down the ranked list, skipping
// candidates already offered. Exhaustion fails the request and returns
// ExhaustedError with the full outcome list.
func (c *Coordinator) advance(ctx context.Context, req Request) (*Offer, error) {
	if req.Replacement != ReplacementInProgress {
		return nil, fmt.Errorf("request %s replacement is %s: %w", req.ID, req.Replacement, ErrInvalidState)
	}

	previous, err := c.store.OffersByRequest(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior offers: %w", err)
	}
	offered := make(map[CandidateID]bool, len(previous))
	for _, o := range previous {
		offered[o.CandidateID] = true
	}

	// Recompute the ranking each step: availability changes between
	// offers, and scores are never cached across requests.
	scores, err := c.ranker.Rank(ctx, req)
	if err != nil && !errors.Is(err, ErrNoEligibleCandidates) {
		return nil, err
	}

	for rank, s := range scores {
		if offered[s.CandidateID] {
			continue
		}
		return c.issue(ctx, req, s.CandidateID, rank+1)
	}

	return nil, c.exhaust(ctx, req, previous)
}

func (c *Coordinator) issue(ctx context.Context, req Request, candidate CandidateID, rank int) (*Offer, error) {
	now := c.Now()
	offer := Offer{
		ID:          OfferID(uuid.NewString()),
		RequestID:   req.ID,
		CandidateID: candidate,
		Rank:        rank,
		SentAt:      now,
		ExpiresAt:   now.Add(c.OfferWindow),
		Response:    OfferPending,
	}
	if err := c.store.SaveOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to persist offer: %w", err)
	}

	contact := c.contactFor(ctx, req.AssignmentID, candidate)
	c.send(ctx, contact, "shift cover offer",
		fmt.Sprintf("You have been offered cover for assignment %s. Respond by %s.",
			req.AssignmentID, offer.ExpiresAt.Format(time.RFC3339)))

	log.Printf("[Substitution] request %s: offer %s issued to candidate %s (rank %d)",
		req.ID, offer.ID, candidate, rank)
	return &offer, nil
}

func (c *Coordinator) exhaust(ctx context.Context, req Request, offers []Offer) error {
	req.Replacement = ReplacementFailed
	req.UpdatedAt = c.Now()
	if err := c.store.UpdateRequest(ctx, req); err != nil {
		return fmt.Errorf("failed to mark request failed: %w", err)
	}

	outcomes := make([]OfferOutcome, 0, len(offers))
	for _, o := range offers {
		outcomes = append(outcomes, OfferOutcome{
			CandidateID: o.CandidateID,
			Rank:        o.Rank,
			Response:    o.Response,
			SentAt:      o.SentAt,
		})
	}
	if len(outcomes) == 0 {
		return fmt.Errorf("request %s: %w", req.ID, ErrNoEligibleCandidates)
	}
	return &ExhaustedError{RequestID: req.ID, Outcomes: outcomes}
}

func (c *Coordinator) contactFor(ctx context.Context, assignmentID AssignmentID, id CandidateID) string {
	candidates, err := c.ranker.Directory.Candidates(ctx, assignmentID)
	if err != nil {
		return ""
	}
	for _, cand := range candidates {
		if cand.ID == id {
			return cand.Contact
		}
	}
	return ""
}

// GetRequest returns a substitution request by id.
func (c *Coordinator) GetRequest(ctx context.Context, id RequestID) (Request, error) {
	return c.store.GetRequest(ctx, id)
}
