package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/warp/reservation-engine/api"
	"github.com/warp/reservation-engine/booking"
	"github.com/warp/reservation-engine/interval"
	"github.com/warp/reservation-engine/store/memory"
	"github.com/warp/reservation-engine/substitution"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var shiftStart = time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC)

type env struct {
	router http.Handler
	store  *memory.Store
	clock  *time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, store.SaveResource(ctx, booking.Resource{
		ID: "van-1", Name: "Delivery Van", Status: booking.ResourceAvailable,
	}))
	require.NoError(t, store.SaveAssignment(ctx, substitution.Assignment{
		ID:          "shift-1",
		Label:       "Saturday shift",
		MaxRadiusKm: 20,
		Window:      interval.New(shiftStart, shiftStart.Add(4*time.Hour)),
	}))

	manager := booking.NewManager(store, interval.NewIndex())
	ranker := &substitution.Ranker{
		Weights:      substitution.DefaultWeights(),
		Directory:    store,
		Availability: &substitution.IndexAvailability{Index: interval.NewIndex()},
	}
	coordinator := substitution.NewCoordinator(store, ranker, nil, 30*time.Minute)
	clock := time.Date(2026, time.March, 13, 12, 0, 0, 0, time.UTC)
	coordinator.Now = func() time.Time { return clock }
	coordinator.NewCode = func() string { return "424242" }

	handler := api.NewHandler(manager, coordinator, store)
	return &env{router: api.NewRouter(handler), store: store, clock: &clock}
}

func (e *env) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		var raw any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
		decoded, _ = raw.(map[string]any)
	}
	return rec, decoded
}

func reserveBody(startHour, endHour int, priority string) map[string]any {
	base := time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)
	return map[string]any{
		"resource_id": "van-1",
		"requester":   "alice",
		"start":       base.Add(time.Duration(startHour) * time.Hour).Format(time.RFC3339),
		"end":         base.Add(time.Duration(endHour) * time.Hour).Format(time.RFC3339),
		"priority":    priority,
	}
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func TestAPI_CreateReservation(t *testing.T) {
	e := newEnv(t)

	rec, body := e.do(t, "POST", "/api/reservations", reserveBody(0, 2, "normal"))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "no_conflict", body["decision"])

	rsv := body["reservation"].(map[string]any)
	require.Equal(t, "pending", rsv["status"])
	require.NotEmpty(t, rsv["id"])

	rec, got := e.do(t, "GET", "/api/reservations/"+rsv["id"].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, rsv["id"], got["id"])
}

func TestAPI_InvalidInterval(t *testing.T) {
	e := newEnv(t)

	rec, body := e.do(t, "POST", "/api/reservations", reserveBody(2, 2, "normal"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_INTERVAL", body["code"])
}

func TestAPI_ConflictReturns409WithConflictList(t *testing.T) {
	// GIVEN: An existing reservation
	// WHEN: An overlapping normal-priority request arrives
	// THEN: 409 CONFLICT_REJECTED with the blocking reservation attached

	e := newEnv(t)
	rec, first := e.do(t, "POST", "/api/reservations", reserveBody(0, 2, "normal"))
	require.Equal(t, http.StatusCreated, rec.Code)
	existingID := first["reservation"].(map[string]any)["id"]

	rec, body := e.do(t, "POST", "/api/reservations", reserveBody(1, 3, "high"))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "CONFLICT_REJECTED", body["code"])

	conflicts := body["conflicts"].([]any)
	require.Len(t, conflicts, 1)
	require.Equal(t, existingID, conflicts[0].(map[string]any)["id"])
}

func TestAPI_UrgentOverrideAdmitted(t *testing.T) {
	e := newEnv(t)
	e.do(t, "POST", "/api/reservations", reserveBody(0, 2, "normal"))

	rec, body := e.do(t, "POST", "/api/reservations", reserveBody(1, 3, "urgent"))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "urgent_override", body["decision"])
	require.Len(t, body["conflicts"].([]any), 1)
}

func TestAPI_LifecycleEndpoints(t *testing.T) {
	e := newEnv(t)
	_, created := e.do(t, "POST", "/api/reservations", reserveBody(0, 2, "normal"))
	id := created["reservation"].(map[string]any)["id"].(string)

	rec, body := e.do(t, "POST", fmt.Sprintf("/api/reservations/%s/confirm", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "confirmed", body["status"])

	rec, body = e.do(t, "POST", fmt.Sprintf("/api/reservations/%s/cancel", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "cancelled", body["status"])

	// Second cancel: cancelled is terminal.
	rec, body = e.do(t, "POST", fmt.Sprintf("/api/reservations/%s/cancel", id), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "ALREADY_CANCELLED", body["code"])
}

func TestAPI_ReservationNotFound(t *testing.T) {
	e := newEnv(t)
	rec, body := e.do(t, "GET", "/api/reservations/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", body["code"])
}

// =============================================================================
// RESOURCES
// =============================================================================

func TestAPI_ResourceRegistry(t *testing.T) {
	e := newEnv(t)

	rec, _ := e.do(t, "POST", "/api/resources", map[string]any{"id": "van-2", "name": "Backup Van"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := e.do(t, "POST", "/api/resources/van-2/status", map[string]any{"status": "in_use"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "in_use", body["status"])

	rec, _ = e.do(t, "POST", "/api/resources/van-2/status", map[string]any{"status": "bogus"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SUBSTITUTION FLOW
// =============================================================================

func seedCandidates(t *testing.T, e *env, ids ...string) {
	t.Helper()
	for i, id := range ids {
		r := 0.9 - float64(i)*0.2
		require.NoError(t, e.store.SaveCandidate(context.Background(), "shift-1", substitution.Candidate{
			ID: substitution.CandidateID(id), Name: id, Rating: &r, Contact: id + "@example.com",
		}))
	}
}

func (e *env) createVerifiedRequest(t *testing.T) string {
	t.Helper()
	rec, body := e.do(t, "POST", "/api/substitutions", map[string]any{
		"assignment_id":     "shift-1",
		"original_assignee": "worker-9",
		"start":             shiftStart.Format(time.RFC3339),
		"end":               shiftStart.Add(4 * time.Hour).Format(time.RFC3339),
		"reason":            "sick",
		"reporter_contact":  "worker-9@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := body["id"].(string)

	rec, _ = e.do(t, "POST", "/api/substitutions/"+id+"/verify", map[string]any{"code": "424242"})
	require.Equal(t, http.StatusOK, rec.Code)
	return id
}

func TestAPI_SubstitutionFlow(t *testing.T) {
	// Full happy path: report -> verify -> rank -> offer -> accept.
	e := newEnv(t)
	seedCandidates(t, e, "pat", "sam")

	id := e.createVerifiedRequest(t)

	rec, _ := e.do(t, "GET", "/api/substitutions/"+id+"/candidates", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, offer := e.do(t, "POST", "/api/substitutions/"+id+"/offers", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "pat", offer["candidate_id"])

	rec, result := e.do(t, "POST", "/api/offers/"+offer["id"].(string)+"/respond",
		map[string]any{"response": "accepted"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "assigned", result["request"].(map[string]any)["replacement"])
	require.Equal(t, "pat", result["request"].(map[string]any)["assigned_to"])
}

func TestAPI_VerificationGates(t *testing.T) {
	e := newEnv(t)
	seedCandidates(t, e, "pat")

	rec, body := e.do(t, "POST", "/api/substitutions", map[string]any{
		"assignment_id": "shift-1", "original_assignee": "worker-9",
		"start": shiftStart.Format(time.RFC3339),
		"end":   shiftStart.Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := body["id"].(string)

	// The code never appears in API responses.
	_, hasCode := body["verify_code"]
	require.False(t, hasCode)

	rec, body = e.do(t, "GET", "/api/substitutions/"+id+"/candidates", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "VERIFICATION_REQUIRED", body["code"])

	rec, body = e.do(t, "POST", "/api/substitutions/"+id+"/verify", map[string]any{"code": "000000"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "CODE_MISMATCH", body["code"])
}

func TestAPI_ExhaustionReturnsOutcomes(t *testing.T) {
	// GIVEN: A single candidate who declines
	// THEN: 422 SUBSTITUTION_EXHAUSTED with the outcome list

	e := newEnv(t)
	seedCandidates(t, e, "pat")

	id := e.createVerifiedRequest(t)

	_, offer := e.do(t, "POST", "/api/substitutions/"+id+"/offers", nil)

	rec, body := e.do(t, "POST", "/api/offers/"+offer["id"].(string)+"/respond",
		map[string]any{"response": "declined"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "SUBSTITUTION_EXHAUSTED", body["code"])

	outcomes := body["outcomes"].([]any)
	require.Len(t, outcomes, 1)
	require.Equal(t, "pat", outcomes[0].(map[string]any)["candidate_id"])
	require.Equal(t, "declined", outcomes[0].(map[string]any)["response"])
}

func TestAPI_ExpiredOfferReturns410(t *testing.T) {
	e := newEnv(t)
	seedCandidates(t, e, "pat", "sam")

	id := e.createVerifiedRequest(t)
	_, offer := e.do(t, "POST", "/api/substitutions/"+id+"/offers", nil)

	*e.clock = e.clock.Add(31 * time.Minute)

	rec, body := e.do(t, "POST", "/api/offers/"+offer["id"].(string)+"/respond",
		map[string]any{"response": "accepted"})
	require.Equal(t, http.StatusGone, rec.Code)
	require.Equal(t, "OFFER_EXPIRED", body["code"])
}

func TestAPI_BadOfferResponseValue(t *testing.T) {
	e := newEnv(t)
	rec, body := e.do(t, "POST", "/api/offers/whatever/respond", map[string]any{"response": "maybe"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "BAD_REQUEST", body["code"])
}
