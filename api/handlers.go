/*
handlers.go - HTTP handlers for the reservation and substitution APIs

PURPOSE:
  Thin translation layer: decode JSON, call the engine, map domain
  errors to status codes. No business rules live here.

ERROR MAPPING:
  Domain errors carry a stable machine-readable code in the body so
  clients can branch without parsing messages. Conflict rejections
  attach the conflicting reservations; exhaustion attaches the full
  per-candidate outcome list.

SEE ALSO:
  - dto.go: Wire shapes
  - server.go: Routing
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/reservation-engine/booking"
	"github.com/warp/reservation-engine/interval"
	"github.com/warp/reservation-engine/substitution"
)

// =============================================================================
// HANDLER
// =============================================================================

type Handler struct {
	Manager     *booking.Manager
	Coordinator *substitution.Coordinator
	Resources   booking.Store
}

func NewHandler(manager *booking.Manager, coordinator *substitution.Coordinator, resources booking.Store) *Handler {
	return &Handler{Manager: manager, Coordinator: coordinator, Resources: resources}
}

// =============================================================================
// JSON PLUMBING
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body", Code: "BAD_REQUEST"})
		return false
	}
	return true
}

// writeError maps domain errors to HTTP responses. Unrecognized errors
// are treated as internal and logged without leaking detail.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}

	var conflictErr *booking.ConflictError
	if errors.As(err, &conflictErr) {
		resp.Code = "CONFLICT_REJECTED"
		resp.Conflicts = toReservationDTOs(conflictErr.Conflicts)
		writeJSON(w, http.StatusConflict, resp)
		return
	}

	var exhausted *substitution.ExhaustedError
	if errors.As(err, &exhausted) {
		resp.Code = "SUBSTITUTION_EXHAUSTED"
		resp.Outcomes = make([]outcomeDTO, 0, len(exhausted.Outcomes))
		for _, o := range exhausted.Outcomes {
			resp.Outcomes = append(resp.Outcomes, outcomeDTO{
				CandidateID: string(o.CandidateID),
				Rank:        o.Rank,
				Response:    string(o.Response),
				SentAt:      o.SentAt,
			})
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	switch {
	case errors.Is(err, booking.ErrInvalidInterval):
		resp.Code = "INVALID_INTERVAL"
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, booking.ErrInvalidPriority):
		resp.Code = "INVALID_PRIORITY"
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, substitution.ErrInvalidWindow):
		resp.Code = "INVALID_INTERVAL"
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, booking.ErrConflictRejected):
		resp.Code = "CONFLICT_REJECTED"
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, booking.ErrAlreadyCancelled):
		resp.Code = "ALREADY_CANCELLED"
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, booking.ErrInvalidTransition):
		resp.Code = "INVALID_TRANSITION"
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, substitution.ErrOfferExpired):
		resp.Code = "OFFER_EXPIRED"
		writeJSON(w, http.StatusGone, resp)
	case errors.Is(err, substitution.ErrOfferResolved):
		resp.Code = "OFFER_RESOLVED"
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, substitution.ErrNoEligibleCandidates):
		resp.Code = "NO_ELIGIBLE_CANDIDATES"
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, substitution.ErrSubstitutionExhausted):
		resp.Code = "SUBSTITUTION_EXHAUSTED"
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, substitution.ErrVerificationRequired):
		resp.Code = "VERIFICATION_REQUIRED"
		writeJSON(w, http.StatusForbidden, resp)
	case errors.Is(err, substitution.ErrCodeMismatch):
		resp.Code = "CODE_MISMATCH"
		writeJSON(w, http.StatusForbidden, resp)
	case errors.Is(err, substitution.ErrInvalidState):
		resp.Code = "INVALID_STATE"
		writeJSON(w, http.StatusConflict, resp)
	case booking.IsNotFound(err), substitution.IsNotFound(err):
		resp.Code = "NOT_FOUND"
		writeJSON(w, http.StatusNotFound, resp)
	default:
		log.Printf("[API] internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "INTERNAL"})
	}
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.Manager.Create(r.Context(), booking.CreateInput{
		ResourceID: booking.ResourceID(req.ResourceID),
		Requester:  req.Requester,
		Purpose:    req.Purpose,
		Window:     interval.New(req.Start, req.End),
		Priority:   booking.Priority(req.Priority),
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reserveResponse{
		Reservation: toReservationDTO(result.Reservation),
		Decision:    string(result.Decision.Reason),
		Conflicts:   toReservationDTOs(result.Conflicts),
	})
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id := booking.ReservationID(chi.URLParam(r, "id"))
	rsv, err := h.Manager.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(rsv))
}

func (h *Handler) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	id := booking.ReservationID(chi.URLParam(r, "id"))
	rsv, err := h.Manager.Confirm(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(rsv))
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id := booking.ReservationID(chi.URLParam(r, "id"))
	if err := h.Manager.Cancel(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	rsv, err := h.Manager.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(rsv))
}

// =============================================================================
// RESOURCES
// =============================================================================

func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req resourceDTO
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id and name are required", Code: "BAD_REQUEST"})
		return
	}
	status := booking.ResourceStatus(req.Status)
	if req.Status == "" {
		status = booking.ResourceAvailable
	}
	if !status.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid resource status", Code: "BAD_REQUEST"})
		return
	}

	res := booking.Resource{ID: booking.ResourceID(req.ID), Name: req.Name, Status: status}
	if err := h.Resources.SaveResource(r.Context(), res); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resourceDTO{ID: string(res.ID), Name: res.Name, Status: string(res.Status)})
}

func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.Resources.ListResources(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]resourceDTO, 0, len(resources))
	for _, res := range resources {
		out = append(out, resourceDTO{ID: string(res.ID), Name: res.Name, Status: string(res.Status)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	id := booking.ResourceID(chi.URLParam(r, "id"))
	res, err := h.Resources.GetResource(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceDTO{ID: string(res.ID), Name: res.Name, Status: string(res.Status)})
}

func (h *Handler) SetResourceStatus(w http.ResponseWriter, r *http.Request) {
	id := booking.ResourceID(chi.URLParam(r, "id"))
	var req resourceStatusRequest
	if !decode(w, r, &req) {
		return
	}
	status := booking.ResourceStatus(req.Status)
	if !status.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid resource status", Code: "BAD_REQUEST"})
		return
	}
	if err := h.Resources.SetResourceStatus(r.Context(), id, status); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Resources.GetResource(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceDTO{ID: string(res.ID), Name: res.Name, Status: string(res.Status)})
}

// =============================================================================
// SUBSTITUTION
// =============================================================================

func (h *Handler) CreateSubstitution(w http.ResponseWriter, r *http.Request) {
	var req substitutionCreateRequest
	if !decode(w, r, &req) {
		return
	}

	created, err := h.Coordinator.RequestSubstitution(
		r.Context(),
		substitution.AssignmentID(req.AssignmentID),
		substitution.CandidateID(req.OriginalAssignee),
		interval.New(req.Start, req.End),
		req.Reason,
		req.ReporterContact,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubstitutionDTO(created))
}

func (h *Handler) GetSubstitution(w http.ResponseWriter, r *http.Request) {
	id := substitution.RequestID(chi.URLParam(r, "id"))
	req, err := h.Coordinator.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubstitutionDTO(req))
}

func (h *Handler) VerifySubstitution(w http.ResponseWriter, r *http.Request) {
	id := substitution.RequestID(chi.URLParam(r, "id"))
	var req verifyRequest
	if !decode(w, r, &req) {
		return
	}
	verified, err := h.Coordinator.Verify(r.Context(), id, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubstitutionDTO(verified))
}

func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	id := substitution.RequestID(chi.URLParam(r, "id"))
	scores, err := h.Coordinator.RankedCandidates(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScoreDTOs(scores))
}

func (h *Handler) StartOffers(w http.ResponseWriter, r *http.Request) {
	id := substitution.RequestID(chi.URLParam(r, "id"))
	offer, err := h.Coordinator.StartOffers(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOfferDTO(offer))
}

func (h *Handler) RespondToOffer(w http.ResponseWriter, r *http.Request) {
	id := substitution.OfferID(chi.URLParam(r, "id"))
	var req respondRequest
	if !decode(w, r, &req) {
		return
	}

	var accept bool
	switch req.Response {
	case "accepted":
		accept = true
	case "declined":
		accept = false
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: `response must be "accepted" or "declined"`, Code: "BAD_REQUEST",
		})
		return
	}

	result, err := h.Coordinator.Respond(r.Context(), id, accept)
	if err != nil {
		// Exhaustion after a decline still reports the final state in the
		// error body; other errors carry no result.
		writeError(w, err)
		return
	}

	resp := respondResponse{
		Offer:   toOfferDTO(result.Offer),
		Request: toSubstitutionDTO(result.Request),
	}
	if result.NextOffer != nil {
		next := toOfferDTO(*result.NextOffer)
		resp.NextOffer = &next
	}
	writeJSON(w, http.StatusOK, resp)
}
