/*
dto.go - JSON request/response shapes

PURPOSE:
  Wire types for the HTTP surface, kept separate from domain types so
  the engine packages never grow JSON tags. Conversion helpers live
  here too.
*/
package api

import (
	"time"

	"github.com/warp/reservation-engine/booking"
	"github.com/warp/reservation-engine/substitution"
)

// =============================================================================
// RESERVATIONS
// =============================================================================

type reserveRequest struct {
	ResourceID string    `json:"resource_id"`
	Requester  string    `json:"requester"`
	Purpose    string    `json:"purpose"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Priority   string    `json:"priority"`
	Notes      string    `json:"notes"`
}

type reservationDTO struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Requester  string    `json:"requester"`
	Purpose    string    `json:"purpose,omitempty"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Priority   string    `json:"priority"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toReservationDTO(r booking.Reservation) reservationDTO {
	return reservationDTO{
		ID:         string(r.ID),
		ResourceID: string(r.ResourceID),
		Requester:  r.Requester,
		Purpose:    r.Purpose,
		Start:      r.Window.Start,
		End:        r.Window.End,
		Priority:   string(r.Priority),
		Status:     string(r.Status),
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func toReservationDTOs(rs []booking.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationDTO(r))
	}
	return out
}

// reserveResponse always includes the conflict list so urgent overrides
// stay visible.
type reserveResponse struct {
	Reservation reservationDTO   `json:"reservation"`
	Decision    string           `json:"decision"`
	Conflicts   []reservationDTO `json:"conflicts"`
}

// =============================================================================
// RESOURCES
// =============================================================================

type resourceDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type resourceStatusRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// SUBSTITUTION
// =============================================================================

type substitutionCreateRequest struct {
	AssignmentID     string    `json:"assignment_id"`
	OriginalAssignee string    `json:"original_assignee"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Reason           string    `json:"reason"`
	ReporterContact  string    `json:"reporter_contact"`
}

type substitutionDTO struct {
	ID               string    `json:"id"`
	AssignmentID     string    `json:"assignment_id"`
	OriginalAssignee string    `json:"original_assignee"`
	Start            time.Time `json:"start,omitempty"`
	End              time.Time `json:"end,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	Verification     string    `json:"verification"`
	Replacement      string    `json:"replacement"`
	AssignedTo       string    `json:"assigned_to,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// The verification code is deliberately absent from the DTO: it only
// travels out-of-band via the notifier.
func toSubstitutionDTO(r substitution.Request) substitutionDTO {
	return substitutionDTO{
		ID:               string(r.ID),
		AssignmentID:     string(r.AssignmentID),
		OriginalAssignee: string(r.OriginalAssignee),
		Start:            r.Unavailable.Start,
		End:              r.Unavailable.End,
		Reason:           r.Reason,
		Verification:     string(r.Verification),
		Replacement:      string(r.Replacement),
		AssignedTo:       string(r.AssignedTo),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type verifyRequest struct {
	Code string `json:"code"`
}

type scoreDTO struct {
	CandidateID  string `json:"candidate_id"`
	Total        string `json:"total"`
	Availability string `json:"availability"`
	Skill        string `json:"skill"`
	Distance     string `json:"distance"`
	Performance  string `json:"performance"`
}

func toScoreDTOs(scores []substitution.Score) []scoreDTO {
	out := make([]scoreDTO, 0, len(scores))
	for _, s := range scores {
		out = append(out, scoreDTO{
			CandidateID:  string(s.CandidateID),
			Total:        s.Total.String(),
			Availability: s.Availability.String(),
			Skill:        s.Skill.String(),
			Distance:     s.Distance.String(),
			Performance:  s.Performance.String(),
		})
	}
	return out
}

type offerDTO struct {
	ID          string     `json:"id"`
	RequestID   string     `json:"request_id"`
	CandidateID string     `json:"candidate_id"`
	Rank        int        `json:"rank"`
	SentAt      time.Time  `json:"sent_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Response    string     `json:"response"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

func toOfferDTO(o substitution.Offer) offerDTO {
	return offerDTO{
		ID:          string(o.ID),
		RequestID:   string(o.RequestID),
		CandidateID: string(o.CandidateID),
		Rank:        o.Rank,
		SentAt:      o.SentAt,
		ExpiresAt:   o.ExpiresAt,
		Response:    string(o.Response),
		RespondedAt: o.RespondedAt,
	}
}

type respondRequest struct {
	Response string `json:"response"` // "accepted" | "declined"
}

type respondResponse struct {
	Offer     offerDTO        `json:"offer"`
	Request   substitutionDTO `json:"request"`
	NextOffer *offerDTO       `json:"next_offer,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

type outcomeDTO struct {
	CandidateID string    `json:"candidate_id"`
	Rank        int       `json:"rank"`
	Response    string    `json:"response"`
	SentAt      time.Time `json:"sent_at"`
}

type errorResponse struct {
	Error     string           `json:"error"`
	Code      string           `json:"code"`
	Conflicts []reservationDTO `json:"conflicts,omitempty"`
	Outcomes  []outcomeDTO     `json:"outcomes,omitempty"`
}
