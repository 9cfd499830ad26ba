/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements booking.Store, substitution.Store, and
  substitution.Directory using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  resources:             Reservable entities with point-in-time status
  reservations:          Reservation records with status state machine
  substitution_requests: Sick-leave / unavailability reports
  offers:                Time-boxed offers with persisted deadlines
  assignments:           Slots needing cover (directory data)
  candidates:            Candidate directory per assignment

INDEXES:
  - idx_reservations_resource_status: active-by-resource lookups (hot path)
  - idx_offers_request:              offer history per request
  - idx_offers_pending_due:          expiry sweep

DURABLE DEADLINES:
  offers.expires_at is the source of truth for offer expiry. The sweep
  queries it directly, so a 30-minute response window survives process
  restarts - no in-memory timers.

WAL MODE:
  Opened with WAL for better concurrency: readers don't block, single
  writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/reservations.db")  // or ":memory:"
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - booking/store.go, substitution/store.go: Interface definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/reservation-engine/booking"
	"github.com/warp/reservation-engine/interval"
	"github.com/warp/reservation-engine/substitution"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resources (
		id     TEXT PRIMARY KEY,
		name   TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'available'
	);

	CREATE TABLE IF NOT EXISTS reservations (
		id           TEXT PRIMARY KEY,
		resource_id  TEXT NOT NULL REFERENCES resources(id),
		requester    TEXT NOT NULL,
		purpose      TEXT NOT NULL DEFAULT '',
		window_start DATETIME NOT NULL,
		window_end   DATETIME NOT NULL,
		priority     TEXT NOT NULL,
		status       TEXT NOT NULL,
		notes        TEXT NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reservations_resource_status
		ON reservations(resource_id, status);

	CREATE TABLE IF NOT EXISTS substitution_requests (
		id                TEXT PRIMARY KEY,
		assignment_id     TEXT NOT NULL,
		original_assignee TEXT NOT NULL,
		window_start      DATETIME,
		window_end        DATETIME,
		reason            TEXT NOT NULL DEFAULT '',
		verification      TEXT NOT NULL,
		verify_code       TEXT NOT NULL,
		verify_attempts   INTEGER NOT NULL DEFAULT 0,
		replacement       TEXT NOT NULL,
		assigned_to       TEXT NOT NULL DEFAULT '',
		created_at        DATETIME NOT NULL,
		updated_at        DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS offers (
		id           TEXT PRIMARY KEY,
		request_id   TEXT NOT NULL REFERENCES substitution_requests(id),
		candidate_id TEXT NOT NULL,
		rank         INTEGER NOT NULL,
		sent_at      DATETIME NOT NULL,
		expires_at   DATETIME NOT NULL,
		response     TEXT NOT NULL,
		responded_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_offers_request ON offers(request_id, sent_at);
	CREATE INDEX IF NOT EXISTS idx_offers_pending_due ON offers(response, expires_at);

	CREATE TABLE IF NOT EXISTS assignments (
		id              TEXT PRIMARY KEY,
		label           TEXT NOT NULL DEFAULT '',
		required_skills TEXT NOT NULL DEFAULT '[]',
		max_radius_km   REAL NOT NULL DEFAULT 0,
		window_start    DATETIME,
		window_end      DATETIME
	);

	CREATE TABLE IF NOT EXISTS candidates (
		assignment_id TEXT NOT NULL REFERENCES assignments(id),
		id            TEXT NOT NULL,
		name          TEXT NOT NULL DEFAULT '',
		skills        TEXT NOT NULL DEFAULT '[]',
		distance_km   REAL NOT NULL DEFAULT 0,
		rating        REAL,
		contact       TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (assignment_id, id)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// =============================================================================
// booking.Store
// =============================================================================

func (s *Store) SaveResource(ctx context.Context, r booking.Resource) error {
	if r.Status == "" {
		r.Status = booking.ResourceAvailable
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, name, status) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, status = excluded.status`,
		string(r.ID), r.Name, string(r.Status))
	if err != nil {
		return fmt.Errorf("failed to save resource: %w", err)
	}
	return nil
}

func (s *Store) GetResource(ctx context.Context, id booking.ResourceID) (booking.Resource, error) {
	var r booking.Resource
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, status FROM resources WHERE id = ?`, string(id)).
		Scan(&r.ID, &r.Name, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Resource{}, fmt.Errorf("%s: %w", id, booking.ErrResourceNotFound)
	}
	if err != nil {
		return booking.Resource{}, fmt.Errorf("failed to load resource: %w", err)
	}
	r.Status = booking.ResourceStatus(status)
	return r, nil
}

func (s *Store) ListResources(ctx context.Context) ([]booking.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, status FROM resources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var result []booking.Resource
	for rows.Next() {
		var r booking.Resource
		var status string
		if err := rows.Scan(&r.ID, &r.Name, &status); err != nil {
			return nil, err
		}
		r.Status = booking.ResourceStatus(status)
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) SetResourceStatus(ctx context.Context, id booking.ResourceID, status booking.ResourceStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE resources SET status = ? WHERE id = ?`, string(status), string(id))
	if err != nil {
		return fmt.Errorf("failed to update resource status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s: %w", id, booking.ErrResourceNotFound)
	}
	return nil
}

const reservationCols = `id, resource_id, requester, purpose, window_start, window_end,
	priority, status, notes, created_at, updated_at`

func (s *Store) SaveReservation(ctx context.Context, r booking.Reservation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reservations
			(id, resource_id, requester, purpose, window_start, window_end,
			 priority, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), string(r.ResourceID), r.Requester, r.Purpose,
		r.Window.Start.UTC(), r.Window.End.UTC(),
		string(r.Priority), string(r.Status), r.Notes,
		r.CreatedAt.UTC(), r.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

func scanReservation(scan func(...any) error) (booking.Reservation, error) {
	var r booking.Reservation
	var start, end, created, updated time.Time
	var priority, status string
	err := scan(&r.ID, &r.ResourceID, &r.Requester, &r.Purpose,
		&start, &end, &priority, &status, &r.Notes, &created, &updated)
	if err != nil {
		return booking.Reservation{}, err
	}
	r.Window = interval.New(start, end)
	r.Priority = booking.Priority(priority)
	r.Status = booking.ReservationStatus(status)
	r.CreatedAt = created
	r.UpdatedAt = updated
	return r, nil
}

func (s *Store) GetReservation(ctx context.Context, id booking.ReservationID) (booking.Reservation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id = ?`, string(id))
	r, err := scanReservation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Reservation{}, fmt.Errorf("%s: %w", id, booking.ErrReservationNotFound)
	}
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("failed to load reservation: %w", err)
	}
	return r, nil
}

func (s *Store) UpdateReservationStatus(ctx context.Context, id booking.ReservationID, status booking.ReservationStatus, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), at.UTC(), string(id))
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s: %w", id, booking.ErrReservationNotFound)
	}
	return nil
}

func (s *Store) ListActiveByResource(ctx context.Context, id booking.ResourceID) ([]booking.Reservation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reservationCols+` FROM reservations
		 WHERE resource_id = ? AND status IN ('pending', 'confirmed')
		 ORDER BY window_start`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var result []booking.Reservation
	for rows.Next() {
		r, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// =============================================================================
// substitution.Store
// =============================================================================

func (s *Store) SaveRequest(ctx context.Context, r substitution.Request) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO substitution_requests
			(id, assignment_id, original_assignee, window_start, window_end, reason,
			 verification, verify_code, verify_attempts, replacement, assigned_to,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), string(r.AssignmentID), string(r.OriginalAssignee),
		nullTime(r.Unavailable.Start), nullTime(r.Unavailable.End), r.Reason,
		string(r.Verification), r.VerifyCode, r.VerifyAttempts,
		string(r.Replacement), string(r.AssignedTo),
		r.CreatedAt.UTC(), r.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save substitution request: %w", err)
	}
	return nil
}

func (s *Store) UpdateRequest(ctx context.Context, r substitution.Request) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE substitution_requests SET
			verification = ?, verify_attempts = ?, replacement = ?,
			assigned_to = ?, updated_at = ?
		WHERE id = ?`,
		string(r.Verification), r.VerifyAttempts, string(r.Replacement),
		string(r.AssignedTo), r.UpdatedAt.UTC(), string(r.ID))
	if err != nil {
		return fmt.Errorf("failed to update substitution request: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s: %w", r.ID, substitution.ErrRequestNotFound)
	}
	return nil
}

const requestCols = `id, assignment_id, original_assignee, window_start, window_end, reason,
	verification, verify_code, verify_attempts, replacement, assigned_to,
	created_at, updated_at`

func scanRequest(scan func(...any) error) (substitution.Request, error) {
	var r substitution.Request
	var start, end sql.NullTime
	var assignee, verification, replacement, assignedTo string
	var created, updated time.Time
	err := scan(&r.ID, &r.AssignmentID, &assignee, &start, &end, &r.Reason,
		&verification, &r.VerifyCode, &r.VerifyAttempts, &replacement, &assignedTo,
		&created, &updated)
	if err != nil {
		return substitution.Request{}, err
	}
	r.OriginalAssignee = substitution.CandidateID(assignee)
	if start.Valid && end.Valid {
		r.Unavailable = interval.New(start.Time, end.Time)
	}
	r.Verification = substitution.VerificationState(verification)
	r.Replacement = substitution.ReplacementState(replacement)
	r.AssignedTo = substitution.CandidateID(assignedTo)
	r.CreatedAt = created
	r.UpdatedAt = updated
	return r, nil
}

func (s *Store) GetRequest(ctx context.Context, id substitution.RequestID) (substitution.Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestCols+` FROM substitution_requests WHERE id = ?`, string(id))
	r, err := scanRequest(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return substitution.Request{}, fmt.Errorf("%s: %w", id, substitution.ErrRequestNotFound)
	}
	if err != nil {
		return substitution.Request{}, fmt.Errorf("failed to load substitution request: %w", err)
	}
	return r, nil
}

func (s *Store) AssignedRequests(ctx context.Context) ([]substitution.Request, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestCols+` FROM substitution_requests
		 WHERE replacement = 'assigned' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assigned requests: %w", err)
	}
	defer rows.Close()

	var result []substitution.Request
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

const offerCols = `id, request_id, candidate_id, rank, sent_at, expires_at, response, responded_at`

func (s *Store) SaveOffer(ctx context.Context, o substitution.Offer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offers (`+offerCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(o.ID), string(o.RequestID), string(o.CandidateID), o.Rank,
		o.SentAt.UTC(), o.ExpiresAt.UTC(), string(o.Response), nullTimePtr(o.RespondedAt))
	if err != nil {
		return fmt.Errorf("failed to save offer: %w", err)
	}
	return nil
}

func (s *Store) UpdateOffer(ctx context.Context, o substitution.Offer) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE offers SET response = ?, responded_at = ? WHERE id = ?`,
		string(o.Response), nullTimePtr(o.RespondedAt), string(o.ID))
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s: %w", o.ID, substitution.ErrOfferNotFound)
	}
	return nil
}

func scanOffer(scan func(...any) error) (substitution.Offer, error) {
	var o substitution.Offer
	var response string
	var responded sql.NullTime
	err := scan(&o.ID, &o.RequestID, &o.CandidateID, &o.Rank,
		&o.SentAt, &o.ExpiresAt, &response, &responded)
	if err != nil {
		return substitution.Offer{}, err
	}
	o.Response = substitution.OfferResponse(response)
	if responded.Valid {
		t := responded.Time
		o.RespondedAt = &t
	}
	return o, nil
}

func (s *Store) GetOffer(ctx context.Context, id substitution.OfferID) (substitution.Offer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+offerCols+` FROM offers WHERE id = ?`, string(id))
	o, err := scanOffer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return substitution.Offer{}, fmt.Errorf("%s: %w", id, substitution.ErrOfferNotFound)
	}
	if err != nil {
		return substitution.Offer{}, fmt.Errorf("failed to load offer: %w", err)
	}
	return o, nil
}

func (s *Store) OffersByRequest(ctx context.Context, id substitution.RequestID) ([]substitution.Offer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+offerCols+` FROM offers WHERE request_id = ? ORDER BY sent_at, rank`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (s *Store) PendingOffersDueBy(ctx context.Context, deadline time.Time) ([]substitution.Offer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+offerCols+` FROM offers
		 WHERE response = 'pending' AND expires_at <= ?
		 ORDER BY expires_at`, deadline.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due offers: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

func collectOffers(rows *sql.Rows) ([]substitution.Offer, error) {
	var result []substitution.Offer
	for rows.Next() {
		o, err := scanOffer(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

// =============================================================================
// substitution.Directory
// =============================================================================

func (s *Store) SaveAssignment(ctx context.Context, a substitution.Assignment) error {
	skills, err := json.Marshal(a.RequiredSkills)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assignments (id, label, required_skills, max_radius_km, window_start, window_end)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label, required_skills = excluded.required_skills,
			max_radius_km = excluded.max_radius_km,
			window_start = excluded.window_start, window_end = excluded.window_end`,
		string(a.ID), a.Label, string(skills), a.MaxRadiusKm,
		nullTime(a.Window.Start), nullTime(a.Window.End))
	if err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

func (s *Store) SaveCandidate(ctx context.Context, assignmentID substitution.AssignmentID, c substitution.Candidate) error {
	skills, err := json.Marshal(c.Skills)
	if err != nil {
		return err
	}
	var rating any
	if c.Rating != nil {
		rating = *c.Rating
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO candidates (assignment_id, id, name, skills, distance_km, rating, contact)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(assignment_id, id) DO UPDATE SET
			name = excluded.name, skills = excluded.skills,
			distance_km = excluded.distance_km, rating = excluded.rating,
			contact = excluded.contact`,
		string(assignmentID), string(c.ID), c.Name, string(skills),
		c.DistanceKm, rating, c.Contact)
	if err != nil {
		return fmt.Errorf("failed to save candidate: %w", err)
	}
	return nil
}

func (s *Store) Assignment(ctx context.Context, id substitution.AssignmentID) (substitution.Assignment, error) {
	var a substitution.Assignment
	var skills string
	var start, end sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, required_skills, max_radius_km, window_start, window_end
		FROM assignments WHERE id = ?`, string(id)).
		Scan(&a.ID, &a.Label, &skills, &a.MaxRadiusKm, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return substitution.Assignment{}, fmt.Errorf("%s: %w", id, substitution.ErrAssignmentNotFound)
	}
	if err != nil {
		return substitution.Assignment{}, fmt.Errorf("failed to load assignment: %w", err)
	}
	if err := json.Unmarshal([]byte(skills), &a.RequiredSkills); err != nil {
		return substitution.Assignment{}, fmt.Errorf("corrupt required_skills for %s: %w", id, err)
	}
	if start.Valid && end.Valid {
		a.Window = interval.New(start.Time, end.Time)
	}
	return a, nil
}

func (s *Store) Candidates(ctx context.Context, id substitution.AssignmentID) ([]substitution.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, skills, distance_km, rating, contact
		FROM candidates WHERE assignment_id = ? ORDER BY id`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var result []substitution.Candidate
	for rows.Next() {
		var c substitution.Candidate
		var skills string
		var rating sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.Name, &skills, &c.DistanceKm, &rating, &c.Contact); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(skills), &c.Skills); err != nil {
			return nil, fmt.Errorf("corrupt skills for candidate %s: %w", c.ID, err)
		}
		if rating.Valid {
			r := rating.Float64
			c.Rating = &r
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
