/*
priority.go - Admission policy when conflicts exist

POLICY:
  - No conflict: always admit.
  - Conflict: admit only for urgent; everything else is rejected with
    the conflicting reservations attached for manual resolution.

  Two concurrent urgent requests on the same interval are both admitted;
  the conflict list is surfaced to each requester but urgent creation is
  never blocked. The manager logs a warning when that happens so the
  double booking can be reconciled manually.

SEE ALSO:
  - conflict.go: Report production
  - manager.go: Where the decision is enforced
*/
package booking

// =============================================================================
// DECISION
// =============================================================================

type DecisionReason string

const (
	ReasonNoConflict     DecisionReason = "no_conflict"
	ReasonUrgentOverride DecisionReason = "urgent_override"
	ReasonConflictExists DecisionReason = "conflict_exists"
)

type Decision struct {
	Admit  bool
	Reason DecisionReason
}

// Resolve decides admission for a conflict report at a priority tier.
func Resolve(report ConflictReport, priority Priority) Decision {
	if !report.HasConflict() {
		return Decision{Admit: true, Reason: ReasonNoConflict}
	}
	if priority.Overrides() {
		return Decision{Admit: true, Reason: ReasonUrgentOverride}
	}
	return Decision{Admit: false, Reason: ReasonConflictExists}
}
