package constraint

import (
	"context"
	"fmt"
)

// Encoder is the constraint encoder (C1): it exposes the public
// checkFeasibility/checkBatch contract and dispatches the actual solving to
// a decision backend (C2).
type Encoder struct {
	backend *Backend
}

// NewEncoder wires an encoder to the given decision backend.
func NewEncoder(backend *Backend) *Encoder {
	return &Encoder{backend: backend}
}

// CheckFeasibility decides satisfiability of existing (confirmed meetings)
// union proposed. When proposed.MeetingID is set, that meeting is excluded
// from existing so that an update which doesn't change the conflicting
// fields decides SAT.
func (e *Encoder) CheckFeasibility(ctx context.Context, proposed SchedulingConstraint, existing []ExistingMeeting) DecisionResult {
	return e.backend.checkFeasibility(ctx, proposed, existing)
}

// CheckBatch checks each proposal against existing, then every ordered pair
// (i, j) with i < j among proposals for room and participant conflicts.
// Witnesses reference proposals by their 0-based index.
func (e *Encoder) CheckBatch(ctx context.Context, proposals []SchedulingConstraint, existing []ExistingMeeting) DecisionResult {
	var violations []string
	var totalMs int64

	for i, p := range proposals {
		result := e.backend.checkFeasibility(ctx, p, existing)
		totalMs += result.SolvingTimeMs
		if result.Status == StatusError {
			return SolverError(result.ErrorMessage, totalMs)
		}
		for _, v := range result.Violations {
			violations = append(violations, fmt.Sprintf("proposal[%d]: %s", i, v))
		}
	}

	for i := 0; i < len(proposals); i++ {
		for j := i + 1; j < len(proposals); j++ {
			a, b := proposals[i], proposals[j]
			if !overlaps(a.Start, a.End, b.Start, b.End) {
				continue
			}
			if a.RoomID == b.RoomID {
				violations = append(violations, fmt.Sprintf("Room conflict: proposal[%d] overlaps with proposal[%d] in room %s", i, j, a.RoomID))
			}
			if sharedParticipant, ok := firstSharedParticipant(a.ParticipantIDs, b.ParticipantIDs); ok {
				violations = append(violations, fmt.Sprintf("Participant conflict: proposal[%d] and proposal[%d] both book participant %s", i, j, sharedParticipant))
			}
		}
	}

	if len(violations) > 0 {
		return UNSAT(violations, totalMs)
	}
	return SAT(totalMs)
}

// SetEnabled toggles the underlying decision backend.
func (e *Encoder) SetEnabled(enabled bool) { e.backend.SetEnabled(enabled) }

// Enabled reports the underlying decision backend's live state.
func (e *Encoder) Enabled() bool { return e.backend.Enabled() }

// InvalidateCache drops the backend's cached decisions.
func (e *Encoder) InvalidateCache() { e.backend.InvalidateCache() }

func firstSharedParticipant(a, b []string) (string, bool) {
	set := make(map[string]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	for _, id := range a {
		if _, ok := set[id]; ok {
			return id, true
		}
	}
	return "", false
}
