// Package constraint implements the static constraint encoder (C1) and its
// decision backend adapter (C2): given a proposed meeting and a snapshot of
// confirmed meetings, it decides whether the proposal is admissible under
// room exclusivity, participant exclusivity and room capacity, producing a
// human-readable witness per violated constraint.
package constraint

import "fmt"

// SolverStatus is the tagged outcome of a decision-backend call.
type SolverStatus string

const (
	StatusSatisfiable   SolverStatus = "SATISFIABLE"
	StatusUnsatisfiable SolverStatus = "UNSATISFIABLE"
	StatusError         SolverStatus = "ERROR"
)

// DecisionResult is the tagged-variant return of a feasibility check: exactly
// one of SAT, UNSAT or ERROR, distinguished by Status.
type DecisionResult struct {
	Satisfiable   bool
	Violations    []string
	SolvingTimeMs int64
	Status        SolverStatus
	ErrorMessage  string
}

// SAT builds an admissible result.
func SAT(solvingTimeMs int64) DecisionResult {
	return DecisionResult{Satisfiable: true, SolvingTimeMs: solvingTimeMs, Status: StatusSatisfiable}
}

// UNSAT builds an inadmissible result carrying one witness per violated
// constraint.
func UNSAT(violations []string, solvingTimeMs int64) DecisionResult {
	return DecisionResult{Violations: violations, SolvingTimeMs: solvingTimeMs, Status: StatusUnsatisfiable}
}

// SolverError builds a backend-failure result.
func SolverError(message string, solvingTimeMs int64) DecisionResult {
	return DecisionResult{
		Violations:    []string{message},
		SolvingTimeMs: solvingTimeMs,
		Status:        StatusError,
		ErrorMessage:  message,
	}
}

// SchedulingConstraint is a proposed meeting expressed as a constraint over
// room and participant occupancy. MeetingID is set only when this proposal
// is an update to an existing meeting, in which case that meeting is
// excluded from the existing snapshot during checking.
type SchedulingConstraint struct {
	MeetingID      *string
	RoomID         string
	RoomCapacity   int
	Start          int64 // UTC epoch seconds
	End            int64 // UTC epoch seconds
	ParticipantIDs []string
}

func (c SchedulingConstraint) hasValidTimeRange() bool { return c.Start < c.End }

func (c SchedulingConstraint) fitsCapacity() bool { return len(c.ParticipantIDs) <= c.RoomCapacity }

// ExistingMeeting is a confirmed meeting from the snapshot checked against a
// proposal.
type ExistingMeeting struct {
	MeetingID      string
	RoomID         string
	Start          int64 // UTC epoch seconds
	End            int64 // UTC epoch seconds
	ParticipantIDs []string
}

func (e ExistingMeeting) involvesParticipant(id string) bool {
	for _, p := range e.ParticipantIDs {
		if p == id {
			return true
		}
	}
	return false
}

func overlaps(aStart, aEnd, bStart, bEnd int64) bool {
	return aStart < bEnd && bStart < aEnd
}

func roomConflictWitness(e ExistingMeeting) string {
	return fmt.Sprintf("Room conflict: overlaps with meeting %s in room %s (%d–%d)", e.MeetingID, e.RoomID, e.Start, e.End)
}

func participantConflictWitness(participantID string, e ExistingMeeting) string {
	return fmt.Sprintf("Participant conflict: participant %s already booked in meeting %s (%d–%d)", participantID, e.MeetingID, e.Start, e.End)
}
