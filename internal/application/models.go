package application

import "time"

// MeetingInput captures caller provided fields for a proposed meeting.
type MeetingInput struct {
	Title          string
	Description    string
	Start          time.Time
	End            time.Time
	RoomID         string
	ParticipantIDs []string
}

// Meeting represents a persisted meeting, as returned across the API
// boundary.
type Meeting struct {
	ID             string
	Title          string
	Description    string
	Start          time.Time
	End            time.Time
	RoomID         string
	ParticipantIDs []string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SchedulingResult is the immutable report returned by createMeeting and
// updateMeeting. It crosses the API boundary unchanged.
type SchedulingResult struct {
	Success              bool
	Meeting              *Meeting
	ConstraintViolations []string
	RuntimeWarnings      []string
	SolverStatus         string
	Explanation          string
	SolvingTimeMs        int64
}

// SchedulingSuccess builds a successful SchedulingResult.
func SchedulingSuccess(meeting Meeting, explanation string, solvingTimeMs int64) SchedulingResult {
	return SchedulingResult{
		Success:       true,
		Meeting:       &meeting,
		SolverStatus:  "SATISFIABLE",
		Explanation:   explanation,
		SolvingTimeMs: solvingTimeMs,
	}
}

// SchedulingFailure builds a failed SchedulingResult carrying the witnesses
// produced by the constraint encoder.
func SchedulingFailure(violations []string, explanation string, solvingTimeMs int64) SchedulingResult {
	return SchedulingResult{
		Success:              false,
		ConstraintViolations: violations,
		SolverStatus:         "UNSATISFIABLE",
		Explanation:          explanation,
		SolvingTimeMs:        solvingTimeMs,
	}
}

// SchedulingErrorResult builds a SchedulingResult for a decision backend
// failure (DecisionResult.ERROR).
func SchedulingErrorResult(message string, solvingTimeMs int64) SchedulingResult {
	return SchedulingResult{
		Success:              false,
		ConstraintViolations: []string{message},
		SolverStatus:         "ERROR",
		Explanation:          message,
		SolvingTimeMs:        solvingTimeMs,
	}
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name        string
	Capacity    int
	Location    string
	Description string
	Available   *bool
}

// Room represents a catalog entry for a physical meeting room.
type Room struct {
	ID          string
	Name        string
	Capacity    int
	Location    string
	Description string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ParticipantInput captures caller provided participant fields.
type ParticipantInput struct {
	Name       string
	Email      string
	Department string
}

// Participant represents a catalog entry for a meeting invitee.
type Participant struct {
	ID         string
	Name       string
	Email      string
	Department string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AvailableSlotsRequest captures the parameters of an availability search.
type AvailableSlotsRequest struct {
	RoomID      string
	Duration    time.Duration
	SearchStart time.Time
	SearchEnd   time.Time
}

// AvailableSlotsResult reports the free intervals found by the availability
// finder (C5).
type AvailableSlotsResult struct {
	RoomID      string
	Duration    time.Duration
	SearchStart time.Time
	SearchEnd   time.Time
	Slots       []time.Time
}

// BatchVerifyRequest is one proposal within a verifyBatch call.
type BatchVerifyRequest struct {
	RoomID         string
	Start          time.Time
	End            time.Time
	ParticipantIDs []string
}

// VerificationStatistics merges the decision backend's live state with the
// monitor's statistics, for the verification/stats read surface.
type VerificationStatistics struct {
	DecisionBackendEnabled bool
	PendingMeetings        int
	TrackedMeetings        int
	TotalViolations        int
	CriticalViolations     int
	ErrorViolations        int
	WarningViolations      int
}
