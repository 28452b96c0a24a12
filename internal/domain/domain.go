// Package domain holds the core entities of the meeting scheduler: rooms,
// participants and meetings, along with the meeting status machine.
package domain

import "time"

// Room is a bookable physical or virtual space.
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

// Participant is an invitee that can be assigned to meetings.
type Participant struct {
	ID         string
	Name       string
	Email      string
	Department string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Status is a meeting's position in its lifecycle.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Terminal reports whether no further transition is valid from this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the meeting status machine allows the move
// from s to next. PENDING -> CONFIRMED | REJECTED; CONFIRMED -> CANCELLED |
// COMPLETED; every other pair is invalid.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusRejected
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted
	default:
		return false
	}
}

// Meeting is a proposed or admitted booking of a room by a set of
// participants over a half-open time interval [Start, End).
type Meeting struct {
	ID             string
	Title          string
	Description    string
	Start          time.Time
	End            time.Time
	RoomID         string
	ParticipantIDs []string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Overlaps reports whether the half-open intervals [a.Start,a.End) and
// [b.Start,b.End) intersect: a.start < b.end && b.start < a.end.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Live reports whether the meeting's status counts it as occupying its
// room/participant slots: PENDING or CONFIRMED.
func (m Meeting) Live() bool {
	return m.Status == StatusPending || m.Status == StatusConfirmed
}

// SharesParticipant reports whether m and other have at least one
// participant in common.
func (m Meeting) SharesParticipant(other Meeting) bool {
	if len(m.ParticipantIDs) == 0 || len(other.ParticipantIDs) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(other.ParticipantIDs))
	for _, id := range other.ParticipantIDs {
		set[id] = struct{}{}
	}
	for _, id := range m.ParticipantIDs {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
