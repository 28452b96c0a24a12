package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/meetingverifier/internal/application"
	"github.com/example/meetingverifier/internal/domain"
	"github.com/example/meetingverifier/internal/persistence"
)

var (
	roomCounter        uint64
	participantCounter uint64
	meetingCounter     uint64
)

var referenceTime = time.Date(2030, time.January, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic meeting room record.
type RoomFixture struct {
	ID          string
	Name        string
	Location    string
	Capacity    int
	Description string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	id := fmt.Sprintf("room-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := RoomFixture{
		ID:        id,
		Name:      fmt.Sprintf("Room %03d", idx),
		Location:  "Main Office",
		Capacity:  int(4 + idx%4),
		Available: true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

// WithRoomLocation overrides the generated location.
func WithRoomLocation(location string) RoomOption {
	return func(f *RoomFixture) { f.Location = location }
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) { f.Capacity = capacity }
}

// WithRoomDescription sets the description on the fixture.
func WithRoomDescription(description string) RoomOption {
	return func(f *RoomFixture) { f.Description = description }
}

// WithRoomAvailable sets the availability flag on the fixture.
func WithRoomAvailable(available bool) RoomOption {
	return func(f *RoomFixture) { f.Available = available }
}

// WithRoomCreatedAt sets the created timestamp on the fixture.
func WithRoomCreatedAt(t time.Time) RoomOption {
	return func(f *RoomFixture) { f.CreatedAt = t }
}

// WithRoomUpdatedAt sets the updated timestamp on the fixture.
func WithRoomUpdatedAt(t time.Time) RoomOption {
	return func(f *RoomFixture) { f.UpdatedAt = t }
}

// WithRoomTimestamps sets both created and updated timestamps.
func WithRoomTimestamps(created, updated time.Time) RoomOption {
	return func(f *RoomFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Room value.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:          f.ID,
		Name:        f.Name,
		Capacity:    f.Capacity,
		Location:    f.Location,
		Description: f.Description,
		Available:   f.Available,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:          f.ID,
		Name:        f.Name,
		Capacity:    f.Capacity,
		Location:    f.Location,
		Description: f.Description,
		Available:   f.Available,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Domain returns the fixture as a domain.Room value.
func (f RoomFixture) Domain() domain.Room {
	return domain.Room{
		ID:          f.ID,
		Name:        f.Name,
		Capacity:    f.Capacity,
		Location:    f.Location,
		Description: f.Description,
		Available:   f.Available,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Input returns the fixture as an application.RoomInput.
func (f RoomFixture) Input() application.RoomInput {
	available := f.Available
	return application.RoomInput{
		Name:        f.Name,
		Capacity:    f.Capacity,
		Location:    f.Location,
		Description: f.Description,
		Available:   &available,
	}
}

// ------------------------- Participant fixtures ---------------------------

// ParticipantFixture represents a deterministic participant record.
type ParticipantFixture struct {
	ID         string
	Name       string
	Email      string
	Department string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ParticipantOption configures the generated participant fixture.
type ParticipantOption func(*ParticipantFixture)

// NewParticipantFixture returns a deterministic participant fixture with optional overrides.
func NewParticipantFixture(opts ...ParticipantOption) ParticipantFixture {
	idx := atomic.AddUint64(&participantCounter, 1)
	id := fmt.Sprintf("participant-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ParticipantFixture{
		ID:         id,
		Name:       fmt.Sprintf("Participant %03d", idx),
		Email:      fmt.Sprintf("%s@example.com", id),
		Department: "Engineering",
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithParticipantID overrides the generated participant ID.
func WithParticipantID(id string) ParticipantOption {
	return func(f *ParticipantFixture) { f.ID = id }
}

// WithParticipantName overrides the generated name.
func WithParticipantName(name string) ParticipantOption {
	return func(f *ParticipantFixture) { f.Name = name }
}

// WithParticipantEmail overrides the generated email.
func WithParticipantEmail(email string) ParticipantOption {
	return func(f *ParticipantFixture) { f.Email = email }
}

// WithParticipantDepartment overrides the generated department.
func WithParticipantDepartment(department string) ParticipantOption {
	return func(f *ParticipantFixture) { f.Department = department }
}

// Application returns the fixture as an application.Participant value.
func (f ParticipantFixture) Application() application.Participant {
	return application.Participant{
		ID:         f.ID,
		Name:       f.Name,
		Email:      f.Email,
		Department: f.Department,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Participant value.
func (f ParticipantFixture) Persistence() persistence.Participant {
	return persistence.Participant{
		ID:         f.ID,
		Name:       f.Name,
		Email:      f.Email,
		Department: f.Department,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// Input returns the fixture as an application.ParticipantInput.
func (f ParticipantFixture) Input() application.ParticipantInput {
	return application.ParticipantInput{
		Name:       f.Name,
		Email:      f.Email,
		Department: f.Department,
	}
}

// ---------------------------- Meeting fixtures -----------------------------

// MeetingFixture represents a deterministic meeting record.
type MeetingFixture struct {
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

// MeetingOption configures the generated meeting fixture.
type MeetingOption func(*MeetingFixture)

// NewMeetingFixture returns a deterministic meeting fixture with optional overrides.
func NewMeetingFixture(opts ...MeetingOption) MeetingFixture {
	idx := atomic.AddUint64(&meetingCounter, 1)
	id := fmt.Sprintf("meeting-%03d", idx)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	end := start.Add(time.Hour)
	fixture := MeetingFixture{
		ID:             id,
		Title:          fmt.Sprintf("Meeting %03d", idx),
		Start:          start,
		End:            end,
		RoomID:         fmt.Sprintf("room-%03d", idx),
		ParticipantIDs: []string{fmt.Sprintf("participant-%03d", idx)},
		Status:         string(domain.StatusPending),
		CreatedAt:      referenceTime,
		UpdatedAt:      referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMeetingID overrides the meeting ID.
func WithMeetingID(id string) MeetingOption {
	return func(f *MeetingFixture) { f.ID = id }
}

// WithMeetingTitle overrides the title.
func WithMeetingTitle(title string) MeetingOption {
	return func(f *MeetingFixture) { f.Title = title }
}

// WithMeetingStartEnd sets the start and end times.
func WithMeetingStartEnd(start, end time.Time) MeetingOption {
	return func(f *MeetingFixture) {
		f.Start = start
		f.End = end
	}
}

// WithMeetingRoomID sets the room ID.
func WithMeetingRoomID(roomID string) MeetingOption {
	return func(f *MeetingFixture) { f.RoomID = roomID }
}

// WithMeetingParticipants sets the participant IDs.
func WithMeetingParticipants(participants ...string) MeetingOption {
	return func(f *MeetingFixture) { f.ParticipantIDs = append([]string(nil), participants...) }
}

// WithMeetingStatus sets the status.
func WithMeetingStatus(status domain.Status) MeetingOption {
	return func(f *MeetingFixture) { f.Status = string(status) }
}

// WithMeetingTimestamps sets both created and updated timestamps.
func WithMeetingTimestamps(created, updated time.Time) MeetingOption {
	return func(f *MeetingFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Meeting value.
func (f MeetingFixture) Application() application.Meeting {
	return application.Meeting{
		ID:             f.ID,
		Title:          f.Title,
		Description:    f.Description,
		Start:          f.Start,
		End:            f.End,
		RoomID:         f.RoomID,
		ParticipantIDs: append([]string(nil), f.ParticipantIDs...),
		Status:         f.Status,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Meeting value.
func (f MeetingFixture) Persistence() persistence.Meeting {
	return persistence.Meeting{
		ID:             f.ID,
		Title:          f.Title,
		Description:    f.Description,
		Start:          f.Start,
		End:            f.End,
		RoomID:         f.RoomID,
		ParticipantIDs: append([]string(nil), f.ParticipantIDs...),
		Status:         f.Status,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Domain returns the fixture as a domain.Meeting value.
func (f MeetingFixture) Domain() domain.Meeting {
	return domain.Meeting{
		ID:             f.ID,
		Title:          f.Title,
		Description:    f.Description,
		Start:          f.Start,
		End:            f.End,
		RoomID:         f.RoomID,
		ParticipantIDs: append([]string(nil), f.ParticipantIDs...),
		Status:         domain.Status(f.Status),
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Input returns the fixture as an application.MeetingInput.
func (f MeetingFixture) Input() application.MeetingInput {
	return application.MeetingInput{
		Title:          f.Title,
		Description:    f.Description,
		Start:          f.Start,
		End:            f.End,
		RoomID:         f.RoomID,
		ParticipantIDs: append([]string(nil), f.ParticipantIDs...),
	}
}
