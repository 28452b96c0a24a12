package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/meetingverifier/internal/domain"
	"github.com/example/meetingverifier/internal/verification/constraint"
	"github.com/example/meetingverifier/internal/verification/runtime"
)

type meetingRepoFake struct {
	meetings map[string]Meeting
}

func newMeetingRepoFake() *meetingRepoFake {
	return &meetingRepoFake{meetings: make(map[string]Meeting)}
}

func (r *meetingRepoFake) CreateMeeting(ctx context.Context, meeting Meeting) (Meeting, error) {
	r.meetings[meeting.ID] = meeting
	return meeting, nil
}

func (r *meetingRepoFake) GetMeeting(ctx context.Context, id string) (Meeting, error) {
	meeting, ok := r.meetings[id]
	if !ok {
		return Meeting{}, ErrNotFound
	}
	return meeting, nil
}

func (r *meetingRepoFake) UpdateMeeting(ctx context.Context, meeting Meeting) (Meeting, error) {
	if _, ok := r.meetings[meeting.ID]; !ok {
		return Meeting{}, ErrNotFound
	}
	r.meetings[meeting.ID] = meeting
	return meeting, nil
}

func (r *meetingRepoFake) DeleteMeeting(ctx context.Context, id string) error {
	if _, ok := r.meetings[id]; !ok {
		return ErrNotFound
	}
	delete(r.meetings, id)
	return nil
}

func (r *meetingRepoFake) ListMeetings(ctx context.Context, filter MeetingRepositoryFilter) ([]Meeting, error) {
	var out []Meeting
	for _, m := range r.meetings {
		if filter.RoomID != "" && m.RoomID != filter.RoomID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, m.Status) {
			continue
		}
		if filter.ParticipantID != "" && !containsParticipant(m.ParticipantIDs, filter.ParticipantID) {
			continue
		}
		if filter.StartsAfter != nil && m.Start.Before(*filter.StartsAfter) {
			continue
		}
		if filter.EndsBefore != nil && m.End.After(*filter.EndsBefore) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func containsStatus(statuses []string, status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func containsParticipant(ids []string, id string) bool {
	for _, p := range ids {
		if p == id {
			return true
		}
	}
	return false
}

type roomLookupStub struct {
	rooms map[string]Room
}

func (r *roomLookupStub) GetRoom(ctx context.Context, id string) (Room, error) {
	room, ok := r.rooms[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	return room, nil
}

type participantResolverStub struct {
	known map[string]Participant
}

func (r *participantResolverStub) resolveParticipants(ctx context.Context, ids []string) ([]Participant, error) {
	var missing []string
	out := make([]Participant, 0, len(ids))
	for _, id := range ids {
		p, ok := r.known[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, p)
	}
	if len(missing) > 0 {
		vErr := &ValidationError{}
		vErr.add("participantIds", "unknown participants")
		return nil, vErr
	}
	return out, nil
}

type meetingServiceFixture struct {
	service      *MeetingService
	meetings     *meetingRepoFake
	rooms        *roomLookupStub
	participants *participantResolverStub
	clock        *fixedClock
	monitor      *runtime.Monitor
}

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

func newMeetingServiceFixture(t *testing.T, rooms map[string]Room, participants map[string]Participant) *meetingServiceFixture {
	t.Helper()

	clock := &fixedClock{t: time.Date(2030, time.March, 1, 9, 0, 0, 0, time.UTC)}
	meetingRepo := newMeetingRepoFake()
	roomLookup := &roomLookupStub{rooms: rooms}
	participantResolver := &participantResolverStub{known: participants}
	monitor := runtime.NewMonitor(clock.Now)
	for id, room := range rooms {
		monitor.RegisterRoom(id, room.Capacity)
	}
	encoder := constraint.NewEncoder(constraint.NewBackend(5*time.Second, 0, clock.Now))

	counter := 0
	idGenerator := func() string {
		counter++
		return "meeting-" + string(rune('a'+counter-1))
	}

	service := NewMeetingService(meetingRepo, roomLookup, participantResolver, encoder, monitor, idGenerator, clock.Now, 15*time.Minute)
	return &meetingServiceFixture{
		service:      service,
		meetings:     meetingRepo,
		rooms:        roomLookup,
		participants: participantResolver,
		clock:        clock,
		monitor:      monitor,
	}
}

func baseRoom(id string, capacity int) Room {
	return Room{ID: id, Name: id, Capacity: capacity, Available: true}
}

func baseInput(roomID string, start time.Time, participantIDs ...string) MeetingInput {
	return MeetingInput{
		Title:          "Weekly sync",
		Description:    "status update",
		Start:          start,
		End:            start.Add(time.Hour),
		RoomID:         roomID,
		ParticipantIDs: participantIDs,
	}
}

func TestMeetingService_CreateMeeting_HappyPath(t *testing.T) {
	fx := newMeetingServiceFixture(t,
		map[string]Room{"room-1": baseRoom("room-1", 5)},
		map[string]Participant{"alice": {ID: "alice"}},
	)

	result, err := fx.service.CreateMeeting(context.Background(), baseInput("room-1", fx.clock.t, "alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Meeting == nil {
		t.Fatalf("expected successful scheduling result, got %+v", result)
	}
	if result.Meeting.Status != string(domain.StatusPending) {
		t.Fatalf("expected new meeting to start PENDING, got %s", result.Meeting.Status)
	}
}

func TestMeetingService_CreateMeeting_RoomConflict(t *testing.T) {
	fx := newMeetingServiceFixture(t,
		map[string]Room{"room-1": baseRoom("room-1", 5)},
		map[string]Participant{"alice": {ID: "alice"}, "bob": {ID: "bob"}},
	)

	first, err := fx.service.CreateMeeting(context.Background(), baseInput("room-1", fx.clock.t, "alice"))
	if err != nil || !first.Success {
		t.Fatalf("unexpected setup failure: %v, %+v", err, first)
	}
	if _, err := fx.service.Transition(context.Background(), first.Meeting.ID, domain.StatusConfirmed); err != nil {
		t.Fatalf("failed to confirm setup meeting: %v", err)
	}

	overlapping := baseInput("room-1", fx.clock.t.Add(30*time.Minute), "bob")
	result, err := fx.service.CreateMeeting(context.Background(), overlapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatalf("expected room conflict to be refused, got %+v", result)
	}
	if result.SolverStatus != string(constraint.StatusUnsatisfiable) {
		t.Fatalf("expected UNSATISFIABLE, got %s", result.SolverStatus)
	}
}

func TestMeetingService_CreateMeeting_ParticipantConflictAcrossRooms(t *testing.T) {
	fx := newMeetingServiceFixture(t,
		map[string]Room{"room-1": baseRoom("room-1", 5), "room-2": baseRoom("room-2", 5)},
		map[string]Participant{"alice": {ID: "alice"}},
	)

	first, err := fx.service.CreateMeeting(context.Background(), baseInput("room-1", fx.clock.t, "alice"))
	if err != nil || !first.Success {
		t.Fatalf("unexpected setup failure: %v, %+v", err, first)
	}
	if _, err := fx.service.Transition(context.Background(), first.Meeting.ID, domain.StatusConfirmed); err != nil {
		t.Fatalf("failed to confirm setup meeting: %v", err)
	}

	overlapping := baseInput("room-2", fx.clock.t.Add(30*time.Minute), "alice")
	result, err := fx.service.CreateMeeting(context.Background(), overlapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatalf("expected participant conflict across rooms to be refused, got %+v", result)
	}
}

func TestMeetingService_CreateMeeting_CapacityExceeded(t *testing.T) {
	fx := newMeetingServiceFixture(t,
		map[string]Room{"room-1": baseRoom("room-1", 1)},
		map[string]Participant{"alice": {ID: "alice"}, "bob": {ID: "bob"}},
	)

	result, err := fx.service.CreateMeeting(context.Background(), baseInput("room-1", fx.clock.t, "alice", "bob"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatalf("expected capacity violation to refuse the proposal, got %+v", result)
	}
	if len(result.ConstraintViolations) == 0 {
		t.Fatalf("expected a capacity witness, got none")
	}
}

func TestMeetingService_Transition_ConfirmClearsPending(t *testing.T) {
	fx := newMeetingServiceFixture(t,
		map[string]Room{"room-1": baseRoom("room-1", 5)},
		map[string]Participant{"alice": {ID: "alice"}},
	)

	result, err := fx.service.CreateMeeting(context.Background(), baseInput("room-1", fx.clock.t, "alice"))
	if err != nil || !result.Success {
		t.Fatalf("unexpected setup failure: %v, %+v", err, result)
	}

	if got := fx.monitor.GetPendingCount(); got != 1 {
		t.Fatalf("expected one pending meeting after create, got %d", got)
	}

	if _, err := fx.service.Transition(context.Background(), result.Meeting.ID, domain.StatusConfirmed); err != nil {
		t.Fatalf("unexpected error confirming: %v", err)
	}

	if got := fx.monitor.GetPendingCount(); got != 0 {
		t.Fatalf("expected confirm to clear the pending count, got %d", got)
	}
}

func TestMeetingService_DeleteMeeting_NeverCreated(t *testing.T) {
	fx := newMeetingServiceFixture(t, nil, nil)

	err := fx.service.DeleteMeeting(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a meeting that was never created, got %v", err)
	}
}

func TestMeetingService_VerifyBatch_DoesNotPersist(t *testing.T) {
	fx := newMeetingServiceFixture(t,
		map[string]Room{"room-1": baseRoom("room-1", 5)},
		map[string]Participant{"alice": {ID: "alice"}},
	)

	requests := []BatchVerifyRequest{
		{RoomID: "room-1", Start: fx.clock.t, End: fx.clock.t.Add(time.Hour), ParticipantIDs: []string{"alice"}},
	}
	decision, err := fx.service.VerifyBatch(context.Background(), requests)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Satisfiable {
		t.Fatalf("expected the lone proposal to be satisfiable, got %+v", decision)
	}
	meetings, err := fx.service.ListMeetings(context.Background(), MeetingRepositoryFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meetings) != 0 {
		t.Fatalf("expected verifyBatch to persist nothing, found %d meetings", len(meetings))
	}
}
