package testfixtures

import (
	"context"
	"testing"

	"github.com/example/meetingverifier/internal/application"
)

type capturingRoomRepo struct {
	created application.Room
	rooms   map[string]application.Room
}

func newCapturingRoomRepo() *capturingRoomRepo {
	return &capturingRoomRepo{rooms: make(map[string]application.Room)}
}

func (c *capturingRoomRepo) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	c.created = room
	c.rooms[room.ID] = room
	return room, nil
}

func (c *capturingRoomRepo) GetRoom(ctx context.Context, id string) (application.Room, error) {
	room, ok := c.rooms[id]
	if !ok {
		return application.Room{}, application.ErrNotFound
	}
	return room, nil
}

func (c *capturingRoomRepo) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	c.rooms[room.ID] = room
	return room, nil
}

func (c *capturingRoomRepo) DeleteRoom(ctx context.Context, id string) error {
	delete(c.rooms, id)
	return nil
}

func (c *capturingRoomRepo) ListRooms(ctx context.Context) ([]application.Room, error) {
	var rooms []application.Room
	for _, room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func TestServiceFactoryNewRoomService(t *testing.T) {
	factory := NewServiceFactory()
	repo := newCapturingRoomRepo()

	svc := factory.NewRoomService(RoomServiceDeps{Rooms: repo})
	available := true
	input := application.RoomInput{Name: "Conference Room", Capacity: 8, Location: "3F", Available: &available}

	room, err := svc.CreateRoom(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateRoom returned error: %v", err)
	}

	if room.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", room.ID)
	}
	if repo.created.ID != room.ID {
		t.Fatalf("repository received unexpected ID: %q", repo.created.ID)
	}
	if !room.CreatedAt.Equal(factory.Clock.Current()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Current(), room.CreatedAt)
	}
}

type capturingParticipantRepo struct {
	created      application.Participant
	participants map[string]application.Participant
}

func newCapturingParticipantRepo() *capturingParticipantRepo {
	return &capturingParticipantRepo{participants: make(map[string]application.Participant)}
}

func (c *capturingParticipantRepo) CreateParticipant(ctx context.Context, participant application.Participant) (application.Participant, error) {
	c.created = participant
	c.participants[participant.ID] = participant
	return participant, nil
}

func (c *capturingParticipantRepo) GetParticipant(ctx context.Context, id string) (application.Participant, error) {
	participant, ok := c.participants[id]
	if !ok {
		return application.Participant{}, application.ErrNotFound
	}
	return participant, nil
}

func (c *capturingParticipantRepo) UpdateParticipant(ctx context.Context, participant application.Participant) (application.Participant, error) {
	c.participants[participant.ID] = participant
	return participant, nil
}

func (c *capturingParticipantRepo) DeleteParticipant(ctx context.Context, id string) error {
	delete(c.participants, id)
	return nil
}

func (c *capturingParticipantRepo) ListParticipants(ctx context.Context) ([]application.Participant, error) {
	var participants []application.Participant
	for _, participant := range c.participants {
		participants = append(participants, participant)
	}
	return participants, nil
}

func (c *capturingParticipantRepo) GetParticipantsByIDs(ctx context.Context, ids []string) ([]application.Participant, error) {
	var participants []application.Participant
	for _, id := range ids {
		if participant, ok := c.participants[id]; ok {
			participants = append(participants, participant)
		}
	}
	return participants, nil
}

func TestServiceFactoryNewParticipantService(t *testing.T) {
	factory := NewServiceFactory()
	repo := newCapturingParticipantRepo()

	svc := factory.NewParticipantService(ParticipantServiceDeps{Participants: repo})
	input := application.ParticipantInput{Name: "Alice", Email: "alice@example.com"}

	participant, err := svc.CreateParticipant(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateParticipant returned error: %v", err)
	}

	if participant.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", participant.ID)
	}
	if repo.created.ID != participant.ID {
		t.Fatalf("repository received unexpected ID: %q", repo.created.ID)
	}
	if !participant.CreatedAt.Equal(factory.Clock.Current()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Current(), participant.CreatedAt)
	}
}
