package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/meetingverifier/internal/persistence"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "scheduler.db") + "?_foreign_keys=on"
	storage, err := Open(dsn)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}

	t.Cleanup(func() {
		_ = storage.Close()
	})

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return storage
}

func TestStorageWiresRepositoriesAcrossSchema(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	now := time.Now().UTC().Truncate(time.Second)

	room := persistence.Room{ID: "room-1", Name: "Conference Room", Location: "Floor 1", Capacity: 10, Available: true}
	if err := storage.Rooms.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	participant := persistence.Participant{ID: "participant-1", Name: "Alice", Email: "alice@example.com", Department: "Engineering"}
	if err := storage.Participants.CreateParticipant(ctx, participant); err != nil {
		t.Fatalf("CreateParticipant failed: %v", err)
	}

	meeting := persistence.Meeting{
		ID:             "meeting-1",
		Title:          "Roadmap",
		Start:          now.Add(24 * time.Hour),
		End:            now.Add(25 * time.Hour),
		RoomID:         room.ID,
		ParticipantIDs: []string{participant.ID},
		Status:         "PENDING",
	}
	if err := storage.Meetings.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	fetched, err := storage.Meetings.GetMeeting(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if fetched.RoomID != room.ID || len(fetched.ParticipantIDs) != 1 {
		t.Fatalf("unexpected meeting retrieved: %#v", fetched)
	}

	if err := storage.Meetings.DeleteMeeting(ctx, meeting.ID); err != nil {
		t.Fatalf("DeleteMeeting failed: %v", err)
	}

	if _, err := storage.Meetings.GetMeeting(ctx, meeting.ID); err != persistence.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
