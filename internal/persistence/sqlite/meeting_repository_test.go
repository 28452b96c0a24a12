package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/meetingverifier/internal/persistence"
)

func TestMeetingRepository_CreateAndGet(t *testing.T) {
	repo, cleanup := setupMeetingRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	seedRoomAndParticipants(t, repo.pool, now)

	meeting := persistence.Meeting{
		ID:             "meeting1",
		Title:          "Roadmap Review",
		Start:          now.Add(time.Hour),
		End:            now.Add(2 * time.Hour),
		RoomID:         "room-a",
		ParticipantIDs: []string{"alice", "bob"},
		Status:         "PENDING",
	}

	if err := repo.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	fetched, err := repo.GetMeeting(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if fetched.Title != "Roadmap Review" || len(fetched.ParticipantIDs) != 2 {
		t.Fatalf("unexpected meeting: %#v", fetched)
	}
}

func TestMeetingRepository_CreateMeeting_InvalidTimeRange(t *testing.T) {
	repo, cleanup := setupMeetingRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	meeting := persistence.Meeting{
		ID:     "meeting1",
		Title:  "Backwards",
		Start:  now.Add(2 * time.Hour),
		End:    now.Add(time.Hour),
		Status: "PENDING",
	}

	if err := repo.CreateMeeting(ctx, meeting); err != persistence.ErrConstraintViolation {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestMeetingRepository_UpdateMeeting_ReplacesParticipants(t *testing.T) {
	repo, cleanup := setupMeetingRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	seedRoomAndParticipants(t, repo.pool, now)

	meeting := persistence.Meeting{
		ID:             "meeting1",
		Title:          "Planning",
		Start:          now.Add(time.Hour),
		End:            now.Add(2 * time.Hour),
		RoomID:         "room-a",
		ParticipantIDs: []string{"alice"},
		Status:         "PENDING",
	}
	if err := repo.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	meeting.ParticipantIDs = []string{"bob"}
	meeting.Status = "CONFIRMED"
	if err := repo.UpdateMeeting(ctx, meeting); err != nil {
		t.Fatalf("UpdateMeeting failed: %v", err)
	}

	fetched, err := repo.GetMeeting(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if fetched.Status != "CONFIRMED" || len(fetched.ParticipantIDs) != 1 || fetched.ParticipantIDs[0] != "bob" {
		t.Fatalf("unexpected meeting after update: %#v", fetched)
	}
}

func TestMeetingRepository_ListMeetings_FiltersByStatusAndParticipant(t *testing.T) {
	repo, cleanup := setupMeetingRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	seedRoomAndParticipants(t, repo.pool, now)

	pending := persistence.Meeting{
		ID:             "meeting-pending",
		Title:          "Pending",
		Start:          now.Add(time.Hour),
		End:            now.Add(2 * time.Hour),
		RoomID:         "room-a",
		ParticipantIDs: []string{"alice"},
		Status:         "PENDING",
	}
	confirmed := persistence.Meeting{
		ID:             "meeting-confirmed",
		Title:          "Confirmed",
		Start:          now.Add(3 * time.Hour),
		End:            now.Add(4 * time.Hour),
		RoomID:         "room-a",
		ParticipantIDs: []string{"bob"},
		Status:         "CONFIRMED",
	}
	if err := repo.CreateMeeting(ctx, pending); err != nil {
		t.Fatalf("CreateMeeting pending failed: %v", err)
	}
	if err := repo.CreateMeeting(ctx, confirmed); err != nil {
		t.Fatalf("CreateMeeting confirmed failed: %v", err)
	}

	results, err := repo.ListMeetings(ctx, persistence.MeetingFilter{Statuses: []string{"CONFIRMED"}})
	if err != nil {
		t.Fatalf("ListMeetings failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != confirmed.ID {
		t.Fatalf("expected only confirmed meeting, got %#v", results)
	}

	results, err = repo.ListMeetings(ctx, persistence.MeetingFilter{ParticipantID: "alice"})
	if err != nil {
		t.Fatalf("ListMeetings by participant failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != pending.ID {
		t.Fatalf("expected only alice's meeting, got %#v", results)
	}
}

func TestMeetingRepository_DeleteMeeting(t *testing.T) {
	repo, cleanup := setupMeetingRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	seedRoomAndParticipants(t, repo.pool, now)

	meeting := persistence.Meeting{
		ID:             "meeting1",
		Title:          "Disposable",
		Start:          now.Add(time.Hour),
		End:            now.Add(2 * time.Hour),
		RoomID:         "room-a",
		ParticipantIDs: []string{"alice"},
		Status:         "PENDING",
	}
	if err := repo.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	if err := repo.DeleteMeeting(ctx, meeting.ID); err != nil {
		t.Fatalf("DeleteMeeting failed: %v", err)
	}

	if _, err := repo.GetMeeting(ctx, meeting.ID); err != persistence.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func seedRoomAndParticipants(t *testing.T, pool *ConnectionPool, now time.Time) {
	t.Helper()
	rooms := NewRoomRepository(pool)
	participants := NewParticipantRepository(pool)

	if err := rooms.CreateRoom(context.Background(), persistence.Room{ID: "room-a", Name: "Room A", Capacity: 6, Available: true}); err != nil {
		t.Fatalf("failed to seed room: %v", err)
	}
	if err := participants.CreateParticipant(context.Background(), persistence.Participant{ID: "alice", Name: "Alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("failed to seed alice: %v", err)
	}
	if err := participants.CreateParticipant(context.Background(), persistence.Participant{ID: "bob", Name: "Bob", Email: "bob@example.com"}); err != nil {
		t.Fatalf("failed to seed bob: %v", err)
	}
}

func setupMeetingRepositoryTest(t *testing.T) (*MeetingRepository, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	pool, err := NewConnectionPool(TempFileTestSQLiteConfig(dbPath))
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}

	if err := EnsureSchema(context.Background(), pool); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	repo := NewMeetingRepository(pool)

	cleanup := func() {
		pool.Close()
	}

	return repo, cleanup
}
