package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/meetingverifier/internal/persistence"
)

func TestParticipantRepository_CreateAndGet(t *testing.T) {
	repo, cleanup := setupParticipantRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	participant := persistence.Participant{
		ID:         "participant1",
		Name:       "Alice",
		Email:      "alice@example.com",
		Department: "Engineering",
	}

	if err := repo.CreateParticipant(ctx, participant); err != nil {
		t.Fatalf("CreateParticipant failed: %v", err)
	}

	retrieved, err := repo.GetParticipant(ctx, "participant1")
	if err != nil {
		t.Fatalf("GetParticipant failed: %v", err)
	}
	if retrieved.Email != "alice@example.com" {
		t.Errorf("Expected email 'alice@example.com', got '%s'", retrieved.Email)
	}
}

func TestParticipantRepository_DuplicateEmail(t *testing.T) {
	repo, cleanup := setupParticipantRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	first := persistence.Participant{ID: "p1", Name: "Alice", Email: "alice@example.com"}
	second := persistence.Participant{ID: "p2", Name: "Alice Clone", Email: "alice@example.com"}

	if err := repo.CreateParticipant(ctx, first); err != nil {
		t.Fatalf("CreateParticipant failed: %v", err)
	}

	if err := repo.CreateParticipant(ctx, second); err != persistence.ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestParticipantRepository_GetParticipantsByIDs(t *testing.T) {
	repo, cleanup := setupParticipantRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	participants := []persistence.Participant{
		{ID: "p1", Name: "Alice", Email: "alice@example.com"},
		{ID: "p2", Name: "Bob", Email: "bob@example.com"},
		{ID: "p3", Name: "Carol", Email: "carol@example.com"},
	}
	for _, p := range participants {
		if err := repo.CreateParticipant(ctx, p); err != nil {
			t.Fatalf("CreateParticipant failed for %s: %v", p.ID, err)
		}
	}

	found, err := repo.GetParticipantsByIDs(ctx, []string{"p1", "p3"})
	if err != nil {
		t.Fatalf("GetParticipantsByIDs failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(found))
	}
}

func TestParticipantRepository_DeleteParticipant(t *testing.T) {
	repo, cleanup := setupParticipantRepositoryTest(t)
	defer cleanup()

	ctx := context.Background()
	participant := persistence.Participant{ID: "p1", Name: "Alice", Email: "alice@example.com"}
	if err := repo.CreateParticipant(ctx, participant); err != nil {
		t.Fatalf("CreateParticipant failed: %v", err)
	}

	if err := repo.DeleteParticipant(ctx, "p1"); err != nil {
		t.Fatalf("DeleteParticipant failed: %v", err)
	}

	if _, err := repo.GetParticipant(ctx, "p1"); err != persistence.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func setupParticipantRepositoryTest(t *testing.T) (*ParticipantRepository, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	pool, err := NewConnectionPool(TempFileTestSQLiteConfig(dbPath))
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}

	if err := EnsureSchema(context.Background(), pool); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	repo := NewParticipantRepository(pool)

	cleanup := func() {
		pool.Close()
	}

	return repo, cleanup
}
