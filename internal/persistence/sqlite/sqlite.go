package sqlite

import (
	"context"
)

// Storage bundles a connection pool with the repositories backed by it,
// giving callers a single type to open, migrate and close.
type Storage struct {
	pool         *ConnectionPool
	Rooms        *RoomRepository
	Participants *ParticipantRepository
	Meetings     *MeetingRepository
}

// Open creates a connection pool for dsn and wires the room, participant
// and meeting repositories on top of it.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(DefaultSQLiteConfig(dsn))
	if err != nil {
		return nil, err
	}

	return &Storage{
		pool:         pool,
		Rooms:        NewRoomRepository(pool),
		Participants: NewParticipantRepository(pool),
		Meetings:     NewMeetingRepository(pool),
	}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Migrate ensures the database schema exists.
func (s *Storage) Migrate(ctx context.Context) error {
	return EnsureSchema(ctx, s.pool)
}

// Pool exposes the underlying connection pool for callers that need direct
// transaction control.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}
