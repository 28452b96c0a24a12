package sqlite

import "context"

// schemaStatements creates the tables backing the room, participant and
// meeting repositories. Applied idempotently on startup; there is no
// versioned migration ladder since the schema has a single generation.
const schemaStatements = `
CREATE TABLE IF NOT EXISTS rooms (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	capacity INTEGER NOT NULL CHECK (capacity > 0),
	location TEXT,
	description TEXT,
	available INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	department TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meetings (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	room_id TEXT,
	status TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (room_id) REFERENCES rooms(id)
);

CREATE TABLE IF NOT EXISTS meeting_participants (
	meeting_id TEXT NOT NULL,
	participant_id TEXT NOT NULL,
	PRIMARY KEY (meeting_id, participant_id),
	FOREIGN KEY (meeting_id) REFERENCES meetings(id),
	FOREIGN KEY (participant_id) REFERENCES participants(id)
);

CREATE INDEX IF NOT EXISTS idx_meetings_room_id ON meetings(room_id);
CREATE INDEX IF NOT EXISTS idx_meeting_participants_participant_id ON meeting_participants(participant_id);
`

// EnsureSchema creates the database schema if it does not already exist.
func EnsureSchema(ctx context.Context, pool *ConnectionPool) error {
	_, err := pool.DB().ExecContext(ctx, schemaStatements)
	return err
}
