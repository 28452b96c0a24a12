package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/meetingverifier/internal/persistence"
)

// MeetingRepository implements persistence.MeetingRepository using SQLite
type MeetingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewMeetingRepository creates a new SQLite meeting repository
func NewMeetingRepository(pool *ConnectionPool) *MeetingRepository {
	return &MeetingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateMeeting inserts a new meeting with its participants into the database
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if !meeting.End.After(meeting.Start) {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	meeting.CreatedAt = now
	meeting.UpdatedAt = now

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO meetings (id, title, description, start_time, end_time, room_id, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		var roomID sql.NullString
		if meeting.RoomID != "" {
			roomID.String = meeting.RoomID
			roomID.Valid = true
		}

		_, err := r.helper.ExecTx(tx, query,
			meeting.ID,
			meeting.Title,
			meeting.Description,
			meeting.Start.UTC().Format(time.RFC3339),
			meeting.End.UTC().Format(time.RFC3339),
			roomID,
			meeting.Status,
			meeting.CreatedAt.Format(time.RFC3339),
			meeting.UpdatedAt.Format(time.RFC3339),
		)

		if err != nil {
			return r.mapMeetingError(err)
		}

		return r.insertParticipants(tx, meeting.ID, meeting.ParticipantIDs)
	})
}

// UpdateMeeting updates an existing meeting and its participants
func (r *MeetingRepository) UpdateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if !meeting.End.After(meeting.Start) {
		return persistence.ErrConstraintViolation
	}

	meeting.UpdatedAt = time.Now().UTC()

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE meetings
			SET title = ?, description = ?, start_time = ?, end_time = ?, room_id = ?, status = ?, updated_at = ?
			WHERE id = ?
		`

		var roomID sql.NullString
		if meeting.RoomID != "" {
			roomID.String = meeting.RoomID
			roomID.Valid = true
		}

		result, err := r.helper.ExecTx(tx, query,
			meeting.Title,
			meeting.Description,
			meeting.Start.UTC().Format(time.RFC3339),
			meeting.End.UTC().Format(time.RFC3339),
			roomID,
			meeting.Status,
			meeting.UpdatedAt.Format(time.RFC3339),
			meeting.ID,
		)

		if err != nil {
			return r.mapMeetingError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := r.helper.ExecTx(tx, "DELETE FROM meeting_participants WHERE meeting_id = ?", meeting.ID); err != nil {
			return r.mapper.MapError(err)
		}

		return r.insertParticipants(tx, meeting.ID, meeting.ParticipantIDs)
	})
}

// GetMeeting retrieves a meeting by ID from the database
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	if id == "" {
		return persistence.Meeting{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, title, description, start_time, end_time, room_id, status, created_at, updated_at
		FROM meetings
		WHERE id = ?
	`

	meeting, err := r.scanMeeting(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Meeting{}, persistence.ErrNotFound
		}
		return persistence.Meeting{}, r.mapper.MapError(err)
	}

	participants, err := r.loadParticipants(ctx, id)
	if err != nil {
		return persistence.Meeting{}, err
	}
	meeting.ParticipantIDs = participants

	return meeting, nil
}

// ListMeetings lists meetings filtered by the provided filter
func (r *MeetingRepository) ListMeetings(ctx context.Context, filter persistence.MeetingFilter) ([]persistence.Meeting, error) {
	query, args := r.buildListQuery(filter)

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var meetings []persistence.Meeting
	for rows.Next() {
		meeting, err := r.scanMeeting(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		meetings = append(meetings, meeting)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range meetings {
		participants, err := r.loadParticipants(ctx, meetings[i].ID)
		if err != nil {
			return nil, err
		}
		meetings[i].ParticipantIDs = participants
	}

	return meetings, nil
}

// DeleteMeeting removes a meeting by ID from the database
func (r *MeetingRepository) DeleteMeeting(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx, "DELETE FROM meeting_participants WHERE meeting_id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM meetings WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		return nil
	})
}

// insertParticipants inserts participants for a meeting within a transaction
func (r *MeetingRepository) insertParticipants(tx *sql.Tx, meetingID string, participantIDs []string) error {
	if len(participantIDs) == 0 {
		return nil
	}

	unique := make(map[string]struct{})
	for _, participantID := range participantIDs {
		participantID = strings.TrimSpace(participantID)
		if participantID != "" {
			unique[participantID] = struct{}{}
		}
	}

	for participantID := range unique {
		_, err := r.helper.ExecTx(tx,
			"INSERT INTO meeting_participants (meeting_id, participant_id) VALUES (?, ?)",
			meetingID, participantID)
		if err != nil {
			return r.mapMeetingError(err)
		}
	}

	return nil
}

// loadParticipants loads participant IDs for a meeting
func (r *MeetingRepository) loadParticipants(ctx context.Context, meetingID string) ([]string, error) {
	query := `
		SELECT participant_id
		FROM meeting_participants
		WHERE meeting_id = ?
		ORDER BY participant_id ASC
	`

	rows, err := r.helper.Query(ctx, query, meetingID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var participantIDs []string
	for rows.Next() {
		var participantID string
		if err := rows.Scan(&participantID); err != nil {
			return nil, r.mapper.MapError(err)
		}
		participantIDs = append(participantIDs, participantID)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return participantIDs, nil
}

func (r *MeetingRepository) scanMeeting(row rowScanner) (persistence.Meeting, error) {
	var meeting persistence.Meeting
	var createdAtStr, updatedAtStr, startStr, endStr string
	var roomID, description sql.NullString

	err := row.Scan(
		&meeting.ID,
		&meeting.Title,
		&description,
		&startStr,
		&endStr,
		&roomID,
		&meeting.Status,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Meeting{}, err
	}

	if roomID.Valid {
		meeting.RoomID = roomID.String
	}
	if description.Valid {
		meeting.Description = description.String
	}

	if meeting.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if meeting.End, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if meeting.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if meeting.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return meeting, nil
}

// buildListQuery builds the SQL query for listing meetings with filters
func (r *MeetingRepository) buildListQuery(filter persistence.MeetingFilter) (string, []interface{}) {
	baseQuery := `
		SELECT DISTINCT m.id, m.title, m.description, m.start_time, m.end_time, m.room_id, m.status, m.created_at, m.updated_at
		FROM meetings m
	`

	var conditions []string
	var args []interface{}

	if filter.ParticipantID != "" {
		baseQuery += " LEFT JOIN meeting_participants mp ON m.id = mp.meeting_id"
		conditions = append(conditions, "mp.participant_id = ?")
		args = append(args, filter.ParticipantID)
	}

	if filter.RoomID != "" {
		conditions = append(conditions, "m.room_id = ?")
		args = append(args, filter.RoomID)
	}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("m.status IN (%s)", strings.Join(placeholders, ",")))
	}

	if filter.StartsAfter != nil {
		conditions = append(conditions, "m.end_time > ?")
		args = append(args, filter.StartsAfter.UTC().Format(time.RFC3339))
	}

	if filter.EndsBefore != nil {
		conditions = append(conditions, "m.start_time < ?")
		args = append(args, filter.EndsBefore.UTC().Format(time.RFC3339))
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	baseQuery += " ORDER BY m.start_time ASC, m.id ASC"

	return baseQuery, args
}

// mapMeetingError maps SQLite errors to appropriate persistence errors for meeting operations
func (r *MeetingRepository) mapMeetingError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if containsAny(errStr, []string{"UNIQUE constraint failed"}) {
		return persistence.ErrDuplicate
	}

	if containsAny(errStr, []string{"FOREIGN KEY constraint failed"}) {
		return persistence.ErrForeignKeyViolation
	}

	if containsAny(errStr, []string{"CHECK constraint failed"}) {
		return persistence.ErrConstraintViolation
	}

	return r.mapper.MapError(err)
}
