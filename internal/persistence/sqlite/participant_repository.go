package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/meetingverifier/internal/persistence"
)

// ParticipantRepository implements persistence.ParticipantRepository using SQLite
type ParticipantRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewParticipantRepository creates a new SQLite participant repository
func NewParticipantRepository(pool *ConnectionPool) *ParticipantRepository {
	return &ParticipantRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateParticipant inserts a new participant into the database
func (r *ParticipantRepository) CreateParticipant(ctx context.Context, participant persistence.Participant) error {
	if participant.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	participant.CreatedAt = now
	participant.UpdatedAt = now

	query := `
		INSERT INTO participants (id, name, email, department, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		participant.ID,
		participant.Name,
		participant.Email,
		participant.Department,
		participant.CreatedAt.Format(time.RFC3339),
		participant.UpdatedAt.Format(time.RFC3339),
	)

	if err != nil {
		return r.mapParticipantError(err)
	}

	return nil
}

// UpdateParticipant updates an existing participant in the database
func (r *ParticipantRepository) UpdateParticipant(ctx context.Context, participant persistence.Participant) error {
	if participant.ID == "" {
		return persistence.ErrConstraintViolation
	}

	participant.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE participants
		SET name = ?, email = ?, department = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		participant.Name,
		participant.Email,
		participant.Department,
		participant.UpdatedAt.Format(time.RFC3339),
		participant.ID,
	)

	if err != nil {
		return r.mapParticipantError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetParticipant retrieves a participant by ID from the database
func (r *ParticipantRepository) GetParticipant(ctx context.Context, id string) (persistence.Participant, error) {
	if id == "" {
		return persistence.Participant{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, email, department, created_at, updated_at
		FROM participants
		WHERE id = ?
	`

	participant, err := r.scanParticipant(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Participant{}, persistence.ErrNotFound
		}
		return persistence.Participant{}, r.mapper.MapError(err)
	}

	return participant, nil
}

// GetParticipantsByIDs retrieves the participants matching the given IDs
func (r *ParticipantRepository) GetParticipantsByIDs(ctx context.Context, ids []string) ([]persistence.Participant, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, department, created_at, updated_at
		FROM participants
		WHERE id IN (%s)
		ORDER BY name ASC, id ASC
	`, strings.Join(placeholders, ","))

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var participants []persistence.Participant
	for rows.Next() {
		participant, err := r.scanParticipant(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		participants = append(participants, participant)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return participants, nil
}

// ListParticipants returns all participants ordered by name then ID
func (r *ParticipantRepository) ListParticipants(ctx context.Context) ([]persistence.Participant, error) {
	query := `
		SELECT id, name, email, department, created_at, updated_at
		FROM participants
		ORDER BY name ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var participants []persistence.Participant
	for rows.Next() {
		participant, err := r.scanParticipant(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		participants = append(participants, participant)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return participants, nil
}

// DeleteParticipant removes a participant by ID from the database
func (r *ParticipantRepository) DeleteParticipant(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx, "DELETE FROM meeting_participants WHERE participant_id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM participants WHERE id = ?", id)
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

func (r *ParticipantRepository) scanParticipant(row rowScanner) (persistence.Participant, error) {
	var participant persistence.Participant
	var createdAtStr, updatedAtStr string
	var department sql.NullString

	err := row.Scan(
		&participant.ID,
		&participant.Name,
		&participant.Email,
		&department,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Participant{}, err
	}

	if department.Valid {
		participant.Department = department.String
	}

	if participant.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Participant{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if participant.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Participant{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return participant, nil
}

// mapParticipantError maps SQLite errors to appropriate persistence errors for participant operations
func (r *ParticipantRepository) mapParticipantError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if containsAny(errStr, []string{"UNIQUE constraint failed"}) {
		return persistence.ErrDuplicate
	}

	if containsAny(errStr, []string{"CHECK constraint failed"}) {
		return persistence.ErrConstraintViolation
	}

	return r.mapper.MapError(err)
}
