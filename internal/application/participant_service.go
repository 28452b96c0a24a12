package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/meetingverifier/internal/persistence"
)

// ParticipantRepository captures the persistence operations needed by the
// service. Participants are data only and not part of the verification
// core.
type ParticipantRepository interface {
	CreateParticipant(ctx context.Context, participant Participant) (Participant, error)
	GetParticipant(ctx context.Context, id string) (Participant, error)
	UpdateParticipant(ctx context.Context, participant Participant) (Participant, error)
	DeleteParticipant(ctx context.Context, id string) error
	ListParticipants(ctx context.Context) ([]Participant, error)
	GetParticipantsByIDs(ctx context.Context, ids []string) ([]Participant, error)
}

// ParticipantService orchestrates validation and persistence for participants.
type ParticipantService struct {
	participants ParticipantRepository
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewParticipantService constructs a participant service.
func NewParticipantService(participants ParticipantRepository, idGenerator func() string, now func() time.Time) *ParticipantService {
	return NewParticipantServiceWithLogger(participants, idGenerator, now, nil)
}

// NewParticipantServiceWithLogger constructs a participant service with a specified logger.
func NewParticipantServiceWithLogger(participants ParticipantRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ParticipantService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ParticipantService{participants: participants, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ParticipantService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ParticipantService", operation, attrs...)
}

// CreateParticipant validates input and persists a new participant.
func (s *ParticipantService) CreateParticipant(ctx context.Context, input ParticipantInput) (participant Participant, err error) {
	if s == nil {
		err = fmt.Errorf("ParticipantService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateParticipant")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create participant", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("participant_id", participant.ID).InfoContext(ctx, "participant created")
	}()

	vErr := validateParticipantInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	participant = Participant{
		ID:         s.idGenerator(),
		Name:       strings.TrimSpace(input.Name),
		Email:      strings.TrimSpace(input.Email),
		Department: strings.TrimSpace(input.Department),
		CreatedAt:  s.now(),
	}
	participant.UpdatedAt = participant.CreatedAt

	if s.participants == nil {
		return
	}

	var persisted Participant
	persisted, err = s.participants.CreateParticipant(ctx, participant)
	if err != nil {
		err = mapParticipantRepoError(err)
		return
	}
	participant = persisted
	return
}

// UpdateParticipant validates input and updates an existing participant.
func (s *ParticipantService) UpdateParticipant(ctx context.Context, id string, input ParticipantInput) (participant Participant, err error) {
	if s == nil {
		err = fmt.Errorf("ParticipantService is nil")
		return
	}
	if s.participants == nil {
		err = fmt.Errorf("participant repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateParticipant", "participant_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update participant", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "participant updated")
	}()

	var existing Participant
	existing, err = s.participants.GetParticipant(ctx, id)
	if err != nil {
		err = mapParticipantRepoError(err)
		return
	}

	vErr := validateParticipantInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(input.Name)
	updated.Email = strings.TrimSpace(input.Email)
	updated.Department = strings.TrimSpace(input.Department)
	updated.UpdatedAt = s.now()

	participant, err = s.participants.UpdateParticipant(ctx, updated)
	if err != nil {
		err = mapParticipantRepoError(err)
	}
	return
}

// DeleteParticipant removes an existing participant.
func (s *ParticipantService) DeleteParticipant(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("ParticipantService is nil")
	}
	if s.participants == nil {
		return fmt.Errorf("participant repository not configured")
	}
	if err := s.participants.DeleteParticipant(ctx, id); err != nil {
		return mapParticipantRepoError(err)
	}
	return nil
}

// ListParticipants returns the participant catalog sorted by name.
func (s *ParticipantService) ListParticipants(ctx context.Context) ([]Participant, error) {
	if s == nil {
		return nil, fmt.Errorf("ParticipantService is nil")
	}
	if s.participants == nil {
		return nil, nil
	}
	raw, err := s.participants.ListParticipants(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Participant, len(raw))
	copy(out, raw)
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

// resolveParticipants loads the full participant set by id, failing with a
// validation error naming the missing ids.
func (s *ParticipantService) resolveParticipants(ctx context.Context, ids []string) ([]Participant, error) {
	if s.participants == nil {
		return nil, nil
	}
	found, err := s.participants.GetParticipantsByIDs(ctx, ids)
	if err != nil {
		return nil, mapParticipantRepoError(err)
	}
	if len(found) == len(ids) {
		return found, nil
	}
	byID := make(map[string]struct{}, len(found))
	for _, p := range found {
		byID[p.ID] = struct{}{}
	}
	missing := make([]string, 0)
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	vErr := &ValidationError{}
	vErr.add("participantIds", "unknown participant id(s): "+strings.Join(missing, ", "))
	return nil, vErr
}

func validateParticipantInput(input ParticipantInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		vErr.add("email", "email is required")
	}
	return vErr
}

func mapParticipantRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
