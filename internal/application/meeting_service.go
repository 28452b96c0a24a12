package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/meetingverifier/internal/domain"
	"github.com/example/meetingverifier/internal/persistence"
	"github.com/example/meetingverifier/internal/verification/constraint"
	"github.com/example/meetingverifier/internal/verification/runtime"
)

// MeetingRepository captures the persistence interactions needed by the
// service.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) (Meeting, error)
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	UpdateMeeting(ctx context.Context, meeting Meeting) (Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
	ListMeetings(ctx context.Context, filter MeetingRepositoryFilter) ([]Meeting, error)
}

// MeetingRepositoryFilter narrows queries issued to the meeting repository.
type MeetingRepositoryFilter struct {
	RoomID        string
	Statuses      []string
	ParticipantID string
	StartsAfter   *time.Time
	EndsBefore    *time.Time
}

// RoomLookup resolves a room by id, used to enforce availability and
// capacity during scheduling.
type RoomLookup interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// ParticipantResolver resolves a set of participant ids, failing with the
// list of unknown ids when any are missing.
type ParticipantResolver interface {
	resolveParticipants(ctx context.Context, ids []string) ([]Participant, error)
}

// MeetingService is the scheduling service (C4): it sequences the static
// constraint encoder (C1/C2) and the lifecycle monitor (C3), owns the
// meeting status machine, and implements the availability finder (C5) and
// batch verification.
type MeetingService struct {
	meetings     MeetingRepository
	rooms        RoomLookup
	participants ParticipantResolver
	encoder      *constraint.Encoder
	monitor      *runtime.Monitor
	idGenerator  func() string
	now          func() time.Time
	slotGrid     time.Duration
	logger       *slog.Logger
}

// NewMeetingService wires dependencies for scheduling operations.
func NewMeetingService(
	meetings MeetingRepository,
	rooms RoomLookup,
	participants ParticipantResolver,
	encoder *constraint.Encoder,
	monitor *runtime.Monitor,
	idGenerator func() string,
	now func() time.Time,
	slotGrid time.Duration,
) *MeetingService {
	return NewMeetingServiceWithLogger(meetings, rooms, participants, encoder, monitor, idGenerator, now, slotGrid, nil)
}

// NewMeetingServiceWithLogger constructs a meeting service with a specified logger.
func NewMeetingServiceWithLogger(
	meetings MeetingRepository,
	rooms RoomLookup,
	participants ParticipantResolver,
	encoder *constraint.Encoder,
	monitor *runtime.Monitor,
	idGenerator func() string,
	now func() time.Time,
	slotGrid time.Duration,
	logger *slog.Logger,
) *MeetingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if slotGrid <= 0 {
		slotGrid = 15 * time.Minute
	}
	return &MeetingService{
		meetings:     meetings,
		rooms:        rooms,
		participants: participants,
		encoder:      encoder,
		monitor:      monitor,
		idGenerator:  idGenerator,
		now:          now,
		slotGrid:     slotGrid,
		logger:       defaultLogger(logger),
	}
}

func (s *MeetingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MeetingService", operation, attrs...)
}

// CreateMeeting validates, statically checks, and persists a proposed
// meeting, then notifies the lifecycle monitor of the CREATE event.
func (s *MeetingService) CreateMeeting(ctx context.Context, input MeetingInput) (result SchedulingResult, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateMeeting", "room_id", input.RoomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("success", result.Success, "solver_status", result.SolverStatus).InfoContext(ctx, "meeting creation evaluated")
	}()

	if vErr := validateMeetingShape(input); vErr.HasErrors() {
		err = vErr
		return
	}

	room, rErr := s.loadRoom(ctx, input.RoomID)
	if rErr != nil {
		err = rErr
		return
	}
	if !room.Available {
		err = ErrRoomUnavailable
		return
	}

	if _, pErr := s.resolveParticipants(ctx, input.ParticipantIDs); pErr != nil {
		err = pErr
		return
	}

	proposed := constraint.SchedulingConstraint{
		RoomID:         input.RoomID,
		RoomCapacity:   room.Capacity,
		Start:          input.Start.UTC().Unix(),
		End:            input.End.UTC().Unix(),
		ParticipantIDs: input.ParticipantIDs,
	}

	existing, cErr := s.confirmedSnapshot(ctx)
	if cErr != nil {
		err = cErr
		return
	}

	decision := s.encoder.CheckFeasibility(ctx, proposed, existing)
	if decision.Status != constraint.StatusSatisfiable {
		result = decisionFailure(decision)
		return
	}

	createdAt := s.now()
	meeting := Meeting{
		ID:             s.idGenerator(),
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		Start:          input.Start,
		End:            input.End,
		RoomID:         input.RoomID,
		ParticipantIDs: sortedUnique(input.ParticipantIDs),
		Status:         string(domain.StatusPending),
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	if s.meetings == nil {
		result = SchedulingSuccess(meeting, "admissible", decision.SolvingTimeMs)
		return
	}

	var persisted Meeting
	persisted, err = s.meetings.CreateMeeting(ctx, meeting)
	if err != nil {
		err = mapMeetingRepoError(err)
		return
	}

	warnings := s.notifyCreate(persisted)
	result = SchedulingSuccess(persisted, "admissible", decision.SolvingTimeMs)
	result.RuntimeWarnings = warnings

	s.checkPendingQuiet(ctx)
	return
}

// UpdateMeeting overlays the delta onto the existing meeting, refuses edits
// to terminal meetings, and re-checks the static constraints with the
// meeting excluded from its own existing-meetings snapshot.
func (s *MeetingService) UpdateMeeting(ctx context.Context, id string, input MeetingInput) (result SchedulingResult, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}
	if s.meetings == nil {
		err = fmt.Errorf("meeting repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateMeeting", "meeting_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("success", result.Success, "solver_status", result.SolverStatus).InfoContext(ctx, "meeting update evaluated")
	}()

	var existing Meeting
	existing, err = s.meetings.GetMeeting(ctx, id)
	if err != nil {
		err = mapMeetingRepoError(err)
		return
	}

	status := domain.Status(existing.Status)
	if status.Terminal() {
		err = ErrMeetingImmutable
		return
	}

	if vErr := validateMeetingShape(input); vErr.HasErrors() {
		err = vErr
		return
	}

	room, rErr := s.loadRoom(ctx, input.RoomID)
	if rErr != nil {
		err = rErr
		return
	}
	if !room.Available {
		err = ErrRoomUnavailable
		return
	}

	if _, pErr := s.resolveParticipants(ctx, input.ParticipantIDs); pErr != nil {
		err = pErr
		return
	}

	meetingID := id
	proposed := constraint.SchedulingConstraint{
		MeetingID:      &meetingID,
		RoomID:         input.RoomID,
		RoomCapacity:   room.Capacity,
		Start:          input.Start.UTC().Unix(),
		End:            input.End.UTC().Unix(),
		ParticipantIDs: input.ParticipantIDs,
	}

	var existingSnapshot []constraint.ExistingMeeting
	existingSnapshot, err = s.confirmedSnapshot(ctx)
	if err != nil {
		return
	}

	decision := s.encoder.CheckFeasibility(ctx, proposed, existingSnapshot)
	if decision.Status != constraint.StatusSatisfiable {
		result = decisionFailure(decision)
		return
	}

	updated := existing
	updated.Title = strings.TrimSpace(input.Title)
	updated.Description = input.Description
	updated.Start = input.Start
	updated.End = input.End
	updated.RoomID = input.RoomID
	updated.ParticipantIDs = sortedUnique(input.ParticipantIDs)
	updated.UpdatedAt = s.now()

	var persisted Meeting
	persisted, err = s.meetings.UpdateMeeting(ctx, updated)
	if err != nil {
		err = mapMeetingRepoError(err)
		return
	}

	result = SchedulingSuccess(persisted, "admissible", decision.SolvingTimeMs)

	s.checkPendingQuiet(ctx)
	return
}

// Transition validates the requested status change against the meeting
// status machine, persists it, and invokes the matching monitor handler.
func (s *MeetingService) Transition(ctx context.Context, id string, next domain.Status) (meeting Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}
	if s.meetings == nil {
		err = fmt.Errorf("meeting repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Transition", "meeting_id", id, "next_status", string(next))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to transition meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "meeting transitioned")
	}()

	var existing Meeting
	existing, err = s.meetings.GetMeeting(ctx, id)
	if err != nil {
		err = mapMeetingRepoError(err)
		return
	}

	current := domain.Status(existing.Status)
	if !current.CanTransition(next) {
		err = ErrInvalidStatusTransition
		return
	}

	updated := existing
	updated.Status = string(next)
	updated.UpdatedAt = s.now()

	var persisted Meeting
	persisted, err = s.meetings.UpdateMeeting(ctx, updated)
	if err != nil {
		err = mapMeetingRepoError(err)
		return
	}

	if s.monitor != nil {
		switch next {
		case domain.StatusConfirmed:
			s.monitor.OnConfirm(id)
		case domain.StatusRejected:
			s.monitor.OnReject(id)
		case domain.StatusCancelled:
			s.monitor.OnCancel(id, existing.Status)
		}
	}

	meeting = persisted
	s.checkPendingQuiet(ctx)
	return
}

// DeleteMeeting notifies the monitor first; if the monitor raises a
// violation at severity ERROR or above, the delete is refused.
func (s *MeetingService) DeleteMeeting(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return fmt.Errorf("meeting repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteMeeting", "meeting_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete meeting", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "meeting deleted")
	}()

	existing, gErr := s.meetings.GetMeeting(ctx, id)
	if gErr != nil {
		err = mapMeetingRepoError(gErr)
		return
	}

	if s.monitor != nil {
		violations := s.monitor.OnDelete(id, existing.Status)
		var blocking []string
		for _, v := range violations {
			if v.Severity >= runtime.SeverityError {
				blocking = append(blocking, fmt.Sprintf("%s: %s", v.PropertyName, v.Description))
			}
		}
		if len(blocking) > 0 {
			err = &SchedulingError{Message: "delete refused by lifecycle monitor", Violations: blocking}
			return
		}
	}

	if err = s.meetings.DeleteMeeting(ctx, id); err != nil {
		err = mapMeetingRepoError(err)
		return
	}

	if s.monitor != nil {
		s.monitor.RemoveViolationsForMeeting(id)
	}

	s.checkPendingQuiet(ctx)
	return
}

// GetMeeting loads a single meeting by id.
func (s *MeetingService) GetMeeting(ctx context.Context, id string) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return Meeting{}, ErrNotFound
	}
	meeting, err := s.meetings.GetMeeting(ctx, id)
	if err != nil {
		return Meeting{}, mapMeetingRepoError(err)
	}
	return meeting, nil
}

// ListMeetings enumerates meetings under an optional filter, sorted by
// start time.
func (s *MeetingService) ListMeetings(ctx context.Context, filter MeetingRepositoryFilter) ([]Meeting, error) {
	if s == nil {
		return nil, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return nil, nil
	}
	raw, err := s.meetings.ListMeetings(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]Meeting, len(raw))
	copy(out, raw)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

// FindAvailableSlots (C5) walks a cursor from searchStart in grid-sized
// increments, emitting every slot of the requested duration that is
// disjoint from the room's confirmed timeline. On overlap, the cursor jumps
// directly to the overlapping slot's end and is then rounded up to the
// grid, per the direct (non cursor = e.end - increment) formulation.
func (s *MeetingService) FindAvailableSlots(ctx context.Context, req AvailableSlotsRequest) (AvailableSlotsResult, error) {
	if s == nil {
		return AvailableSlotsResult{}, fmt.Errorf("MeetingService is nil")
	}
	if req.Duration <= 0 {
		return AvailableSlotsResult{}, &ValidationError{FieldErrors: map[string]string{"duration": "duration must be positive"}}
	}
	if !req.SearchStart.Before(req.SearchEnd) {
		return AvailableSlotsResult{}, &ValidationError{FieldErrors: map[string]string{"searchEnd": "searchEnd must be after searchStart"}}
	}

	snapshot, err := s.confirmedSnapshot(ctx)
	if err != nil {
		return AvailableSlotsResult{}, err
	}
	existing := make([]constraint.ExistingMeeting, 0, len(snapshot))
	for _, e := range snapshot {
		if e.RoomID == req.RoomID {
			existing = append(existing, e)
		}
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i].Start < existing[j].Start })

	result := AvailableSlotsResult{RoomID: req.RoomID, Duration: req.Duration, SearchStart: req.SearchStart, SearchEnd: req.SearchEnd}

	durationSeconds := int64(req.Duration / time.Second)
	cursor := req.SearchStart.UTC().Unix()
	searchEnd := req.SearchEnd.UTC().Unix()
	gridSeconds := int64(s.slotGrid / time.Second)
	if gridSeconds <= 0 {
		gridSeconds = int64((15 * time.Minute) / time.Second)
	}

	for cursor+durationSeconds <= searchEnd {
		slotEnd := cursor + durationSeconds
		overlap, conflictEnd := firstOverlap(cursor, slotEnd, existing)
		if !overlap {
			result.Slots = append(result.Slots, time.Unix(cursor, 0).UTC())
			cursor += gridSeconds
			continue
		}
		cursor = roundUpToGrid(conflictEnd, gridSeconds)
	}

	return result, nil
}

// VerifyBatch delegates to the constraint encoder's batch variant against
// the confirmed snapshot. Purely a planning query: nothing is persisted.
func (s *MeetingService) VerifyBatch(ctx context.Context, requests []BatchVerifyRequest) (constraint.DecisionResult, error) {
	if s == nil {
		return constraint.DecisionResult{}, fmt.Errorf("MeetingService is nil")
	}
	if len(requests) == 0 {
		return constraint.SAT(0), nil
	}

	existing, err := s.confirmedSnapshot(ctx)
	if err != nil {
		return constraint.DecisionResult{}, err
	}

	proposals := make([]constraint.SchedulingConstraint, 0, len(requests))
	for _, r := range requests {
		room, err := s.loadRoom(ctx, r.RoomID)
		if err != nil {
			return constraint.DecisionResult{}, err
		}
		proposals = append(proposals, constraint.SchedulingConstraint{
			RoomID:         r.RoomID,
			RoomCapacity:   room.Capacity,
			Start:          r.Start.UTC().Unix(),
			End:            r.End.UTC().Unix(),
			ParticipantIDs: r.ParticipantIDs,
		})
	}

	return s.encoder.CheckBatch(ctx, proposals, existing), nil
}

// GetRuntimeViolations returns the monitor's full violation log.
func (s *MeetingService) GetRuntimeViolations(ctx context.Context) []runtime.PropertyViolation {
	if s == nil || s.monitor == nil {
		return nil
	}
	return s.monitor.GetViolations()
}

// CheckPendingMeetingsCompliance forces an immediate P1 sweep and returns
// the newly raised violations.
func (s *MeetingService) CheckPendingMeetingsCompliance(ctx context.Context) []runtime.PropertyViolation {
	if s == nil || s.monitor == nil {
		return nil
	}
	return s.monitor.CheckPending()
}

// GetVerificationStatistics merges the decision backend's live toggle with
// the monitor's statistics.
func (s *MeetingService) GetVerificationStatistics(ctx context.Context) VerificationStatistics {
	stats := VerificationStatistics{}
	if s == nil {
		return stats
	}
	if s.encoder != nil {
		stats.DecisionBackendEnabled = s.encoder.Enabled()
	}
	if s.monitor != nil {
		m := s.monitor.GetStatistics()
		stats.PendingMeetings = m.PendingMeetings
		stats.TrackedMeetings = m.TrackedMeetings
		stats.TotalViolations = m.TotalViolations
		stats.CriticalViolations = m.CriticalViolations
		stats.ErrorViolations = m.ErrorViolations
		stats.WarningViolations = m.WarningViolations
	}
	return stats
}

// DecisionBackendEnabled reports the decision backend's live toggle.
func (s *MeetingService) DecisionBackendEnabled() bool {
	if s == nil || s.encoder == nil {
		return false
	}
	return s.encoder.Enabled()
}

// SetDecisionBackendEnabled toggles the decision backend at runtime.
func (s *MeetingService) SetDecisionBackendEnabled(enabled bool) {
	if s == nil || s.encoder == nil {
		return
	}
	s.encoder.SetEnabled(enabled)
}

func (s *MeetingService) loadRoom(ctx context.Context, roomID string) (Room, error) {
	if s.rooms == nil {
		return Room{}, fmt.Errorf("room lookup not configured")
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, mapRoomRepoError(err)
	}
	return room, nil
}

func (s *MeetingService) resolveParticipants(ctx context.Context, ids []string) ([]Participant, error) {
	if len(ids) == 0 {
		vErr := &ValidationError{}
		vErr.add("participantIds", "at least one participant is required")
		return nil, vErr
	}
	if s.participants == nil {
		return nil, nil
	}
	return s.participants.resolveParticipants(ctx, ids)
}

// confirmedSnapshot loads every confirmed meeting, across all rooms, and
// converts them into the constraint package's wire shape. Only CONFIRMED
// meetings are hard obstacles to a new proposal; see the scheduling
// rationale for why PENDING is excluded. The snapshot is deliberately not
// scoped to a single room: the decision backend's participant-conflict
// check is cross-room by design (the same person can't be double-booked in
// two different rooms at once), so a room-filtered snapshot would starve
// that check of exactly the existing meetings it needs to see.
func (s *MeetingService) confirmedSnapshot(ctx context.Context) ([]constraint.ExistingMeeting, error) {
	if s.meetings == nil {
		return nil, nil
	}
	confirmed := string(domain.StatusConfirmed)
	meetings, err := s.meetings.ListMeetings(ctx, MeetingRepositoryFilter{Statuses: []string{confirmed}})
	if err != nil {
		return nil, err
	}
	out := make([]constraint.ExistingMeeting, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, constraint.ExistingMeeting{
			MeetingID:      m.ID,
			RoomID:         m.RoomID,
			Start:          m.Start.UTC().Unix(),
			End:            m.End.UTC().Unix(),
			ParticipantIDs: m.ParticipantIDs,
		})
	}
	return out, nil
}

func (s *MeetingService) notifyCreate(meeting Meeting) []string {
	if s.monitor == nil {
		return nil
	}
	violations := s.monitor.OnCreate(toDomainMeeting(meeting))
	if len(violations) == 0 {
		return nil
	}
	warnings := make([]string, 0, len(violations))
	for _, v := range violations {
		warnings = append(warnings, fmt.Sprintf("%s: %s", v.PropertyName, v.Description))
	}
	return warnings
}

// checkPendingQuiet runs the monitor's periodic P1 sweep, discarding the
// result. Every mutating operation triggers it per the service sequencing
// in the scheduling rationale (validate -> static-check -> persist ->
// notify -> check-pending).
func (s *MeetingService) checkPendingQuiet(ctx context.Context) {
	if s.monitor == nil {
		return
	}
	s.monitor.CheckPending()
}

func toDomainMeeting(m Meeting) domain.Meeting {
	return domain.Meeting{
		ID:             m.ID,
		Title:          m.Title,
		Description:    m.Description,
		Start:          m.Start,
		End:            m.End,
		RoomID:         m.RoomID,
		ParticipantIDs: m.ParticipantIDs,
		Status:         domain.Status(m.Status),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func decisionFailure(decision constraint.DecisionResult) SchedulingResult {
	if decision.Status == constraint.StatusError {
		return SchedulingErrorResult(decision.ErrorMessage, decision.SolvingTimeMs)
	}
	return SchedulingFailure(decision.Violations, "inadmissible", decision.SolvingTimeMs)
}

func firstOverlap(start, end int64, existing []constraint.ExistingMeeting) (bool, int64) {
	for _, e := range existing {
		if start < e.End && e.Start < end {
			return true, e.End
		}
	}
	return false, 0
}

func roundUpToGrid(value, grid int64) int64 {
	if grid <= 0 {
		return value
	}
	remainder := value % grid
	if remainder == 0 {
		return value
	}
	return value + (grid - remainder)
}

func validateMeetingShape(input MeetingInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.RoomID == "" {
		vErr.add("roomId", "roomId is required")
	}
	if input.Start.IsZero() || input.End.IsZero() {
		vErr.add("time", "start and end are required")
	} else if !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
	}
	if len(input.ParticipantIDs) == 0 {
		vErr.add("participantIds", "at least one participant is required")
	}
	return vErr
}

func sortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func mapMeetingRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("participantIds", "related records are missing")
		return vErr
	}
	return err
}
