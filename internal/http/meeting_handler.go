package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/meetingverifier/internal/application"
	"github.com/example/meetingverifier/internal/domain"
	"github.com/example/meetingverifier/internal/verification/constraint"
	"github.com/example/meetingverifier/internal/verification/runtime"
)

type meetingService interface {
	CreateMeeting(ctx context.Context, input application.MeetingInput) (application.SchedulingResult, error)
	UpdateMeeting(ctx context.Context, id string, input application.MeetingInput) (application.SchedulingResult, error)
	Transition(ctx context.Context, id string, next domain.Status) (application.Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
	GetMeeting(ctx context.Context, id string) (application.Meeting, error)
	ListMeetings(ctx context.Context, filter application.MeetingRepositoryFilter) ([]application.Meeting, error)
	FindAvailableSlots(ctx context.Context, req application.AvailableSlotsRequest) (application.AvailableSlotsResult, error)
	VerifyBatch(ctx context.Context, requests []application.BatchVerifyRequest) (constraint.DecisionResult, error)
	GetRuntimeViolations(ctx context.Context) []runtime.PropertyViolation
	CheckPendingMeetingsCompliance(ctx context.Context) []runtime.PropertyViolation
	GetVerificationStatistics(ctx context.Context) application.VerificationStatistics
}

// MeetingHandler exposes the meeting lifecycle and the verification read
// surface. Unlike RoomHandler/ParticipantHandler, no endpoint here requires
// the admin bearer token: a meeting proposal is the core domain action, not
// an administrative one.
type MeetingHandler struct {
	service   meetingService
	responder responder
	logger    *slog.Logger
}

func NewMeetingHandler(service meetingService, logger *slog.Logger) *MeetingHandler {
	base := defaultLogger(logger)
	return &MeetingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MeetingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MeetingHandler", operation, attrs...)
}

func (h *MeetingHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode meeting request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")
	result, err := h.service.CreateMeeting(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusConflict
	if result.Success {
		status = http.StatusCreated
	}
	logger.With("success", result.Success, "solver_status", result.SolverStatus).InfoContext(r.Context(), "meeting proposal evaluated")
	h.responder.writeJSON(r.Context(), w, status, toSchedulingResultDTO(result))
}

func (h *MeetingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	meetingID, ok := MeetingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(meetingID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing meeting id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "meeting_id", meetingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode meeting update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "meeting_id", meetingID)
	result, err := h.service.UpdateMeeting(r.Context(), meetingID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusConflict
	if result.Success {
		status = http.StatusOK
	}
	logger.With("success", result.Success, "solver_status", result.SolverStatus).InfoContext(r.Context(), "meeting update evaluated")
	h.responder.writeJSON(r.Context(), w, status, toSchedulingResultDTO(result))
}

func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	meetingID, ok := MeetingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(meetingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	logger := h.log(r.Context(), "Get", "meeting_id", meetingID)
	meeting, err := h.service.GetMeeting(r.Context(), meetingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting retrieved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingResponse{Meeting: toMeetingDTO(meeting)})
}

func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.listWithFilter(w, r, "List", application.MeetingRepositoryFilter{})
}

func (h *MeetingHandler) ListByStatus(w http.ResponseWriter, r *http.Request, status string) {
	if !h.ready(w) {
		return
	}
	h.listWithFilter(w, r, "ListByStatus", application.MeetingRepositoryFilter{Statuses: []string{strings.ToUpper(strings.TrimSpace(status))}})
}

func (h *MeetingHandler) ListByRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	if !h.ready(w) {
		return
	}
	h.listWithFilter(w, r, "ListByRoom", application.MeetingRepositoryFilter{RoomID: roomID})
}

func (h *MeetingHandler) Range(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	filter := application.MeetingRepositoryFilter{}
	if start := parseTime(r.URL.Query().Get("start")); !start.IsZero() {
		filter.StartsAfter = &start
	}
	if end := parseTime(r.URL.Query().Get("end")); !end.IsZero() {
		filter.EndsBefore = &end
	}
	h.listWithFilter(w, r, "Range", filter)
}

func (h *MeetingHandler) listWithFilter(w http.ResponseWriter, r *http.Request, operation string, filter application.MeetingRepositoryFilter) {
	logger := h.log(r.Context(), operation)
	meetings, err := h.service.ListMeetings(r.Context(), filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(meetings)).InfoContext(r.Context(), "meetings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMeetingsResponse{Meetings: toMeetingDTOs(meetings)})
}

func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	meetingID, ok := MeetingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(meetingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	logger := h.log(r.Context(), "Delete", "meeting_id", meetingID)
	if err := h.service.DeleteMeeting(r.Context(), meetingID); err != nil {
		logger.ErrorContext(r.Context(), "meeting delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *MeetingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Confirm", domain.StatusConfirmed)
}

func (h *MeetingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Reject", domain.StatusRejected)
}

func (h *MeetingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Cancel", domain.StatusCancelled)
}

func (h *MeetingHandler) transition(w http.ResponseWriter, r *http.Request, operation string, next domain.Status) {
	if !h.ready(w) {
		return
	}

	meetingID, ok := MeetingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(meetingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	logger := h.log(r.Context(), operation, "meeting_id", meetingID)
	meeting, err := h.service.Transition(r.Context(), meetingID, next)
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", meeting.Status).InfoContext(r.Context(), "meeting transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingResponse{Meeting: toMeetingDTO(meeting)})
}

func (h *MeetingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	query := r.URL.Query()
	duration, err := time.ParseDuration(query.Get("duration"))
	if err != nil || duration <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAvailabilityDuration)
		return
	}

	req := application.AvailableSlotsRequest{
		RoomID:      query.Get("room_id"),
		Duration:    duration,
		SearchStart: parseTime(query.Get("search_start")),
		SearchEnd:   parseTime(query.Get("search_end")),
	}

	logger := h.log(r.Context(), "Availability", "room_id", req.RoomID)
	result, err := h.service.FindAvailableSlots(r.Context(), req)
	if err != nil {
		logger.ErrorContext(r.Context(), "availability search failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("slot_count", len(result.Slots)).InfoContext(r.Context(), "availability search completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAvailabilityDTO(result))
}

func (h *MeetingHandler) VerifyBatch(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req verifyBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "VerifyBatch", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode verify batch request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "VerifyBatch", "proposal_count", len(req.Proposals))
	result, err := h.service.VerifyBatch(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "verify batch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", result.Status).InfoContext(r.Context(), "verify batch completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDecisionResultDTO(result))
}

func (h *MeetingHandler) VerificationStats(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	stats := h.service.GetVerificationStatistics(r.Context())
	h.log(r.Context(), "VerificationStats").InfoContext(r.Context(), "verification statistics retrieved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toStatisticsDTO(stats))
}

func (h *MeetingHandler) VerificationViolations(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	violations := h.service.GetRuntimeViolations(r.Context())
	h.log(r.Context(), "VerificationViolations", "result_count", len(violations)).InfoContext(r.Context(), "runtime violations retrieved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listViolationsResponse{Violations: toViolationDTOs(violations)})
}

func (h *MeetingHandler) CheckPending(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	violations := h.service.CheckPendingMeetingsCompliance(r.Context())
	h.log(r.Context(), "CheckPending", "result_count", len(violations)).InfoContext(r.Context(), "pending meetings compliance checked")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listViolationsResponse{Violations: toViolationDTOs(violations)})
}

// parseTime accepts RFC3339Nano first, falling back to RFC3339, and returns
// the zero time on an unparseable or empty value.
func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}

type meetingRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	RoomID         string   `json:"room_id"`
	ParticipantIDs []string `json:"participant_ids"`
}

func (r meetingRequest) toInput() application.MeetingInput {
	return application.MeetingInput{
		Title:          strings.TrimSpace(r.Title),
		Description:    strings.TrimSpace(r.Description),
		Start:          parseTime(r.Start),
		End:            parseTime(r.End),
		RoomID:         strings.TrimSpace(r.RoomID),
		ParticipantIDs: r.ParticipantIDs,
	}
}

type proposalRequest struct {
	RoomID         string   `json:"room_id"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	ParticipantIDs []string `json:"participant_ids"`
}

type verifyBatchRequest struct {
	Proposals []proposalRequest `json:"proposals"`
}

func (r verifyBatchRequest) toInput() []application.BatchVerifyRequest {
	if len(r.Proposals) == 0 {
		return nil
	}
	out := make([]application.BatchVerifyRequest, 0, len(r.Proposals))
	for _, p := range r.Proposals {
		out = append(out, application.BatchVerifyRequest{
			RoomID:         strings.TrimSpace(p.RoomID),
			Start:          parseTime(p.Start),
			End:            parseTime(p.End),
			ParticipantIDs: p.ParticipantIDs,
		})
	}
	return out
}

type meetingResponse struct {
	Meeting meetingDTO `json:"meeting"`
}

type listMeetingsResponse struct {
	Meetings []meetingDTO `json:"meetings"`
}

type meetingDTO struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	RoomID         string   `json:"room_id"`
	ParticipantIDs []string `json:"participant_ids"`
	Status         string   `json:"status"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

func toMeetingDTO(meeting application.Meeting) meetingDTO {
	return meetingDTO{
		ID:             meeting.ID,
		Title:          meeting.Title,
		Description:    meeting.Description,
		Start:          meeting.Start.UTC().Format(time.RFC3339Nano),
		End:            meeting.End.UTC().Format(time.RFC3339Nano),
		RoomID:         meeting.RoomID,
		ParticipantIDs: meeting.ParticipantIDs,
		Status:         meeting.Status,
		CreatedAt:      meeting.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      meeting.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toMeetingDTOs(meetings []application.Meeting) []meetingDTO {
	if len(meetings) == 0 {
		return nil
	}
	out := make([]meetingDTO, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, toMeetingDTO(m))
	}
	return out
}

type schedulingResultDTO struct {
	Success              bool        `json:"success"`
	Meeting              *meetingDTO `json:"meeting,omitempty"`
	ConstraintViolations []string    `json:"constraint_violations,omitempty"`
	RuntimeWarnings      []string    `json:"runtime_warnings,omitempty"`
	SolverStatus         string      `json:"solver_status"`
	Explanation          string      `json:"explanation,omitempty"`
	SolvingTimeMs        int64       `json:"solving_time_ms"`
}

func toSchedulingResultDTO(result application.SchedulingResult) schedulingResultDTO {
	dto := schedulingResultDTO{
		Success:              result.Success,
		ConstraintViolations: result.ConstraintViolations,
		RuntimeWarnings:      result.RuntimeWarnings,
		SolverStatus:         result.SolverStatus,
		Explanation:          result.Explanation,
		SolvingTimeMs:        result.SolvingTimeMs,
	}
	if result.Meeting != nil {
		meeting := toMeetingDTO(*result.Meeting)
		dto.Meeting = &meeting
	}
	return dto
}

type availabilityDTO struct {
	RoomID      string   `json:"room_id"`
	Duration    string   `json:"duration"`
	SearchStart string   `json:"search_start"`
	SearchEnd   string   `json:"search_end"`
	Slots       []string `json:"slots"`
}

func toAvailabilityDTO(result application.AvailableSlotsResult) availabilityDTO {
	slots := make([]string, 0, len(result.Slots))
	for _, s := range result.Slots {
		slots = append(slots, s.UTC().Format(time.RFC3339Nano))
	}
	return availabilityDTO{
		RoomID:      result.RoomID,
		Duration:    result.Duration.String(),
		SearchStart: result.SearchStart.UTC().Format(time.RFC3339Nano),
		SearchEnd:   result.SearchEnd.UTC().Format(time.RFC3339Nano),
		Slots:       slots,
	}
}

type decisionResultDTO struct {
	Satisfiable   bool     `json:"satisfiable"`
	Violations    []string `json:"violations,omitempty"`
	SolvingTimeMs int64    `json:"solving_time_ms"`
	Status        string   `json:"status"`
	ErrorMessage  string   `json:"error_message,omitempty"`
}

func toDecisionResultDTO(result constraint.DecisionResult) decisionResultDTO {
	return decisionResultDTO{
		Satisfiable:   result.Satisfiable,
		Violations:    result.Violations,
		SolvingTimeMs: result.SolvingTimeMs,
		Status:        string(result.Status),
		ErrorMessage:  result.ErrorMessage,
	}
}

type statisticsDTO struct {
	DecisionBackendEnabled bool `json:"decision_backend_enabled"`
	PendingMeetings        int  `json:"pending_meetings"`
	TrackedMeetings        int  `json:"tracked_meetings"`
	TotalViolations        int  `json:"total_violations"`
	CriticalViolations     int  `json:"critical_violations"`
	ErrorViolations        int  `json:"error_violations"`
	WarningViolations      int  `json:"warning_violations"`
}

func toStatisticsDTO(stats application.VerificationStatistics) statisticsDTO {
	return statisticsDTO{
		DecisionBackendEnabled: stats.DecisionBackendEnabled,
		PendingMeetings:        stats.PendingMeetings,
		TrackedMeetings:        stats.TrackedMeetings,
		TotalViolations:        stats.TotalViolations,
		CriticalViolations:     stats.CriticalViolations,
		ErrorViolations:        stats.ErrorViolations,
		WarningViolations:      stats.WarningViolations,
	}
}

type listViolationsResponse struct {
	Violations []violationDTO `json:"violations"`
}

type violationDTO struct {
	PropertyName string `json:"property_name"`
	Description  string `json:"description"`
	Severity     string `json:"severity"`
	MeetingID    string `json:"meeting_id"`
	DetectedAt   string `json:"detected_at"`
	Details      string `json:"details,omitempty"`
}

func toViolationDTOs(violations []runtime.PropertyViolation) []violationDTO {
	if len(violations) == 0 {
		return nil
	}
	out := make([]violationDTO, 0, len(violations))
	for _, v := range violations {
		out = append(out, violationDTO{
			PropertyName: v.PropertyName,
			Description:  v.Description,
			Severity:     v.Severity.String(),
			MeetingID:    v.MeetingID,
			DetectedAt:   v.DetectedAt.UTC().Format(time.RFC3339Nano),
			Details:      v.Details,
		})
	}
	return out
}
