package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/meetingverifier/internal/application"
)

var (
	errBadRequestBody              = errors.New("the request body is not valid JSON")
	errInvalidMeetingID            = errors.New("invalid meeting id")
	errInvalidRoomID               = errors.New("invalid room id")
	errInvalidParticipantID        = errors.New("invalid participant id")
	errMissingBearerToken          = errors.New("an Authorization: Bearer token is required")
	errInvalidAvailabilityDuration = errors.New("a positive duration query parameter is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := defaultStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps an application-layer error to its HTTP
// representation, per the error handling table: not-found -> 404,
// already-exists -> 409, room unavailable -> 409, invalid status transition
// -> 400, meeting immutable -> 409, decision backend disabled -> 503,
// validation -> 422, refused-by-monitor (SchedulingError) -> 409, invalid
// credentials -> 401, anything else -> 500.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource was not found"})
		return
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "a resource with this identity already exists"})
		return
	case errors.Is(err, application.ErrRoomUnavailable):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "the room is marked unavailable"})
		return
	case errors.Is(err, application.ErrInvalidStatusTransition):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "the requested status transition is not allowed"})
		return
	case errors.Is(err, application.ErrMeetingImmutable):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "the meeting is no longer editable"})
		return
	case errors.Is(err, application.ErrDecisionBackendDisabled):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{Message: "the decision backend is disabled"})
		return
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_INVALID_TOKEN", Message: "the admin bearer token is invalid"})
		return
	}

	var sErr *application.SchedulingError
	if errors.As(err, &sErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SCHEDULING_REFUSED",
			Message:   sErr.Message,
			Errors:    violationMap(sErr.Violations),
		})
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "one or more fields failed validation",
			Errors:  vErr.FieldErrors,
		})
		return
	}

	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "an internal error occurred"})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func defaultStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request is malformed"
	case http.StatusUnauthorized:
		return "authentication is required"
	case http.StatusForbidden:
		return "you do not have permission to perform this operation"
	case http.StatusNotFound:
		return "the requested resource was not found"
	case http.StatusConflict:
		return "the request conflicts with the current state of the resource"
	case http.StatusUnprocessableEntity:
		return "one or more fields failed validation"
	default:
		return "an internal error occurred"
	}
}

func violationMap(violations []string) map[string]string {
	if len(violations) == 0 {
		return nil
	}
	out := make(map[string]string, len(violations))
	for i, v := range violations {
		out[strings.TrimSpace(strings.SplitN(v, ":", 2)[0])+"#"+strconv.Itoa(i)] = v
	}
	return out
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
