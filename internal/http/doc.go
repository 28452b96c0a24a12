// Package http provides HTTP handlers and middleware for the meeting
// scheduler API.
//
// The router exposes the following endpoints:
//   - GET /api/meetings, POST /api/meetings: list and propose meetings.
//     A proposal response carries the full SchedulingResult, including the
//     constraint witnesses produced on refusal; 409 marks an UNSATISFIABLE
//     proposal, 201 a SATISFIABLE one.
//   - GET /api/meetings/{id}, PUT /api/meetings/{id}, DELETE /api/meetings/{id}:
//     single meeting read, update and delete. Delete is refused with 409 when
//     the runtime monitor reports a blocking violation.
//   - POST /api/meetings/{id}/confirm|reject|cancel: lifecycle transitions,
//     rejected with 400 when the transition is not allowed from the meeting's
//     current status.
//   - GET /api/meetings/status/{status}, GET /api/meetings/room/{roomId},
//     GET /api/meetings/range?start=&end=: filtered listings.
//   - GET /api/meetings/availability?room_id=&duration=&search_start=&search_end=:
//     the availability search.
//   - POST /api/meetings/verify-batch: planning-only batch feasibility check,
//     persists nothing.
//   - GET /api/meetings/verification/stats, GET /api/meetings/verification/violations,
//     POST /api/meetings/verification/check-pending: the runtime monitor's
//     read surface.
//   - GET /api/rooms, POST /api/rooms, PUT /api/rooms/{id}, DELETE /api/rooms/{id}:
//     room catalog endpoints exchanging the roomDTO payload defined in
//     room_handler.go. Listing is open to any caller; mutations require the
//     admin bearer token.
//   - GET /api/participants, POST /api/participants, PUT /api/participants/{id},
//     DELETE /api/participants/{id}: participant catalog endpoints, gated the
//     same way as rooms.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
