package runtime

import (
	"sync"
	"time"

	"github.com/example/meetingverifier/internal/domain"
)

type slot struct {
	MeetingID string
	Start     time.Time
	End       time.Time
}

// roomTimeline is a per-room ordered list of live meeting slots with its own
// mutex, so mutations to one room never serialize against another.
type roomTimeline struct {
	mu    sync.Mutex
	slots []slot
}

func (t *roomTimeline) insert(s slot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots = append(t.slots, s)
}

func (t *roomTimeline) remove(meetingID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.slots[:0]
	for _, s := range t.slots {
		if s.MeetingID != meetingID {
			kept = append(kept, s)
		}
	}
	t.slots = kept
}

func (t *roomTimeline) snapshot() []slot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]slot(nil), t.slots...)
}

// Monitor is the lifecycle monitor (C3). Its mutable collections use
// per-collection mutexes rather than a single monitor-wide lock, so unrelated
// rooms are never serialized against each other.
type Monitor struct {
	now func() time.Time

	capacitiesMu sync.RWMutex
	capacities   map[string]int

	createdMu sync.Mutex
	created   map[string]struct{}

	pendingMu sync.Mutex
	pending   map[string]MeetingEvent

	roomsMu sync.RWMutex
	rooms   map[string]*roomTimeline

	historyMu sync.Mutex
	history   []MeetingEvent

	violationsMu sync.Mutex
	violations   []PropertyViolation
	seen         map[string]struct{}
}

// NewMonitor constructs an empty monitor. now supplies the monitor's notion
// of the current time, so tests can simulate a clock past a meeting's start.
func NewMonitor(now func() time.Time) *Monitor {
	return &Monitor{
		now:        now,
		capacities: make(map[string]int),
		created:    make(map[string]struct{}),
		pending:    make(map[string]MeetingEvent),
		rooms:      make(map[string]*roomTimeline),
		seen:       make(map[string]struct{}),
	}
}

// RegisterRoom records a room's capacity for the P4 check.
func (m *Monitor) RegisterRoom(roomID string, capacity int) {
	m.capacitiesMu.Lock()
	defer m.capacitiesMu.Unlock()
	m.capacities[roomID] = capacity
}

func (m *Monitor) capacityOf(roomID string) (int, bool) {
	m.capacitiesMu.RLock()
	defer m.capacitiesMu.RUnlock()
	c, ok := m.capacities[roomID]
	return c, ok
}

func (m *Monitor) timelineFor(roomID string) *roomTimeline {
	m.roomsMu.RLock()
	t, ok := m.rooms[roomID]
	m.roomsMu.RUnlock()
	if ok {
		return t
	}
	m.roomsMu.Lock()
	defer m.roomsMu.Unlock()
	if t, ok := m.rooms[roomID]; ok {
		return t
	}
	t = &roomTimeline{}
	m.rooms[roomID] = t
	return t
}

func (m *Monitor) appendEvent(e MeetingEvent) {
	m.historyMu.Lock()
	defer m.historyMu.Unlock()
	m.history = append(m.history, e)
}

// raise appends v to the global violation log and to the returned slice,
// unless it duplicates an existing entry on {propertyName, meetingId,
// description, details}.
func (m *Monitor) raise(new []PropertyViolation) []PropertyViolation {
	if len(new) == 0 {
		return nil
	}
	m.violationsMu.Lock()
	defer m.violationsMu.Unlock()
	var fresh []PropertyViolation
	for _, v := range new {
		key := v.dedupeKey()
		if _, dup := m.seen[key]; dup {
			continue
		}
		m.seen[key] = struct{}{}
		m.violations = append(m.violations, v)
		fresh = append(fresh, v)
	}
	return fresh
}

// OnCreate handles a CREATE event for a newly persisted meeting. It returns
// any newly raised violations (P4 capacity, then P3 overlap).
func (m *Monitor) OnCreate(meeting domain.Meeting) []PropertyViolation {
	now := m.now()
	event := MeetingEvent{
		Type:             EventCreate,
		MeetingID:        meeting.ID,
		RoomID:           meeting.RoomID,
		Start:            meeting.Start,
		End:              meeting.End,
		ParticipantCount: len(meeting.ParticipantIDs),
		Timestamp:        now,
	}
	m.appendEvent(event)

	m.createdMu.Lock()
	m.created[meeting.ID] = struct{}{}
	m.pendingMu.Lock()
	m.pending[meeting.ID] = event
	m.pendingMu.Unlock()
	m.createdMu.Unlock()

	var candidates []PropertyViolation

	if capacity, ok := m.capacityOf(meeting.RoomID); ok && len(meeting.ParticipantIDs) > capacity {
		candidates = append(candidates, newViolation(
			"P4", "Participant count exceeds room capacity", SeverityError, meeting.ID, now,
			"Property G(assign(room, attendees) -> |attendees| <= capacity(room)) violated",
		))
	}

	timeline := m.timelineFor(meeting.RoomID)
	overlapFound := false
	for _, s := range timeline.snapshot() {
		if s.MeetingID == meeting.ID {
			continue
		}
		if domain.Overlaps(meeting.Start, meeting.End, s.Start, s.End) {
			overlapFound = true
			candidates = append(candidates, newViolation(
				"P3", "Meeting overlaps with another live meeting in the same room", SeverityCritical, meeting.ID, now,
				"Property G !overlap(m, n) violated against meeting "+s.MeetingID,
			))
		}
	}
	if !overlapFound {
		timeline.insert(slot{MeetingID: meeting.ID, Start: meeting.Start, End: meeting.End})
	}

	return m.raise(candidates)
}

// OnConfirm handles a CONFIRM event: it clears the meeting from pendingIds
// and scrubs any prior UNRESOLVED_MEETING violation for it.
func (m *Monitor) OnConfirm(meetingID string) []PropertyViolation {
	m.appendEvent(MeetingEvent{Type: EventConfirm, MeetingID: meetingID, Timestamp: m.now()})

	m.pendingMu.Lock()
	_, wasPending := m.pending[meetingID]
	delete(m.pending, meetingID)
	m.pendingMu.Unlock()

	m.scrubUnresolved(meetingID)

	if !wasPending {
		return m.raise([]PropertyViolation{newViolation(
			"P1", "Meeting confirmed without a matching create event", SeverityWarning, meetingID, m.now(),
			"confirm observed with no corresponding pending create",
		)})
	}
	return nil
}

// OnReject handles a REJECT event: it clears the meeting from pendingIds,
// scrubs any prior UNRESOLVED_MEETING violation, and releases its slot from
// every room timeline.
func (m *Monitor) OnReject(meetingID string) []PropertyViolation {
	m.appendEvent(MeetingEvent{Type: EventReject, MeetingID: meetingID, Timestamp: m.now()})

	m.pendingMu.Lock()
	delete(m.pending, meetingID)
	m.pendingMu.Unlock()

	m.scrubUnresolved(meetingID)
	m.removeFromAllTimelines(meetingID)
	return nil
}

// OnDelete handles a DELETE event. If the meeting was never created, it
// raises an ERROR DELETE_NONEXISTENT violation (P2).
func (m *Monitor) OnDelete(meetingID string, priorStatus string) []PropertyViolation {
	now := m.now()
	m.appendEvent(MeetingEvent{Type: EventDelete, MeetingID: meetingID, PreviousStatus: priorStatus, Timestamp: now})

	m.createdMu.Lock()
	_, existed := m.created[meetingID]
	delete(m.created, meetingID)
	m.createdMu.Unlock()

	m.pendingMu.Lock()
	delete(m.pending, meetingID)
	m.pendingMu.Unlock()

	m.removeFromAllTimelines(meetingID)

	if !existed {
		return m.raise([]PropertyViolation{newViolation(
			"P2", "Delete refers to a meeting that was never created", SeverityError, meetingID, now,
			"Property G(delete(id) -> previouslyCreated(id)) violated",
		)})
	}
	return nil
}

// OnCancel handles a CANCEL event: no property check, just bookkeeping.
func (m *Monitor) OnCancel(meetingID string, priorStatus string) []PropertyViolation {
	m.appendEvent(MeetingEvent{Type: EventCancel, MeetingID: meetingID, PreviousStatus: priorStatus, Timestamp: m.now()})

	m.pendingMu.Lock()
	delete(m.pending, meetingID)
	m.pendingMu.Unlock()

	m.removeFromAllTimelines(meetingID)
	return nil
}

// CheckPending raises an UNRESOLVED_MEETING ERROR for every pending meeting
// whose start time has already passed.
func (m *Monitor) CheckPending() []PropertyViolation {
	now := m.now()
	m.pendingMu.Lock()
	overdue := make([]MeetingEvent, 0)
	for id, event := range m.pending {
		if event.Start.Before(now) {
			overdue = append(overdue, MeetingEvent{MeetingID: id, Start: event.Start})
		}
	}
	m.pendingMu.Unlock()

	var candidates []PropertyViolation
	for _, e := range overdue {
		candidates = append(candidates, newViolation(
			"P1", "Created meeting was not confirmed or rejected before its start time", SeverityError, e.MeetingID, now,
			"Property G(create(id) -> F(confirm(id) | reject(id))) violated. Meeting created, start time was "+e.Start.Format(time.RFC3339),
		))
	}
	return m.raise(candidates)
}

func (m *Monitor) scrubUnresolved(meetingID string) {
	m.violationsMu.Lock()
	defer m.violationsMu.Unlock()
	kept := m.violations[:0]
	for _, v := range m.violations {
		if v.MeetingID == meetingID && v.PropertyName == "P1" && v.Severity == SeverityError {
			delete(m.seen, v.dedupeKey())
			continue
		}
		kept = append(kept, v)
	}
	m.violations = kept
}

func (m *Monitor) removeFromAllTimelines(meetingID string) {
	m.roomsMu.RLock()
	timelines := make([]*roomTimeline, 0, len(m.rooms))
	for _, t := range m.rooms {
		timelines = append(timelines, t)
	}
	m.roomsMu.RUnlock()
	for _, t := range timelines {
		t.remove(meetingID)
	}
}

// RemoveViolationsForMeeting prunes stale violation history for a meeting,
// used by the service on successful delete.
func (m *Monitor) RemoveViolationsForMeeting(meetingID string) {
	m.violationsMu.Lock()
	defer m.violationsMu.Unlock()
	kept := m.violations[:0]
	for _, v := range m.violations {
		if v.MeetingID == meetingID {
			delete(m.seen, v.dedupeKey())
			continue
		}
		kept = append(kept, v)
	}
	m.violations = kept
}

// GetViolations returns a snapshot of the global violation log.
func (m *Monitor) GetViolations() []PropertyViolation {
	m.violationsMu.Lock()
	defer m.violationsMu.Unlock()
	return append([]PropertyViolation(nil), m.violations...)
}

// GetViolationsBySeverity filters the violation log by severity.
func (m *Monitor) GetViolationsBySeverity(severity ViolationSeverity) []PropertyViolation {
	m.violationsMu.Lock()
	defer m.violationsMu.Unlock()
	var out []PropertyViolation
	for _, v := range m.violations {
		if v.Severity == severity {
			out = append(out, v)
		}
	}
	return out
}

// GetEventHistory returns a snapshot of the append-only event history.
func (m *Monitor) GetEventHistory() []MeetingEvent {
	m.historyMu.Lock()
	defer m.historyMu.Unlock()
	return append([]MeetingEvent(nil), m.history...)
}

// GetPendingCount reports how many meetings are awaiting confirm/reject.
func (m *Monitor) GetPendingCount() int {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	return len(m.pending)
}

// Reset clears all monitor state. Intended for tests.
func (m *Monitor) Reset() {
	m.capacitiesMu.Lock()
	m.capacities = make(map[string]int)
	m.capacitiesMu.Unlock()

	m.createdMu.Lock()
	m.created = make(map[string]struct{})
	m.createdMu.Unlock()

	m.pendingMu.Lock()
	m.pending = make(map[string]MeetingEvent)
	m.pendingMu.Unlock()

	m.roomsMu.Lock()
	m.rooms = make(map[string]*roomTimeline)
	m.roomsMu.Unlock()

	m.historyMu.Lock()
	m.history = nil
	m.historyMu.Unlock()

	m.violationsMu.Lock()
	m.violations = nil
	m.seen = make(map[string]struct{})
	m.violationsMu.Unlock()
}

// Statistics summarizes the monitor's state for operator visibility.
type Statistics struct {
	TotalEvents       int
	PendingMeetings   int
	TrackedMeetings   int
	TotalViolations   int
	CriticalViolations int
	ErrorViolations   int
	WarningViolations int
}

// GetStatistics returns totals and per-severity violation counts.
func (m *Monitor) GetStatistics() Statistics {
	m.historyMu.Lock()
	totalEvents := len(m.history)
	m.historyMu.Unlock()

	m.pendingMu.Lock()
	pending := len(m.pending)
	m.pendingMu.Unlock()

	m.createdMu.Lock()
	tracked := len(m.created)
	m.createdMu.Unlock()

	m.violationsMu.Lock()
	defer m.violationsMu.Unlock()
	stats := Statistics{TotalEvents: totalEvents, PendingMeetings: pending, TrackedMeetings: tracked, TotalViolations: len(m.violations)}
	for _, v := range m.violations {
		switch v.Severity {
		case SeverityCritical:
			stats.CriticalViolations++
		case SeverityError:
			stats.ErrorViolations++
		case SeverityWarning:
			stats.WarningViolations++
		}
	}
	return stats
}
