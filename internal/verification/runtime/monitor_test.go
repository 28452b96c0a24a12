package runtime

import (
	"testing"
	"time"

	"github.com/example/meetingverifier/internal/domain"
)

func meetingAt(id, room string, start, end time.Time, participants ...string) domain.Meeting {
	return domain.Meeting{ID: id, RoomID: room, Start: start, End: end, ParticipantIDs: participants, Status: domain.StatusPending}
}

func TestMonitor_ConfirmClearsPending(t *testing.T) {
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	mon := NewMonitor(func() time.Time { return now })
	mon.RegisterRoom("A", 10)

	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2030, 1, 1, 11, 0, 0, 0, time.UTC)
	mon.OnCreate(meetingAt("m1", "A", start, end, "p1", "p2"))
	mon.OnConfirm("m1")

	if got := len(mon.GetViolationsBySeverity(SeverityError)); got != 0 {
		t.Fatalf("expected no ERROR violations after confirm, got %d", got)
	}
	if stats := mon.GetStatistics(); stats.PendingMeetings != 0 {
		t.Fatalf("expected 0 pending meetings after confirm, got %d", stats.PendingMeetings)
	}
}

func TestMonitor_UnresolvedAfterStartWithoutConfirmOrReject(t *testing.T) {
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := &now
	mon := NewMonitor(func() time.Time { return *clock })
	mon.RegisterRoom("A", 10)

	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2030, 1, 1, 11, 0, 0, 0, time.UTC)
	mon.OnCreate(meetingAt("m1", "A", start, end, "p1"))

	*clock = time.Date(2030, 1, 1, 10, 30, 0, 0, time.UTC)
	violations := mon.CheckPending()
	if len(violations) != 1 || violations[0].PropertyName != "P1" {
		t.Fatalf("expected one P1 UNRESOLVED violation, got %v", violations)
	}

	again := mon.CheckPending()
	if len(again) != 0 {
		t.Fatalf("expected deduplication on repeated checkPending, got %v", again)
	}
}

func TestMonitor_NoUnresolvedWhenConfirmedBeforeStart(t *testing.T) {
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := &now
	mon := NewMonitor(func() time.Time { return *clock })
	mon.RegisterRoom("A", 10)

	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2030, 1, 1, 11, 0, 0, 0, time.UTC)
	mon.OnCreate(meetingAt("m1", "A", start, end, "p1"))
	mon.OnConfirm("m1")

	*clock = time.Date(2030, 1, 1, 10, 30, 0, 0, time.UTC)
	violations := mon.CheckPending()
	if len(violations) != 0 {
		t.Fatalf("expected no UNRESOLVED violation once confirmed, got %v", violations)
	}
}

func TestMonitor_DeleteNeverCreated(t *testing.T) {
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	mon := NewMonitor(func() time.Time { return now })

	violations := mon.OnDelete("9999", "")
	if len(violations) != 1 || violations[0].PropertyName != "P2" {
		t.Fatalf("expected one P2 DELETE_NONEXISTENT violation, got %v", violations)
	}

	repeat := mon.OnDelete("9999", "")
	if len(repeat) != 0 {
		t.Fatalf("expected deduplication on repeated delete, got %v", repeat)
	}
	if got := len(mon.GetViolations()); got != 1 {
		t.Fatalf("expected exactly one entry in the global log, got %d", got)
	}
}

func TestMonitor_CapacityExceeded(t *testing.T) {
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	mon := NewMonitor(func() time.Time { return now })
	mon.RegisterRoom("S", 1)

	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2030, 1, 1, 11, 0, 0, 0, time.UTC)
	violations := mon.OnCreate(meetingAt("m1", "S", start, end, "p1", "p2"))

	if len(violations) != 1 || violations[0].PropertyName != "P4" {
		t.Fatalf("expected one P4 CAPACITY_EXCEEDED violation, got %v", violations)
	}
}

func TestMonitor_RoomOverlapDetected(t *testing.T) {
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	mon := NewMonitor(func() time.Time { return now })
	mon.RegisterRoom("A", 10)

	start1 := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	end1 := time.Date(2030, 1, 1, 11, 0, 0, 0, time.UTC)
	mon.OnCreate(meetingAt("m1", "A", start1, end1, "p1"))

	start2 := time.Date(2030, 1, 1, 10, 30, 0, 0, time.UTC)
	end2 := time.Date(2030, 1, 1, 11, 30, 0, 0, time.UTC)
	violations := mon.OnCreate(meetingAt("m2", "A", start2, end2, "p2"))

	if len(violations) != 1 || violations[0].PropertyName != "P3" || violations[0].Severity != SeverityCritical {
		t.Fatalf("expected one P3 CRITICAL violation, got %v", violations)
	}
}

func TestMonitor_RejectReleasesSlot(t *testing.T) {
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	mon := NewMonitor(func() time.Time { return now })
	mon.RegisterRoom("A", 10)

	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2030, 1, 1, 11, 0, 0, 0, time.UTC)
	mon.OnCreate(meetingAt("m1", "A", start, end, "p1"))
	mon.OnReject("m1")

	violations := mon.OnCreate(meetingAt("m2", "A", start, end, "p2"))
	if len(violations) != 0 {
		t.Fatalf("expected the released slot to admit a new meeting without overlap, got %v", violations)
	}
}

func TestMonitor_Reset(t *testing.T) {
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	mon := NewMonitor(func() time.Time { return now })
	mon.RegisterRoom("A", 10)
	mon.OnCreate(meetingAt("m1", "A", now, now.Add(time.Hour), "p1"))
	mon.OnDelete("9999", "")

	mon.Reset()

	stats := mon.GetStatistics()
	if stats.TotalEvents != 0 || stats.PendingMeetings != 0 || stats.TotalViolations != 0 {
		t.Fatalf("expected all state cleared after reset, got %+v", stats)
	}
}
