package constraint

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Backend is the decision backend adapter (C2): a thin, mutex-guarded
// wrapper around an incremental push/pop solver, with a live enable/disable
// switch, a configurable hard deadline and a bounded result cache. Decision
// backends are polymorphic over {checkFeasibility, checkBatch, setEnabled};
// Backend implements that capability set directly rather than through a
// separate interface, since this module ships exactly one implementation.
type Backend struct {
	mu      sync.Mutex
	enabled atomic.Bool
	timeout time.Duration
	cache   *lru.Cache[string, DecisionResult]
	now     func() time.Time
}

// NewBackend constructs a decision backend. cacheSize <= 0 disables caching.
func NewBackend(timeout time.Duration, cacheSize int, now func() time.Time) *Backend {
	b := &Backend{timeout: timeout, now: now}
	b.enabled.Store(true)
	if cacheSize > 0 {
		c, err := lru.New[string, DecisionResult](cacheSize)
		if err == nil {
			b.cache = c
		}
	}
	return b
}

// Enabled reports the live enable/disable state.
func (b *Backend) Enabled() bool { return b.enabled.Load() }

// SetEnabled toggles the backend without a redeploy. Disabling short-circuits
// every future checkFeasibility call to SAT(0) without invoking the solver.
func (b *Backend) SetEnabled(enabled bool) { b.enabled.Store(enabled) }

// InvalidateCache drops all cached decisions. The cache key covers the whole
// existing-meeting snapshot, so a changed snapshot never hits a stale entry;
// MeetingService does not call this.
func (b *Backend) InvalidateCache() {
	if b.cache != nil {
		b.cache.Purge()
	}
}

// checkFeasibility runs the encoding for one proposal against the existing
// snapshot, holding the backend's mutex for the duration of the call (a
// single mutex around each call is acceptable given the workload; push/pop
// is scoped to that one call and carries no state across invocations).
func (b *Backend) checkFeasibility(ctx context.Context, proposed SchedulingConstraint, existing []ExistingMeeting) DecisionResult {
	if !b.enabled.Load() {
		return SAT(0)
	}

	if !proposed.hasValidTimeRange() {
		return UNSAT([]string{"Invalid time range"}, 0)
	}
	if !proposed.fitsCapacity() {
		return UNSAT([]string{fmt.Sprintf("Room capacity exceeded: %d requested, capacity %d", len(proposed.ParticipantIDs), proposed.RoomCapacity)}, 0)
	}

	key := cacheKey(proposed, existing)
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cache != nil {
		if cached, ok := b.cache.Get(key); ok {
			return cached
		}
	}

	start := b.now()
	deadline := start.Add(b.timeout)

	solver := newFrameSolver()
	participantSet := make(map[string]struct{}, len(proposed.ParticipantIDs))
	for _, p := range proposed.ParticipantIDs {
		participantSet[p] = struct{}{}
	}

	var violations []string
	for _, e := range existing {
		if proposed.MeetingID != nil && e.MeetingID == *proposed.MeetingID {
			continue
		}
		if b.now().After(deadline) {
			return SolverError("solver timeout", elapsedMs(start, b.now()))
		}

		if e.RoomID == proposed.RoomID {
			solver.push()
			conflict := overlaps(proposed.Start, proposed.End, e.Start, e.End)
			solver.assertNot(conflict)
			if solver.unsat() {
				violations = append(violations, roomConflictWitness(e))
			}
			solver.pop()
		}

		for participantID := range participantSet {
			if !e.involvesParticipant(participantID) {
				continue
			}
			solver.push()
			conflict := overlaps(proposed.Start, proposed.End, e.Start, e.End)
			solver.assertNot(conflict)
			if solver.unsat() {
				violations = append(violations, participantConflictWitness(participantID, e))
			}
			solver.pop()
		}
	}

	elapsed := elapsedMs(start, b.now())
	var result DecisionResult
	if len(violations) > 0 {
		result = UNSAT(violations, elapsed)
	} else {
		result = SAT(elapsed)
	}
	if b.cache != nil {
		b.cache.Add(key, result)
	}
	return result
}

func elapsedMs(start, end time.Time) int64 {
	return end.Sub(start).Milliseconds()
}

// cacheKey builds a canonical signature over the proposal and the existing
// snapshot so that structurally identical checks share a cache entry.
func cacheKey(proposed SchedulingConstraint, existing []ExistingMeeting) string {
	var sb strings.Builder
	meetingID := ""
	if proposed.MeetingID != nil {
		meetingID = *proposed.MeetingID
	}
	participants := append([]string(nil), proposed.ParticipantIDs...)
	sort.Strings(participants)
	fmt.Fprintf(&sb, "p:%s|%s|%d|%d|%d|%s", meetingID, proposed.RoomID, proposed.RoomCapacity, proposed.Start, proposed.End, strings.Join(participants, ","))

	sorted := append([]ExistingMeeting(nil), existing...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MeetingID < sorted[j].MeetingID })
	for _, e := range sorted {
		ps := append([]string(nil), e.ParticipantIDs...)
		sort.Strings(ps)
		fmt.Fprintf(&sb, ";e:%s|%s|%d|%d|%s", e.MeetingID, e.RoomID, e.Start, e.End, strings.Join(ps, ","))
	}
	return sb.String()
}
