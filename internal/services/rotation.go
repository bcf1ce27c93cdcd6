package services

import (
	"time"

	"github.com/gfreitas-a/ClinicRoomBack/internal/models"
)

// Evaluator derives rotation figures from a single session row. All methods
// are pure and total: malformed rows (missing minutes, missing professional)
// degrade to zero minutes or an unassigned slot, never an error.
type Evaluator struct {
	SegmentMinutes int
	SlotCount      int
}

func NewEvaluator(segmentMinutes, slotCount int) Evaluator {
	return Evaluator{SegmentMinutes: segmentMinutes, SlotCount: slotCount}
}

// CompletedSlots returns, in ascending order, the assigned slots whose
// accumulated minutes reached the segment threshold.
func (e Evaluator) CompletedSlots(session *models.Session) []int {
	completed := make([]int, 0, e.SlotCount)
	for slot := 1; slot <= e.SlotCount; slot++ {
		if !session.Professionals.Assigned(slot) {
			continue
		}
		if session.SlotMinutes.Of(slot) >= e.SegmentMinutes {
			completed = append(completed, slot)
		}
	}
	return completed
}

// SessionComplete reports whether every slot counter reached the threshold.
// Exactly SlotCount counters are checked, assigned or not: a room with an
// unassigned slot can never auto-complete. Rooms must have all slots
// assigned for completion to be reachable.
func (e Evaluator) SessionComplete(session *models.Session) bool {
	for slot := 1; slot <= e.SlotCount; slot++ {
		if session.SlotMinutes.Of(slot) < e.SegmentMinutes {
			return false
		}
	}
	return true
}

// NextEligibleSlot returns the slot that should deliver the next segment:
// the active slot while a segment is running, otherwise the lowest-numbered
// assigned slot that has not completed its segment yet.
func (e Evaluator) NextEligibleSlot(session *models.Session) int {
	if session.InSegment() {
		return *session.ActiveSlot
	}

	completed := make(map[int]bool, e.SlotCount)
	for _, slot := range e.CompletedSlots(session) {
		completed[slot] = true
	}
	for slot := 1; slot <= e.SlotCount; slot++ {
		if session.Professionals.Assigned(slot) && !completed[slot] {
			return slot
		}
	}
	return 1
}

// ElapsedMinutes is the whole-minute age of the active segment. Elapsed time
// lives only in the segment-started timestamp until a rotation commits it
// into the slot counter.
func (e Evaluator) ElapsedMinutes(session *models.Session, now time.Time) int {
	if !session.InSegment() || session.SegmentStartedAt == nil {
		return 0
	}
	elapsed := int(now.Sub(*session.SegmentStartedAt) / time.Minute)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// RemainingMinutes is threshold minus elapsed for the active segment.
// Negative means the rotation is overdue.
func (e Evaluator) RemainingMinutes(session *models.Session, now time.Time) int {
	return e.SegmentMinutes - e.ElapsedMinutes(session, now)
}

// Evaluate bundles every derived figure for one session at one instant.
func (e Evaluator) Evaluate(session *models.Session, now time.Time) models.SessionView {
	return models.SessionView{
		Session:          *session,
		CompletedSlots:   e.CompletedSlots(session),
		NextSlot:         e.NextEligibleSlot(session),
		Complete:         e.SessionComplete(session),
		ElapsedMinutes:   e.ElapsedMinutes(session, now),
		RemainingMinutes: e.RemainingMinutes(session, now),
	}
}
