package services

import (
	"context"
	"errors"
	"time"

	"github.com/gfreitas-a/ClinicRoomBack/internal/models"
	"github.com/gfreitas-a/ClinicRoomBack/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrSessionNotWaiting        = errors.New("session is not waiting")
	ErrSessionNotInSegment      = errors.New("session has no active segment")
	ErrRotationNotDue           = errors.New("segment has not reached the rotation threshold")
	ErrSessionNotComplete       = errors.New("session has pending segments")
	ErrAllProfessionalsOccupied = errors.New("all professionals occupied")
	ErrSlotOccupied             = errors.New("professional slot already occupied")
)

type schedulerStore interface {
	GetByID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	ListActive(ctx context.Context, filter repository.ActiveSessionFilter) ([]models.Session, error)
	BeginSegment(ctx context.Context, sessionID uuid.UUID, slot int) error
	AdvanceRotation(ctx context.Context, sessionID uuid.UUID, thresholdMinutes int) error
	Finalize(ctx context.Context, sessionID uuid.UUID) error
}

// SchedulerService decides which professional slot a waiting session may
// claim and when a session is eligible to rotate or finish. The storage
// transaction itself is the repository's concern; every precondition here is
// checked before any command is issued, so a rejected operation mutates
// nothing.
type SchedulerService struct {
	store schedulerStore
	eval  Evaluator
	now   func() time.Time
}

func NewSchedulerService(store schedulerStore, eval Evaluator) *SchedulerService {
	return &SchedulerService{store: store, eval: eval, now: time.Now}
}

// StartSession claims the lowest-numbered free slot the session still needs
// and begins a segment on it. Rejected when the session is not waiting or
// when every eligible professional is busy.
func (s *SchedulerService) StartSession(
	ctx context.Context,
	sessionID uuid.UUID,
) (*models.Session, error) {
	session, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusWaiting {
		return nil, ErrSessionNotWaiting
	}

	siblings, err := s.store.ListActive(ctx, repository.ActiveSessionFilter{
		Date:   session.Date,
		RoomID: &session.RoomID,
	})
	if err != nil {
		return nil, err
	}

	slot, ok := s.pickSlot(session, siblings)
	if !ok {
		return nil, ErrAllProfessionalsOccupied
	}

	if err := s.store.BeginSegment(ctx, sessionID, slot); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the check-and-set race against another operator.
			return nil, ErrSlotOccupied
		}
		return nil, err
	}

	return s.store.GetByID(ctx, sessionID)
}

// RotateSession commits the running segment once it has reached the
// threshold and returns the session to the waiting pool, or leaves it
// cleared and awaiting finalization when every slot is done. A session with
// no active segment, including one already complete, is rejected untouched.
func (s *SchedulerService) RotateSession(
	ctx context.Context,
	sessionID uuid.UUID,
) (*models.Session, error) {
	session, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.InSegment() {
		return nil, ErrSessionNotInSegment
	}
	if s.eval.ElapsedMinutes(session, s.now()) < s.eval.SegmentMinutes {
		return nil, ErrRotationNotDue
	}

	if err := s.store.AdvanceRotation(ctx, sessionID, s.eval.SegmentMinutes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotInSegment
		}
		return nil, err
	}

	return s.store.GetByID(ctx, sessionID)
}

// FinishSession terminally closes a session whose segments are all
// delivered. Finishing an already-closed session is a no-op.
func (s *SchedulerService) FinishSession(
	ctx context.Context,
	sessionID uuid.UUID,
) (*models.Session, error) {
	session, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.StatusCompleted {
		return session, nil
	}
	if !s.eval.SessionComplete(session) {
		return nil, ErrSessionNotComplete
	}

	if err := s.store.Finalize(ctx, sessionID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	return s.store.GetByID(ctx, sessionID)
}

// pickSlot is the deterministic tie-break: the lowest-numbered assigned slot
// that is free in the room and not already in the session's completed set.
func (s *SchedulerService) pickSlot(
	session *models.Session,
	siblings []models.Session,
) (int, bool) {
	busy := make(map[int]bool, s.eval.SlotCount)
	for i := range siblings {
		if siblings[i].InSegment() {
			busy[*siblings[i].ActiveSlot] = true
		}
	}

	completed := make(map[int]bool, s.eval.SlotCount)
	for _, slot := range s.eval.CompletedSlots(session) {
		completed[slot] = true
	}

	for slot := 1; slot <= s.eval.SlotCount; slot++ {
		if session.Professionals.Assigned(slot) && !busy[slot] && !completed[slot] {
			return slot, true
		}
	}
	return 0, false
}
