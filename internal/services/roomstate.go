package services

import (
	"context"
	"time"

	"github.com/gfreitas-a/ClinicRoomBack/internal/models"
	"github.com/gfreitas-a/ClinicRoomBack/internal/repository"
	"github.com/google/uuid"
)

type sessionSource interface {
	ListActive(ctx context.Context, filter repository.ActiveSessionFilter) ([]models.Session, error)
}

// RoomStateService rebuilds the per-room picture from a fresh fetch of
// session rows. Nothing is cached between refreshes: occupancy and alerts
// always describe one consistent snapshot.
type RoomStateService struct {
	source sessionSource
	eval   Evaluator
	alerts *AlertService
}

func NewRoomStateService(source sessionSource, eval Evaluator, alerts *AlertService) *RoomStateService {
	return &RoomStateService{source: source, eval: eval, alerts: alerts}
}

func (s *RoomStateService) Snapshot(
	ctx context.Context,
	filter repository.ActiveSessionFilter,
	now time.Time,
) (*models.Snapshot, error) {
	sessions, err := s.source.ListActive(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &models.Snapshot{
		GeneratedAt: now.UTC(),
		Rooms:       s.BuildRooms(sessions, now),
		Alerts:      s.alerts.Scan(sessions, now),
	}, nil
}

// BuildRooms groups sessions by room, in the order rooms first appear in the
// fetched rows, and derives availability: a slot is occupied while it is the
// active professional of some in-progress session, free when it is assigned
// and not occupied. Unassigned slots belong to neither set.
func (s *RoomStateService) BuildRooms(sessions []models.Session, now time.Time) []models.RoomState {
	order := make([]uuid.UUID, 0)
	byRoom := make(map[uuid.UUID]*models.RoomState)
	assigned := make(map[uuid.UUID]models.SlotNames)

	for i := range sessions {
		session := &sessions[i]

		room, ok := byRoom[session.RoomID]
		if !ok {
			professionals := make(models.SlotNames, s.eval.SlotCount)
			for slot := 1; slot <= s.eval.SlotCount; slot++ {
				if name, exists := session.Professionals[slot]; exists && name != "" {
					professionals[slot] = name
				} else {
					professionals[slot] = models.UnassignedSlotName
				}
			}

			room = &models.RoomState{
				RoomID:        session.RoomID,
				Name:          session.RoomName,
				Number:        session.RoomNumber,
				Color:         session.RoomColor,
				Capacity:      session.RoomCapacity,
				Professionals: professionals,
				Sessions:      make([]models.SessionView, 0),
			}
			byRoom[session.RoomID] = room
			assigned[session.RoomID] = session.Professionals
			order = append(order, session.RoomID)
		}

		room.Sessions = append(room.Sessions, s.eval.Evaluate(session, now))
	}

	rooms := make([]models.RoomState, 0, len(order))
	for _, roomID := range order {
		room := byRoom[roomID]
		room.Occupancy = len(room.Sessions)
		room.OccupiedSlots, room.FreeSlots = s.availability(room.Sessions, assigned[roomID])
		rooms = append(rooms, *room)
	}
	return rooms
}

func (s *RoomStateService) availability(
	sessions []models.SessionView,
	assigned models.SlotNames,
) (occupied []int, free []int) {
	busy := make(map[int]bool, s.eval.SlotCount)
	for i := range sessions {
		if sessions[i].Session.InSegment() {
			busy[*sessions[i].ActiveSlot] = true
		}
	}

	occupied = make([]int, 0, s.eval.SlotCount)
	free = make([]int, 0, s.eval.SlotCount)
	for slot := 1; slot <= s.eval.SlotCount; slot++ {
		switch {
		case busy[slot]:
			occupied = append(occupied, slot)
		case assigned.Assigned(slot):
			free = append(free, slot)
		}
	}
	return occupied, free
}
