package models

import (
	"time"

	"github.com/google/uuid"
)

// Session statuses as stored by the clinic backend. The Portuguese values
// are the database contract shared with the legacy screens.
const (
	StatusWaiting   = "aguardando"
	StatusInSegment = "em_atendimento"
	StatusCompleted = "concluido"
)

// SlotMinutes maps a professional slot number (1..SlotsPerRoom) to the
// accumulated minutes that slot has delivered for a session. A missing slot
// reads as zero.
type SlotMinutes map[int]int

func (m SlotMinutes) Of(slot int) int {
	if m == nil {
		return 0
	}
	return m[slot]
}

// SlotNames maps a slot number to the assigned professional's name. Only
// assigned slots are present.
type SlotNames map[int]string

func (n SlotNames) Assigned(slot int) bool {
	if n == nil {
		return false
	}
	name, ok := n[slot]
	return ok && name != ""
}

type Session struct {
	ID                uuid.UUID   `json:"id"`
	RoomID            uuid.UUID   `json:"room_id"`
	RoomName          string      `json:"room_name"`
	RoomNumber        string      `json:"room_number"`
	RoomColor         string      `json:"room_color"`
	RoomCapacity      int         `json:"room_capacity"`
	Professionals     SlotNames   `json:"professionals"`
	PatientName       string      `json:"patient_name"`
	Date              time.Time   `json:"date"`
	StartTime         string      `json:"start_time"`
	EndTime           string      `json:"end_time"`
	Status            string      `json:"status"`
	ActiveSlot        *int        `json:"active_slot"`
	SegmentStartedAt  *time.Time  `json:"segment_started_at"`
	SlotMinutes       SlotMinutes `json:"slot_minutes"`
	AuthorizationCode *string     `json:"authorization_code"`
	GuideNumber       *string     `json:"guide_number"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// InSegment reports whether the session currently has a professional
// delivering a segment.
func (s *Session) InSegment() bool {
	return s.Status == StatusInSegment && s.ActiveSlot != nil
}
