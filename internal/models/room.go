package models

import (
	"time"

	"github.com/google/uuid"
)

// UnassignedSlotName is how the screens render a professional slot with
// nobody assigned to it.
const UnassignedSlotName = "Não definido"

type Room struct {
	ID            uuid.UUID  `json:"id"`
	UnitID        *uuid.UUID `json:"unit_id"`
	Name          string     `json:"name"`
	Number        string     `json:"number"`
	Color         string     `json:"color"`
	Capacity      int        `json:"capacity"`
	Professionals SlotNames  `json:"professionals"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SessionView is a session enriched with the rotation figures derived for
// one refresh cycle.
type SessionView struct {
	Session
	CompletedSlots   []int `json:"completed_slots"`
	NextSlot         int   `json:"next_slot"`
	Complete         bool  `json:"complete"`
	ElapsedMinutes   int   `json:"elapsed_minutes"`
	RemainingMinutes int   `json:"remaining_minutes"`
}

// RoomState is the derived per-room picture rebuilt on every refresh:
// which sessions sit in the room and which professional slots are busy.
type RoomState struct {
	RoomID        uuid.UUID     `json:"room_id"`
	Name          string        `json:"name"`
	Number        string        `json:"number"`
	Color         string        `json:"color"`
	Capacity      int           `json:"capacity"`
	Professionals SlotNames     `json:"professionals"`
	Sessions      []SessionView `json:"sessions"`
	Occupancy     int           `json:"occupancy"`
	OccupiedSlots []int         `json:"occupied_slots"`
	FreeSlots     []int         `json:"free_slots"`
}

// OverdueAlert flags an active segment that ran past the threshold plus
// grace margin without being rotated. Alerts are recomputed from scratch
// each refresh and carry no state of their own.
type OverdueAlert struct {
	SessionID      uuid.UUID `json:"session_id"`
	RoomID         uuid.UUID `json:"room_id"`
	PatientName    string    `json:"patient_name"`
	Slot           int       `json:"slot"`
	ElapsedMinutes int       `json:"elapsed_minutes"`
}

// Snapshot is one consistent view of every active room, built from a single
// fetch of session rows.
type Snapshot struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Rooms       []RoomState    `json:"rooms"`
	Alerts      []OverdueAlert `json:"alerts"`
}
