package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gfreitas-a/ClinicRoomBack/internal/models"
	"github.com/gfreitas-a/ClinicRoomBack/internal/repository"
	"github.com/gfreitas-a/ClinicRoomBack/internal/services"
)

type stubSnapshotService struct {
	snapshot   *models.Snapshot
	err        error
	lastFilter repository.ActiveSessionFilter
}

func (s *stubSnapshotService) Snapshot(_ context.Context, filter repository.ActiveSessionFilter, _ time.Time) (*models.Snapshot, error) {
	s.lastFilter = filter
	return s.snapshot, s.err
}

type stubCommander struct {
	session *models.Session
	err     error
	lastID  uuid.UUID
}

func (s *stubCommander) StartSession(_ context.Context, sessionID uuid.UUID) (*models.Session, error) {
	s.lastID = sessionID
	return s.session, s.err
}

func (s *stubCommander) RotateSession(_ context.Context, sessionID uuid.UUID) (*models.Session, error) {
	s.lastID = sessionID
	return s.session, s.err
}

func (s *stubCommander) FinishSession(_ context.Context, sessionID uuid.UUID) (*models.Session, error) {
	s.lastID = sessionID
	return s.session, s.err
}

type stubRoomLister struct {
	rooms []models.Room
	err   error
}

func (s *stubRoomLister) List(_ context.Context, _ *uuid.UUID) ([]models.Room, error) {
	return s.rooms, s.err
}

func newTestApp(handler *RoomControlHandler) *fiber.App {
	app := fiber.New()
	app.Get("/api/v1/rooms", handler.ListRooms)
	app.Get("/api/v1/rooms/state", handler.GetRoomState)
	app.Get("/api/v1/rooms/alerts", handler.GetAlerts)
	app.Post("/api/v1/sessions/:id/start", handler.StartSession)
	app.Post("/api/v1/sessions/:id/rotate", handler.RotateSession)
	app.Post("/api/v1/sessions/:id/finish", handler.FinishSession)
	return app
}

func TestGetRoomStateReturnsSnapshot(t *testing.T) {
	state := &stubSnapshotService{snapshot: &models.Snapshot{
		GeneratedAt: time.Now().UTC(),
		Rooms:       []models.RoomState{{RoomID: uuid.New(), Number: "01"}},
	}}
	handler := &RoomControlHandler{state: state}
	app := newTestApp(handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/rooms/state", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Snapshot models.Snapshot `json:"snapshot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Snapshot.Rooms) != 1 || body.Snapshot.Rooms[0].Number != "01" {
		t.Fatalf("unexpected snapshot payload: %+v", body.Snapshot)
	}
}

func TestGetRoomStateForwardsFilters(t *testing.T) {
	state := &stubSnapshotService{snapshot: &models.Snapshot{}}
	handler := &RoomControlHandler{state: state}
	app := newTestApp(handler)

	roomID := uuid.New()
	target := "/api/v1/rooms/state?date=2026-08-28&room_id=" + roomID.String()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	wantDate := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	if !state.lastFilter.Date.Equal(wantDate) {
		t.Fatalf("expected date %v, got %v", wantDate, state.lastFilter.Date)
	}
	if state.lastFilter.RoomID == nil || *state.lastFilter.RoomID != roomID {
		t.Fatalf("expected room filter %s, got %+v", roomID, state.lastFilter.RoomID)
	}
}

func TestGetRoomStateRejectsBadDate(t *testing.T) {
	handler := &RoomControlHandler{state: &stubSnapshotService{}}
	app := newTestApp(handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/rooms/state?date=28-08-2026", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetRoomStateRejectsBadRoomID(t *testing.T) {
	handler := &RoomControlHandler{state: &stubSnapshotService{}}
	app := newTestApp(handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/rooms/state?room_id=not-a-uuid", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetAlertsReturnsOnlyAlerts(t *testing.T) {
	state := &stubSnapshotService{snapshot: &models.Snapshot{
		Rooms:  []models.RoomState{{RoomID: uuid.New()}},
		Alerts: []models.OverdueAlert{{SessionID: uuid.New(), Slot: 2, ElapsedMinutes: 34}},
	}}
	handler := &RoomControlHandler{state: state}
	app := newTestApp(handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/rooms/alerts", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Alerts []models.OverdueAlert `json:"alerts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Alerts) != 1 || body.Alerts[0].ElapsedMinutes != 34 {
		t.Fatalf("unexpected alerts payload: %+v", body.Alerts)
	}
}

func TestListRoomsReturnsRooms(t *testing.T) {
	lister := &stubRoomLister{rooms: []models.Room{{ID: uuid.New(), Number: "02"}}}
	handler := &RoomControlHandler{rooms: lister}
	app := newTestApp(handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/rooms", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Rooms []models.Room `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Rooms) != 1 || body.Rooms[0].Number != "02" {
		t.Fatalf("unexpected rooms payload: %+v", body.Rooms)
	}
}

func TestStartSessionRejectsInvalidID(t *testing.T) {
	handler := &RoomControlHandler{scheduler: &stubCommander{}}
	app := newTestApp(handler)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/sessions/not-a-uuid/start", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStartSessionReturnsSession(t *testing.T) {
	sessionID := uuid.New()
	commander := &stubCommander{session: &models.Session{ID: sessionID, Status: models.StatusInSegment}}
	handler := &RoomControlHandler{scheduler: commander}
	app := newTestApp(handler)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/sessions/"+sessionID.String()+"/start", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if commander.lastID != sessionID {
		t.Fatalf("expected session %s forwarded, got %s", sessionID, commander.lastID)
	}

	var body struct {
		Session models.Session `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Session.Status != models.StatusInSegment {
		t.Fatalf("expected status %s, got %s", models.StatusInSegment, body.Session.Status)
	}
}

func TestSessionCommandErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		route      string
		err        error
		wantStatus int
	}{
		{"occupied room conflicts", "start", services.ErrAllProfessionalsOccupied, fiber.StatusConflict},
		{"lost slot race conflicts", "start", services.ErrSlotOccupied, fiber.StatusConflict},
		{"not waiting unprocessable", "start", services.ErrSessionNotWaiting, fiber.StatusUnprocessableEntity},
		{"no active segment unprocessable", "rotate", services.ErrSessionNotInSegment, fiber.StatusUnprocessableEntity},
		{"rotation not due unprocessable", "rotate", services.ErrRotationNotDue, fiber.StatusUnprocessableEntity},
		{"incomplete session unprocessable", "finish", services.ErrSessionNotComplete, fiber.StatusUnprocessableEntity},
		{"unknown session not found", "finish", pgx.ErrNoRows, fiber.StatusNotFound},
		{"storage failure internal", "rotate", errors.New("connection reset"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := &RoomControlHandler{scheduler: &stubCommander{err: tc.err}}
			app := newTestApp(handler)

			target := "/api/v1/sessions/" + uuid.New().String() + "/" + tc.route
			resp, err := app.Test(httptest.NewRequest("POST", target, nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}
