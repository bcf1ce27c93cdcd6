package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gfreitas-a/ClinicRoomBack/internal/models"
	"github.com/gfreitas-a/ClinicRoomBack/internal/repository"
	"github.com/gfreitas-a/ClinicRoomBack/internal/services"
	monitorws "github.com/gfreitas-a/ClinicRoomBack/internal/websocket"
)

type snapshotService interface {
	Snapshot(ctx context.Context, filter repository.ActiveSessionFilter, now time.Time) (*models.Snapshot, error)
}

type sessionCommander interface {
	StartSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	RotateSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	FinishSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
}

type roomLister interface {
	List(ctx context.Context, unitID *uuid.UUID) ([]models.Room, error)
}

type RoomControlHandler struct {
	state     snapshotService
	scheduler sessionCommander
	rooms     roomLister
	hub       *monitorws.Hub
}

func NewRoomControlHandler(
	state *services.RoomStateService,
	scheduler *services.SchedulerService,
	rooms *repository.RoomRepository,
	hub *monitorws.Hub,
) *RoomControlHandler {
	return &RoomControlHandler{
		state:     state,
		scheduler: scheduler,
		rooms:     rooms,
		hub:       hub,
	}
}

func (h *RoomControlHandler) GetRoomState(c *fiber.Ctx) error {
	filter, err := parseSessionFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	snapshot, err := h.state.Snapshot(c.Context(), filter, time.Now())
	if err != nil {
		return mapRoomControlError(c, err)
	}

	return c.JSON(fiber.Map{"snapshot": snapshot})
}

func (h *RoomControlHandler) GetAlerts(c *fiber.Ctx) error {
	filter, err := parseSessionFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	snapshot, err := h.state.Snapshot(c.Context(), filter, time.Now())
	if err != nil {
		return mapRoomControlError(c, err)
	}

	return c.JSON(fiber.Map{"alerts": snapshot.Alerts})
}

func (h *RoomControlHandler) ListRooms(c *fiber.Ctx) error {
	unitID, err := parseOptionalUUID(c.Query("unit_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unit_id must be a valid UUID"})
	}

	rooms, err := h.rooms.List(c.Context(), unitID)
	if err != nil {
		return mapRoomControlError(c, err)
	}

	return c.JSON(fiber.Map{"rooms": rooms})
}

func (h *RoomControlHandler) StartSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.scheduler.StartSession(c.Context(), sessionID)
	if err != nil {
		return mapRoomControlError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *RoomControlHandler) RotateSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.scheduler.RotateSession(c.Context(), sessionID)
	if err != nil {
		return mapRoomControlError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *RoomControlHandler) FinishSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.scheduler.FinishSession(c.Context(), sessionID)
	if err != nil {
		return mapRoomControlError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *RoomControlHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}
	if roomID := strings.TrimSpace(c.Query("room_id")); roomID != "" {
		if _, err := uuid.Parse(roomID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "room_id must be a valid UUID"})
		}
	}
	return c.Next()
}

func (h *RoomControlHandler) HandleWebSocket(conn *websocket.Conn) {
	roomID := strings.TrimSpace(conn.Query("room_id"))
	client := monitorws.NewClient(h.hub, conn, roomID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func parseSessionFilter(c *fiber.Ctx) (repository.ActiveSessionFilter, error) {
	filter := repository.ActiveSessionFilter{Date: today()}

	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, errors.New("date must be formatted YYYY-MM-DD")
		}
		filter.Date = date
	}

	unitID, err := parseOptionalUUID(c.Query("unit_id"))
	if err != nil {
		return filter, errors.New("unit_id must be a valid UUID")
	}
	filter.UnitID = unitID

	roomID, err := parseOptionalUUID(c.Query("room_id"))
	if err != nil {
		return filter, errors.New("room_id must be a valid UUID")
	}
	filter.RoomID = roomID

	return filter, nil
}

func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func mapRoomControlError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrAllProfessionalsOccupied),
		errors.Is(err, services.ErrSlotOccupied):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSessionNotWaiting),
		errors.Is(err, services.ErrSessionNotInSegment),
		errors.Is(err, services.ErrRotationNotDue),
		errors.Is(err, services.ErrSessionNotComplete):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process room control request"})
	}
}
