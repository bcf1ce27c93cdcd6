package routes

import (
	"context"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gfreitas-a/ClinicRoomBack/internal/config"
	"github.com/gfreitas-a/ClinicRoomBack/internal/handlers"
	"github.com/gfreitas-a/ClinicRoomBack/internal/repository"
	"github.com/gfreitas-a/ClinicRoomBack/internal/services"
	monitorws "github.com/gfreitas-a/ClinicRoomBack/internal/websocket"
)

// RegisterRoutes wires repositories, the rotation core, the websocket hub
// and the refresh monitor, and mounts the room-control API.
func RegisterRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	sessionRepo := repository.NewSessionRepository(db)
	roomRepo := repository.NewRoomRepository(db)

	eval := services.NewEvaluator(cfg.SegmentMinutes, cfg.SlotsPerRoom)
	alertService := services.NewAlertService(eval, cfg.GraceMinutes)
	stateService := services.NewRoomStateService(sessionRepo, eval, alertService)
	schedulerService := services.NewSchedulerService(sessionRepo, eval)

	hub := monitorws.NewHub()
	go hub.Run()

	monitor := services.NewMonitor(
		stateService,
		hub,
		schedulerService,
		time.Duration(cfg.RefreshSeconds)*time.Second,
		cfg.AutoRotate,
	)
	go monitor.Run(ctx)

	roomControlHandler := handlers.NewRoomControlHandler(stateService, schedulerService, roomRepo, hub)

	api := app.Group("/api/v1")

	rooms := api.Group("/rooms")
	rooms.Get("", roomControlHandler.ListRooms)
	rooms.Get("/state", roomControlHandler.GetRoomState)
	rooms.Get("/alerts", roomControlHandler.GetAlerts)

	sessions := api.Group("/sessions")
	sessions.Post("/:id/start", roomControlHandler.StartSession)
	sessions.Post("/:id/rotate", roomControlHandler.RotateSession)
	sessions.Post("/:id/finish", roomControlHandler.FinishSession)

	api.Use("/ws", roomControlHandler.WebSocketUpgrade)
	api.Get("/ws", websocket.New(roomControlHandler.HandleWebSocket))
}
