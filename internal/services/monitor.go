package services

import (
	"context"
	"log"
	"time"

	"github.com/gfreitas-a/ClinicRoomBack/internal/models"
	"github.com/gfreitas-a/ClinicRoomBack/internal/repository"
	"github.com/google/uuid"
)

type snapshotProvider interface {
	Snapshot(ctx context.Context, filter repository.ActiveSessionFilter, now time.Time) (*models.Snapshot, error)
}

type snapshotBroadcaster interface {
	BroadcastSnapshot(snapshot *models.Snapshot)
}

type sessionRotator interface {
	RotateSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
}

// Monitor drives the refresh cycle: every interval it fetches today's
// active sessions, rebuilds room state and alerts from that one snapshot,
// and pushes the result to websocket subscribers. With auto-rotate enabled
// it also advances sessions whose segment has run its course, the way the
// legacy database job did.
type Monitor struct {
	state      snapshotProvider
	out        snapshotBroadcaster
	scheduler  sessionRotator
	interval   time.Duration
	autoRotate bool
	now        func() time.Time
}

func NewMonitor(
	state snapshotProvider,
	out snapshotBroadcaster,
	scheduler sessionRotator,
	interval time.Duration,
	autoRotate bool,
) *Monitor {
	return &Monitor{
		state:      state,
		out:        out,
		scheduler:  scheduler,
		interval:   interval,
		autoRotate: autoRotate,
		now:        time.Now,
	}
}

func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	if _, err := m.RefreshOnce(ctx); err != nil {
		log.Printf("room monitor refresh: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.RefreshOnce(ctx); err != nil {
				log.Printf("room monitor refresh: %v", err)
			}
		}
	}
}

// RefreshOnce performs a single cycle and returns the snapshot it
// broadcast.
func (m *Monitor) RefreshOnce(ctx context.Context) (*models.Snapshot, error) {
	now := m.now()
	snapshot, err := m.state.Snapshot(ctx, repository.ActiveSessionFilter{Date: dayOf(now)}, now)
	if err != nil {
		return nil, err
	}

	if m.autoRotate && m.scheduler != nil {
		m.rotateDueSessions(ctx, snapshot)
	}

	m.out.BroadcastSnapshot(snapshot)
	return snapshot, nil
}

func (m *Monitor) rotateDueSessions(ctx context.Context, snapshot *models.Snapshot) {
	for _, room := range snapshot.Rooms {
		for i := range room.Sessions {
			view := &room.Sessions[i]
			if !view.Session.InSegment() || view.RemainingMinutes > 0 {
				continue
			}
			if _, err := m.scheduler.RotateSession(ctx, view.ID); err != nil {
				log.Printf("room monitor auto-rotate %s: %v", view.ID, err)
			}
		}
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
