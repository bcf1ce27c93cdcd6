package services

import (
	"testing"
	"time"

	"github.com/gfreitas-a/ClinicRoomBack/internal/models"
)

func TestScanFlagsOverdueRotations(t *testing.T) {
	service := NewAlertService(defaultEvaluator(), 2)
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	overdueStart := now.Add(-33 * time.Minute)
	onTimeStart := now.Add(-20 * time.Minute)

	overdue := buildSession(models.StatusInSegment, 3, models.SlotMinutes{1: 30, 2: 30, 3: 15}, allAssigned())
	overdue.SegmentStartedAt = &overdueStart
	onTime := buildSession(models.StatusInSegment, 1, models.SlotMinutes{}, allAssigned())
	onTime.SegmentStartedAt = &onTimeStart
	waiting := buildSession(models.StatusWaiting, 0, models.SlotMinutes{}, allAssigned())

	alerts := service.Scan([]models.Session{*overdue, *onTime, *waiting}, now)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].SessionID != overdue.ID {
		t.Fatalf("expected alert for session %s, got %s", overdue.ID, alerts[0].SessionID)
	}
	if alerts[0].Slot != 3 || alerts[0].ElapsedMinutes != 33 {
		t.Fatalf("expected slot 3 at 33 minutes, got slot %d at %d", alerts[0].Slot, alerts[0].ElapsedMinutes)
	}
	if alerts[0].PatientName != overdue.PatientName {
		t.Fatalf("expected patient %q, got %q", overdue.PatientName, alerts[0].PatientName)
	}
}

func TestScanBoundaryAtThresholdPlusGrace(t *testing.T) {
	service := NewAlertService(defaultEvaluator(), 2)
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	atBoundary := buildSession(models.StatusInSegment, 2, models.SlotMinutes{}, allAssigned())
	boundaryStart := now.Add(-32 * time.Minute)
	atBoundary.SegmentStartedAt = &boundaryStart

	belowBoundary := buildSession(models.StatusInSegment, 1, models.SlotMinutes{}, allAssigned())
	belowStart := now.Add(-31 * time.Minute)
	belowBoundary.SegmentStartedAt = &belowStart

	alerts := service.Scan([]models.Session{*atBoundary, *belowBoundary}, now)
	if len(alerts) != 1 {
		t.Fatalf("expected exactly the 32-minute session flagged, got %d alerts", len(alerts))
	}
	if alerts[0].SessionID != atBoundary.ID {
		t.Fatalf("expected boundary session flagged, got %s", alerts[0].SessionID)
	}
}

func TestScanKeepsNoMemoryBetweenCycles(t *testing.T) {
	service := NewAlertService(defaultEvaluator(), 2)
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	session := buildSession(models.StatusInSegment, 1, models.SlotMinutes{}, allAssigned())
	startedAt := now.Add(-40 * time.Minute)
	session.SegmentStartedAt = &startedAt

	if got := len(service.Scan([]models.Session{*session}, now)); got != 1 {
		t.Fatalf("expected 1 alert before the rotation, got %d", got)
	}

	// The next cycle sees the rotated row; the alert must vanish with it.
	session.Status = models.StatusWaiting
	session.ActiveSlot = nil
	session.SegmentStartedAt = nil

	if got := len(service.Scan([]models.Session{*session}, now)); got != 0 {
		t.Fatalf("expected no alerts after the rotation, got %d", got)
	}
}
