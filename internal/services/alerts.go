package services

import (
	"time"

	"github.com/gfreitas-a/ClinicRoomBack/internal/models"
)

// AlertService scans one refresh cycle's sessions for rotations that ran
// past the threshold plus the grace margin. It keeps no state between
// scans: an alert exists only while its two conditions hold.
type AlertService struct {
	eval         Evaluator
	graceMinutes int
}

func NewAlertService(eval Evaluator, graceMinutes int) *AlertService {
	return &AlertService{eval: eval, graceMinutes: graceMinutes}
}

func (a *AlertService) Scan(sessions []models.Session, now time.Time) []models.OverdueAlert {
	alerts := make([]models.OverdueAlert, 0)
	for i := range sessions {
		session := &sessions[i]
		if !session.InSegment() {
			continue
		}
		elapsed := a.eval.ElapsedMinutes(session, now)
		if elapsed < a.eval.SegmentMinutes+a.graceMinutes {
			continue
		}
		alerts = append(alerts, models.OverdueAlert{
			SessionID:      session.ID,
			RoomID:         session.RoomID,
			PatientName:    session.PatientName,
			Slot:           *session.ActiveSlot,
			ElapsedMinutes: elapsed,
		})
	}
	return alerts
}
