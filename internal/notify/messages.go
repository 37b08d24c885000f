package notify

import (
	"fmt"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
)

const (
	soundNormal    = "normal_booking"
	soundEmergency = "emergency_booking"

	dueLayout = "2006-01-02 15:04"
)

// FormatDuration renders minutes the way SMS texts show them: "45min", "1h", "01h 30min".
func FormatDuration(minutes int) string {
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dmin", minutes)
	case minutes == 60:
		return "1h"
	}
	return fmt.Sprintf("%02dh %02dmin", minutes/60, minutes%60)
}

// suitableJobPush builds the push text and sound announcing a job to translators.
func suitableJobPush(job *domain.Job, language string, loc *time.Location) (message, sound string) {
	if job.Immediate {
		return fmt.Sprintf("New emergency booking for %s interpreter %dmin", language, job.Duration), soundEmergency
	}
	return fmt.Sprintf("New booking for %s interpreter %dmin %s", language, job.Duration, job.Due.In(loc).Format(dueLayout)), soundNormal
}

// suitableJobSMS builds the SMS announcing a job. town is used for on-site jobs only.
func suitableJobSMS(job *domain.Job, town string, loc *time.Location) string {
	due := job.Due.In(loc)
	if job.PhysicalOnly() {
		return fmt.Sprintf("New on-site interpreter booking #%d on %s at %s in %s, %s. Log in to accept it.",
			job.ID, due.Format("02.01.2006"), due.Format("15:04"), town, FormatDuration(job.Duration))
	}
	return fmt.Sprintf("New phone interpreter booking #%d, %s. Log in to accept it.",
		job.ID, FormatDuration(job.Duration))
}

func sessionReminderPush(job *domain.Job, language string, loc *time.Location) string {
	due := job.Due.In(loc)
	return fmt.Sprintf("Reminder: you have a %s interpretation at %s on %s lasting %d min",
		language, due.Format("15:04"), due.Format("2006-01-02"), job.Duration)
}

func feedbackPush(job *domain.Job) string {
	return fmt.Sprintf("Please rate the interpretation of booking #%d", job.ID)
}
