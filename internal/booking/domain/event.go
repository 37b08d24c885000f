package domain

import "time"

// EventKind names a notification-worthy change to a job.
type EventKind string

const (
	EventJobCreated             EventKind = "job_created"
	EventSuitableJob            EventKind = "suitable_job"
	EventSuitableJobSMS         EventKind = "suitable_job_sms"
	EventJobReopened            EventKind = "job_reopened"
	EventJobAccepted            EventKind = "job_accepted"
	EventSessionStartReminder   EventKind = "session_start_reminder"
	EventStatusChanged          EventKind = "status_changed"
	EventJobCancelledTranslator EventKind = "job_cancelled_translator"
	EventSessionEnded           EventKind = "session_ended"
	EventFeedbackRequested      EventKind = "feedback_requested"
	EventTranslatorChanged      EventKind = "translator_changed"
	EventDueChanged             EventKind = "due_changed"
	EventLanguageChanged        EventKind = "language_changed"
	EventJobWithdrawn           EventKind = "job_withdrawn"
	EventTranslatorWithdrew     EventKind = "translator_withdrew"
	EventJobExpired             EventKind = "job_expired"
)

// Fanout reports whether the event targets every suitable translator instead of one recipient.
func (k EventKind) Fanout() bool {
	return k == EventSuitableJob || k == EventSuitableJobSMS
}

// Data keys carried on events.
const (
	DataRole          = "role"
	DataOldStatus     = "old_status"
	DataNewStatus     = "new_status"
	DataOldDue        = "old_due"
	DataOldLanguageID = "old_language_id"
	DataSessionTime   = "session_time"
	DataForText       = "for_text"
	DataTranslatorID  = "translator_id"
)

// Event is a domain event produced by a booking operation and delivered after commit.
type Event struct {
	ID            string            `json:"event_id"`
	Kind          EventKind         `json:"kind"`
	JobID         int64             `json:"job_id"`
	RecipientID   int64             `json:"recipient_id,omitempty"`
	ExcludeUserID int64             `json:"exclude_user_id,omitempty"`
	Data          map[string]string `json:"data,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// NewEvent builds an event addressed to a single recipient.
func NewEvent(kind EventKind, jobID, recipientID int64, at time.Time) Event {
	return Event{Kind: kind, JobID: jobID, RecipientID: recipientID, OccurredAt: at}
}

// Fanout builds a fan-out event that skips the given user.
func Fanout(kind EventKind, jobID, excludeUserID int64, at time.Time) Event {
	return Event{Kind: kind, JobID: jobID, ExcludeUserID: excludeUserID, OccurredAt: at}
}

// With returns a copy of e carrying an additional data entry.
func (e Event) With(key, value string) Event {
	data := make(map[string]string, len(e.Data)+1)
	for k, v := range e.Data {
		data[k] = v
	}
	data[key] = value
	e.Data = data
	return e
}
