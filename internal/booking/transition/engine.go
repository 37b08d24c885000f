// Package transition implements the job status state machine used by admin updates.
package transition

import (
	"log/slog"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/booking/expiry"
)

// Outcome tags a transition result.
type Outcome int

const (
	Unchanged Outcome = iota
	Changed
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Changed:
		return "changed"
	case Rejected:
		return "rejected"
	}
	return "unchanged"
}

// Request carries the admin input for a status change.
type Request struct {
	Target            domain.Status
	AdminComments     string
	SessionTime       string
	TranslatorChanged bool
	// TranslatorID is the translator holding the job after any reassignment in the same update.
	TranslatorID int64
	Now          time.Time
}

// Result describes what Apply did. Err is set only when Outcome is Rejected.
type Result struct {
	Outcome Outcome
	From    domain.Status
	To      domain.Status
	Err     error
	Events  []domain.Event
}

func (r Result) Changed() bool { return r.Outcome == Changed }

var transitions = map[domain.Status][]domain.Status{
	domain.StatusTimedOut:        {domain.StatusPending, domain.StatusAssigned},
	domain.StatusCompleted:       {domain.StatusWithdrawBefore24, domain.StatusWithdrawAfter24, domain.StatusTimedOut},
	domain.StatusStarted:         {domain.StatusWithdrawBefore24, domain.StatusWithdrawAfter24, domain.StatusTimedOut, domain.StatusCompleted},
	domain.StatusPending:         {domain.StatusWithdrawBefore24, domain.StatusWithdrawAfter24, domain.StatusTimedOut, domain.StatusAssigned},
	domain.StatusWithdrawAfter24: {domain.StatusTimedOut},
	domain.StatusAssigned:        {domain.StatusWithdrawBefore24, domain.StatusWithdrawAfter24, domain.StatusTimedOut},
}

// Allowed reports whether from -> to appears in the transition table.
func Allowed(from, to domain.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Engine applies status transitions to jobs.
type Engine struct {
	policy *expiry.Policy
	logger *slog.Logger
}

func NewEngine(policy *expiry.Policy, logger *slog.Logger) *Engine {
	if policy == nil {
		policy = expiry.DefaultPolicy()
	}
	return &Engine{policy: policy, logger: logger}
}

// Apply validates and performs a transition. The job is only mutated when the outcome is Changed.
func (e *Engine) Apply(job *domain.Job, req Request) Result {
	from := job.Status
	res := Result{From: from, To: from}

	if !req.Target.Valid() {
		res.Outcome = Rejected
		res.Err = domain.Validation(domain.CodeInvalidValue, "status")
		return res
	}
	if req.Target == from || !Allowed(from, req.Target) {
		res.Outcome = Unchanged
		return res
	}

	if err := checkPreconditions(from, req); err != nil {
		res.Outcome = Rejected
		res.Err = err
		e.logger.Info("Status transition rejected",
			slog.Int64("job_id", job.ID),
			slog.String("from", string(from)),
			slog.String("to", string(req.Target)),
			slog.Any("error", err),
		)
		return res
	}

	var sessionTime string
	if from == domain.StatusStarted && req.Target == domain.StatusCompleted {
		st, err := ParseSessionTime(req.SessionTime)
		if err != nil {
			res.Outcome = Rejected
			res.Err = err
			return res
		}
		sessionTime = st
	}

	res.Events = e.mutate(job, from, req, sessionTime)
	res.Outcome = Changed
	res.To = req.Target

	e.logger.Info("Job status changed",
		slog.Int64("job_id", job.ID),
		slog.String("from", string(from)),
		slog.String("to", string(req.Target)),
		slog.Int("events", len(res.Events)),
	)
	return res
}

func checkPreconditions(from domain.Status, req Request) error {
	needComments := false
	switch from {
	case domain.StatusTimedOut:
		if req.Target == domain.StatusAssigned && !req.TranslatorChanged {
			return domain.Validation(domain.CodeTranslatorRequired, "translator")
		}
	case domain.StatusCompleted, domain.StatusAssigned:
		needComments = req.Target == domain.StatusTimedOut
	case domain.StatusStarted:
		needComments = true
		if req.Target == domain.StatusCompleted && req.SessionTime == "" {
			return domain.Validation(domain.CodeSessionTimeRequired, "session_time")
		}
	case domain.StatusPending:
		if req.Target == domain.StatusAssigned {
			if !req.TranslatorChanged {
				return domain.Validation(domain.CodeTranslatorRequired, "translator")
			}
		} else {
			needComments = true
		}
	case domain.StatusWithdrawAfter24:
		needComments = true
	}

	if needComments && req.AdminComments == "" {
		return domain.Validation(domain.CodeAdminCommentsRequired, "admin_comments")
	}
	return nil
}

func (e *Engine) mutate(job *domain.Job, from domain.Status, req Request, sessionTime string) []domain.Event {
	now := req.Now
	to := req.Target
	customer := job.UserID

	job.Status = to
	if req.AdminComments != "" || from == domain.StatusAssigned {
		job.AdminComments = req.AdminComments
	}

	var events []domain.Event
	switch from {
	case domain.StatusTimedOut:
		if to == domain.StatusPending {
			job.CreatedAt = now
			job.WillExpireAt = e.policy.WillExpireAt(job.Due, now)
			job.CustomerNotified16h = false
			job.CustomerNotified48h = false
			events = append(events,
				domain.NewEvent(domain.EventJobReopened, job.ID, customer, now),
				domain.Fanout(domain.EventSuitableJob, job.ID, 0, now),
			)
		} else {
			events = append(events, domain.NewEvent(domain.EventJobAccepted, job.ID, customer, now))
		}

	case domain.StatusStarted:
		if to == domain.StatusCompleted {
			end := now
			job.EndAt = &end
			job.SessionTime = sessionTime
			events = append(events, SessionEnded(job, customer, "faktura", now))
			if req.TranslatorID != 0 {
				events = append(events, SessionEnded(job, req.TranslatorID, "lön", now))
			}
		}

	case domain.StatusPending:
		if to == domain.StatusAssigned {
			events = append(events, domain.NewEvent(domain.EventJobAccepted, job.ID, customer, now))
			events = append(events, domain.NewEvent(domain.EventSessionStartReminder, job.ID, customer, now))
			if req.TranslatorID != 0 {
				events = append(events, domain.NewEvent(domain.EventSessionStartReminder, job.ID, req.TranslatorID, now))
			}
		} else {
			events = append(events, statusChanged(job.ID, customer, from, to, now))
		}

	case domain.StatusAssigned:
		if to == domain.StatusWithdrawBefore24 || to == domain.StatusWithdrawAfter24 {
			events = append(events, statusChanged(job.ID, customer, from, to, now))
			if req.TranslatorID != 0 {
				events = append(events, domain.NewEvent(domain.EventJobCancelledTranslator, job.ID, req.TranslatorID, now))
			}
		}
	}
	return events
}

func statusChanged(jobID, recipient int64, from, to domain.Status, now time.Time) domain.Event {
	return domain.NewEvent(domain.EventStatusChanged, jobID, recipient, now).
		With(domain.DataOldStatus, string(from)).
		With(domain.DataNewStatus, string(to))
}

// SessionEnded tells one party a session finished; forText names what the
// recorded time is used for (invoice or salary).
func SessionEnded(job *domain.Job, recipient int64, forText string, now time.Time) domain.Event {
	return domain.NewEvent(domain.EventSessionEnded, job.ID, recipient, now).
		With(domain.DataSessionTime, job.SessionTime).
		With(domain.DataForText, forText)
}
