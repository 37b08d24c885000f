package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/assignment"
	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/booking/storage"
	"github.com/cuongbtq/booking-core/internal/booking/transition"
	"github.com/cuongbtq/booking-core/internal/lock"
)

// UpdateInput is an admin edit of a job. Zero values leave the matching field untouched.
type UpdateInput struct {
	Status          domain.Status
	AdminComments   string
	SessionTime     string
	TranslatorID    int64
	TranslatorEmail string
	Due             *time.Time
	FromLanguageID  int64
	Reference       *string
}

// LogEntry records one field changed by UpdateJob.
type LogEntry struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// UpdateResult reports every change applied by UpdateJob.
type UpdateResult struct {
	Job               *domain.Job
	Transition        transition.Result
	TranslatorChanged bool
	DueChanged        bool
	LanguageChanged   bool
	Log               []LogEntry
}

// UpdateJob applies translator, due, language and status changes in one unit of work.
// A rejected status change aborts the whole update.
func (s *Service) UpdateJob(ctx context.Context, actor domain.Actor, jobID int64, in UpdateInput) (*UpdateResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	res := &UpdateResult{}
	err := s.mutate(ctx, []string{lock.JobKey(jobID)}, func(tx storage.Store) ([]domain.Event, error) {
		now := s.now()
		job, err := tx.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		_, current, err := s.activeRelation(ctx, tx, job.ID)
		if err != nil {
			return nil, err
		}

		change, err := assignment.ChangeTranslator(ctx, current, assignment.Request{
			TranslatorID:    in.TranslatorID,
			TranslatorEmail: in.TranslatorEmail,
		}, job, tx, now)
		if err != nil {
			return nil, err
		}
		if change.Changed && in.TranslatorEmail == "" {
			if err := requireTranslator(ctx, tx, change.New.UserID); err != nil {
				return nil, err
			}
		}

		holder := int64(0)
		if current != nil {
			holder = current.UserID
		}
		if change.Changed {
			res.TranslatorChanged = true
			res.Log = append(res.Log, LogEntry{Field: "translator", Old: formatID(holder), New: formatID(change.New.UserID)})
		}

		oldDue := job.Due
		if in.Due != nil && !in.Due.Equal(job.Due) {
			job.Due = *in.Due
			res.DueChanged = true
			res.Log = append(res.Log, LogEntry{Field: "due", Old: oldDue.Format(time.RFC3339), New: job.Due.Format(time.RFC3339)})
		}

		oldLanguage := job.FromLanguageID
		if in.FromLanguageID != 0 && in.FromLanguageID != job.FromLanguageID {
			if _, err := tx.LanguageName(ctx, in.FromLanguageID); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, domain.Validation(domain.CodeInvalidValue, "from_language_id")
				}
				return nil, err
			}
			job.FromLanguageID = in.FromLanguageID
			res.LanguageChanged = true
			res.Log = append(res.Log, LogEntry{Field: "from_language_id", Old: formatID(oldLanguage), New: formatID(job.FromLanguageID)})
		}

		newHolder := holder
		if change.Changed {
			newHolder = change.New.UserID
		}

		if in.Status != "" {
			res.Transition = s.engine.Apply(job, transition.Request{
				Target:            in.Status,
				AdminComments:     in.AdminComments,
				SessionTime:       in.SessionTime,
				TranslatorChanged: change.Changed,
				TranslatorID:      newHolder,
				Now:               now,
			})
			if res.Transition.Outcome == transition.Rejected {
				return nil, res.Transition.Err
			}
			if res.Transition.Changed() {
				res.Log = append(res.Log, LogEntry{Field: "status", Old: string(res.Transition.From), New: string(res.Transition.To)})
			}
		} else {
			res.Transition = transition.Result{Outcome: transition.Unchanged, From: job.Status, To: job.Status}
		}

		if in.AdminComments != "" && in.AdminComments != job.AdminComments {
			res.Log = append(res.Log, LogEntry{Field: "admin_comments", Old: job.AdminComments, New: in.AdminComments})
			job.AdminComments = in.AdminComments
		}
		if in.Reference != nil && *in.Reference != job.Reference {
			res.Log = append(res.Log, LogEntry{Field: "reference", Old: job.Reference, New: *in.Reference})
			job.Reference = *in.Reference
		}

		if change.Old != nil {
			if err := tx.UpdateRelation(ctx, change.Old); err != nil {
				return nil, err
			}
		}
		if change.New != nil {
			if err := tx.CreateRelation(ctx, change.New); err != nil {
				return nil, err
			}
		}
		if err := tx.UpdateJob(ctx, job); err != nil {
			return nil, err
		}
		res.Job = job

		var events []domain.Event
		if job.Due.After(now) {
			if change.Changed {
				events = append(events,
					domain.NewEvent(domain.EventTranslatorChanged, job.ID, job.UserID, now).With(domain.DataRole, "customer"),
					domain.NewEvent(domain.EventTranslatorChanged, job.ID, change.New.UserID, now).With(domain.DataRole, "new_translator"),
				)
				if change.Old != nil {
					events = append(events,
						domain.NewEvent(domain.EventTranslatorChanged, job.ID, change.Old.UserID, now).With(domain.DataRole, "old_translator"),
					)
				}
			}
			if res.DueChanged {
				events = append(events, toParties(domain.EventDueChanged, job, newHolder, now, domain.DataOldDue, oldDue.Format(time.RFC3339))...)
			}
			if res.LanguageChanged {
				events = append(events, toParties(domain.EventLanguageChanged, job, newHolder, now, domain.DataOldLanguageID, formatID(oldLanguage))...)
			}
		}
		events = append(events, res.Transition.Events...)

		s.logger.Info("Job updated",
			slog.Int64("job_id", job.ID),
			slog.Int("changes", len(res.Log)),
			slog.String("transition", res.Transition.Outcome.String()),
		)
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// toParties addresses an event to the customer and, when set, the translator holding the job.
func toParties(kind domain.EventKind, job *domain.Job, translatorID int64, now time.Time, key, value string) []domain.Event {
	events := []domain.Event{domain.NewEvent(kind, job.ID, job.UserID, now).With(key, value)}
	if translatorID != 0 {
		events = append(events, domain.NewEvent(kind, job.ID, translatorID, now).With(key, value))
	}
	return events
}

func requireTranslator(ctx context.Context, tx storage.Store, userID int64) error {
	u, err := tx.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound(domain.CodeTranslatorNotFound, formatID(userID))
		}
		return err
	}
	if u.Type != domain.UserTranslator {
		return domain.NotFound(domain.CodeTranslatorNotFound, formatID(userID))
	}
	return nil
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
