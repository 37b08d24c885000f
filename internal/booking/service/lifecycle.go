package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/assignment"
	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/booking/storage"
	"github.com/cuongbtq/booking-core/internal/booking/transition"
	"github.com/cuongbtq/booking-core/internal/lock"
)

// withdrawWindow separates early from late cancellations.
const withdrawWindow = 24 * time.Hour

// CancelJob withdraws a booking on behalf of its customer, or hands it back to the pool on behalf of its translator.
func (s *Service) CancelJob(ctx context.Context, actor domain.Actor, jobID int64) (*domain.Job, error) {
	switch {
	case actor.IsCustomer():
		return s.customerCancel(ctx, actor, jobID)
	case actor.IsTranslator():
		return s.translatorCancel(ctx, actor, jobID)
	}
	return nil, domain.Forbidden(domain.CodeNotAllowed)
}

func (s *Service) customerCancel(ctx context.Context, actor domain.Actor, jobID int64) (*domain.Job, error) {
	var out *domain.Job
	err := s.mutate(ctx, []string{lock.JobKey(jobID)}, func(tx storage.Store) ([]domain.Event, error) {
		job, err := tx.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.UserID != actor.UserID {
			return nil, domain.Forbidden(domain.CodeNotAllowed)
		}
		if job.Status != domain.StatusPending && job.Status != domain.StatusAssigned {
			return nil, domain.Conflict(domain.CodeInvalidStatus, string(job.Status))
		}
		_, current, err := s.activeRelation(ctx, tx, job.ID)
		if err != nil {
			return nil, err
		}

		now := s.now()
		from := job.Status
		if job.Due.Sub(now) >= withdrawWindow {
			job.Status = domain.StatusWithdrawBefore24
		} else {
			job.Status = domain.StatusWithdrawAfter24
		}
		withdrawAt := now
		job.WithdrawAt = &withdrawAt

		var events []domain.Event
		if current != nil {
			assignment.Cancel(current, now)
			if err := tx.UpdateRelation(ctx, current); err != nil {
				return nil, err
			}
			events = append(events, domain.NewEvent(domain.EventJobWithdrawn, job.ID, current.UserID, now))
		}
		if err := tx.UpdateJob(ctx, job); err != nil {
			return nil, err
		}
		out = job

		s.logger.Info("Job withdrawn by customer",
			slog.Int64("job_id", job.ID),
			slog.String("from", string(from)),
			slog.String("to", string(job.Status)),
		)
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) translatorCancel(ctx context.Context, actor domain.Actor, jobID int64) (*domain.Job, error) {
	var out *domain.Job
	keys := []string{lock.JobKey(jobID), lock.TranslatorKey(actor.UserID)}
	err := s.mutate(ctx, keys, func(tx storage.Store) ([]domain.Event, error) {
		job, err := tx.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		_, current, err := s.activeRelation(ctx, tx, job.ID)
		if err != nil {
			return nil, err
		}
		if current == nil || current.UserID != actor.UserID {
			return nil, domain.Forbidden(domain.CodeNotAllowed)
		}
		if job.Status != domain.StatusAssigned {
			return nil, domain.Conflict(domain.CodeInvalidStatus, string(job.Status))
		}

		now := s.now()
		if job.Due.Sub(now) <= withdrawWindow {
			return nil, domain.Conflict(domain.CodeTranslatorCancelTooLate, s.settings.SupportPhone)
		}

		s.reopenInPlace(job, now)
		if err := tx.DeleteRelation(ctx, current.ID); err != nil {
			return nil, err
		}
		if err := tx.UpdateJob(ctx, job); err != nil {
			return nil, err
		}
		out = job

		s.logger.Info("Job returned by translator",
			slog.Int64("job_id", job.ID),
			slog.Int64("translator_id", actor.UserID),
			slog.Time("will_expire_at", job.WillExpireAt),
		)
		return []domain.Event{
			domain.NewEvent(domain.EventTranslatorWithdrew, job.ID, job.UserID, now),
			domain.Fanout(domain.EventSuitableJob, job.ID, actor.UserID, now),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EndJob completes a started session and records its length.
func (s *Service) EndJob(ctx context.Context, actor domain.Actor, jobID int64) (*domain.Job, error) {
	var out *domain.Job
	err := s.mutate(ctx, []string{lock.JobKey(jobID)}, func(tx storage.Store) ([]domain.Event, error) {
		job, err := tx.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		_, current, err := s.activeRelation(ctx, tx, job.ID)
		if err != nil {
			return nil, err
		}

		translatorID := int64(0)
		if current != nil {
			translatorID = current.UserID
		}
		isOwner := actor.IsCustomer() && actor.UserID == job.UserID
		isTranslator := actor.IsTranslator() && translatorID != 0 && actor.UserID == translatorID
		if !isOwner && !isTranslator && !actor.IsAdmin() {
			return nil, domain.Forbidden(domain.CodeNotAllowed)
		}
		if job.Status != domain.StatusStarted {
			return nil, domain.Conflict(domain.CodeInvalidStatus, string(job.Status))
		}

		now := s.now()
		end := now
		job.Status = domain.StatusCompleted
		job.EndAt = &end
		job.SessionTime = transition.FormatSessionTime(now.Sub(job.Due))

		if current != nil {
			assignment.Complete(current, actor.UserID, now)
			if err := tx.UpdateRelation(ctx, current); err != nil {
				return nil, err
			}
		}
		if err := tx.UpdateJob(ctx, job); err != nil {
			return nil, err
		}
		out = job

		events := []domain.Event{transition.SessionEnded(job, job.UserID, "faktura", now)}
		if translatorID != 0 {
			events = append(events, transition.SessionEnded(job, translatorID, "lön", now))
		}
		feedbackTo := job.UserID
		if isOwner && translatorID != 0 {
			feedbackTo = translatorID
		}
		events = append(events, domain.NewEvent(domain.EventFeedbackRequested, job.ID, feedbackTo, now))

		s.logger.Info("Job ended",
			slog.Int64("job_id", job.ID),
			slog.String("session_time", job.SessionTime),
			slog.Int64("ended_by", actor.UserID),
		)
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CustomerNotCall closes a started session the customer never showed up to.
func (s *Service) CustomerNotCall(ctx context.Context, actor domain.Actor, jobID int64) (*domain.Job, error) {
	var out *domain.Job
	err := s.mutate(ctx, []string{lock.JobKey(jobID)}, func(tx storage.Store) ([]domain.Event, error) {
		job, err := tx.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		_, current, err := s.activeRelation(ctx, tx, job.ID)
		if err != nil {
			return nil, err
		}
		holds := actor.IsTranslator() && current != nil && current.UserID == actor.UserID
		if !holds && !actor.IsAdmin() {
			return nil, domain.Forbidden(domain.CodeNotAllowed)
		}
		if job.Status != domain.StatusStarted {
			return nil, domain.Conflict(domain.CodeInvalidStatus, string(job.Status))
		}

		now := s.now()
		end := now
		job.Status = domain.StatusNotCarriedOutCustomer
		job.EndAt = &end

		if current != nil {
			assignment.Complete(current, current.UserID, now)
			if err := tx.UpdateRelation(ctx, current); err != nil {
				return nil, err
			}
		}
		if err := tx.UpdateJob(ctx, job); err != nil {
			return nil, err
		}
		out = job

		s.logger.Info("Job marked as not carried out by customer",
			slog.Int64("job_id", job.ID),
		)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
