package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/booking/eligibility"
	"github.com/cuongbtq/booking-core/internal/booking/storage"
	"github.com/cuongbtq/booking-core/internal/lock"
)

// AcceptJob assigns the job to the calling translator and returns their refreshed feed.
func (s *Service) AcceptJob(ctx context.Context, actor domain.Actor, jobID int64) ([]domain.Job, error) {
	if _, err := s.accept(ctx, actor, jobID); err != nil {
		return nil, err
	}
	return s.PotentialJobs(ctx, actor.UserID)
}

// AcceptJobWithID assigns the job to the calling translator and returns a confirmation message.
func (s *Service) AcceptJobWithID(ctx context.Context, actor domain.Actor, jobID int64) (string, error) {
	job, err := s.accept(ctx, actor, jobID)
	if err != nil {
		return "", err
	}
	language, err := s.store.LanguageName(ctx, job.FromLanguageID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("You have accepted the booking for %s interpreter %dmin %s",
		language, job.Duration, job.Due.Format("2006-01-02 15:04")), nil
}

func (s *Service) accept(ctx context.Context, actor domain.Actor, jobID int64) (*domain.Job, error) {
	if !actor.IsTranslator() {
		return nil, domain.Forbidden(domain.CodeNotAllowed)
	}

	var out *domain.Job
	keys := []string{lock.JobKey(jobID), lock.TranslatorKey(actor.UserID)}
	err := s.mutate(ctx, keys, func(tx storage.Store) ([]domain.Event, error) {
		job, err := tx.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status != domain.StatusPending {
			return nil, domain.Conflict(domain.CodeAlreadyAccepted, "")
		}
		_, current, err := s.activeRelation(ctx, tx, job.ID)
		if err != nil {
			return nil, err
		}
		if current != nil {
			return nil, domain.Conflict(domain.CodeAlreadyAccepted, "")
		}

		if err := s.checkEligible(ctx, tx, job, actor.UserID); err != nil {
			return nil, err
		}

		booked, err := tx.TranslatorJobs(ctx, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load translator bookings: %w", err)
		}
		if eligibility.HasConflict(job, booked) {
			return nil, domain.Conflict(domain.CodeAlreadyBooked, "")
		}

		now := s.now()
		rel := &domain.TranslatorRelation{JobID: job.ID, UserID: actor.UserID, CreatedAt: now}
		if err := tx.CreateRelation(ctx, rel); err != nil {
			return nil, err
		}
		job.Status = domain.StatusAssigned
		if err := tx.UpdateJob(ctx, job); err != nil {
			return nil, err
		}
		out = job

		s.logger.Info("Job accepted",
			slog.Int64("job_id", job.ID),
			slog.Int64("translator_id", actor.UserID),
		)
		return []domain.Event{
			domain.NewEvent(domain.EventJobAccepted, job.ID, job.UserID, now).
				With(domain.DataTranslatorID, formatID(actor.UserID)),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkEligible re-runs the matching rules for one translator under the job lock.
func (s *Service) checkEligible(ctx context.Context, tx storage.Store, job *domain.Job, translatorID int64) error {
	translator, err := tx.FindUserByID(ctx, translatorID)
	if err != nil {
		return err
	}
	poster, err := tx.FindUserByID(ctx, job.UserID)
	if err != nil {
		return err
	}
	ids, err := tx.BlacklistFor(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to load blacklist: %w", err)
	}
	if reason := eligibility.Match(job, poster, translator, eligibility.NewBlacklist(ids...)); reason != eligibility.Eligible {
		s.logger.Info("Accept refused",
			slog.Int64("job_id", job.ID),
			slog.Int64("translator_id", translatorID),
			slog.String("reason", string(reason)),
		)
		return domain.Conflict(domain.CodeNotEligible, string(reason))
	}
	return nil
}
