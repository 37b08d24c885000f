package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/booking-core/internal/booking/assignment"
	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/booking/storage"
	"github.com/cuongbtq/booking-core/internal/booking/transition"
	"github.com/cuongbtq/booking-core/internal/lock"
)

// Reopen puts a finished job back on offer. A timed out job is cloned into a new pending job;
// any other terminal job is reset in place. The returned job is the one now on offer.
func (s *Service) Reopen(ctx context.Context, actor domain.Actor, jobID int64) (*domain.Job, error) {
	var out *domain.Job
	err := s.mutate(ctx, []string{lock.JobKey(jobID)}, func(tx storage.Store) ([]domain.Event, error) {
		job, err := tx.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if err := requireOwnerOrAdmin(actor, job); err != nil {
			return nil, err
		}
		if !job.Status.Terminal() {
			return nil, domain.Conflict(domain.CodeInvalidStatus, string(job.Status))
		}

		now := s.now()
		rels, err := tx.Relations(ctx, job.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load translator relations: %w", err)
		}
		for i := range rels {
			if !rels[i].Active() {
				continue
			}
			assignment.Cancel(&rels[i], now)
			if err := tx.UpdateRelation(ctx, &rels[i]); err != nil {
				return nil, err
			}
		}

		if job.Status == domain.StatusTimedOut {
			clone := *job
			clone.ID = 0
			clone.AdminComments = fmt.Sprintf("This booking is a reopening of booking #%d", job.ID)
			clone.EndAt = nil
			clone.SessionTime = ""
			clone.WithdrawAt = nil
			s.reopenInPlace(&clone, now)
			if err := tx.CreateJob(ctx, &clone); err != nil {
				return nil, err
			}
			out = &clone
		} else {
			s.reopenInPlace(job, now)
			job.EndAt = nil
			job.WithdrawAt = nil
			if err := tx.UpdateJob(ctx, job); err != nil {
				return nil, err
			}
			out = job
		}

		s.logger.Info("Job reopened",
			slog.Int64("job_id", jobID),
			slog.Int64("open_job_id", out.ID),
			slog.Time("will_expire_at", out.WillExpireAt),
		)
		return []domain.Event{
			domain.NewEvent(domain.EventJobReopened, out.ID, out.UserID, now),
			domain.Fanout(domain.EventSuitableJob, out.ID, 0, now),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireJob times out a pending job that received no answer. Jobs in any other status are left alone.
func (s *Service) ExpireJob(ctx context.Context, jobID int64) (transition.Result, error) {
	var res transition.Result
	err := s.mutate(ctx, []string{lock.JobKey(jobID)}, func(tx storage.Store) ([]domain.Event, error) {
		job, err := tx.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status != domain.StatusPending {
			res = transition.Result{Outcome: transition.Unchanged, From: job.Status, To: job.Status}
			return nil, nil
		}

		comment := job.AdminComments
		if comment == "" {
			comment = expiredComment
		}
		now := s.now()
		res = s.engine.Apply(job, transition.Request{
			Target:        domain.StatusTimedOut,
			AdminComments: comment,
			Now:           now,
		})
		if res.Outcome == transition.Rejected {
			return nil, res.Err
		}
		if err := tx.UpdateJob(ctx, job); err != nil {
			return nil, err
		}

		res.Events = []domain.Event{domain.NewEvent(domain.EventJobExpired, job.ID, job.UserID, now)}
		return res.Events, nil
	})
	if err != nil {
		return transition.Result{}, err
	}
	return res, nil
}

// ExpireDue times out every pending job whose expiry has passed and returns how many were expired.
// A failure on one job is logged and does not stop the scan.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	pending, err := s.store.ListJobsByStatus(ctx, domain.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending jobs: %w", err)
	}

	now := s.now()
	expired := 0
	for i := range pending {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		job := &pending[i]
		if job.WillExpireAt.After(now) {
			continue
		}
		res, err := s.ExpireJob(ctx, job.ID)
		if err != nil {
			s.logger.Error("Failed to expire job",
				slog.Int64("job_id", job.ID),
				slog.Any("error", err),
			)
			continue
		}
		if res.Changed() {
			expired++
		}
	}
	return expired, nil
}

// ResendNotifications re-announces a job to suitable translators by push.
func (s *Service) ResendNotifications(ctx context.Context, actor domain.Actor, jobID int64) error {
	return s.resend(ctx, actor, jobID, domain.EventSuitableJob)
}

// ResendSMSNotifications re-announces a job to suitable translators by SMS.
func (s *Service) ResendSMSNotifications(ctx context.Context, actor domain.Actor, jobID int64) error {
	return s.resend(ctx, actor, jobID, domain.EventSuitableJobSMS)
}

func (s *Service) resend(ctx context.Context, actor domain.Actor, jobID int64, kind domain.EventKind) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if s.publisher == nil {
		return nil
	}
	events := []domain.Event{domain.Fanout(kind, job.ID, job.UserID, s.now())}
	if err := s.publisher.Publish(ctx, events); err != nil {
		return fmt.Errorf("failed to publish notifications: %w", err)
	}
	return nil
}
