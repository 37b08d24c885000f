package service

import (
	"context"
	"fmt"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/booking/eligibility"
)

// UserJobs splits a user's active jobs into emergency and normal bookings.
type UserJobs struct {
	Emergency []domain.Job `json:"emergency_jobs"`
	Normal    []domain.Job `json:"normal_jobs"`
}

// PotentialJobs returns the pending jobs the translator may accept, closest due first.
func (s *Service) PotentialJobs(ctx context.Context, translatorID int64) ([]domain.Job, error) {
	translator, err := s.store.FindUserByID(ctx, translatorID)
	if err != nil {
		return nil, err
	}
	if translator.Type != domain.UserTranslator {
		return nil, domain.Forbidden(domain.CodeNotAllowed)
	}

	listed, err := s.store.ListJobsByStatus(ctx, domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}

	// A pending job an admin already handed to a translator is no longer on offer.
	pending := make([]domain.Job, 0, len(listed))
	for _, j := range listed {
		_, current, err := s.activeRelation(ctx, s.store, j.ID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			pending = append(pending, j)
		}
	}

	posters := make(map[int64]*domain.User)
	blacklists := make(map[int64]eligibility.Blacklist)
	for i := range pending {
		ownerID := pending[i].UserID
		if _, ok := posters[ownerID]; ok {
			continue
		}
		poster, err := s.store.FindUserByID(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		ids, err := s.store.BlacklistFor(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load blacklist: %w", err)
		}
		posters[ownerID] = poster
		blacklists[ownerID] = eligibility.NewBlacklist(ids...)
	}

	return eligibility.AvailableJobs(translator, pending, posters, blacklists), nil
}

// PotentialTranslators returns every translator eligible for the job.
func (s *Service) PotentialTranslators(ctx context.Context, jobID int64) ([]domain.User, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return s.eligibleTranslators(ctx, job)
}

func (s *Service) eligibleTranslators(ctx context.Context, job *domain.Job) ([]domain.User, error) {
	poster, err := s.store.FindUserByID(ctx, job.UserID)
	if err != nil {
		return nil, err
	}
	translators, err := s.store.ListTranslators(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list translators: %w", err)
	}
	ids, err := s.store.BlacklistFor(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}
	return eligibility.PotentialTranslators(job, poster, translators, eligibility.NewBlacklist(ids...)), nil
}

// UserJobs returns the active jobs a user owns or holds.
func (s *Service) UserJobs(ctx context.Context, userID int64) (*UserJobs, error) {
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}
	jobs, err := s.store.ListUserJobs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user jobs: %w", err)
	}

	out := &UserJobs{Emergency: []domain.Job{}, Normal: []domain.Job{}}
	for _, j := range jobs {
		if j.Immediate {
			out.Emergency = append(out.Emergency, j)
		} else {
			out.Normal = append(out.Normal, j)
		}
	}
	eligibility.SortByDue(out.Emergency)
	eligibility.SortByDue(out.Normal)
	return out, nil
}
