// Package service exposes the booking operations used by the API and the worker.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/booking/expiry"
	"github.com/cuongbtq/booking-core/internal/booking/storage"
	"github.com/cuongbtq/booking-core/internal/booking/transition"
	"github.com/cuongbtq/booking-core/internal/lock"
)

const (
	// DefaultImmediateLead is how far ahead an immediate booking is scheduled
	DefaultImmediateLead = 5 * time.Minute

	expiredComment = "Expired without response"
)

// Publisher delivers domain events once the unit of work that produced them has committed.
type Publisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// Settings holds the tunable booking rules.
type Settings struct {
	ImmediateLead time.Duration
	SupportPhone  string
}

// Config holds the collaborators of a Service
type Config struct {
	Store     storage.Store
	Locker    lock.Locker
	Publisher Publisher
	Policy    *expiry.Policy
	Settings  Settings
	Logger    *slog.Logger
	Now       func() time.Time
}

// Service implements booking operations on top of a Store.
type Service struct {
	store     storage.Store
	locker    lock.Locker
	publisher Publisher
	policy    *expiry.Policy
	engine    *transition.Engine
	settings  Settings
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a new booking service
func New(cfg *Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := cfg.Policy
	if policy == nil {
		policy = expiry.DefaultPolicy()
	}
	locker := cfg.Locker
	if locker == nil {
		locker = lock.NewLocal()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	settings := cfg.Settings
	if settings.ImmediateLead <= 0 {
		settings.ImmediateLead = DefaultImmediateLead
	}

	return &Service{
		store:     cfg.Store,
		locker:    locker,
		publisher: cfg.Publisher,
		policy:    policy,
		engine:    transition.NewEngine(policy, logger),
		settings:  settings,
		logger:    logger,
		now:       now,
	}
}

// mutate runs fn under the given locks inside a unit of work and publishes the
// returned events after commit.
func (s *Service) mutate(ctx context.Context, keys []string, fn func(tx storage.Store) ([]domain.Event, error)) error {
	release, err := lock.AcquireAll(ctx, s.locker, keys...)
	if err != nil {
		return err
	}
	defer release()

	var events []domain.Event
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		evs, err := fn(tx)
		if err != nil {
			return err
		}
		events = evs
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events)
	return nil
}

func (s *Service) publish(ctx context.Context, events []domain.Event) {
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events); err != nil {
		s.logger.Warn("Failed to publish booking events",
			slog.Int("events", len(events)),
			slog.Int64("job_id", events[0].JobID),
			slog.Any("error", err),
		)
	}
}

func (s *Service) activeRelation(ctx context.Context, tx storage.Store, jobID int64) ([]domain.TranslatorRelation, *domain.TranslatorRelation, error) {
	rels, err := tx.Relations(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load translator relations: %w", err)
	}
	for i := range rels {
		if rels[i].Active() {
			return rels, &rels[i], nil
		}
	}
	return rels, nil, nil
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return domain.Forbidden(domain.CodeNotAllowed)
	}
	return nil
}

func requireOwnerOrAdmin(actor domain.Actor, job *domain.Job) error {
	if actor.IsAdmin() || (actor.IsCustomer() && job.UserID == actor.UserID) {
		return nil
	}
	return domain.Forbidden(domain.CodeNotAllowed)
}

// reopenInPlace puts job back on offer with a fresh expiry.
func (s *Service) reopenInPlace(job *domain.Job, now time.Time) {
	job.Status = domain.StatusPending
	job.CreatedAt = now
	job.WillExpireAt = s.policy.WillExpireAt(job.Due, now)
	job.CustomerNotified16h = false
	job.CustomerNotified48h = false
}
