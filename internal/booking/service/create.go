package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/booking/storage"
	"github.com/cuongbtq/booking-core/internal/lock"
)

// CreateJobInput is a new booking request. UserID is only read when an admin books on behalf of a customer.
type CreateJobInput struct {
	UserID               int64
	FromLanguageID       int64
	Immediate            bool
	Due                  time.Time
	Duration             int
	JobFor               []string
	CustomerPhoneType    bool
	CustomerPhysicalType bool
}

// ConfirmInput completes a stored booking with contact details. Empty fields fall back to the customer profile.
type ConfirmInput struct {
	UserEmail    string
	Reference    string
	Address      string
	Instructions string
	Town         string
}

// Store validates and persists a new pending job.
func (s *Service) Store(ctx context.Context, actor domain.Actor, in CreateJobInput) (*domain.Job, error) {
	if actor.IsTranslator() {
		return nil, domain.Forbidden(domain.CodeTranslatorCannotCreate)
	}

	ownerID := actor.UserID
	if actor.IsAdmin() {
		if in.UserID == 0 {
			return nil, domain.Validation(domain.CodeFieldRequired, "user_id")
		}
		ownerID = in.UserID
	}

	if in.FromLanguageID == 0 {
		return nil, domain.Validation(domain.CodeFieldRequired, "from_language_id")
	}
	if in.Duration <= 0 {
		return nil, domain.Validation(domain.CodeFieldRequired, "duration")
	}
	if !in.Immediate {
		if in.Due.IsZero() {
			return nil, domain.Validation(domain.CodeFieldRequired, "due")
		}
		if !in.CustomerPhoneType && !in.CustomerPhysicalType {
			return nil, domain.Validation(domain.CodeFieldRequired, "customer_phone_type")
		}
	}

	poster, err := s.store.FindUserByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if poster.Type != domain.UserCustomer {
		return nil, domain.Validation(domain.CodeInvalidValue, "user_id")
	}
	if _, err := s.store.LanguageName(ctx, in.FromLanguageID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Validation(domain.CodeInvalidValue, "from_language_id")
		}
		return nil, err
	}

	now := s.now()
	due := in.Due
	phone := in.CustomerPhoneType
	if in.Immediate {
		due = now.Add(s.settings.ImmediateLead)
		phone = true
	} else if due.Before(now) {
		return nil, domain.Validation(domain.CodeDueInPast, "due")
	}

	gender, cert := requirements(in.JobFor)
	job := &domain.Job{
		UserID:               ownerID,
		FromLanguageID:       in.FromLanguageID,
		Due:                  due,
		Immediate:            in.Immediate,
		Duration:             in.Duration,
		Status:               domain.StatusPending,
		Gender:               gender,
		Certified:            cert,
		JobType:              poster.Meta.ConsumerType.JobType(),
		CustomerPhoneType:    phone,
		CustomerPhysicalType: in.CustomerPhysicalType,
		ByAdmin:              actor.IsAdmin(),
		CreatedAt:            now,
		WillExpireAt:         s.policy.WillExpireAt(due, now),
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("Job created",
		slog.Int64("job_id", job.ID),
		slog.Int64("user_id", job.UserID),
		slog.Bool("immediate", job.Immediate),
		slog.Time("will_expire_at", job.WillExpireAt),
	)
	return job, nil
}

// requirements derives the gender and certification requirement from the job_for choices.
func requirements(jobFor []string) (domain.Gender, domain.Certification) {
	has := make(map[string]bool, len(jobFor))
	for _, f := range jobFor {
		has[f] = true
	}

	gender := domain.GenderAny
	switch {
	case has["male"]:
		gender = domain.GenderMale
	case has["female"]:
		gender = domain.GenderFemale
	}

	cert := domain.CertAny
	switch {
	case has["normal"] && has["certified"]:
		cert = domain.CertBoth
	case has["normal"] && has["certified_in_law"]:
		cert = domain.CertNLaw
	case has["normal"] && has["certified_in_helth"]:
		cert = domain.CertNHealth
	case has["normal"]:
		cert = domain.CertNormal
	case has["certified"]:
		cert = domain.CertYes
	case has["certified_in_law"]:
		cert = domain.CertLaw
	case has["certified_in_helth"]:
		cert = domain.CertHealth
	}
	return gender, cert
}

// ConfirmBooking records contact details and announces the job to the customer and to suitable translators.
func (s *Service) ConfirmBooking(ctx context.Context, actor domain.Actor, jobID int64, in ConfirmInput) (*domain.Job, error) {
	var out *domain.Job
	err := s.mutate(ctx, []string{lock.JobKey(jobID)}, func(tx storage.Store) ([]domain.Event, error) {
		job, err := tx.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if err := requireOwnerOrAdmin(actor, job); err != nil {
			return nil, err
		}
		if job.Status != domain.StatusPending {
			return nil, domain.Conflict(domain.CodeInvalidStatus, string(job.Status))
		}
		poster, err := tx.FindUserByID(ctx, job.UserID)
		if err != nil {
			return nil, err
		}

		job.UserEmail = in.UserEmail
		job.Reference = in.Reference
		job.Address = firstNonEmpty(in.Address, poster.Meta.Address)
		job.Instructions = firstNonEmpty(in.Instructions, poster.Meta.Instructions)
		job.Town = firstNonEmpty(in.Town, poster.Meta.City)

		if err := tx.UpdateJob(ctx, job); err != nil {
			return nil, err
		}
		out = job

		now := s.now()
		return []domain.Event{
			domain.NewEvent(domain.EventJobCreated, job.ID, job.UserID, now),
			domain.Fanout(domain.EventSuitableJob, job.ID, job.UserID, now),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
