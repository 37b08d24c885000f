// Package storage persists jobs, translator relations and the user data read for matching.
package storage

import (
	"context"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
)

// Store is the repository used by the booking service. Implementations return
// domain.ErrNotFound (wrapped in a *domain.Error) for missing rows.
type Store interface {
	// InTx runs fn in a unit of work. Rows read through the Store passed to fn are
	// locked until fn returns; any error rolls the work back.
	InTx(ctx context.Context, fn func(tx Store) error) error

	CreateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, id int64) (*domain.Job, error)
	UpdateJob(ctx context.Context, job *domain.Job) error
	ListJobsByStatus(ctx context.Context, status domain.Status) ([]domain.Job, error)
	// ListUserJobs returns active jobs the user owns or holds as translator.
	ListUserJobs(ctx context.Context, userID int64) ([]domain.Job, error)
	// TranslatorJobs returns jobs the translator holds through an active relation.
	TranslatorJobs(ctx context.Context, translatorID int64) ([]domain.Job, error)

	Relations(ctx context.Context, jobID int64) ([]domain.TranslatorRelation, error)
	CreateRelation(ctx context.Context, rel *domain.TranslatorRelation) error
	UpdateRelation(ctx context.Context, rel *domain.TranslatorRelation) error
	DeleteRelation(ctx context.Context, id int64) error

	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListTranslators(ctx context.Context) ([]domain.User, error)
	BlacklistFor(ctx context.Context, customerID int64) ([]int64, error)
	LanguageName(ctx context.Context, id int64) (string, error)
}

var activeStatuses = []string{
	string(domain.StatusPending),
	string(domain.StatusAssigned),
	string(domain.StatusStarted),
}

var bookedStatuses = []string{
	string(domain.StatusAssigned),
	string(domain.StatusStarted),
}
