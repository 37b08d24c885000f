// Package assignment manages the translator relations of a job.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
)

// Request names the translator an admin wants on the job. Email takes precedence over ID.
type Request struct {
	TranslatorID    int64
	TranslatorEmail string
}

func (r Request) Empty() bool {
	return r.TranslatorID == 0 && r.TranslatorEmail == ""
}

// Resolver looks translators up by email.
type Resolver interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Change is the outcome of ChangeTranslator. Old is the retired relation, if any.
type Change struct {
	Changed bool
	Old     *domain.TranslatorRelation
	New     *domain.TranslatorRelation
}

// ChangeTranslator retires current (when set) and creates a relation for the requested translator.
// Nothing is persisted here; the caller stores Old and New.
func ChangeTranslator(ctx context.Context, current *domain.TranslatorRelation, req Request, job *domain.Job, resolver Resolver, now time.Time) (Change, error) {
	if req.Empty() {
		return Change{}, nil
	}

	translatorID := req.TranslatorID
	if req.TranslatorEmail != "" {
		u, err := resolver.FindUserByEmail(ctx, req.TranslatorEmail)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return Change{}, domain.NotFound(domain.CodeTranslatorNotFound, req.TranslatorEmail)
			}
			return Change{}, fmt.Errorf("failed to resolve translator email: %w", err)
		}
		if u.Type != domain.UserTranslator {
			return Change{}, domain.NotFound(domain.CodeTranslatorNotFound, req.TranslatorEmail)
		}
		translatorID = u.ID
	}

	if current != nil && current.UserID == translatorID {
		return Change{}, nil
	}

	change := Change{
		Changed: true,
		New: &domain.TranslatorRelation{
			JobID:     job.ID,
			UserID:    translatorID,
			CreatedAt: now,
		},
	}
	if current != nil {
		old := *current
		Cancel(&old, now)
		change.Old = &old
	}
	return change, nil
}

// Active returns the active relation among rels, or nil.
func Active(rels []domain.TranslatorRelation) *domain.TranslatorRelation {
	for i := range rels {
		if rels[i].Active() {
			return &rels[i]
		}
	}
	return nil
}

// CountActive returns how many relations are active.
func CountActive(rels []domain.TranslatorRelation) int {
	n := 0
	for i := range rels {
		if rels[i].Active() {
			n++
		}
	}
	return n
}

func Cancel(rel *domain.TranslatorRelation, now time.Time) {
	at := now
	rel.CancelAt = &at
}

func Complete(rel *domain.TranslatorRelation, by int64, now time.Time) {
	at := now
	rel.CompletedAt = &at
	rel.CompletedBy = &by
}
