package assignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(ctx context.Context, email string) (*domain.User, error)

func (f resolverFunc) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return f(ctx, email)
}

var directory = resolverFunc(func(_ context.Context, email string) (*domain.User, error) {
	switch email {
	case "anna@example.com":
		return &domain.User{ID: 21, Type: domain.UserTranslator, Email: email}, nil
	case "customer@example.com":
		return &domain.User{ID: 2, Type: domain.UserCustomer, Email: email}, nil
	case "broken@example.com":
		return nil, errors.New("connection reset")
	}
	return nil, domain.NotFound(domain.CodeUserNotFound, email)
})

func TestChangeTranslator(t *testing.T) {
	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	job := &domain.Job{ID: 5}
	current := &domain.TranslatorRelation{ID: 1, JobID: 5, UserID: 20, CreatedAt: now.Add(-time.Hour)}

	tests := []struct {
		name      string
		current   *domain.TranslatorRelation
		req       Request
		changed   bool
		oldSet    bool
		newUserID int64
		errKind   error
	}{
		{name: "empty request", current: current, req: Request{}},
		{name: "same translator by id", current: current, req: Request{TranslatorID: 20}},
		{name: "replace by id", current: current, req: Request{TranslatorID: 21}, changed: true, oldSet: true, newUserID: 21},
		{name: "replace by email", current: current, req: Request{TranslatorEmail: "anna@example.com"}, changed: true, oldSet: true, newUserID: 21},
		{name: "email wins over id", current: current, req: Request{TranslatorID: 20, TranslatorEmail: "anna@example.com"}, changed: true, oldSet: true, newUserID: 21},
		{name: "first assignment", current: nil, req: Request{TranslatorID: 21}, changed: true, newUserID: 21},
		{name: "unknown email", current: current, req: Request{TranslatorEmail: "ghost@example.com"}, errKind: domain.ErrNotFound},
		{name: "email of a customer", current: current, req: Request{TranslatorEmail: "customer@example.com"}, errKind: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before *domain.TranslatorRelation
			if tt.current != nil {
				c := *tt.current
				before = &c
			}

			ch, err := ChangeTranslator(context.Background(), tt.current, tt.req, job, directory, now)

			if tt.errKind != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.errKind))
				assert.False(t, ch.Changed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.changed, ch.Changed)
			if tt.current != nil {
				assert.Equal(t, *before, *tt.current, "current relation must not be mutated")
			}
			if !tt.changed {
				assert.Nil(t, ch.New)
				assert.Nil(t, ch.Old)
				return
			}
			require.NotNil(t, ch.New)
			assert.Equal(t, tt.newUserID, ch.New.UserID)
			assert.Equal(t, job.ID, ch.New.JobID)
			assert.True(t, ch.New.Active())
			if tt.oldSet {
				require.NotNil(t, ch.Old)
				require.NotNil(t, ch.Old.CancelAt)
				assert.Equal(t, now, *ch.Old.CancelAt)
				assert.Equal(t, 1, CountActive([]domain.TranslatorRelation{*ch.Old, *ch.New}))
			} else {
				assert.Nil(t, ch.Old)
			}
		})
	}
}

func TestChangeTranslator_ResolverFailure(t *testing.T) {
	_, err := ChangeTranslator(context.Background(), nil, Request{TranslatorEmail: "broken@example.com"}, &domain.Job{ID: 1}, directory, time.Now())

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestActiveCompleteCancel(t *testing.T) {
	now := time.Now()
	rels := []domain.TranslatorRelation{
		{ID: 1, UserID: 10},
		{ID: 2, UserID: 11},
	}
	Cancel(&rels[0], now)

	active := Active(rels)
	require.NotNil(t, active)
	assert.Equal(t, int64(2), active.ID)

	Complete(active, 11, now)
	assert.Nil(t, Active(rels))
	assert.Equal(t, 0, CountActive(rels))
	require.NotNil(t, rels[1].CompletedBy)
	assert.Equal(t, int64(11), *rels[1].CompletedBy)
}
