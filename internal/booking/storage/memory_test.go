package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_JobLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	due := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	job := &domain.Job{UserID: 1, Status: domain.StatusPending, Due: due, Duration: 30}
	require.NoError(t, m.CreateJob(ctx, job))
	assert.Equal(t, int64(1), job.ID)

	got, err := m.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, due, got.Due)

	got.Status = domain.StatusAssigned
	require.NoError(t, m.UpdateJob(ctx, got))

	pending, err := m.ListJobsByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = m.GetJob(ctx, 99)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = m.UpdateJob(ctx, &domain.Job{ID: 99})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMemory_InTxRollsBack(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	job := &domain.Job{UserID: 1, Status: domain.StatusPending}
	require.NoError(t, m.CreateJob(ctx, job))

	boom := errors.New("boom")
	err := m.InTx(ctx, func(tx Store) error {
		j, err := tx.GetJob(ctx, job.ID)
		require.NoError(t, err)
		j.Status = domain.StatusAssigned
		require.NoError(t, tx.UpdateJob(ctx, j))
		require.NoError(t, tx.CreateRelation(ctx, &domain.TranslatorRelation{JobID: j.ID, UserID: 9}))
		return tx.InTx(ctx, func(Store) error { return boom })
	})
	require.ErrorIs(t, err, boom)

	got, err := m.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	rels, err := m.Relations(ctx, job.ID)
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestMemory_TranslatorAndUserJobs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	assigned := &domain.Job{UserID: 1, Status: domain.StatusAssigned, Due: base.Add(time.Hour)}
	pending := &domain.Job{UserID: 1, Status: domain.StatusPending, Due: base}
	done := &domain.Job{UserID: 1, Status: domain.StatusCompleted, Due: base}
	for _, j := range []*domain.Job{assigned, pending, done} {
		require.NoError(t, m.CreateJob(ctx, j))
	}
	require.NoError(t, m.CreateRelation(ctx, &domain.TranslatorRelation{JobID: assigned.ID, UserID: 9}))
	cancelled := base
	require.NoError(t, m.CreateRelation(ctx, &domain.TranslatorRelation{JobID: pending.ID, UserID: 9, CancelAt: &cancelled}))

	held, err := m.TranslatorJobs(ctx, 9)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, assigned.ID, held[0].ID)

	customerJobs, err := m.ListUserJobs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, customerJobs, 2)
	assert.Equal(t, pending.ID, customerJobs[0].ID)

	translatorJobs, err := m.ListUserJobs(ctx, 9)
	require.NoError(t, err)
	require.Len(t, translatorJobs, 1)
}

func TestMemory_Users(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.AddUser(domain.User{ID: 1, Type: domain.UserCustomer, Email: "c@example.com"})
	m.AddUser(domain.User{ID: 2, Type: domain.UserTranslator, Email: "T@example.com"})
	m.AddLanguage(7, "Swedish")
	m.Blacklist(1, 2)

	u, err := m.FindUserByEmail(ctx, "t@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)

	_, err = m.FindUserByID(ctx, 3)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	trs, err := m.ListTranslators(ctx)
	require.NoError(t, err)
	require.Len(t, trs, 1)

	bl, err := m.BlacklistFor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, bl)

	name, err := m.LanguageName(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Swedish", name)

	_, err = m.LanguageName(ctx, 8)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
