package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	bodies [][]byte
	failOn int
	calls  int
}

func (s *fakeSender) PublishWithRetry(_ context.Context, body []byte, contentType string) error {
	s.calls++
	if s.calls == s.failOn {
		return errors.New("channel closed")
	}
	s.bodies = append(s.bodies, body)
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	sender := &fakeSender{}
	p := NewPublisher(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	err := p.Publish(context.Background(), []domain.Event{
		domain.NewEvent(domain.EventJobAccepted, 7, 1, at).With(domain.DataTranslatorID, "10"),
		domain.Fanout(domain.EventSuitableJob, 7, 1, at),
	})
	require.NoError(t, err)
	require.Len(t, sender.bodies, 2)

	got, err := Decode(sender.bodies[0])
	require.NoError(t, err)
	_, err = uuid.Parse(got.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventJobAccepted, got.Kind)
	assert.Equal(t, int64(7), got.JobID)
	assert.Equal(t, int64(1), got.RecipientID)
	assert.Equal(t, "10", got.Data[domain.DataTranslatorID])
	assert.True(t, at.Equal(got.OccurredAt))

	fan, err := Decode(sender.bodies[1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), fan.ExcludeUserID)
	assert.NotEqual(t, got.ID, fan.ID)
}

func TestPublisher_ContinuesAfterFailure(t *testing.T) {
	sender := &fakeSender{failOn: 1}
	p := NewPublisher(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := p.Publish(context.Background(), []domain.Event{
		domain.NewEvent(domain.EventJobExpired, 1, 1, time.Now()),
		domain.NewEvent(domain.EventJobExpired, 2, 1, time.Now()),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
	assert.Len(t, sender.bodies, 1)
}

func TestDecode_Invalid(t *testing.T) {
	id := uuid.NewString()
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{`},
		{name: "bad event id", body: `{"event_id":"nope","kind":"job_expired","job_id":1,"recipient_id":1}`},
		{name: "missing kind", body: `{"event_id":"` + id + `","job_id":1,"recipient_id":1}`},
		{name: "missing job", body: `{"event_id":"` + id + `","kind":"job_expired","recipient_id":1}`},
		{name: "missing recipient", body: `{"event_id":"` + id + `","kind":"job_expired","job_id":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidEvent))
		})
	}

	_, err := Decode([]byte(`{"event_id":"` + id + `","kind":"suitable_job","job_id":1}`))
	assert.NoError(t, err, "fan-out events have no recipient")
}
