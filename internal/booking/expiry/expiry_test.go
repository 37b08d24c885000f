package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layout = "2006-01-02 15:04:05"

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(layout, s)
	require.NoError(t, err)
	return ts
}

func TestWillExpireAt_Example(t *testing.T) {
	due := mustTime(t, "2023-10-15 14:30:00")
	created := mustTime(t, "2023-10-14 12:00:00")

	got := DefaultPolicy().WillExpireAt(due, created)

	assert.Equal(t, "2023-10-15 16:30:00", got.Format(layout))
}

func TestWillExpireAt_Tiers(t *testing.T) {
	created := mustTime(t, "2024-01-10 08:00:00")

	tests := []struct {
		name string
		lead time.Duration
		want string
	}{
		{"immediate", 5 * time.Minute, "2024-01-10 08:05:00"},
		{"exactly 90 minutes", 90 * time.Minute, "2024-01-10 09:30:00"},
		{"just over 90 minutes", 91 * time.Minute, "2024-01-10 09:30:00"},
		{"same day", 10 * time.Hour, "2024-01-10 09:30:00"},
		{"exactly 24 hours", 24 * time.Hour, "2024-01-10 09:30:00"},
		{"next day", 30 * time.Hour, "2024-01-11 16:00:00"},
		{"exactly 48 hours", 48 * time.Hour, "2024-01-12 10:00:00"},
		{"three days", 60 * time.Hour, "2024-01-11 00:00:00"},
		{"exactly 72 hours", 72 * time.Hour, "2024-01-11 00:00:00"},
		{"a week ahead", 7 * 24 * time.Hour, "2024-01-15 08:00:00"},
	}

	p := DefaultPolicy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.WillExpireAt(created.Add(tt.lead), created)
			assert.Equal(t, tt.want, got.Format(layout))
		})
	}
}

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name      string
		tiers     []Tier
		wantErr   bool
		errString string
	}{
		{
			name:  "empty falls back to default",
			tiers: nil,
		},
		{
			name: "custom two tiers",
			tiers: []Tier{
				{MaxLead: time.Hour, Anchor: AnchorDue},
				{Anchor: AnchorCreated, Offset: time.Hour},
			},
		},
		{
			name: "unknown anchor",
			tiers: []Tier{
				{Anchor: "later"},
			},
			wantErr:   true,
			errString: "unknown anchor",
		},
		{
			name: "open-ended tier in the middle",
			tiers: []Tier{
				{Anchor: AnchorDue},
				{MaxLead: time.Hour, Anchor: AnchorDue},
			},
			wantErr:   true,
			errString: "only the last tier",
		},
		{
			name: "not increasing",
			tiers: []Tier{
				{MaxLead: 2 * time.Hour, Anchor: AnchorDue},
				{MaxLead: time.Hour, Anchor: AnchorDue},
				{Anchor: AnchorDue},
			},
			wantErr:   true,
			errString: "must be greater",
		},
		{
			name: "bounded last tier",
			tiers: []Tier{
				{MaxLead: time.Hour, Anchor: AnchorDue},
			},
			wantErr:   true,
			errString: "open-ended",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPolicy(tt.tiers)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.NotEmpty(t, p.Tiers())
		})
	}
}

func TestPolicy_TiersIsACopy(t *testing.T) {
	p := DefaultPolicy()
	tiers := p.Tiers()
	tiers[0].Offset = time.Hour

	assert.Equal(t, time.Duration(0), p.Tiers()[0].Offset)
}
