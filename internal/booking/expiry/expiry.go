// Package expiry computes when an unanswered job stops being offered to translators.
package expiry

import (
	"errors"
	"fmt"
	"time"
)

// Anchor selects which timestamp a tier offset is applied to.
type Anchor string

const (
	AnchorDue     Anchor = "due"
	AnchorCreated Anchor = "created"
)

// Tier applies to jobs whose lead time (due - created) is at most MaxLead.
// A zero MaxLead marks the open-ended last tier.
type Tier struct {
	MaxLead time.Duration `yaml:"max_lead"`
	Anchor  Anchor        `yaml:"anchor"`
	Offset  time.Duration `yaml:"offset"`
}

// Policy is an ordered list of tiers.
type Policy struct {
	tiers []Tier
}

var defaultTiers = []Tier{
	{MaxLead: 90 * time.Minute, Anchor: AnchorDue},
	{MaxLead: 24 * time.Hour, Anchor: AnchorCreated, Offset: 90 * time.Minute},
	{MaxLead: 48 * time.Hour, Anchor: AnchorDue, Offset: 2 * time.Hour},
	{MaxLead: 72 * time.Hour, Anchor: AnchorCreated, Offset: 16 * time.Hour},
	{Anchor: AnchorDue, Offset: -48 * time.Hour},
}

// DefaultPolicy returns the production tiers.
func DefaultPolicy() *Policy {
	tiers := make([]Tier, len(defaultTiers))
	copy(tiers, defaultTiers)
	return &Policy{tiers: tiers}
}

// NewPolicy validates tiers and builds a Policy. An empty slice yields the default policy.
func NewPolicy(tiers []Tier) (*Policy, error) {
	if len(tiers) == 0 {
		return DefaultPolicy(), nil
	}

	var prev time.Duration
	for i, t := range tiers {
		if t.Anchor != AnchorDue && t.Anchor != AnchorCreated {
			return nil, fmt.Errorf("expiry tier %d: unknown anchor %q", i, t.Anchor)
		}
		last := i == len(tiers)-1
		if t.MaxLead == 0 {
			if !last {
				return nil, fmt.Errorf("expiry tier %d: only the last tier may be open-ended", i)
			}
			continue
		}
		if t.MaxLead <= prev {
			return nil, fmt.Errorf("expiry tier %d: max_lead %s must be greater than %s", i, t.MaxLead, prev)
		}
		prev = t.MaxLead
	}
	if tiers[len(tiers)-1].MaxLead != 0 {
		return nil, errors.New("expiry tiers: last tier must be open-ended (max_lead 0)")
	}

	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return &Policy{tiers: out}, nil
}

// WillExpireAt returns the expiry of a job due at due and created at createdAt.
func (p *Policy) WillExpireAt(due, createdAt time.Time) time.Time {
	lead := due.Sub(createdAt)
	for _, t := range p.tiers {
		if t.MaxLead == 0 || lead <= t.MaxLead {
			return t.apply(due, createdAt)
		}
	}
	return due
}

// Tiers returns a copy of the configured tiers.
func (p *Policy) Tiers() []Tier {
	out := make([]Tier, len(p.tiers))
	copy(out, p.tiers)
	return out
}

func (t Tier) apply(due, createdAt time.Time) time.Time {
	if t.Anchor == AnchorCreated {
		return createdAt.Add(t.Offset)
	}
	return due.Add(t.Offset)
}
