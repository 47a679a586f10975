package models

import (
	"fmt"
	"strings"
)

// Phase is the lifecycle portion of a subscription status.
type Phase string

const (
	PhaseActive  Phase = "active"
	PhaseGrace   Phase = "grace"
	PhaseExpired Phase = "expired"
)

// SubscriptionStatus is a {tier, phase} pair. The tier is the plan name
// ("trial", "basic", ...). It serializes to the legacy "<tier>_<phase>"
// string at the persistence and JSON boundary.
type SubscriptionStatus struct {
	Tier  string
	Phase Phase
}

func NewStatus(tier string, phase Phase) SubscriptionStatus {
	return SubscriptionStatus{Tier: tier, Phase: phase}
}

// ParseStatus parses the legacy string form, e.g. "basic_grace".
// The tier itself may contain underscores; the phase is the last segment.
func ParseStatus(s string) (SubscriptionStatus, error) {
	idx := strings.LastIndex(s, "_")
	if idx <= 0 || idx == len(s)-1 {
		return SubscriptionStatus{}, fmt.Errorf("invalid subscription status %q", s)
	}
	tier, phase := s[:idx], Phase(s[idx+1:])
	switch phase {
	case PhaseActive, PhaseGrace, PhaseExpired:
		return SubscriptionStatus{Tier: tier, Phase: phase}, nil
	default:
		return SubscriptionStatus{}, fmt.Errorf("invalid subscription status phase %q", s)
	}
}

func (s SubscriptionStatus) String() string {
	return s.Tier + "_" + string(s.Phase)
}

func (s SubscriptionStatus) IsActive() bool {
	return s.Phase == PhaseActive || s.Phase == PhaseGrace
}

func (s SubscriptionStatus) IsExpired() bool {
	return s.Phase == PhaseExpired
}

func (s SubscriptionStatus) IsInGracePeriod() bool {
	return s.Phase == PhaseGrace
}

func (s SubscriptionStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *SubscriptionStatus) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
