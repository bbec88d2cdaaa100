package domain

import (
	"encoding/json"
	"strings"
)

// SubscriptionTier is the account plan.
type SubscriptionTier string

// Subscription tiers.
const (
	TierFree  SubscriptionTier = "FREE"
	TierBasic SubscriptionTier = "BASIC"
	TierPro   SubscriptionTier = "PRO"
)

// Unlimited is the sentinel the backend uses for "no limit".
const Unlimited = -1

// ParseTier converts s (case-insensitive) into a SubscriptionTier.
func ParseTier(s string) (SubscriptionTier, error) {
	switch SubscriptionTier(strings.ToUpper(strings.TrimSpace(s))) {
	case TierFree:
		return TierFree, nil
	case TierBasic:
		return TierBasic, nil
	case TierPro:
		return TierPro, nil
	default:
		return "", ErrInvalidTier
	}
}

// SubscriptionLimits are the quotas attached to a tier.
type SubscriptionLimits struct {
	MaxDecks            int  `json:"maxDecks"`
	MaxCardsPerDeck     int  `json:"maxCardsPerDeck"`
	HasAdvancedFeatures bool `json:"hasAdvancedFeatures"`
}

// SubscriptionUsage is the account's current consumption.
type SubscriptionUsage struct {
	CurrentDecks int `json:"currentDecks"`
}

// SubscriptionStatus is the settings page view of an account's plan.
type SubscriptionStatus struct {
	Tier          SubscriptionTier   `json:"tier"`
	Limits        SubscriptionLimits `json:"limits"`
	Usage         SubscriptionUsage  `json:"usage"`
	CanCreateDeck bool               `json:"canCreateDeck"`
}

// DecksRemaining returns how many more decks may be created, or Unlimited.
func (s *SubscriptionStatus) DecksRemaining() int {
	if s.Limits.MaxDecks == Unlimited {
		return Unlimited
	}
	remaining := s.Limits.MaxDecks - s.Usage.CurrentDecks
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DeckAllowance is the answer to "may I create another deck?".
type DeckAllowance struct {
	CanCreate   bool             `json:"canCreate"`
	Reason      string           `json:"reason,omitempty"`
	Message     string           `json:"message"`
	CurrentTier SubscriptionTier `json:"currentTier,omitempty"`
	MaxDecks    int              `json:"maxDecks,omitempty"`
}

// Limit is a quota that the pricing endpoint reports either as a number or
// as the string "unlimited".
type Limit int

// UnmarshalJSON accepts a number or the string "unlimited".
func (l *Limit) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*l = Limit(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidFormat
	}
	if strings.EqualFold(s, "unlimited") {
		*l = Limit(Unlimited)
		return nil
	}
	return ErrInvalidFormat
}

// MarshalJSON emits "unlimited" for Unlimited and the number otherwise.
func (l Limit) MarshalJSON() ([]byte, error) {
	if int(l) == Unlimited {
		return json.Marshal("unlimited")
	}
	return json.Marshal(int(l))
}

// TierPricing is one row of the pricing table.
type TierPricing struct {
	Price           float64  `json:"price"`
	MaxDecks        Limit    `json:"maxDecks"`
	MaxCardsPerDeck Limit    `json:"maxCardsPerDeck"`
	Features        []string `json:"features"`
}

// Pricing is the full pricing table keyed by tier.
type Pricing struct {
	Tiers map[SubscriptionTier]TierPricing `json:"tiers"`
}

// UpgradeResult is returned after changing tier.
type UpgradeResult struct {
	Message string           `json:"message"`
	NewTier SubscriptionTier `json:"newTier"`
}
