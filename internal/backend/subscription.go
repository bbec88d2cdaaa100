package backend

import (
	"context"
	"net/http"

	"github.com/phrazzld/synth-study/internal/domain"
)

// SubscriptionStatus returns the account's tier, limits and usage.
func (c *Client) SubscriptionStatus(ctx context.Context) (*domain.SubscriptionStatus, error) {
	var status domain.SubscriptionStatus
	if err := c.do(ctx, call{method: http.MethodGet, path: "/subscription/status"}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CanCreateDeck asks whether the account may create another deck.
func (c *Client) CanCreateDeck(ctx context.Context) (*domain.DeckAllowance, error) {
	var allowance domain.DeckAllowance
	if err := c.do(ctx, call{method: http.MethodGet, path: "/subscription/can-create-deck"}, &allowance); err != nil {
		return nil, err
	}
	return &allowance, nil
}

// Pricing returns the pricing table. It works with or without a login.
func (c *Client) Pricing(ctx context.Context) (*domain.Pricing, error) {
	var pricing domain.Pricing
	cl := call{method: http.MethodGet, path: "/subscription/pricing", optionalAuth: true}
	if err := c.do(ctx, cl, &pricing); err != nil {
		return nil, err
	}
	return &pricing, nil
}

// Upgrade moves the account to tier.
func (c *Client) Upgrade(ctx context.Context, tier domain.SubscriptionTier) (*domain.UpgradeResult, error) {
	if _, err := domain.ParseTier(string(tier)); err != nil {
		return nil, domain.NewValidationError("tier", "must be FREE, BASIC or PRO", err)
	}
	cl, err := jsonCall(http.MethodPost, "/subscription/upgrade", map[string]string{"tier": string(tier)})
	if err != nil {
		return nil, err
	}

	var result domain.UpgradeResult
	if err := c.do(ctx, cl, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
