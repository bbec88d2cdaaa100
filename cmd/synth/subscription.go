package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/spf13/cobra"
)

func newSubscriptionCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscription",
		Aliases: []string{"sub"},
		Short:   "Show or change your plan",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show your plan and usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}
			status, err := c.client.SubscriptionStatus(cmd.Context())
			if err != nil {
				return userError(err)
			}

			c.printf("Plan: %s\n", headerStyle.Render(string(status.Tier)))
			remaining := status.DecksRemaining()
			if remaining == domain.Unlimited {
				c.printf("Decks: %d (unlimited)\n", status.Usage.CurrentDecks)
			} else {
				c.printf("Decks: %d of %d (%d remaining)\n",
					status.Usage.CurrentDecks, status.Limits.MaxDecks, remaining)
			}
			if !status.CanCreateDeck {
				c.println(errorStyle.Render("Deck limit reached, see `synth subscription pricing`"))
			}
			return nil
		},
	}

	pricingCmd := &cobra.Command{
		Use:   "pricing",
		Short: "Show the available plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Pricing is public; a saved session is used when present.
			_ = c.requireLogin(cmd.Context())

			pricing, err := c.client.Pricing(cmd.Context())
			if err != nil {
				return userError(err)
			}

			tiers := make([]domain.SubscriptionTier, 0, len(pricing.Tiers))
			for tier := range pricing.Tiers {
				tiers = append(tiers, tier)
			}
			sort.Slice(tiers, func(i, j int) bool {
				return pricing.Tiers[tiers[i]].Price < pricing.Tiers[tiers[j]].Price
			})

			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PLAN\tPRICE\tDECKS\tCARDS/DECK\tFEATURES\t")
			for _, tier := range tiers {
				p := pricing.Tiers[tier]
				fmt.Fprintf(tw, "%s\t$%.2f\t%s\t%s\t%s\t\n",
					tier, p.Price, limitText(p.MaxDecks), limitText(p.MaxCardsPerDeck), strings.Join(p.Features, ", "))
			}
			return tw.Flush()
		},
	}

	upgradeCmd := &cobra.Command{
		Use:   "upgrade <FREE|BASIC|PRO>",
		Short: "Change your plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := domain.ParseTier(args[0])
			if err != nil {
				return fmt.Errorf("unknown plan %q, choose FREE, BASIC or PRO", args[0])
			}
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}
			result, err := c.client.Upgrade(cmd.Context(), tier)
			if err != nil {
				return userError(err)
			}
			msg := result.Message
			if msg == "" {
				msg = "Plan changed to " + string(result.NewTier)
			}
			c.println(msg)
			return nil
		},
	}

	cmd.AddCommand(statusCmd, pricingCmd, upgradeCmd)
	return cmd
}

func limitText(l domain.Limit) string {
	if int(l) == domain.Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", int(l))
}
