package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Prathap331/SB-Next/internal/payments"
	"github.com/Prathap331/SB-Next/internal/pricing"
)

// createPricingCommand creates the pricing command.
func createPricingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricing",
		Short: "List plans, or start a checkout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("checkout")
			if name == "" {
				printPlans(cmd.OutOrStdout(), pricing.Plans())
				return nil
			}

			plan, ok := pricing.Find(name)
			if !ok {
				return fmt.Errorf("unknown plan %q", name)
			}
			amount, _ := cmd.Flags().GetInt("amount")
			if amount <= 0 {
				return fmt.Errorf("--amount must be positive, got %d", amount)
			}

			ctx, stop := interruptible(cmd)
			defer stop()

			ctx, a, err := openApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			order, err := a.Checkout.CreateOrder(ctx, amount, plan.Tier())
			if err != nil {
				return fmt.Errorf("checkout failed: %w", err)
			}
			_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
				"Order %s created for %s: %d.%02d %s (key %s)\n",
				order.OrderID, plan.Name, order.Amount/100, order.Amount%100, order.Currency, order.KeyID)
			return nil
		},
	}
	cmd.Flags().String("checkout", "", "Plan to create a payment order for")
	cmd.Flags().Int("amount", 0, "Order amount in "+payments.Currency)
	return cmd
}

func printPlans(w io.Writer, plans []pricing.Plan) {
	name := color.New(color.Bold)
	for _, plan := range plans {
		_, _ = name.Fprintf(w, "%s  %s %s", plan.Name, plan.Price, plan.Period)
		if plan.Popular {
			_, _ = color.New(color.FgMagenta).Fprint(w, "  (most popular)")
		}
		_, _ = fmt.Fprintf(w, "\n  %s\n", plan.Description)
		for _, feature := range plan.Features {
			_, _ = color.New(color.FgGreen).Fprintf(w, "  + %s\n", feature)
		}
		for _, limitation := range plan.Limitations {
			_, _ = color.New(color.Faint).Fprintf(w, "  - %s\n", limitation)
		}
		_, _ = fmt.Fprintln(w, strings.Repeat("-", 40))
	}
}
