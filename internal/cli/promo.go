package cli

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/imrishuroy/go-furniture-workshop/internal/promotion"
)

func newPromoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promo",
		Short: "Manage promotion codes",
	}
	cmd.AddCommand(newPromoCreateCmd(a), newPromoActiveCmd(a, false), newPromoActiveCmd(a, true), newPromoShowCmd(a))
	return cmd
}

type promoCreateFlags struct {
	code        string
	description string
	typ         string
	value       string
	start       string
	end         string
	days        int
	maxUsage    int
	category    string
	minPurchase string
	inactive    bool
}

func newPromoCreateCmd(a *app) *cobra.Command {
	var f promoCreateFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a promotion code",
		Long: `Create a promotion code. Dates are RFC3339; without --start the promotion
starts now, and without --end it runs for --days days.

Types:
- percentage: --value percent off the subtotal
- fixed: --value off the subtotal, never more than the subtotal
- free_delivery: the delivery fee is waived
- first_time: --value percent off for first-time buyers only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input(time.Now().UTC())
			if err != nil {
				return err
			}
			b, err := a.get(cmd.Context())
			if err != nil {
				return err
			}
			p, err := b.Promotions.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.code, "code", "", "Promotion code (stored upper-case)")
	fl.StringVar(&f.description, "description", "", "Shown to customers")
	fl.StringVar(&f.typ, "type", "percentage", "percentage|fixed|free_delivery|first_time")
	fl.StringVar(&f.value, "value", "0", "Percent or amount, depending on --type")
	fl.StringVar(&f.start, "start", "", "Start of the validity window (RFC3339)")
	fl.StringVar(&f.end, "end", "", "End of the validity window (RFC3339)")
	fl.IntVar(&f.days, "days", 30, "Window length when --end is not given")
	fl.IntVar(&f.maxUsage, "max-usage", 0, "Total redemptions allowed, 0 for unlimited")
	fl.StringVar(&f.category, "category", "", "Restrict to orders containing this category")
	fl.StringVar(&f.minPurchase, "min-purchase", "", "Minimum subtotal")
	fl.BoolVar(&f.inactive, "inactive", false, "Create with the kill switch off")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func (f promoCreateFlags) input(now time.Time) (promotion.CreateInput, error) {
	value, err := decimal.NewFromString(f.value)
	if err != nil {
		return promotion.CreateInput{}, flagError("value", err)
	}
	start := now
	if f.start != "" {
		if start, err = time.Parse(time.RFC3339, f.start); err != nil {
			return promotion.CreateInput{}, flagError("start", err)
		}
	}
	end := start.AddDate(0, 0, f.days)
	if f.end != "" {
		if end, err = time.Parse(time.RFC3339, f.end); err != nil {
			return promotion.CreateInput{}, flagError("end", err)
		}
	}
	active := !f.inactive
	in := promotion.CreateInput{
		Code:        f.code,
		Description: f.description,
		Type:        f.typ,
		Value:       value,
		StartDate:   start,
		EndDate:     end,
		Active:      &active,
		CategoryID:  f.category,
	}
	if f.maxUsage > 0 {
		n := f.maxUsage
		in.MaxUsage = &n
	}
	if f.minPurchase != "" {
		m, err := decimal.NewFromString(f.minPurchase)
		if err != nil {
			return promotion.CreateInput{}, flagError("min-purchase", err)
		}
		in.MinPurchaseAmount = &m
	}
	return in, nil
}

func newPromoActiveCmd(a *app, active bool) *cobra.Command {
	use, short := "disable CODE", "Turn a promotion's kill switch off"
	if active {
		use, short = "enable CODE", "Turn a promotion back on"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.get(cmd.Context())
			if err != nil {
				return err
			}
			p, err := b.Promotions.SetActive(cmd.Context(), args[0], active)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newPromoShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show CODE",
		Short: "Print a promotion with its usage count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.get(cmd.Context())
			if err != nil {
				return err
			}
			p, err := b.Promotions.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}
