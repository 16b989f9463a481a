package cli

import (
	"fmt"
	"time"

	"pettycash/internal/services"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newSeedCmd(s *session) *cobra.Command {
	var (
		as       string
		from     string
		months   int
		perMonth int
		float    string
		seed     uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the ledger with demo history",
		Long:  `Create demo categories, a monthly float income and a mix of approved, pending and draft expenditures.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse("2006-01", from)
			if err != nil {
				return fmt.Errorf("invalid --from %q, expected YYYY-MM", from)
			}
			amount, err := decimal.NewFromString(float)
			if err != nil {
				return fmt.Errorf("invalid --float %q", float)
			}

			a, err := s.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			actor, err := actingUser(ctx, a.Auth, as)
			if err != nil {
				return err
			}

			seeder := services.NewLedgerSeeder(a.Transactions, a.Approvals, a.Categories, seed)
			summary, err := seeder.Seed(ctx, services.SeedOptions{
				Start:                start,
				Months:               months,
				ExpendituresPerMonth: perMonth,
				MonthlyFloat:         amount,
			}, actor)
			if err != nil {
				return err
			}

			pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
				{"Categories", "Incomes", "Expenditures", "Approved", "Pending", "Drafts"},
				{
					fmt.Sprint(summary.Categories),
					fmt.Sprint(summary.Incomes),
					fmt.Sprint(summary.Expenditures),
					fmt.Sprint(summary.Approved),
					fmt.Sprint(summary.Pending),
					fmt.Sprint(summary.Drafts),
				},
			}).Render()
			pterm.Success.Println("Demo data created")
			return nil
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "approver recording the demo data")
	cmd.Flags().StringVar(&from, "from", time.Now().AddDate(0, -2, 0).Format("2006-01"), "first month (YYYY-MM)")
	cmd.Flags().IntVar(&months, "months", 3, "number of months")
	cmd.Flags().IntVar(&perMonth, "per-month", 8, "expenditures per month")
	cmd.Flags().StringVar(&float, "float", "50000", "income recorded on the first of each month")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, 0 picks one")
	return cmd
}
