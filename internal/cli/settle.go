package cli

import (
	"fmt"
	"time"

	"pettycash/internal/models"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newSettleCmd(s *session) *cobra.Command {
	var (
		year, month int
		as          string
		yes         bool
	)

	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Carry a month's closing balance forward",
		Long:  `Record the month-end balance as the opening entry of the next month. Settled periods can no longer be edited.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 || month == 0 {
				return fmt.Errorf("--year and --month are required")
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

			if !yes {
				period := models.SettlementPeriodKey(year, month)
				pterm.Warning.Printf("Settling %s closes it for edits.\n", period)
				ok, err := promptConfirm(fmt.Sprintf("Settle %s as %s?", period, actor.Username))
				if err != nil {
					return err
				}
				if !ok {
					pterm.Info.Println("Settlement cancelled")
					return nil
				}
			}

			txn, err := a.Settlements.Settle(ctx, year, month, actor)
			if err != nil {
				return err
			}

			pterm.DefaultTable.WithData(pterm.TableData{
				{"ID", txn.ID.String()},
				{"Period", *txn.SettlementPeriod},
				{"Date", txn.TransactionDate.Format(time.DateOnly)},
				{"Amount", txn.TotalAmount.StringFixed(2)},
			}).Render()
			pterm.Success.Println("Period settled")
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year of the month to settle")
	cmd.Flags().IntVar(&month, "month", 0, "month to settle (1-12)")
	cmd.Flags().StringVar(&as, "as", "", "approver performing the settlement")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
