package cli

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newBalanceCmd(s *session) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the current cash balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.open()
			if err != nil {
				return err
			}

			var balance decimal.Decimal
			if asOf == "" {
				balance, err = a.Balance.CurrentBalance(cmd.Context())
			} else {
				cutoff, perr := time.Parse(time.DateOnly, asOf)
				if perr != nil {
					return fmt.Errorf("invalid --as-of %q, expected YYYY-MM-DD", asOf)
				}
				balance, err = a.Balance.BalanceAsOf(cmd.Context(), cutoff)
			}
			if err != nil {
				return err
			}

			label := "Current balance"
			if asOf != "" {
				label = "Balance as of " + asOf
			}
			pterm.Info.Printf("%s: %s\n", label, balance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "cutoff date (YYYY-MM-DD)")
	return cmd
}
