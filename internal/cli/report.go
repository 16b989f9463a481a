package cli

import (
	"fmt"
	"os"

	"pettycash/internal/models"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newReportCmd(s *session) *cobra.Command {
	var (
		year, month int
		as          string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show a month's approved spend by category",
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

			report, err := a.Reports.ExpenseByCategory(ctx, year, month, actor)
			if err != nil {
				return err
			}

			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				if err := report.WriteXLSX(f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				pterm.Success.Printf("Report written to %s\n", output)
				return nil
			}

			period := models.SettlementPeriodKey(year, month)
			if len(report.Rows) == 0 {
				pterm.Info.Printf("No approved expenditures in %s\n", period)
				return nil
			}

			tableData := pterm.TableData{{"Category", "Amount", "Share"}}
			for _, row := range report.Rows {
				tableData = append(tableData, []string{row.CategoryName, row.Amount.StringFixed(2), row.Percentage})
			}
			pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
			pterm.Info.Printf("Total for %s: %s\n", period, report.Total.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "report year")
	cmd.Flags().IntVar(&month, "month", 0, "report month (1-12)")
	cmd.Flags().StringVar(&as, "as", "", "approver requesting the report")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write an .xlsx workbook instead of printing")
	return cmd
}
