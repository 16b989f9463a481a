package cli

import (
	"fmt"
	"os"
	"time"

	"pettycash/internal/models"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newInvoicesCmd(s *session) *cobra.Command {
	var (
		year, month int
		output      string
	)

	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Show a month's invoice register grouped by invoice type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}

			a, err := s.open()
			if err != nil {
				return err
			}

			register, err := a.Invoices.MonthlyRegister(cmd.Context(), year, month)
			if err != nil {
				return err
			}

			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				if err := register.WriteXLSX(f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				pterm.Success.Printf("Invoice register written to %s\n", output)
				return nil
			}

			period := models.SettlementPeriodKey(year, month)
			if register.Count == 0 {
				pterm.Info.Printf("No invoices in %s\n", period)
				return nil
			}

			tableData := pterm.TableData{{"Type", "Number", "Date", "Vendor", "Sales", "Tax", "Total"}}
			for _, group := range register.Groups {
				for _, invoice := range group.Invoices {
					tableData = append(tableData, []string{
						group.Type.Label(),
						invoice.FullNumber(),
						invoice.InvoiceDate.Format(time.DateOnly),
						invoice.VendorName,
						invoice.SalesAmount.StringFixed(2),
						invoice.TaxAmount.StringFixed(2),
						invoice.TotalAmount.StringFixed(2),
					})
				}
				tableData = append(tableData, []string{group.Type.Label() + " subtotal", "", "", "",
					group.Sales.StringFixed(2), group.Tax.StringFixed(2), group.Total.StringFixed(2)})
			}
			pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
			pterm.Info.Printf("%d invoices in %s, total %s\n", register.Count, period, register.Total.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "register year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "register month 1-12 (default current)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write an .xlsx workbook instead of printing")
	return cmd
}
