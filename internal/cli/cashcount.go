package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newCashCountCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cashcount",
		Short: "Inspect physical cash counts",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent cash counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.open()
			if err != nil {
				return err
			}

			counts, total, err := a.CashCounts.List(cmd.Context(), 0, limit)
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				pterm.Info.Println("No cash counts recorded")
				return nil
			}

			tableData := pterm.TableData{{"ID", "Counted At", "Counted", "System", "Difference"}}
			for _, count := range counts {
				tableData = append(tableData, []string{
					count.ID.String(),
					count.CountedAt.Format(time.DateTime),
					count.CountedTotal.StringFixed(2),
					count.SystemBalance.StringFixed(2),
					count.Difference.StringFixed(2),
				})
			}
			pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
			pterm.Info.Printf("Total: %d cash counts\n", total)
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to show")

	var (
		as  string
		yes bool
	)
	deleteCmd := &cobra.Command{
		Use:   "delete <cash-count-id>",
		Short: "Delete a cash count",
		Long:  `Delete a cash count and its denomination lines. This action cannot be undone.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid cash count ID: %s", args[0])
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

			count, err := a.CashCounts.Get(ctx, id)
			if err != nil {
				return err
			}

			if !yes {
				pterm.Warning.Printf("About to delete cash count %s:\n", count.ID)
				pterm.DefaultTable.WithData(pterm.TableData{
					{"Counted At", count.CountedAt.Format(time.DateTime)},
					{"Counted", count.CountedTotal.StringFixed(2)},
					{"Difference", count.Difference.StringFixed(2)},
				}).Render()
				ok, err := promptConfirm("Do you want to delete this cash count?")
				if err != nil {
					return err
				}
				if !ok {
					pterm.Info.Println("Deletion cancelled")
					return nil
				}
			}

			if err := a.CashCounts.Delete(ctx, id, actor); err != nil {
				return err
			}
			pterm.Success.Printf("Cash count %s deleted\n", id)
			return nil
		},
	}
	deleteCmd.Flags().StringVar(&as, "as", "", "approver performing the deletion")
	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	cmd.AddCommand(listCmd, deleteCmd)
	return cmd
}
