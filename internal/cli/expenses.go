package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tripdeck/internal/budget"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

func newExpensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Manage the expense ledger",
	}
	cmd.AddCommand(newExpensesListCmd(), newExpensesAddCmd(), newExpensesRmCmd())
	return cmd
}

func newExpensesListCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses with per-currency totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			all, err := a.expenses.List(cmd.Context())
			if err != nil {
				return err
			}
			list := make([]types.Expense, 0, len(all))
			for _, e := range all {
				if date == "" || e.Date == date {
					list = append(list, e)
				}
			}
			summary := budget.Summarize(list, date)
			if flags.jsonMode {
				return printJSON(cmd, map[string]any{"expenses": list, "summary": summary})
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTITLE\tMETHOD\tAMOUNT\tREFUND\tID")
			for _, e := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.Date, e.Title, e.PaymentMethod, budget.Format(e.Amount, e.Currency), e.TaxRefund, e.ID)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			totals := make([]string, 0, len(summary.Totals))
			for _, t := range summary.Totals {
				totals = append(totals, t.Display)
			}
			if len(totals) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\ntotal: %s\n", strings.Join(totals, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "only expenses of this date (YYYY-MM-DD)")
	return cmd
}

func newExpensesAddCmd() *cobra.Command {
	var (
		e      types.Expense
		amount string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := decimal.NewFromString(strings.TrimSpace(amount))
			if err != nil {
				return userError("invalid amount %q", amount)
			}
			e.Amount = d

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			id, err := a.expenses.Put(cmd.Context(), e)
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd, map[string]string{"id": id})
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&e.Title, "title", "", "what was paid for")
	fs.StringVar(&e.Date, "date", "", "date (YYYY-MM-DD)")
	fs.StringVar(&e.PaymentMethod, "method", types.PaymentCard, "card, cash or mobile")
	fs.StringVar(&amount, "amount", "", "amount in major units, e.g. 12.50")
	fs.StringVar(&e.Currency, "currency", "KRW", "ISO 4217 currency code")
	fs.StringVar(&e.TaxRefund, "refund", types.TaxRefundNone, "tax refund state: refunded, pending or none")
	return cmd
}

func newExpensesRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()
			return a.expenses.Delete(cmd.Context(), args[0])
		},
	}
}
