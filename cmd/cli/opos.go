package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/stripe-datev/internal/usecase"
)

func oposCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "opos [yyyy mm dd]",
		Short: "List unpaid invoices, now or as of the end of a given day",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 3 {
				return fmt.Errorf("expected no arguments or yyyy mm dd, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ref, openOnly, err := oposReference(args, time.Now(), a.loc)
			if err != nil {
				return err
			}

			invoices, err := a.stripe.FetchOpenInvoices(cmd.Context(), ref, openOnly)
			if err != nil {
				return err
			}
			report, err := usecase.OpenItems(invoices, a.stripe, ref)
			if err != nil {
				return err
			}
			printOpenItems(cmd.OutOrStdout(), report, a.loc)
			return nil
		},
	}
}

// oposReference resolves the reference instant. A given day means its last
// second in loc, checked against invoice history; no day means now, listing
// only currently open invoices.
func oposReference(args []string, now time.Time, loc *time.Location) (time.Time, bool, error) {
	if len(args) == 0 {
		return now.In(loc), true, nil
	}

	parts := make([]int, 3)
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid date part %q", arg)
		}
		parts[i] = n
	}
	day := time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, loc)
	if day.Year() != parts[0] || int(day.Month()) != parts[1] || day.Day() != parts[2] {
		return time.Time{}, false, fmt.Errorf("invalid date %s-%s-%s", args[0], args[1], args[2])
	}
	return day.AddDate(0, 0, 1).Add(-time.Second), false, nil
}

func printOpenItems(out io.Writer, report *usecase.OpenItemsReport, loc *time.Location) {
	fmt.Fprintf(out, "Unpaid invoices as of %s\n", report.Ref.In(loc).Format(time.RFC3339))
	for _, item := range report.Items {
		overdue := ""
		if item.OverdueDays > 0 {
			overdue = fmt.Sprintf("(%d overdue)", item.OverdueDays)
		}
		fmt.Fprintf(out, "%-13s %10s EUR %-35s due %s %s\n",
			item.Number,
			item.Total.StringFixed(2),
			item.Email,
			item.DueDate.In(loc).Format(time.DateOnly),
			overdue,
		)
	}
	fmt.Fprintf(out, "TOTAL         %10s EUR\n", report.Total.StringFixed(2))
}
