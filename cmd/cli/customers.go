package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iho/stripe-datev/internal/adapter/datev"
	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/usecase"
)

func validateCustomersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-customers",
		Short: "Check that every customer can be classified for tax",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.customerUseCase().ValidateCustomers(cmd.Context())
			if err != nil {
				return err
			}
			logDiagnostics(a.logger, result.Diagnostics)
			fmt.Fprintf(cmd.OutOrStdout(), "Validated %d customer(s), %d finding(s)\n",
				result.Validated, len(result.Diagnostics))
			return nil
		},
	}
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-accounts [file]",
		Short: "Write the personal accounts of all customers as a DATEV file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			customers, err := a.customerUseCase().ListAccounts(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("create %s: %w", args[0], err)
				}
				defer f.Close()
				out = f
			}

			writer := datev.NewWriter(datev.Client{
				BeraterNr:   a.book.Datev.BeraterNr,
				MandantenNr: a.book.Datev.Client(),
			}, a.loc)
			return writer.WriteAccounts(out, toDatevAccounts(customers))
		},
	}
}

// toDatevAccounts keeps the customers that carry a personal account number.
func toDatevAccounts(customers []domain.Customer) []datev.Account {
	accounts := make([]datev.Account, 0, len(customers))
	for i := range customers {
		cus := &customers[i]
		number := cus.AccountNumber()
		if number == "" || cus.Deleted {
			continue
		}
		accounts = append(accounts, datev.Account{
			Number:  number,
			Name:    cus.DisplayName(),
			VATID:   usecase.CustomerVATID(cus),
			Address: cus.Address,
			Email:   cus.Email,
		})
	}
	return accounts
}

func fillAccountNumbersCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "fill-account-numbers",
		Short: "Assign personal account numbers to new customers",
		Long:  `Plans account numbers for customers created after the newest numbered one. Nothing is stored unless --apply is given.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			plan, err := a.customerUseCase().FillAccountNumbers(cmd.Context(), apply)
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), plan, apply)
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Store the planned account numbers in Stripe")
	return cmd
}

func printPlan(out io.Writer, plan *usecase.AccountPlan, applied bool) {
	fmt.Fprintf(out, "%d customers without account number, highest number is %d\n",
		len(plan.Assignments), plan.Highest)
	for _, as := range plan.Assignments {
		fmt.Fprintf(out, "%s %s\n", as.CustomerID, as.AccountNumber)
	}
	if !applied && len(plan.Assignments) > 0 {
		fmt.Fprintln(out, "dry run, rerun with --apply to store the numbers")
	}
}
