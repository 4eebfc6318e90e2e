package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iho/stripe-datev/internal/domain"
)

var configFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if src := domain.SourceOf(err); src != "" {
			fmt.Fprintf(os.Stderr, "error: %v (source %s)\n", err, src)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stripe-datev",
		Short:         "Stripe to DATEV export",
		Long:          `Exports Stripe invoices, charges, transfers and payouts as DATEV booking files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to the book configuration (overrides CONFIG_FILE)")

	rootCmd.AddCommand(
		downloadCmd(),
		validateCustomersCmd(),
		listAccountsCmd(),
		fillAccountNumbersCmd(),
		oposCmd(),
	)
	return rootCmd
}
