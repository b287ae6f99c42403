package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Vendor payment operations",
}

var paymentVoidCmd = &cobra.Command{
	Use:   "void <tenant-id> <payment-id>",
	Short: "Void a vendor payment and reverse its ledger entries",
	Args:  cobra.ExactArgs(2),
	RunE:  runPaymentVoid,
}

var paymentMethodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List the configured payment methods",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		registry, err := paymentMethods(cfg.Payment)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(registry.Names(), "\n"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(paymentCmd)
	paymentCmd.AddCommand(paymentVoidCmd, paymentMethodsCmd)
}

func runPaymentVoid(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args, "tenant id", "payment id")
	if err != nil {
		return err
	}

	return withApplication(cmd, func(ctx context.Context, app *application) error {
		if err := app.payments.VoidVendorPayment(ctx, ids[0], ids[1]); err != nil {
			return err
		}
		app.log.Info("Payment voided", zap.String("payment_id", ids[1].String()))
		return nil
	})
}
