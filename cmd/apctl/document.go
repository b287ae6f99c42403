package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Bill and vendor credit operations",
}

var documentVoidCmd = &cobra.Command{
	Use:   "void <tenant-id> <document-id>",
	Short: "Void a document, detaching its payments and reversing its entries",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args, "tenant id", "document id")
		if err != nil {
			return err
		}
		return withApplication(cmd, func(ctx context.Context, app *application) error {
			doc, err := app.documents.VoidDocument(ctx, ids[0], ids[1])
			if err != nil {
				return err
			}
			app.log.Info("Document voided",
				zap.String("document_id", doc.ID.String()),
				zap.String("number", doc.Number),
			)
			return nil
		})
	},
}

var adjustmentCmd = &cobra.Command{
	Use:   "adjustment",
	Short: "Vendor adjustment operations",
}

var adjustmentVoidCmd = &cobra.Command{
	Use:   "void <tenant-id> <adjustment-id>",
	Short: "Void a vendor adjustment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args, "tenant id", "adjustment id")
		if err != nil {
			return err
		}
		return withApplication(cmd, func(ctx context.Context, app *application) error {
			if err := app.adjustments.VoidVendorAdjustment(ctx, ids[0], ids[1]); err != nil {
				return err
			}
			app.log.Info("Adjustment voided", zap.String("adjustment_id", ids[1].String()))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(documentCmd, adjustmentCmd)
	documentCmd.AddCommand(documentVoidCmd)
	adjustmentCmd.AddCommand(adjustmentVoidCmd)
}
