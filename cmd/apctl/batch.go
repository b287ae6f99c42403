package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	payablesapp "github.com/erp/ledger/internal/application/payables"
	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Create, pay and void vendor payment batches",
}

var batchCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Schedule a vendor payment batch from a JSON file",
	Long: `Create a DRAFT vendor payment batch. The file holds the batch header
and its bill rows:

  {
    "tenant_id": "...",
    "payment_method_id": "check",
    "currency": "USD",
    "payment_date": "2026-03-02T00:00:00Z",
    "initial_check_number": 1001,
    "bills": [{"bill_id": "...", "vendor_id": "...", "amount": "125.50"}]
  }`,
	Example: `  apctl batch create --file batch.json
  cat batch.json | apctl batch create --file -`,
	RunE: runBatchCreate,
}

var batchPayCmd = &cobra.Command{
	Use:   "pay <tenant-id> <batch-id>",
	Short: "Run a DRAFT batch, paying every scheduled bill",
	Args:  cobra.ExactArgs(2),
	RunE:  runBatchPay,
}

var batchVoidCmd = &cobra.Command{
	Use:   "void <tenant-id> <batch-id>",
	Short: "Void a batch and every payment it produced",
	Args:  cobra.ExactArgs(2),
	RunE:  runBatchVoid,
}

var batchShowCmd = &cobra.Command{
	Use:   "show <tenant-id> <batch-id>",
	Short: "Show a batch and the outcome of each row",
	Args:  cobra.ExactArgs(2),
	RunE:  runBatchShow,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.AddCommand(batchCreateCmd, batchPayCmd, batchVoidCmd, batchShowCmd)

	batchCreateCmd.Flags().StringP("file", "f", "", "batch definition file, - for stdin")
	_ = batchCreateCmd.MarkFlagRequired("file")
	batchCreateCmd.Flags().Bool("pay", false, "run the batch right after creating it")
}

func runBatchCreate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	payNow, _ := cmd.Flags().GetBool("pay")

	params, err := readBatchParams(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	return withApplication(cmd, func(ctx context.Context, app *application) error {
		batch, err := app.batches.CreateBatch(ctx, params)
		if err != nil {
			return err
		}
		app.log.Info("Batch created",
			zap.String("batch_id", batch.ID.String()),
			zap.Int("bills", len(batch.Bills)),
			zap.String("total", batch.Total.StringFixed(2)),
		)

		if payNow {
			ctx = batchContext(ctx, batch.TenantID, batch.ID)
			app.batches.PayVendorPaymentBatch(ctx, batch.TenantID, batch.ID)
			return printBatch(ctx, cmd.OutOrStdout(), app, batch.TenantID, batch.ID)
		}
		fmt.Fprintln(cmd.OutOrStdout(), batch.ID)
		return nil
	})
}

// batchContext tags SQL and service logs of a batch run with its tenant and batch
func batchContext(ctx context.Context, tenantID, batchID uuid.UUID) context.Context {
	return logger.WithBatchID(logger.WithTenantID(ctx, tenantID.String()), batchID.String())
}

func readBatchParams(stdin io.Reader, path string) (payablesapp.CreateBatchParams, error) {
	var params payablesapp.CreateBatchParams

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return params, fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil {
		return params, fmt.Errorf("failed to parse batch file: %w", err)
	}
	return params, nil
}

func runBatchPay(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args, "tenant id", "batch id")
	if err != nil {
		return err
	}

	return withApplication(cmd, func(ctx context.Context, app *application) error {
		// failures are recorded on the batch rows, not returned
		app.batches.PayVendorPaymentBatch(batchContext(ctx, ids[0], ids[1]), ids[0], ids[1])
		return printBatch(ctx, cmd.OutOrStdout(), app, ids[0], ids[1])
	})
}

func runBatchVoid(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args, "tenant id", "batch id")
	if err != nil {
		return err
	}

	return withApplication(cmd, func(ctx context.Context, app *application) error {
		if err := app.batches.VoidVendorPaymentBatch(batchContext(ctx, ids[0], ids[1]), ids[0], ids[1]); err != nil {
			return err
		}
		return printBatch(ctx, cmd.OutOrStdout(), app, ids[0], ids[1])
	})
}

func runBatchShow(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args, "tenant id", "batch id")
	if err != nil {
		return err
	}

	return withApplication(cmd, func(ctx context.Context, app *application) error {
		return printBatch(ctx, cmd.OutOrStdout(), app, ids[0], ids[1])
	})
}

func printBatch(ctx context.Context, out io.Writer, app *application, tenantID, batchID uuid.UUID) error {
	batch, err := persistence.NewGormBatchRepository(app.db.DB).FindByIDForTenant(ctx, tenantID, batchID)
	if err != nil {
		return fmt.Errorf("failed to load batch %s: %w", batchID, err)
	}
	writeBatch(out, batch)
	return nil
}

func writeBatch(out io.Writer, batch *payables.VendorPaymentBatch) {
	fmt.Fprintf(out, "Batch %s  %s  %s %s  method=%s\n",
		batch.ID, batch.Status, batch.Total.StringFixed(2), batch.Currency, batch.PaymentMethodID)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BILL\tVENDOR\tAMOUNT\tPAYMENT\tCHECK\tERROR")
	for _, bill := range batch.Bills {
		paymentID, check, errMsg := "-", "-", ""
		if bill.PaymentID != nil {
			paymentID = bill.PaymentID.String()
		}
		if bill.CheckNumber != nil {
			check = fmt.Sprintf("%d", *bill.CheckNumber)
		}
		if bill.Error != nil {
			errMsg = *bill.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			bill.BillID, bill.VendorID, bill.Amount.StringFixed(2), paymentID, check, errMsg)
	}
	_ = w.Flush()
}
