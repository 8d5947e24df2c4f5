package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/afyadata/medsupply_backend/config"
	"bitbucket.org/afyadata/medsupply_backend/models"
	"bitbucket.org/afyadata/medsupply_backend/workflow"
)

// One-off ops tool: recompute invoice paid amounts/balances/statuses from
// payment allocations for one company. Run with -fix to write corrections;
// without it the tool only reports drift.
func main() {
	companyID := flag.String("company-id", "", "Company to reconcile (required).")
	fix := flag.Bool("fix", false, "Write corrections back; default is report-only.")
	verbose := flag.Bool("verbose", false, "Print every invoice, not just mismatches.")
	flag.Parse()

	if strings.TrimSpace(*companyID) == "" {
		fmt.Fprintln(os.Stderr, "-company-id is required")
		os.Exit(1)
	}

	ctx := context.Background()
	// Explicit DB connect (config no longer connects DB in init()).
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	repo := models.NewRepository(db)
	reconciler := workflow.NewBalanceReconciler(repo, repo, config.GetLogger())

	summary, err := reconciler.ReconcileAllInvoiceBalances(ctx, strings.TrimSpace(*companyID), *fix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconciliation failed: %v\n", err)
		os.Exit(1)
	}

	for _, result := range summary.Results {
		if result.Status == workflow.ReconciliationStatusMatched && !*verbose {
			continue
		}
		line := fmt.Sprintf("%s (id=%d): %s paid %s->%s balance %s->%s status %s->%s",
			result.InvoiceNumber, result.InvoiceId, result.Status,
			result.StoredPaidAmount, result.CalculatedPaidAmount,
			result.StoredBalance, result.CalculatedBalance,
			result.ActualStatus, result.ExpectedStatus,
		)
		if result.Fixed {
			line += " [fixed]"
		}
		if result.Error != "" {
			line += " [fix failed: " + result.Error + "]"
		}
		fmt.Println(line)
	}
	for _, e := range summary.Errors {
		fmt.Fprintln(os.Stderr, e)
	}

	fmt.Printf("total=%d matched=%d mismatched=%d fixed=%d errors=%d\n",
		summary.Total, summary.Matched, summary.Mismatched, summary.Fixed, len(summary.Errors))
}
