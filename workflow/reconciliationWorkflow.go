package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/afyadata/medsupply_backend/config"
	"bitbucket.org/afyadata/medsupply_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// InvoiceStore and AllocationStore are the persistence boundary of the
// reconciler. models.Repository implements both; tests use in-memory fakes.
type InvoiceStore interface {
	GetInvoiceById(ctx context.Context, invoiceId int) (*models.Invoice, error)
	GetInvoiceIdsByCompany(ctx context.Context, companyId string) ([]int, error)
	UpdateInvoiceBalances(ctx context.Context, invoiceId int, paidAmount decimal.Decimal, balanceDue decimal.Decimal, status models.InvoiceStatus) error
}

type AllocationStore interface {
	GetAllocationsByInvoiceId(ctx context.Context, invoiceId int) ([]*models.PaymentAllocation, error)
	GetInvoicePayments(ctx context.Context, invoiceId int) ([]*models.InvoicePayment, error)
}

type ReconciliationStatus string

const (
	ReconciliationStatusMatched    ReconciliationStatus = "matched"
	ReconciliationStatusMismatched ReconciliationStatus = "mismatched"
)

type ReconciliationResult struct {
	InvoiceId            int                  `json:"invoiceId"`
	InvoiceNumber        string               `json:"invoiceNumber"`
	TotalAmount          decimal.Decimal      `json:"totalAmount"`
	CalculatedPaidAmount decimal.Decimal      `json:"calculatedPaidAmount"`
	StoredPaidAmount     decimal.Decimal      `json:"storedPaidAmount"`
	CalculatedBalance    decimal.Decimal      `json:"calculatedBalance"`
	StoredBalance        decimal.Decimal      `json:"storedBalance"`
	Discrepancy          decimal.Decimal      `json:"discrepancy"`
	Status               ReconciliationStatus `json:"status"`
	ExpectedStatus       models.InvoiceStatus `json:"expectedStatus"`
	ActualStatus         models.InvoiceStatus `json:"actualStatus"`
	Fixed                bool                 `json:"fixed"`
	Error                string               `json:"error,omitempty"`
}

type ReconciliationSummary struct {
	Total      int                     `json:"total"`
	Matched    int                     `json:"matched"`
	Mismatched int                     `json:"mismatched"`
	Fixed      int                     `json:"fixed"`
	Results    []*ReconciliationResult `json:"results"`
	Errors     []string                `json:"errors"`
}

// BalanceReconciler recomputes an invoice's paid amount, balance and status
// from its payment allocations and compares against the stored fields.
// The read-then-write fix path is deliberately unguarded: a reconciliation
// racing a live payment write can overwrite it (accepted risk window).
type BalanceReconciler struct {
	invoices    InvoiceStore
	allocations AllocationStore
	logger      *logrus.Logger
}

func NewBalanceReconciler(invoices InvoiceStore, allocations AllocationStore, logger *logrus.Logger) *BalanceReconciler {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &BalanceReconciler{
		invoices:    invoices,
		allocations: allocations,
		logger:      logger,
	}
}

// expectedStatus derivation, first match wins. A fully unpaid invoice is
// reset to Draft even if it was Sent or Overdue before; status here is
// wholly payment-derived.
func expectedInvoiceStatus(calculatedBalance decimal.Decimal, calculatedPaid decimal.Decimal) models.InvoiceStatus {
	switch {
	case calculatedBalance.LessThanOrEqual(decimal.Zero) && calculatedPaid.GreaterThan(decimal.Zero):
		return models.InvoiceStatusPaid
	case calculatedPaid.GreaterThan(decimal.Zero):
		return models.InvoiceStatusPartial
	default:
		return models.InvoiceStatusDraft
	}
}

// ReconcileInvoiceBalance fetches one invoice and its allocations, recomputes
// the payment-derived fields and reports the drift. With fix set, a detected
// mismatch is written back; a write failure is recorded on the result rather
// than failing the call.
func (r *BalanceReconciler) ReconcileInvoiceBalance(ctx context.Context, invoiceId int, fix bool) (*ReconciliationResult, error) {
	invoice, err := r.invoices.GetInvoiceById(ctx, invoiceId)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile invoice %d: %w", invoiceId, err)
	}

	allocations, err := r.allocations.GetAllocationsByInvoiceId(ctx, invoiceId)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile invoice %d: %w", invoiceId, err)
	}

	calculatedPaid := decimal.Zero
	for _, allocation := range allocations {
		calculatedPaid = calculatedPaid.Add(allocation.AmountAllocated)
	}
	calculatedBalance := invoice.TotalAmount.Sub(calculatedPaid)

	expectedStatus := expectedInvoiceStatus(calculatedBalance, calculatedPaid)

	paidDiff := invoice.PaidAmount.Sub(calculatedPaid).Abs()
	balanceDiff := invoice.BalanceDue.Sub(calculatedBalance).Abs()
	mismatched := paidDiff.GreaterThan(models.CentTolerance) ||
		balanceDiff.GreaterThan(models.CentTolerance) ||
		invoice.CurrentStatus != expectedStatus

	result := &ReconciliationResult{
		InvoiceId:            invoice.ID,
		InvoiceNumber:        invoice.InvoiceNumber,
		TotalAmount:          invoice.TotalAmount,
		CalculatedPaidAmount: calculatedPaid,
		StoredPaidAmount:     invoice.PaidAmount,
		CalculatedBalance:    calculatedBalance,
		StoredBalance:        invoice.BalanceDue,
		Discrepancy:          decimal.Max(paidDiff, balanceDiff),
		Status:               ReconciliationStatusMatched,
		ExpectedStatus:       expectedStatus,
		ActualStatus:         invoice.CurrentStatus,
	}

	if !mismatched {
		return result, nil
	}
	result.Status = ReconciliationStatusMismatched

	if fix {
		if err := r.invoices.UpdateInvoiceBalances(ctx, invoice.ID, calculatedPaid, calculatedBalance, expectedStatus); err != nil {
			result.Error = err.Error()
			config.LogError(r.logger, "reconciliationWorkflow.go", "ReconcileInvoiceBalance", "UpdateInvoiceBalances", invoice.ID, err)
		} else {
			result.Fixed = true
		}
	}

	return result, nil
}

// ReconcileAllInvoiceBalances runs sequentially over every invoice of the
// company. One invoice failing never aborts the batch; failed invoices show
// up only in Errors, not in Results or Total.
func (r *BalanceReconciler) ReconcileAllInvoiceBalances(ctx context.Context, companyId string, fix bool) (*ReconciliationSummary, error) {
	invoiceIds, err := r.invoices.GetInvoiceIdsByCompany(ctx, companyId)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices for company %s: %w", companyId, err)
	}

	summary := &ReconciliationSummary{
		Results: make([]*ReconciliationResult, 0, len(invoiceIds)),
		Errors:  []string{},
	}
	for _, invoiceId := range invoiceIds {
		result, err := r.ReconcileInvoiceBalance(ctx, invoiceId, fix)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Invoice %d: %v", invoiceId, err))
			continue
		}
		summary.Results = append(summary.Results, result)
		if result.Status == ReconciliationStatusMatched {
			summary.Matched++
		} else {
			summary.Mismatched++
		}
		if result.Fixed {
			summary.Fixed++
		}
	}
	summary.Total = len(summary.Results)

	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{
			"company_id": companyId,
			"total":      summary.Total,
			"matched":    summary.Matched,
			"mismatched": summary.Mismatched,
			"fixed":      summary.Fixed,
			"errors":     len(summary.Errors),
		}).Info("invoice balance reconciliation completed")
	}
	return summary, nil
}

// GetPaymentAuditTrail is advisory/display-only: any fetch failure is logged
// and an empty list returned, never an error.
func (r *BalanceReconciler) GetPaymentAuditTrail(ctx context.Context, invoiceId int) []*models.InvoicePayment {
	payments, err := r.allocations.GetInvoicePayments(ctx, invoiceId)
	if err != nil {
		config.LogError(r.logger, "reconciliationWorkflow.go", "GetPaymentAuditTrail", "GetInvoicePayments", invoiceId, err)
		return []*models.InvoicePayment{}
	}
	if payments == nil {
		return []*models.InvoicePayment{}
	}
	return payments
}

// HasBalanceDiscrepancy answers yes/no only; any failure reads as "no
// discrepancy" so display callers are never blocked.
func (r *BalanceReconciler) HasBalanceDiscrepancy(ctx context.Context, invoiceId int) bool {
	result, err := r.ReconcileInvoiceBalance(ctx, invoiceId, false)
	if err != nil {
		config.LogError(r.logger, "reconciliationWorkflow.go", "HasBalanceDiscrepancy", "ReconcileInvoiceBalance", invoiceId, err)
		return false
	}
	return result.Status == ReconciliationStatusMismatched
}
