package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/afyadata/medsupply_backend/config"
	"bitbucket.org/afyadata/medsupply_backend/models"
	"bitbucket.org/afyadata/medsupply_backend/utils"
	"bitbucket.org/afyadata/medsupply_backend/workflow"
	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func newBalanceReconciler() *workflow.BalanceReconciler {
	repo := models.NewRepository(config.GetDB())
	return workflow.NewBalanceReconciler(repo, repo, config.GetLogger())
}

func invoiceIdParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return 0, false
	}
	return id, true
}

type totalsLineInput struct {
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TaxId              int             `json:"tax_id"`
	TaxPercentage      decimal.Decimal `json:"tax_percentage"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
}

type totalsRequest struct {
	IsTaxInclusive *bool             `json:"is_tax_inclusive" binding:"required"`
	Items          []totalsLineInput `json:"items"`
}

// POST /api/v1/totals
// Preview endpoint for document entry screens: computes per-line amounts and
// document totals without persisting anything. A line may carry tax_id
// instead of tax_percentage; the id wins and is resolved via the tax catalog.
func calculateTotalsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req totalsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		db := config.GetDB()
		items := make([]models.TaxableLineItem, 0, len(req.Items))
		for _, in := range req.Items {
			taxPct := in.TaxPercentage
			if in.TaxId > 0 {
				rate, err := models.GetTaxRate(ctx, db, in.TaxId)
				if err != nil {
					if errors.Is(err, utils.ErrorRecordNotFound) {
						c.JSON(http.StatusBadRequest, gin.H{"error": "tax not found"})
						return
					}
					config.LogError(config.GetLogger(), "handlers.go", "calculateTotalsHandler", "GetTaxRate", in.TaxId, err)
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve tax rate"})
					return
				}
				taxPct = rate
			}
			items = append(items, models.TaxableLineItem{
				Quantity:           in.Quantity,
				UnitPrice:          in.UnitPrice,
				TaxPercentage:      taxPct,
				IsTaxInclusive:     *req.IsTaxInclusive,
				DiscountPercentage: in.DiscountPercentage,
				DiscountAmount:     in.DiscountAmount,
			})
		}

		lines, totals := models.CalculateDocumentTotals(items)
		c.JSON(http.StatusOK, gin.H{
			"lines":      lines,
			"totals":     totals,
			"validation": models.ValidateTaxCalculation(totals),
		})
	}
}

// POST /api/v1/invoices/:id/reconcile?fix=true
func reconcileInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoiceId, ok := invoiceIdParam(c)
		if !ok {
			return
		}
		fix := c.Query("fix") == "true"

		result, err := newBalanceReconciler().ReconcileInvoiceBalance(c.Request.Context(), invoiceId, fix)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
				return
			}
			config.LogError(config.GetLogger(), "handlers.go", "reconcileInvoiceHandler", "ReconcileInvoiceBalance", invoiceId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// POST /api/v1/reconciliation/run?fix=true
// Company scope comes from X-Company-Id. A redis lock dedupes concurrent
// runs per company; it is best-effort only, correctness does not depend on
// redis being up.
func reconcileAllHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		companyId, ok := utils.GetCompanyIdFromContext(ctx)
		if !ok || companyId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "company id is required"})
			return
		}
		fix := c.Query("fix") == "true"

		if locker := config.GetRedisLock(); locker != nil {
			lock, err := locker.Obtain(ctx, "reconcileRun:"+companyId, 5*time.Minute, nil)
			if err == nil {
				defer lock.Release(ctx)
			} else if errors.Is(err, redislock.ErrNotObtained) {
				c.JSON(http.StatusConflict, gin.H{"error": "a reconciliation run is already in progress for this company"})
				return
			}
			// Any other lock error: proceed without the lock.
		}

		summary, err := newBalanceReconciler().ReconcileAllInvoiceBalances(ctx, companyId, fix)
		if err != nil {
			config.LogError(config.GetLogger(), "handlers.go", "reconcileAllHandler", "ReconcileAllInvoiceBalances", companyId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// GET /api/v1/invoices/:id/payments
func paymentAuditTrailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoiceId, ok := invoiceIdParam(c)
		if !ok {
			return
		}
		payments := newBalanceReconciler().GetPaymentAuditTrail(c.Request.Context(), invoiceId)
		c.JSON(http.StatusOK, gin.H{"payments": payments})
	}
}

// GET /api/v1/invoices/:id/discrepancy
func discrepancyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoiceId, ok := invoiceIdParam(c)
		if !ok {
			return
		}
		has := newBalanceReconciler().HasBalanceDiscrepancy(c.Request.Context(), invoiceId)
		c.JSON(http.StatusOK, gin.H{"has_discrepancy": has})
	}
}
