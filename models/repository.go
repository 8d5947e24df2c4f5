package models

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository is the gorm-backed store handed to the reconciliation workflow.
// The workflow depends on the store interfaces it declares, so tests swap
// this out for in-memory fakes.
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) GetInvoiceById(ctx context.Context, invoiceId int) (*Invoice, error) {
	return GetInvoiceById(ctx, r.DB, invoiceId)
}

func (r *Repository) GetInvoiceIdsByCompany(ctx context.Context, companyId string) ([]int, error) {
	return GetInvoiceIdsByCompany(ctx, r.DB, companyId)
}

func (r *Repository) UpdateInvoiceBalances(ctx context.Context, invoiceId int, paidAmount decimal.Decimal, balanceDue decimal.Decimal, status InvoiceStatus) error {
	return UpdateInvoiceBalances(ctx, r.DB, invoiceId, paidAmount, balanceDue, status)
}

func (r *Repository) GetAllocationsByInvoiceId(ctx context.Context, invoiceId int) ([]*PaymentAllocation, error) {
	return GetAllocationsByInvoiceId(ctx, r.DB, invoiceId)
}

func (r *Repository) GetInvoicePayments(ctx context.Context, invoiceId int) ([]*InvoicePayment, error) {
	return GetInvoicePayments(ctx, r.DB, invoiceId)
}
