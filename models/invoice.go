package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/afyadata/medsupply_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Invoice struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CompanyId       string          `gorm:"index;not null" json:"company_id" binding:"required"`
	CustomerId      int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	InvoiceNumber   string          `gorm:"size:255;not null" json:"invoice_number" binding:"required"`
	ReferenceNumber string          `gorm:"size:255;default:null" json:"reference_number"`
	InvoiceDate     time.Time       `gorm:"not null" json:"invoice_date"`
	DueDate         *time.Time      `gorm:"default:null" json:"due_date"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	DiscountTotal   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_total"`
	TaxTotal        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_total"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	BalanceDue      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance_due"`
	CurrentStatus   InvoiceStatus   `gorm:"type:enum('Draft','Sent','Partial','Paid','Overdue','Void');not null" json:"current_status"`
	Notes           string          `gorm:"type:text;default:null" json:"notes"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetInvoiceById(ctx context.Context, db *gorm.DB, invoiceId int) (*Invoice, error) {
	var invoice Invoice
	err := db.WithContext(ctx).First(&invoice, invoiceId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func GetInvoiceIdsByCompany(ctx context.Context, db *gorm.DB, companyId string) ([]int, error) {
	var ids []int
	err := db.WithContext(ctx).Model(&Invoice{}).
		Where("company_id = ?", companyId).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateInvoiceBalances writes the payment-derived fields back to the invoice.
// Only paid_amount, balance_due, current_status and updated_at are touched;
// total_amount is owned by the invoicing mutations.
func UpdateInvoiceBalances(ctx context.Context, db *gorm.DB, invoiceId int, paidAmount decimal.Decimal, balanceDue decimal.Decimal, status InvoiceStatus) error {
	return db.WithContext(ctx).Model(&Invoice{}).
		Where("id = ?", invoiceId).
		Updates(map[string]interface{}{
			"paid_amount":    paidAmount,
			"balance_due":    balanceDue,
			"current_status": status,
			"updated_at":     time.Now().UTC(),
		}).Error
}
