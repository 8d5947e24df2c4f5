package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Payment struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CompanyId       string          `gorm:"index;not null" json:"company_id" binding:"required"`
	CustomerId      int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	PaymentNumber   string          `gorm:"size:255;not null" json:"payment_number" binding:"required"`
	PaymentDate     time.Time       `gorm:"not null" json:"payment_date"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	PaymentMethod   PaymentMethod   `gorm:"type:enum('Cash','BankTransfer','Mpesa','Cheque','Card');not null" json:"payment_method"`
	ReferenceNumber string          `gorm:"size:255;default:null" json:"reference_number"`
	CreatedBy       int             `gorm:"default:null" json:"created_by"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// PaymentAllocation is the portion of one payment applied to one invoice.
// A payment may fund allocations across several invoices.
type PaymentAllocation struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PaymentId       int             `gorm:"index;not null" json:"payment_id" binding:"required"`
	InvoiceId       int             `gorm:"index;not null" json:"invoice_id" binding:"required"`
	AmountAllocated decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_allocated"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// InvoicePayment is a scan-only row for the payment audit trail of an invoice.
type InvoicePayment struct {
	PaymentNumber   string          `json:"paymentNumber"`
	PaymentAmount   decimal.Decimal `json:"paymentAmount"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentDate     time.Time       `json:"paymentDate"`
	ReferenceNumber string          `json:"referenceNumber"`
	CreatedBy       string          `json:"createdBy"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func GetAllocationsByInvoiceId(ctx context.Context, db *gorm.DB, invoiceId int) ([]*PaymentAllocation, error) {
	var allocations []*PaymentAllocation
	err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceId).
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

// get allocated amounts and payment infos for an invoice, newest payment first
func GetInvoicePayments(ctx context.Context, db *gorm.DB, invoiceId int) ([]*InvoicePayment, error) {
	var invoicePayments []*InvoicePayment
	if err := db.WithContext(ctx).Table("payments").
		Joins("JOIN payment_allocations as allocations on payments.id = allocations.payment_id").
		Joins("LEFT JOIN users on users.id = payments.created_by").
		Select("payments.payment_number, payments.amount as payment_amount, allocations.amount_allocated, payments.payment_method, payments.payment_date, payments.reference_number, users.full_name as created_by, payments.created_at").
		Where("allocations.invoice_id = ?", invoiceId).
		Order("payments.payment_date DESC, payments.id DESC").
		Scan(&invoicePayments).Error; err != nil {
		return nil, err
	}
	return invoicePayments, nil
}
