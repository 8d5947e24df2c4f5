package models

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "Draft"
	InvoiceStatusSent    InvoiceStatus = "Sent"
	InvoiceStatusPartial InvoiceStatus = "Partial"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
	InvoiceStatusOverdue InvoiceStatus = "Overdue"
	InvoiceStatusVoid    InvoiceStatus = "Void"
)

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartial,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusVoid:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "Cash"
	PaymentMethodBankTransfer PaymentMethod = "BankTransfer"
	PaymentMethodMpesa        PaymentMethod = "Mpesa"
	PaymentMethodCheque       PaymentMethod = "Cheque"
	PaymentMethodCard         PaymentMethod = "Card"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodMpesa,
		PaymentMethodCheque, PaymentMethodCard:
		return true
	}
	return false
}
