package models

import (
	"github.com/shopspring/decimal"
)

// TaxableLineItem is one invoice/quotation row as entered.
// No range validation happens here: negative quantities or rates propagate
// arithmetically, matching how the documents behave everywhere else.
type TaxableLineItem struct {
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TaxPercentage      decimal.Decimal `json:"tax_percentage"`
	IsTaxInclusive     bool            `json:"is_tax_inclusive"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
}

// CalculatedLineItem carries the input plus every derived monetary field,
// each independently rounded to 2 decimal places.
type CalculatedLineItem struct {
	TaxableLineItem
	BaseAmount    decimal.Decimal `json:"base_amount"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

type DocumentTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type TaxValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

var (
	decimalOneHundred = decimal.NewFromInt(100)

	// One cent, fixed. Shared by the totals check and the reconciler.
	CentTolerance = decimal.New(1, -2)
)

// CalculateItemTax derives the monetary fields of a single line item.
// Percentage discount wins over an absolute one; an absolute discount is
// clamped to the base amount so the taxable amount can never go negative.
// Tax is computed only when IsTaxInclusive is set; legacy flag, the name
// does not mean "price already includes tax".
func CalculateItemTax(item TaxableLineItem) CalculatedLineItem {
	baseAmount := item.Quantity.Mul(item.UnitPrice).Round(2)

	var discountTotal decimal.Decimal
	switch {
	case item.DiscountPercentage.GreaterThan(decimal.Zero):
		discountTotal = baseAmount.Mul(item.DiscountPercentage).Div(decimalOneHundred).Round(2)
	case item.DiscountAmount.GreaterThan(decimal.Zero):
		discountTotal = decimal.Min(item.DiscountAmount, baseAmount).Round(2)
	default:
		discountTotal = decimal.Zero
	}

	taxableAmount := baseAmount.Sub(discountTotal).Round(2)

	var taxAmount, lineTotal decimal.Decimal
	if item.IsTaxInclusive {
		taxAmount = taxableAmount.Mul(item.TaxPercentage).Div(decimalOneHundred).Round(2)
		lineTotal = taxableAmount.Add(taxAmount).Round(2)
	} else {
		taxAmount = decimal.Zero
		lineTotal = taxableAmount
	}

	return CalculatedLineItem{
		TaxableLineItem: item,
		BaseAmount:      baseAmount,
		DiscountTotal:   discountTotal,
		TaxableAmount:   taxableAmount,
		TaxAmount:       taxAmount,
		LineTotal:       lineTotal,
	}
}

// CalculateDocumentTotals aggregates every line through CalculateItemTax.
// Lines are rounded before summing, so recomputing over unrounded values may
// differ by a few cents; that drift is accepted, not corrected.
func CalculateDocumentTotals(items []TaxableLineItem) ([]CalculatedLineItem, DocumentTotals) {
	lines := make([]CalculatedLineItem, 0, len(items))
	var subtotal, discountTotal, taxableAmount, taxTotal, totalAmount decimal.Decimal
	for _, item := range items {
		line := CalculateItemTax(item)
		lines = append(lines, line)

		subtotal = subtotal.Add(line.BaseAmount)
		discountTotal = discountTotal.Add(line.DiscountTotal)
		taxableAmount = taxableAmount.Add(line.TaxableAmount)
		taxTotal = taxTotal.Add(line.TaxAmount)
		totalAmount = totalAmount.Add(line.LineTotal)
	}
	return lines, DocumentTotals{
		Subtotal:      subtotal.Round(2),
		DiscountTotal: discountTotal.Round(2),
		TaxableAmount: taxableAmount.Round(2),
		TaxTotal:      taxTotal.Round(2),
		TotalAmount:   totalAmount.Round(2),
	}
}

// ValidateTaxCalculation is diagnostic only; it never mutates the totals.
func ValidateTaxCalculation(totals DocumentTotals) TaxValidationResult {
	var errs []string
	if totals.Subtotal.IsNegative() {
		errs = append(errs, "subtotal cannot be negative")
	}
	if totals.TaxTotal.IsNegative() {
		errs = append(errs, "tax total cannot be negative")
	}
	if totals.TotalAmount.IsNegative() {
		errs = append(errs, "total amount cannot be negative")
	}
	diff := totals.TaxableAmount.Add(totals.TaxTotal).Sub(totals.TotalAmount).Abs()
	if diff.GreaterThan(CentTolerance) {
		errs = append(errs, "taxable amount plus tax does not match total amount")
	}
	return TaxValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ConvertToTaxExclusive strips a genuinely tax-inclusive price down to its
// exclusive base: inclusivePrice / (1 + pct/100). No-op for pct <= 0.
func ConvertToTaxExclusive(inclusivePrice decimal.Decimal, taxPercentage decimal.Decimal) decimal.Decimal {
	if taxPercentage.LessThanOrEqual(decimal.Zero) {
		return inclusivePrice.Round(2)
	}
	factor := decimal.NewFromInt(1).Add(taxPercentage.Div(decimalOneHundred))
	return inclusivePrice.DivRound(factor, 6).Round(2)
}

// ConvertToTaxInclusive is the inverse: exclusivePrice * (1 + pct/100).
func ConvertToTaxInclusive(exclusivePrice decimal.Decimal, taxPercentage decimal.Decimal) decimal.Decimal {
	if taxPercentage.LessThanOrEqual(decimal.Zero) {
		return exclusivePrice.Round(2)
	}
	factor := decimal.NewFromInt(1).Add(taxPercentage.Div(decimalOneHundred))
	return exclusivePrice.Mul(factor).Round(2)
}
