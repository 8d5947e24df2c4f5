package models_test

import (
	"testing"

	"bitbucket.org/afyadata/medsupply_backend/models"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculateItemTax_WorkedExamples(t *testing.T) {
	cases := []struct {
		name     string
		item     models.TaxableLineItem
		base     string
		discount string
		taxable  string
		tax      string
		total    string
	}{
		{
			name: "taxed line, no discount",
			item: models.TaxableLineItem{
				Quantity:       dec("2"),
				UnitPrice:      dec("100"),
				TaxPercentage:  dec("16"),
				IsTaxInclusive: true,
			},
			base: "200", discount: "0", taxable: "200", tax: "32", total: "232",
		},
		{
			name: "percentage discount, tax gated off",
			item: models.TaxableLineItem{
				Quantity:           dec("1"),
				UnitPrice:          dec("50"),
				DiscountPercentage: dec("10"),
				TaxPercentage:      dec("16"),
				IsTaxInclusive:     false,
			},
			base: "50", discount: "5", taxable: "45", tax: "0", total: "45",
		},
		{
			name: "absolute discount clamped to base",
			item: models.TaxableLineItem{
				Quantity:       dec("1"),
				UnitPrice:      dec("50"),
				DiscountAmount: dec("100"),
				TaxPercentage:  dec("16"),
				IsTaxInclusive: true,
			},
			base: "50", discount: "50", taxable: "0", tax: "0", total: "0",
		},
		{
			name: "percentage discount wins over absolute",
			item: models.TaxableLineItem{
				Quantity:           dec("4"),
				UnitPrice:          dec("25"),
				DiscountPercentage: dec("20"),
				DiscountAmount:     dec("99"),
				IsTaxInclusive:     false,
			},
			base: "100", discount: "20", taxable: "80", tax: "0", total: "80",
		},
		{
			name: "fractional amounts round to cents",
			item: models.TaxableLineItem{
				Quantity:       dec("3"),
				UnitPrice:      dec("33.335"),
				TaxPercentage:  dec("16"),
				IsTaxInclusive: true,
			},
			// 3 * 33.335 = 100.005, rounds half away from zero
			base: "100.01", discount: "0", taxable: "100.01", tax: "16", total: "116.01",
		},
		{
			name: "zero quantity yields all zeros",
			item: models.TaxableLineItem{
				Quantity:       dec("0"),
				UnitPrice:      dec("100"),
				TaxPercentage:  dec("16"),
				IsTaxInclusive: true,
			},
			base: "0", discount: "0", taxable: "0", tax: "0", total: "0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.CalculateItemTax(tc.item)
			check := func(field string, got decimal.Decimal, want string) {
				if !got.Equal(dec(want)) {
					t.Fatalf("%s: expected %s, got %s", field, want, got)
				}
			}
			check("base_amount", got.BaseAmount, tc.base)
			check("discount_total", got.DiscountTotal, tc.discount)
			check("taxable_amount", got.TaxableAmount, tc.taxable)
			check("tax_amount", got.TaxAmount, tc.tax)
			check("line_total", got.LineTotal, tc.total)

			// line_total = taxable_amount + tax_amount always holds
			if !got.LineTotal.Equal(got.TaxableAmount.Add(got.TaxAmount)) {
				t.Fatalf("line_total %s != taxable %s + tax %s", got.LineTotal, got.TaxableAmount, got.TaxAmount)
			}
			// discount never exceeds base
			if got.DiscountTotal.GreaterThan(got.BaseAmount) {
				t.Fatalf("discount %s exceeds base %s", got.DiscountTotal, got.BaseAmount)
			}
		})
	}
}

func TestCalculateDocumentTotals(t *testing.T) {
	items := []models.TaxableLineItem{
		{Quantity: dec("2"), UnitPrice: dec("100"), TaxPercentage: dec("16"), IsTaxInclusive: true},
		{Quantity: dec("1"), UnitPrice: dec("50"), DiscountPercentage: dec("10"), IsTaxInclusive: false},
	}
	lines, totals := models.CalculateDocumentTotals(items)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !totals.Subtotal.Equal(dec("250")) {
		t.Fatalf("subtotal: expected 250, got %s", totals.Subtotal)
	}
	if !totals.DiscountTotal.Equal(dec("5")) {
		t.Fatalf("discount_total: expected 5, got %s", totals.DiscountTotal)
	}
	if !totals.TaxableAmount.Equal(dec("245")) {
		t.Fatalf("taxable_amount: expected 245, got %s", totals.TaxableAmount)
	}
	if !totals.TaxTotal.Equal(dec("32")) {
		t.Fatalf("tax_total: expected 32, got %s", totals.TaxTotal)
	}
	if !totals.TotalAmount.Equal(dec("277")) {
		t.Fatalf("total_amount: expected 277, got %s", totals.TotalAmount)
	}

	validation := models.ValidateTaxCalculation(totals)
	if !validation.IsValid {
		t.Fatalf("expected valid totals, got errors: %v", validation.Errors)
	}
}

func TestCalculateDocumentTotals_Empty(t *testing.T) {
	lines, totals := models.CalculateDocumentTotals(nil)
	if len(lines) != 0 {
		t.Fatalf("expected no lines, got %d", len(lines))
	}
	for field, v := range map[string]decimal.Decimal{
		"subtotal":       totals.Subtotal,
		"discount_total": totals.DiscountTotal,
		"taxable_amount": totals.TaxableAmount,
		"tax_total":      totals.TaxTotal,
		"total_amount":   totals.TotalAmount,
	} {
		if !v.IsZero() {
			t.Fatalf("%s: expected 0, got %s", field, v)
		}
	}
}

func TestValidateTaxCalculation_Flags(t *testing.T) {
	bad := models.DocumentTotals{
		Subtotal:      dec("-10"),
		TaxableAmount: dec("100"),
		TaxTotal:      dec("16"),
		TotalAmount:   dec("120"), // off by 4, beyond the one-cent tolerance
	}
	result := models.ValidateTaxCalculation(bad)
	if result.IsValid {
		t.Fatal("expected invalid result")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(result.Errors), result.Errors)
	}

	// one-cent drift from independent rounding is tolerated
	drift := models.DocumentTotals{
		TaxableAmount: dec("100"),
		TaxTotal:      dec("16"),
		TotalAmount:   dec("116.01"),
	}
	if r := models.ValidateTaxCalculation(drift); !r.IsValid {
		t.Fatalf("expected one-cent drift to pass, got errors: %v", r.Errors)
	}
}

func TestTaxConversions(t *testing.T) {
	if got := models.ConvertToTaxInclusive(dec("100"), dec("16")); !got.Equal(dec("116")) {
		t.Fatalf("ConvertToTaxInclusive(100, 16): expected 116, got %s", got)
	}
	if got := models.ConvertToTaxExclusive(dec("116"), dec("16")); !got.Equal(dec("100")) {
		t.Fatalf("ConvertToTaxExclusive(116, 16): expected 100, got %s", got)
	}
	// no-op when the rate is zero or negative
	if got := models.ConvertToTaxExclusive(dec("99.99"), dec("0")); !got.Equal(dec("99.99")) {
		t.Fatalf("expected no-op, got %s", got)
	}
	if got := models.ConvertToTaxInclusive(dec("99.99"), dec("-5")); !got.Equal(dec("99.99")) {
		t.Fatalf("expected no-op, got %s", got)
	}
}

func TestTaxConversions_RoundTrip(t *testing.T) {
	tolerance := dec("0.01")
	for _, pct := range []string{"5", "8", "14", "16", "18", "20"} {
		for _, price := range []string{"1", "49.99", "100", "1234.56", "100000"} {
			p := dec(pct)
			x := dec(price)
			back := models.ConvertToTaxExclusive(models.ConvertToTaxInclusive(x, p), p)
			if back.Sub(x).Abs().GreaterThan(tolerance) {
				t.Fatalf("round trip pct=%s price=%s: got %s", pct, price, back)
			}
		}
	}
}
