package orders

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Rates are commission percentages charged to each side
type Rates struct {
	Supplier decimal.Decimal
	Buyer    decimal.Decimal
}

// DefaultRates returns rates from plain percentages
func DefaultRates(supplier, buyer float64) Rates {
	return Rates{Supplier: decimal.NewFromFloat(supplier), Buyer: decimal.NewFromFloat(buyer)}
}

// Commission holds the amounts owed by each side, rounded to paise
type Commission struct {
	Supplier decimal.Decimal
	Buyer    decimal.Decimal
	Total    decimal.Decimal
}

// Compute returns total × rate / 100 per side. Total is the sum of the
// rounded side amounts so it always equals Supplier + Buyer.
func Compute(total decimal.Decimal, rates Rates) Commission {
	supplier := total.Mul(rates.Supplier).Div(hundred).Round(2)
	buyer := total.Mul(rates.Buyer).Div(hundred).Round(2)
	return Commission{
		Supplier: supplier,
		Buyer:    buyer,
		Total:    supplier.Add(buyer),
	}
}
