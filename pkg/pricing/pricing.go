// Package pricing holds the single source of truth for storefront money and
// quantity math. Catalogue, cart and checkout all price lines through here.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
)

// MoneyPlaces is the number of decimal places kept on every monetary value.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to cents. Money here is never
// negative, so this is round-half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// EffectivePrice is the sale price when 0 < sale < list, otherwise the list price.
func EffectivePrice(p models.Product) decimal.Decimal {
	if p.SalePrice.Valid && p.SalePrice.Decimal.IsPositive() && p.SalePrice.Decimal.LessThan(p.Price) {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// OnSale reports whether EffectivePrice is discounted from the list price.
func OnSale(p models.Product) bool {
	return !EffectivePrice(p).Equal(p.Price)
}

func LineTotal(p models.Product, qty decimal.Decimal) decimal.Decimal {
	return RoundMoney(EffectivePrice(p).Mul(qty))
}

// Remaining is stock left after qty is taken, never below zero. Discrete
// products always report a whole number.
func Remaining(p models.Product, qty decimal.Decimal) decimal.Decimal {
	left := decimal.Max(decimal.Zero, p.StockQty.Sub(qty))
	if p.Unit.IsDiscrete() {
		return left.Floor()
	}
	return left
}

// FormatRemaining renders Remaining the way the storefront displays it.
func FormatRemaining(p models.Product, qty decimal.Decimal) string {
	return FormatQuantity(p, Remaining(p, qty))
}

// FormatQuantity renders whole numbers for discrete units and at least two
// decimals for measured ones.
func FormatQuantity(p models.Product, qty decimal.Decimal) string {
	if p.Unit.IsDiscrete() {
		return qty.Truncate(0).String()
	}
	if qty.Equal(qty.Round(2)) {
		return qty.StringFixed(2)
	}
	return qty.Round(3).String()
}

// MaxQuantity is the most of one product a cart line may request.
var MaxQuantity = decimal.NewFromInt(1_000_000)

// maxQuantityScale bounds the exponent of a quantity in both directions.
// Comparing or truncating decimals rescales them, which costs time linear in
// the exponent, so "1e200000000" must never reach that arithmetic.
const maxQuantityScale = 18

// QuantityInRange reports whether qty has a bounded exponent and precision and
// a magnitude of at most MaxQuantity. It does no rescaling of its own until
// the exponent is known to be small.
func QuantityInRange(qty decimal.Decimal) bool {
	exp := qty.Exponent()
	if exp > maxQuantityScale || exp < -maxQuantityScale {
		return false
	}
	if qty.NumDigits() > 2*maxQuantityScale {
		return false
	}
	return qty.Abs().LessThanOrEqual(MaxQuantity)
}

// BoundQuantity maps qty onto a value safe for arithmetic: non-positive and
// vanishingly small values become zero, huge ones saturate at MaxQuantity and
// excess precision is truncated.
func BoundQuantity(qty decimal.Decimal) decimal.Decimal {
	if qty.Sign() <= 0 {
		return decimal.Zero
	}
	if QuantityInRange(qty) {
		return qty
	}
	// integer digits of qty, computed without rescaling
	intDigits := int64(qty.NumDigits()) + int64(qty.Exponent())
	switch {
	case intDigits <= 0:
		return decimal.Zero
	case intDigits > int64(len(MaxQuantity.String())):
		return MaxQuantity
	}
	qty = qty.Truncate(maxQuantityScale)
	if qty.GreaterThan(MaxQuantity) {
		return MaxQuantity
	}
	return qty
}

// NormalizeQuantity floors negatives to zero, bounds the magnitude and
// truncates discrete units.
func NormalizeQuantity(p models.Product, qty decimal.Decimal) decimal.Decimal {
	qty = BoundQuantity(qty)
	if qty.IsZero() {
		return decimal.Zero
	}
	if p.Unit.IsDiscrete() {
		return qty.Truncate(0)
	}
	return qty
}

// ClampQuantity bounds qty into [0, stock] after normalizing it.
func ClampQuantity(p models.Product, qty decimal.Decimal) decimal.Decimal {
	qty = NormalizeQuantity(p, qty)
	stock := NormalizeQuantity(p, p.StockQty)
	if qty.GreaterThan(stock) {
		return stock
	}
	return qty
}

// Line is one priced cart or order line.
type Line struct {
	Product   models.Product
	Qty       decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	Remaining decimal.Decimal
}

func PriceLine(p models.Product, qty decimal.Decimal) Line {
	return Line{
		Product:   p,
		Qty:       qty,
		UnitPrice: EffectivePrice(p),
		LineTotal: LineTotal(p, qty),
		Remaining: Remaining(p, qty),
	}
}

func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.LineTotal)
	}
	return sum
}
