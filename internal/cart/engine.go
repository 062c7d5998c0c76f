package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	"github.com/angelmondragon/farmstore-backend/pkg/pricing"
)

var one = decimal.NewFromInt(1)

// Add puts up to requested more of p into c without exceeding stock and
// returns the resulting quantity. A discrete product added for the first
// time with a request below one gets one.
func Add(c Cart, p models.Product, requested decimal.Decimal) decimal.Decimal {
	current := c.Qty(p.ID)
	requested = pricing.BoundQuantity(requested)
	if p.Unit.IsDiscrete() {
		requested = requested.Truncate(0)
		if current.IsZero() && requested.LessThan(one) {
			requested = one
		}
	}

	stock := pricing.NormalizeQuantity(p, p.StockQty)
	allowed := decimal.Max(decimal.Zero, stock.Sub(current))
	added := decimal.Min(requested, allowed)

	return store(c, p, pricing.ClampQuantity(p, current.Add(added)))
}

// SetQuantity replaces the quantity of p with requested clamped to [0, stock].
func SetQuantity(c Cart, p models.Product, requested decimal.Decimal) decimal.Decimal {
	return store(c, p, pricing.ClampQuantity(p, requested))
}

// Remove drops p from c. Removing an absent product is a no-op.
func Remove(c Cart, p models.Product) {
	delete(c, p.ID)
}

// Reconcile clamps every line to current stock and drops lines whose
// product is gone or whose quantity reaches zero. It reports whether c changed.
func Reconcile(c Cart, products map[uuid.UUID]models.Product) bool {
	changed := false
	for id, qty := range c {
		p, ok := products[id]
		if !ok {
			delete(c, id)
			changed = true
			continue
		}
		clamped := pricing.ClampQuantity(p, qty)
		if !clamped.Equal(qty) {
			changed = true
		}
		store(c, p, clamped)
	}
	return changed
}

func store(c Cart, p models.Product, qty decimal.Decimal) decimal.Decimal {
	if !qty.IsPositive() {
		delete(c, p.ID)
		return decimal.Zero
	}
	c[p.ID] = qty
	return qty
}
