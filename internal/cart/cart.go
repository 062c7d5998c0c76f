package cart

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/pkg/pricing"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

// Cart maps product ids to requested quantities. It is the only shape the
// engine works with; session payloads are normalized on the way in.
type Cart map[uuid.UUID]decimal.Decimal

// NormalizeEntry reads a quantity from any cart entry shape ever written to a
// session: {"qty": ...}, a bare number or a numeric string. Anything that
// does not parse, anything negative and anything outside
// pricing.QuantityInRange reads as zero.
func NormalizeEntry(entry any) decimal.Decimal {
	if m, ok := entry.(map[string]any); ok {
		return NormalizeEntry(m["qty"])
	}

	var (
		qty decimal.Decimal
		err error
	)
	switch v := entry.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		qty = v
	case json.Number:
		qty, err = decimal.NewFromString(v.String())
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero
		}
		qty, err = decimal.NewFromString(s)
	case float64:
		qty = decimal.NewFromFloat(v)
	case int:
		qty = decimal.NewFromInt(int64(v))
	case int64:
		qty = decimal.NewFromInt(v)
	default:
		qty, err = decimal.NewFromString(fmt.Sprint(v))
	}
	if err != nil || qty.IsNegative() || !pricing.QuantityInRange(qty) {
		return decimal.Zero
	}
	return qty
}

// FromSession returns the canonical cart stored in sess. legacy reports
// whether any entry had to be rewritten (old shape, bad key or zero qty), in
// which case the caller should Save it back.
func FromSession(sess *sessionstore.Session) (c Cart, legacy bool) {
	c = Cart{}
	raw, present := sess.Get(sessionstore.KeyCart)
	if !present {
		return c, false
	}
	entries, ok := raw.(map[string]any)
	if !ok {
		return c, true
	}
	for key, entry := range entries {
		id, err := uuid.Parse(key)
		qty := NormalizeEntry(entry)
		if err != nil || !qty.IsPositive() {
			legacy = true
			continue
		}
		if !isCanonical(entry, qty) {
			legacy = true
		}
		c[id] = qty
	}
	return c, legacy
}

func isCanonical(entry any, qty decimal.Decimal) bool {
	m, ok := entry.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	s, ok := m["qty"].(string)
	return ok && s == qty.String()
}

// Save writes the cart back in canonical shape and marks the session dirty.
func (c Cart) Save(sess *sessionstore.Session) {
	out := make(map[string]any, len(c))
	for id, qty := range c {
		if !qty.IsPositive() {
			continue
		}
		out[id.String()] = map[string]any{"qty": qty.String()}
	}
	sess.Set(sessionstore.KeyCart, out)
}

// Qty returns the quantity held for id, zero when absent.
func (c Cart) Qty(id uuid.UUID) decimal.Decimal {
	if qty, ok := c[id]; ok {
		return qty
	}
	return decimal.Zero
}

// IDs lists product ids in a stable order.
func (c Cart) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (c Cart) Empty() bool {
	return len(c) == 0
}

// Total sums every quantity in the cart.
func (c Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, qty := range c {
		sum = sum.Add(qty)
	}
	return sum
}

// TotalQuantity sums the raw session cart for the header badge. It reads
// whatever is stored without rewriting it; malformed entries count as zero.
func TotalQuantity(sess *sessionstore.Session) decimal.Decimal {
	entries := sess.Map(sessionstore.KeyCart)
	sum := decimal.Zero
	for _, entry := range entries {
		sum = sum.Add(NormalizeEntry(entry))
	}
	return sum
}

// Clear empties the session cart.
func Clear(sess *sessionstore.Session) {
	sess.Set(sessionstore.KeyCart, map[string]any{})
}
