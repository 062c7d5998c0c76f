package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/pricing"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type couponResolver interface {
	Active(ctx context.Context, sess *sessionstore.Session) (*models.Coupon, error)
}

// Customer is who is shopping. Guests have a nil UserID.
type Customer struct {
	UserID               *uuid.UUID
	Email                string
	Phone                string
	SignupDiscountEndsAt *time.Time
}

// Authenticated reports whether the customer is signed in.
func (c Customer) Authenticated() bool {
	return c.UserID != nil && *c.UserID != uuid.Nil
}

// Options tunes discount composition.
type Options struct {
	SignupPercent decimal.Decimal
	Now           func() time.Time
}

// Engine applies cart mutations to a session and prices the result.
type Engine struct {
	products productLoader
	coupons  couponResolver
	signup   decimal.Decimal
	now      func() time.Time
}

// NewEngine wires the cart engine.
func NewEngine(products productLoader, coupons couponResolver, opts Options) (*Engine, error) {
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon resolver required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{products: products, coupons: coupons, signup: opts.SignupPercent, now: now}, nil
}

// Result is the small payload returned after a cart mutation.
type Result struct {
	OK        bool            `json:"ok"`
	ProductID uuid.UUID       `json:"product_id"`
	Qty       decimal.Decimal `json:"qty"`
	Remaining string          `json:"remaining,omitempty"`
	CartTotal decimal.Decimal `json:"cart_total"`
}

// Add increases the product's quantity in the session cart.
func (e *Engine) Add(ctx context.Context, sess *sessionstore.Session, productID uuid.UUID, requested decimal.Decimal) (Result, error) {
	return e.mutate(ctx, sess, productID, func(c Cart, p models.Product) decimal.Decimal {
		return Add(c, p, requested)
	})
}

// SetQuantity replaces the product's quantity in the session cart.
func (e *Engine) SetQuantity(ctx context.Context, sess *sessionstore.Session, productID uuid.UUID, requested decimal.Decimal) (Result, error) {
	return e.mutate(ctx, sess, productID, func(c Cart, p models.Product) decimal.Decimal {
		return SetQuantity(c, p, requested)
	})
}

// Remove drops the product from the session cart. It never fails for a
// product that is not in the cart or no longer exists.
func (e *Engine) Remove(ctx context.Context, sess *sessionstore.Session, productID uuid.UUID) (Result, error) {
	c, _ := FromSession(sess)
	Remove(c, models.Product{ID: productID})
	c.Save(sess)
	return Result{OK: true, ProductID: productID, Qty: decimal.Zero, CartTotal: c.Total()}, nil
}

func (e *Engine) mutate(ctx context.Context, sess *sessionstore.Session, productID uuid.UUID, apply func(Cart, models.Product) decimal.Decimal) (Result, error) {
	p, err := e.loadProduct(ctx, productID)
	if err != nil {
		return Result{}, err
	}
	c, _ := FromSession(sess)
	qty := apply(c, *p)
	c.Save(sess)
	return Result{
		OK:        true,
		ProductID: p.ID,
		Qty:       qty,
		Remaining: pricing.FormatRemaining(*p, qty),
		CartTotal: c.Total(),
	}, nil
}

func (e *Engine) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	p, err := e.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return p, nil
}

// View prices the session cart for the cart page and consumes the one-shot
// coupon messages.
func (e *Engine) View(ctx context.Context, sess *sessionstore.Session, customer Customer) (*Quote, error) {
	q, err := e.Quote(ctx, sess, customer)
	if err != nil {
		return nil, err
	}
	q.CouponError = sess.PopString(sessionstore.KeyCouponError)
	q.CouponSuccess = sess.PopString(sessionstore.KeyCouponSuccess)
	return q, nil
}

// Quote prices the session cart against live stock and prices. Lines are
// clamped to stock and legacy entries rewritten as a side effect.
func (e *Engine) Quote(ctx context.Context, sess *sessionstore.Session, customer Customer) (*Quote, error) {
	c, legacy := FromSession(sess)

	byID := map[uuid.UUID]models.Product{}
	if !c.Empty() {
		found, err := e.products.FindByIDs(ctx, c.IDs())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
		}
		for _, p := range found {
			byID[p.ID] = p
		}
	}
	if changed := Reconcile(c, byID); changed || legacy {
		c.Save(sess)
	}

	lines := make([]pricing.Line, 0, len(c))
	for _, id := range c.IDs() {
		lines = append(lines, pricing.PriceLine(byID[id], c[id]))
	}

	coupon, err := e.coupons.Active(ctx, sess)
	if err != nil {
		return nil, err
	}

	totals := pricing.ComputeTotals(pricing.TotalsInput{
		Subtotal:             pricing.Subtotal(lines),
		Coupon:               coupon,
		Authenticated:        customer.Authenticated(),
		SignupDiscountEndsAt: customer.SignupDiscountEndsAt,
		SignupPercent:        e.signup,
		Now:                  e.now(),
	})
	return newQuote(lines, totals, coupon, c.Total()), nil
}
