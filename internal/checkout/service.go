package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstore-backend/internal/cart"
	"github.com/angelmondragon/farmstore-backend/internal/orders"
	"github.com/angelmondragon/farmstore-backend/internal/products"
	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	"github.com/angelmondragon/farmstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
	"github.com/angelmondragon/farmstore-backend/pkg/pricing"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

// Failure reasons reported to metrics.
const (
	ReasonInvalidInput      = "invalid_input"
	ReasonEmptyCart         = "empty_cart"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonError             = "error"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type couponResolver interface {
	Active(ctx context.Context, sess *sessionstore.Session) (*models.Coupon, error)
}

type quoter interface {
	Quote(ctx context.Context, sess *sessionstore.Session, customer cart.Customer) (*cart.Quote, error)
}

// Notifier is told about every committed order. It runs after the response path
// on a context bounded by the notify timeout.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
}

type recorder interface {
	ObserveOrder(total decimal.Decimal)
	IncCheckoutFailure(reason string)
}

// Input is the checkout form.
type Input struct {
	Email         string `json:"email" validate:"omitempty,email,max=254"`
	Phone         string `json:"phone" validate:"omitempty,max=32"`
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// Preview is the checkout page: the priced cart plus prefilled contact details.
type Preview struct {
	Quote          *cart.Quote           `json:"quote"`
	Email          string                `json:"email"`
	Phone          string                `json:"phone"`
	PaymentMethods []enums.PaymentMethod `json:"payment_methods"`
}

// Service turns a session cart into an order.
type Service interface {
	Preview(ctx context.Context, sess *sessionstore.Session, customer cart.Customer) (*Preview, error)
	PlaceOrder(ctx context.Context, sess *sessionstore.Session, customer cart.Customer, input Input) (*orders.OrderDetail, error)
	// Drain waits for in-flight order notifications or until ctx is done.
	Drain(ctx context.Context) error
}

// DefaultNotifyTimeout bounds one order's notification run.
const DefaultNotifyTimeout = 30 * time.Second

// ServiceParams groups dependencies for checkout.
type ServiceParams struct {
	Tx            txRunner
	Products      *products.Repository
	Orders        orders.Repository
	Coupons       couponResolver
	Cart          quoter
	Notifier      Notifier
	Metrics       recorder
	Logger        *logger.Logger
	SignupPercent decimal.Decimal
	NotifyTimeout time.Duration
	Now           func() time.Time
}

type service struct {
	tx       txRunner
	products *products.Repository
	orders   orders.Repository
	coupons  couponResolver
	cart     quoter
	notifier Notifier
	metrics  recorder
	logg     *logger.Logger
	signup   decimal.Decimal
	now      func() time.Time
	validate *validator.Validate

	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon resolver required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart engine required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	notifyTimeout := params.NotifyTimeout
	if notifyTimeout <= 0 {
		notifyTimeout = DefaultNotifyTimeout
	}
	return &service{
		tx:       params.Tx,
		products: params.Products,
		orders:   params.Orders,
		coupons:  params.Coupons,
		cart:     params.Cart,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logg:     logg,
		signup:   params.SignupPercent,
		now:      now,
		validate: validator.New(),

		notifyTimeout: notifyTimeout,
	}, nil
}

func (s *service) Preview(ctx context.Context, sess *sessionstore.Session, customer cart.Customer) (*Preview, error) {
	q, err := s.cart.Quote(ctx, sess, customer)
	if err != nil {
		return nil, err
	}
	out := &Preview{
		Quote:          q,
		PaymentMethods: []enums.PaymentMethod{enums.PaymentMethodCash, enums.PaymentMethodVenmo, enums.PaymentMethodZelle, enums.PaymentMethodCard},
	}
	if customer.Authenticated() {
		out.Email = customer.Email
		out.Phone = customer.Phone
	}
	return out, nil
}

type contact struct {
	email  string
	phone  string
	method enums.PaymentMethod
}

func (s *service) resolveContact(customer cart.Customer, input Input) (contact, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if err := s.validate.Struct(input); err != nil {
		return contact{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout form")
	}

	out := contact{email: input.Email, phone: input.Phone}
	if customer.Authenticated() {
		if out.email == "" {
			out.email = customer.Email
		}
		if out.phone == "" {
			out.phone = customer.Phone
		}
	}
	if out.email == "" {
		return contact{}, pkgerrors.New(pkgerrors.CodeValidation, "email is required").
			WithDetails(map[string]string{"email": "is required"})
	}

	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return contact{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method").
			WithDetails(map[string]string{"payment_method": "must be one of cash, venmo, zelle, card"})
	}
	out.method = method
	return out, nil
}

// PlaceOrder re-reads every product inside one transaction, prices the cart
// from that read, writes the order and takes the stock. Nothing is persisted
// when any step fails. The session cart and coupon are cleared only after
// commit.
func (s *service) PlaceOrder(ctx context.Context, sess *sessionstore.Session, customer cart.Customer, input Input) (*orders.OrderDetail, error) {
	who, err := s.resolveContact(customer, input)
	if err != nil {
		s.fail(ReasonInvalidInput)
		return nil, err
	}

	c, _ := cart.FromSession(sess)
	if c.Empty() {
		s.fail(ReasonEmptyCart)
		return nil, errEmptyCart()
	}

	coupon, err := s.coupons.Active(ctx, sess)
	if err != nil {
		s.fail(ReasonError)
		return nil, err
	}
	now := s.now()

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.products.WithTx(tx)

		found, err := productRepo.FindByIDs(ctx, c.IDs())
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]models.Product, len(found))
		for _, p := range found {
			byID[p.ID] = p
		}

		lines := make([]pricing.Line, 0, len(c))
		for _, id := range c.IDs() {
			p, ok := byID[id]
			if !ok {
				continue
			}
			qty := pricing.ClampQuantity(p, c[id])
			if !qty.IsPositive() {
				continue
			}
			lines = append(lines, pricing.PriceLine(p, qty))
		}
		if len(lines) == 0 {
			return errEmptyCart()
		}

		totals := pricing.ComputeTotals(pricing.TotalsInput{
			Subtotal:             pricing.Subtotal(lines),
			Coupon:               coupon,
			Authenticated:        customer.Authenticated(),
			SignupDiscountEndsAt: customer.SignupDiscountEndsAt,
			SignupPercent:        s.signup,
			Now:                  now,
		})

		order = buildOrder(customer, who, lines, totals, coupon)
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		for _, line := range lines {
			if err := productRepo.DecrementStock(ctx, line.Product.ID, line.Qty); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.mapFailure(ctx, err)
	}

	cart.Clear(sess)
	sess.Delete(sessionstore.KeyCouponCode)
	sess.Set(sessionstore.KeyLastOrder, order.ID.String())

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "checkout.order_placed")
	if s.metrics != nil {
		s.metrics.ObserveOrder(order.Total)
	}
	s.notify(ctx, order)

	detail := orders.ToDetail(*order)
	return &detail, nil
}

func buildOrder(customer cart.Customer, who contact, lines []pricing.Line, totals pricing.Totals, coupon *models.Coupon) *models.Order {
	order := &models.Order{
		Email:         who.email,
		Phone:         who.phone,
		Subtotal:      totals.Subtotal,
		DiscountTotal: totals.Discount,
		Total:         totals.Total,
		PaymentMethod: who.method,
		Items:         make([]models.OrderItem, 0, len(lines)),
	}
	if customer.Authenticated() {
		id := *customer.UserID
		order.UserID = &id
	}
	if coupon != nil && totals.CouponApplied {
		id := coupon.ID
		order.CouponID = &id
		order.CouponCode = coupon.Code
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Qty:         line.Qty,
			Unit:        line.Product.Unit,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		})
	}
	return order
}

func errEmptyCart() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
}

func (s *service) mapFailure(ctx context.Context, err error) error {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
		s.fail(ReasonInsufficientStock)
		return err
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		s.fail(ReasonEmptyCart)
		return err
	case pkgerrors.As(err) != nil:
		s.fail(ReasonError)
		return err
	default:
		s.fail(ReasonError)
		s.logg.Error(ctx, "checkout.failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "place order")
	}
}

func (s *service) fail(reason string) {
	if s.metrics != nil {
		s.metrics.IncCheckoutFailure(reason)
	}
}

// notify runs the notifier off the request goroutine. The order is committed,
// so the caller's cancellation must not cut delivery short.
func (s *service) notify(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		s.notifier.OrderPlaced(notifyCtx, order)
	}()
}

func (s *service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
