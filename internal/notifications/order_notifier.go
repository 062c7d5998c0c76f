package notifications

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
	"github.com/angelmondragon/farmstore-backend/pkg/mailer"
)

const (
	KindCustomer = "customer"
	KindOperator = "operator"
)

type failureRecorder interface {
	IncNotificationFailure(kind string)
}

// OrderNotifier emails the customer and the shop operator after checkout.
// Delivery errors are logged and counted, never returned.
type OrderNotifier struct {
	mail     mailer.Mailer
	operator string
	metrics  failureRecorder
	logg     *logger.Logger
}

// NewOrderNotifier wires the notifier. operator may be empty, in which case
// only the customer is emailed.
func NewOrderNotifier(mail mailer.Mailer, operator string, metrics failureRecorder, logg *logger.Logger) (*OrderNotifier, error) {
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &OrderNotifier{mail: mail, operator: strings.TrimSpace(operator), metrics: metrics, logg: logg}, nil
}

// CustomerMessage is the confirmation sent to the buyer.
func CustomerMessage(order *models.Order) mailer.Message {
	n := order.Number()
	return mailer.Message{
		To:      order.Email,
		Subject: fmt.Sprintf("Order #%s confirmation", n),
		Body:    fmt.Sprintf("Thanks for your order #%s. Total: $%s", n, order.Total.StringFixed(2)),
	}
}

// OperatorMessage alerts the shop that an order came in.
func OperatorMessage(order *models.Order, to string) mailer.Message {
	return mailer.Message{
		To:      to,
		Subject: fmt.Sprintf("New order #%s", order.Number()),
		Body:    fmt.Sprintf("Total: $%s", order.Total.StringFixed(2)),
	}
}

func (n *OrderNotifier) OrderPlaced(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	var errs error
	if err := n.send(ctx, KindCustomer, CustomerMessage(order)); err != nil {
		errs = multierr.Append(errs, err)
	}
	if n.operator != "" {
		if err := n.send(ctx, KindOperator, OperatorMessage(order, n.operator)); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		ctx = n.logg.WithField(ctx, "failed_notifications", len(multierr.Errors(errs)))
		n.logg.Error(ctx, "notifications.order_placed_failed", errs)
	}
}

func (n *OrderNotifier) send(ctx context.Context, kind string, msg mailer.Message) error {
	if err := n.mail.Send(ctx, msg); err != nil {
		if n.metrics != nil {
			n.metrics.IncNotificationFailure(kind)
		}
		return fmt.Errorf("%s notification: %w", kind, err)
	}
	return nil
}
