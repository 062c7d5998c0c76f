package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/pagination"
)

// Service is the read side of orders for customers.
type Service interface {
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error)
	Confirmation(ctx context.Context, orderID uuid.UUID) (*Confirmation, error)
}

type service struct {
	repo Repository
}

// NewService builds the orders read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	rows, next, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		if _, parseErr := pagination.ParseCursor(params.Cursor); parseErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	list := &OrderList{Orders: make([]OrderSummary, 0, len(rows)), NextCursor: next}
	for _, o := range rows {
		list.Orders = append(list.Orders, toSummary(o))
	}
	return list, nil
}

func (s *service) Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	detail := ToDetail(*order)
	return &detail, nil
}

// Confirmation exposes only the order number and total.
func (s *service) Confirmation(ctx context.Context, orderID uuid.UUID) (*Confirmation, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return &Confirmation{
		ID:            order.ID,
		Number:        order.Number(),
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
	}, nil
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
}
