package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/internal/cart"
	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/pricing"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

// DefaultAverageStars is shown for products nobody has rated yet.
var DefaultAverageStars = decimal.NewFromInt(5)

type productLister interface {
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
}

type ratingSummaries interface {
	Averages(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	UserStars(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
}

// Filter holds the catalogue toggles.
type Filter struct {
	Query         string
	ShowOOS       bool
	ShowFavorites bool
}

// Service exposes storefront product browsing.
type Service interface {
	Catalogue(ctx context.Context, sess *sessionstore.Session, userID *uuid.UUID, filter Filter) (*Catalogue, error)
}

type service struct {
	repo    productLister
	ratings ratingSummaries
}

// NewService builds the catalogue service.
func NewService(repo productLister, ratings ratingSummaries) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if ratings == nil {
		return nil, fmt.Errorf("rating summaries required")
	}
	return &service{repo: repo, ratings: ratings}, nil
}

// Catalogue groups matching products by category. Sold-out products stay
// hidden unless requested or already in the cart; categories left empty by
// the filters are dropped.
func (s *service) Catalogue(ctx context.Context, sess *sessionstore.Session, userID *uuid.UUID, filter Filter) (*Catalogue, error) {
	products, err := s.repo.List(ctx, ListFilter{Query: filter.Query})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	averages, err := s.ratings.Averages(ctx, ids)
	if err != nil {
		return nil, err
	}
	userStars := map[uuid.UUID]int{}
	if userID != nil {
		if userStars, err = s.ratings.UserStars(ctx, *userID); err != nil {
			return nil, err
		}
	}

	c, _ := cart.FromSession(sess)
	favorites := map[string]struct{}{}
	for _, id := range sess.StringSlice(sessionstore.KeyFavorites) {
		favorites[id] = struct{}{}
	}

	out := &Catalogue{
		Categories:    []CategoryGroup{},
		Query:         filter.Query,
		ShowOOS:       filter.ShowOOS,
		ShowFavorites: filter.ShowFavorites,
		CartItemTotal: cart.TotalQuantity(sess),
	}

	groups := map[uuid.UUID]int{}
	for _, p := range products {
		if !p.StockQty.IsPositive() {
			out.HasOOS = true
		}

		inCart := c.Qty(p.ID)
		item := toCatalogueProduct(p, inCart)
		item.AvgStars = DefaultAverageStars
		if avg, ok := averages[p.ID]; ok {
			item.AvgStars = avg
		}
		item.UserStars = userStars[p.ID]
		_, item.IsFavorite = favorites[p.ID.String()]

		if !filter.ShowOOS && !pricing.Remaining(p, inCart).IsPositive() && !inCart.IsPositive() {
			continue
		}
		if filter.ShowFavorites && !item.IsFavorite {
			continue
		}

		idx, ok := groups[p.CategoryID]
		if !ok {
			group := CategoryGroup{ID: p.CategoryID, Products: []CatalogueProduct{}}
			if p.Category != nil {
				group.Name = p.Category.Name
				group.Slug = p.Category.Slug
				group.Description = p.Category.Description
			}
			out.Categories = append(out.Categories, group)
			idx = len(out.Categories) - 1
			groups[p.CategoryID] = idx
		}
		out.Categories[idx].Products = append(out.Categories[idx].Products, item)
	}
	return out, nil
}
