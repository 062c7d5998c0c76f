package ratings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
)

const (
	MinStars = 1
	MaxStars = 5

	MessageInvalidRating    = "Invalid rating"
	MessagePurchaseRequired = "Purchase required"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type purchaseChecker interface {
	HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

// RateResult is returned after a rating is stored.
type RateResult struct {
	OK    bool            `json:"ok"`
	Stars int             `json:"stars"`
	Avg   decimal.Decimal `json:"avg"`
	Count int64           `json:"count"`
}

// StarBucket is one row of the 5-to-1 star breakdown.
type StarBucket struct {
	Stars   int     `json:"stars"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

// ReviewDTO is one published review.
type ReviewDTO struct {
	Stars     int       `json:"stars"`
	Text      string    `json:"text,omitempty"`
	Author    string    `json:"author"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Detail is the reviews page for a product.
type Detail struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Avg         decimal.Decimal `json:"avg"`
	Count       int64           `json:"count"`
	Breakdown   []StarBucket    `json:"breakdown"`
	Reviews     []ReviewDTO     `json:"reviews"`
}

// Service exposes rating operations.
type Service interface {
	Rate(ctx context.Context, userID, productID uuid.UUID, stars int, text string) (*RateResult, error)
	Detail(ctx context.Context, productID uuid.UUID) (*Detail, error)
	Averages(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	UserStars(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
}

// ServiceParams groups dependencies for the ratings service.
type ServiceParams struct {
	Repo            *Repository
	Products        productLoader
	Purchases       purchaseChecker
	RequirePurchase bool
}

type service struct {
	repo            *Repository
	products        productLoader
	purchases       purchaseChecker
	requirePurchase bool
}

// NewService builds the ratings service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("ratings repo required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.RequirePurchase && params.Purchases == nil {
		return nil, fmt.Errorf("purchase checker required when purchases are enforced")
	}
	return &service{
		repo:            params.Repo,
		products:        params.Products,
		purchases:       params.Purchases,
		requirePurchase: params.RequirePurchase,
	}, nil
}

// Rate stores the user's rating for the product, replacing any earlier one,
// and returns the product's new average.
func (s *service) Rate(ctx context.Context, userID, productID uuid.UUID, stars int, text string) (*RateResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if stars < MinStars || stars > MaxStars {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, MessageInvalidRating)
	}
	if _, err := s.loadProduct(ctx, productID); err != nil {
		return nil, err
	}

	if s.requirePurchase {
		ok, err := s.purchases.HasPurchased(ctx, userID, productID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase history")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, MessagePurchaseRequired)
		}
	}

	rating := &models.Rating{
		ProductID: productID,
		UserID:    userID,
		Stars:     stars,
		Text:      strings.TrimSpace(text),
	}
	if err := s.repo.Upsert(ctx, rating); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save rating")
	}

	summaries, err := s.repo.Summaries(ctx, []uuid.UUID{productID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rating average")
	}
	summary := summaries[productID]
	return &RateResult{OK: true, Stars: stars, Avg: summary.Average, Count: summary.Count}, nil
}

// Detail builds the reviews page. Percentages divide by the rating count, or
// by one when there are none.
func (s *service) Detail(ctx context.Context, productID uuid.UUID) (*Detail, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	ratings, err := s.repo.ListForProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	counts, err := s.repo.StarCounts(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count reviews")
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	denominator := total
	if denominator == 0 {
		denominator = 1
	}

	breakdown := make([]StarBucket, 0, MaxStars)
	weighted := int64(0)
	for stars := MaxStars; stars >= MinStars; stars-- {
		c := counts[stars]
		weighted += int64(stars) * c
		breakdown = append(breakdown, StarBucket{
			Stars:   stars,
			Count:   c,
			Percent: float64(c) * 100.0 / float64(denominator),
		})
	}

	avg := decimal.Zero
	if total > 0 {
		avg = decimal.NewFromInt(weighted).Div(decimal.NewFromInt(total)).Round(2)
	}

	reviews := make([]ReviewDTO, 0, len(ratings))
	for _, r := range ratings {
		reviews = append(reviews, ReviewDTO{
			Stars:     r.Stars,
			Text:      r.Text,
			Author:    authorName(r.User),
			UpdatedAt: r.UpdatedAt,
		})
	}

	return &Detail{
		ProductID:   product.ID,
		ProductName: product.Name,
		Avg:         avg,
		Count:       total,
		Breakdown:   breakdown,
		Reviews:     reviews,
	}, nil
}

// authorName shows the local part of the reviewer's email.
func authorName(u *models.User) string {
	if u == nil {
		return "Customer"
	}
	local, _, _ := strings.Cut(u.Email, "@")
	if local == "" {
		return "Customer"
	}
	return local
}

// Averages returns the average stars per rated product.
func (s *service) Averages(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	summaries, err := s.repo.Summaries(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rating averages")
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(summaries))
	for id, summary := range summaries {
		out[id] = summary.Average
	}
	return out, nil
}

// UserStars returns the stars the user gave, keyed by product.
func (s *service) UserStars(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	stars, err := s.repo.ByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user ratings")
	}
	return stars, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}
