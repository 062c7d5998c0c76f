package ratings

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
)

// Repository persists product ratings.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a ratings repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert stores the rating, replacing any earlier rating by the same user for
// the same product.
func (r *Repository) Upsert(ctx context.Context, rating *models.Rating) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"stars", "text", "updated_at"}),
		}).
		Create(rating).Error
}

// Summary is the average and count of ratings for one product.
type Summary struct {
	ProductID uuid.UUID
	Average   decimal.Decimal
	Count     int64
}

type summaryRow struct {
	ProductID uuid.UUID `gorm:"column:product_id"`
	Avg       float64   `gorm:"column:avg"`
	Count     int64     `gorm:"column:cnt"`
}

// Summaries returns averages keyed by product for the given products.
func (r *Repository) Summaries(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]Summary, error) {
	out := map[uuid.UUID]Summary{}
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []summaryRow
	if err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("product_id, AVG(stars * 1.0) AS avg, COUNT(*) AS cnt").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = Summary{
			ProductID: row.ProductID,
			Average:   decimal.NewFromFloat(row.Avg).Round(2),
			Count:     row.Count,
		}
	}
	return out, nil
}

// StarCounts returns how many ratings the product has at each star value.
func (r *Repository) StarCounts(ctx context.Context, productID uuid.UUID) (map[int]int64, error) {
	var rows []struct {
		Stars int   `gorm:"column:stars"`
		Count int64 `gorm:"column:cnt"`
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("stars, COUNT(*) AS cnt").
		Where("product_id = ?", productID).
		Group("stars").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int]int64, len(rows))
	for _, row := range rows {
		out[row.Stars] = row.Count
	}
	return out, nil
}

// ByUser returns the stars the user gave, keyed by product.
func (r *Repository) ByUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	var ratings []models.Rating
	if err := r.db.WithContext(ctx).
		Select("product_id", "stars").
		Where("user_id = ?", userID).
		Find(&ratings).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(ratings))
	for _, rating := range ratings {
		out[rating.ProductID] = rating.Stars
	}
	return out, nil
}

// ListForProduct returns the product's reviews, newest first, with authors.
func (r *Repository) ListForProduct(ctx context.Context, productID uuid.UUID) ([]models.Rating, error) {
	var ratings []models.Rating
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}
