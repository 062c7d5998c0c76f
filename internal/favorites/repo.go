package favorites

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
)

// Repository mirrors session favorites into the favorites table.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts the favorite and ignores duplicates.
func (r *Repository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil || productID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO favorites (id, user_id, product_id, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP) ON CONFLICT (user_id, product_id) DO NOTHING`, uuid.New(), userID, productID).
		Error
}

// Remove deletes the favorite if it exists.
func (r *Repository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.Favorite{}).
		Error
}

// ProductIDs lists the user's favorites, oldest first.
func (r *Repository) ProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
