package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
)

// ListFilter narrows the catalogue query.
type ListFilter struct {
	// Query matches product or category names, case-insensitively.
	Query string
}

// Repository wires together product and category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads every listed product that still exists.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("name ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// List returns products with their category and images, ordered by category
// then product name.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Joins("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})

	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + escapeLike(q) + "%"
		query = query.Where(`LOWER(products.name) LIKE ? ESCAPE '\' OR LOWER("Category".name) LIKE ? ESCAPE '\'`, like, like)
	}

	var products []models.Product
	if err := query.
		Order(`"Category".name ASC`).
		Order("products.name ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListCategories returns every category by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DecrementStock takes qty off the product only when at least qty is on hand.
// The comparison runs in the UPDATE itself so two checkouts racing for the
// last units cannot both succeed.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_qty >= ?", productID, qty).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"product_id": productID, "requested_qty": qty})
	}
	return nil
}
