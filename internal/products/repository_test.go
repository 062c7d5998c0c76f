package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	"github.com/angelmondragon/farmstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
)

func mustCreateCategory(t *testing.T, repo *Repository, name string) *models.Category {
	t.Helper()
	category, err := repo.CreateCategory(context.Background(), &models.Category{Name: name})
	require.NoError(t, err)
	return category
}

func mustCreateProduct(t *testing.T, repo *Repository, categoryID uuid.UUID, name string, unit enums.ProductUnit, price, stock string) *models.Product {
	t.Helper()
	product, err := repo.Create(context.Background(), &models.Product{
		CategoryID: categoryID,
		Name:       name,
		Slug:       fmt.Sprintf("%s-%s", models.Slugify(name), uuid.NewString()[:8]),
		Unit:       unit,
		Price:      decimal.RequireFromString(price),
		StockQty:   decimal.RequireFromString(stock),
	})
	require.NoError(t, err)
	return product
}

func TestRepositoryListSearchesProductAndCategoryNames(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))
	veg := mustCreateCategory(t, repo, "Vegetables")
	dairy := mustCreateCategory(t, repo, "Dairy")
	mustCreateProduct(t, repo, veg.ID, "Carrots", enums.ProductUnitPound, "2.00", "10")
	mustCreateProduct(t, repo, veg.ID, "Beets", enums.ProductUnitPound, "3.00", "10")
	mustCreateProduct(t, repo, dairy.ID, "Goat Cheese", enums.ProductUnitEach, "7.50", "4")

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Goat Cheese", all[0].Name)
	require.NotNil(t, all[0].Category)
	assert.Equal(t, "Dairy", all[0].Category.Name)

	byProduct, err := repo.List(ctx, ListFilter{Query: "CARR"})
	require.NoError(t, err)
	require.Len(t, byProduct, 1)
	assert.Equal(t, "Carrots", byProduct[0].Name)

	byCategory, err := repo.List(ctx, ListFilter{Query: "vegetab"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	none, err := repo.List(ctx, ListFilter{Query: "100%"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepositoryFindByIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))
	cat := mustCreateCategory(t, repo, "Eggs")
	a := mustCreateProduct(t, repo, cat.ID, "Duck Eggs", enums.ProductUnitEach, "8.00", "6")

	found, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	empty, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryDecrementStock(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))
	cat := mustCreateCategory(t, repo, "Honey")
	p := mustCreateProduct(t, repo, cat.ID, "Raw Honey", enums.ProductUnitPound, "9.00", "2.5")

	require.NoError(t, repo.DecrementStock(ctx, p.ID, decimal.RequireFromString("1.5")))
	reloaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.StockQty.Equal(decimal.NewFromInt(1)), "stock = %s", reloaded.StockQty)

	err = repo.DecrementStock(ctx, p.ID, decimal.NewFromInt(2))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock), "got %v", err)

	reloaded, err = repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.StockQty.Equal(decimal.NewFromInt(1)))

	require.NoError(t, repo.DecrementStock(ctx, p.ID, decimal.Zero))
}
