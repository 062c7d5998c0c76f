package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstore-backend/pkg/enums"
)

// Product is a sellable item with its live stock level.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID  uuid.UUID           `gorm:"column:category_id;type:uuid;not null;index:products_category_id_idx"`
	Category    *Category           `gorm:"foreignKey:CategoryID"`
	Name        string              `gorm:"column:name;not null"`
	Slug        string              `gorm:"column:slug;not null;uniqueIndex:ux_products_slug"`
	Description string              `gorm:"column:description;not null;default:''"`
	Unit        enums.ProductUnit   `gorm:"column:unit;type:text;not null;default:'ea'"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(7,2);not null"`
	SalePrice   decimal.NullDecimal `gorm:"column:sale_price;type:numeric(7,2)"`
	StockQty    decimal.Decimal     `gorm:"column:stock_qty;type:numeric(10,3);not null;default:0"`
	Images      []ProductImage      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	return nil
}

// InStock reports whether any quantity is left to sell.
func (p Product) InStock() bool {
	return p.StockQty.IsPositive()
}

// ProductImage is a gallery image for a product.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:product_images_product_id_idx"`
	URL       string    `gorm:"column:url;not null"`
	Alt       string    `gorm:"column:alt;not null;default:''"`
	Position  int       `gorm:"column:position;not null;default:0"`
}

func (i *ProductImage) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
