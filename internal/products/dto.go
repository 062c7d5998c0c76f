package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	"github.com/angelmondragon/farmstore-backend/pkg/enums"
	"github.com/angelmondragon/farmstore-backend/pkg/pricing"
)

// ImageDTO is a product gallery image.
type ImageDTO struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// CatalogueProduct is a product as shown on the storefront for one session.
type CatalogueProduct struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	Slug           string            `json:"slug"`
	Description    string            `json:"description,omitempty"`
	Unit           enums.ProductUnit `json:"unit"`
	UnitLabel      string            `json:"unit_label"`
	Price          decimal.Decimal   `json:"price"`
	EffectivePrice decimal.Decimal   `json:"effective_price"`
	OnSale         bool              `json:"on_sale"`
	InStock        bool              `json:"in_stock"`
	InCart         decimal.Decimal   `json:"in_cart"`
	Remaining      string            `json:"remaining"`
	AvgStars       decimal.Decimal   `json:"avg_stars"`
	UserStars      int               `json:"user_stars"`
	IsFavorite     bool              `json:"is_favorite"`
	Images         []ImageDTO        `json:"images"`
}

// CategoryGroup is one catalogue section.
type CategoryGroup struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Slug        string             `json:"slug"`
	Description string             `json:"description,omitempty"`
	Products    []CatalogueProduct `json:"products"`
}

// Catalogue is the storefront listing.
type Catalogue struct {
	Categories    []CategoryGroup `json:"categories"`
	HasOOS        bool            `json:"has_oos"`
	Query         string          `json:"q"`
	ShowOOS       bool            `json:"show_oos"`
	ShowFavorites bool            `json:"show_fav"`
	CartItemTotal decimal.Decimal `json:"cart_item_total"`
}

func toCatalogueProduct(p models.Product, inCart decimal.Decimal) CatalogueProduct {
	images := make([]ImageDTO, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ImageDTO{URL: img.URL, Alt: img.Alt})
	}
	return CatalogueProduct{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Unit:           p.Unit,
		UnitLabel:      p.Unit.Label(),
		Price:          p.Price,
		EffectivePrice: pricing.EffectivePrice(p),
		OnSale:         pricing.OnSale(p),
		InStock:        p.InStock(),
		InCart:         inCart,
		Remaining:      pricing.FormatRemaining(p, inCart),
		Images:         images,
	}
}
