package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products on the storefront.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex:ux_categories_name"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex:ux_categories_slug"`
	Description string    `gorm:"column:description;not null;default:''"`
	ImageURL    *string   `gorm:"column:image_url"`
	Products    []Product `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	return nil
}
