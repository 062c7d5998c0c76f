package models

// All lists every persisted model in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&Category{},
		&Product{},
		&ProductImage{},
		&User{},
		&Coupon{},
		&Order{},
		&OrderItem{},
		&Rating{},
		&Favorite{},
	}
}
