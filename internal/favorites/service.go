package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ToggleResult is the AJAX payload after a toggle.
type ToggleResult struct {
	OK        bool `json:"ok"`
	Favorited bool `json:"favorited"`
}

// Service flips favorites for signed-in customers.
type Service interface {
	Toggle(ctx context.Context, sess *sessionstore.Session, userID, productID uuid.UUID) (ToggleResult, error)
	Restore(ctx context.Context, sess *sessionstore.Session, userID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products productLoader
}

// NewService builds the favorites service.
func NewService(repo *Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("favorites repo required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// Toggle adds the product to the session favorites or takes it out, and
// mirrors the change to the database.
func (s *service) Toggle(ctx context.Context, sess *sessionstore.Session, userID, productID uuid.UUID) (ToggleResult, error) {
	if userID == uuid.Nil {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ToggleResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	key := productID.String()
	current := sess.StringSlice(sessionstore.KeyFavorites)
	next := make([]string, 0, len(current)+1)
	favorited := true
	for _, id := range current {
		if id == key {
			favorited = false
			continue
		}
		next = append(next, id)
	}

	if favorited {
		next = append(next, key)
		if err := s.repo.Add(ctx, userID, productID); err != nil {
			return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save favorite")
		}
	} else if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove favorite")
	}

	sess.Set(sessionstore.KeyFavorites, next)
	return ToggleResult{OK: true, Favorited: favorited}, nil
}

// Restore merges persisted favorites into the session, keeping any already
// there.
func (s *service) Restore(ctx context.Context, sess *sessionstore.Session, userID uuid.UUID) error {
	ids, err := s.repo.ProductIDs(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load favorites")
	}
	current := sess.StringSlice(sessionstore.KeyFavorites)
	seen := make(map[string]struct{}, len(current)+len(ids))
	for _, id := range current {
		seen[id] = struct{}{}
	}
	merged := current
	for _, id := range ids {
		key := id.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, key)
	}
	if len(merged) == len(current) {
		return nil
	}
	sess.Set(sessionstore.KeyFavorites, merged)
	return nil
}
