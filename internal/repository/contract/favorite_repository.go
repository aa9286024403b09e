package contract

import (
	"context"

	"docgen-selection-be/internal/entity"
	"docgen-selection-be/internal/repository/specification"

	"github.com/google/uuid"
)

// FavoriteRepository has no Update: favorites are immutable.
type FavoriteRepository interface {
	Create(ctx context.Context, favorite *entity.Favorite) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Favorite, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Favorite, error)
}
