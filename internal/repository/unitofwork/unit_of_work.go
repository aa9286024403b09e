package unitofwork

import (
	"context"

	"docgen-selection-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	FavoriteRepository() contract.FavoriteRepository
}
