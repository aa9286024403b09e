package unitofwork

import (
	"context"
	"errors"

	"docgen-selection-be/internal/repository/contract"
	"docgen-selection-be/internal/repository/implementation"

	"gorm.io/gorm"
)

var (
	errTxActive   = errors.New("unit of work: transaction already open")
	errTxNotBegun = errors.New("unit of work: no open transaction")
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	// tx is set between Begin and Commit/Rollback; repositories handed out
	// in that window join it.
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{db: db}
}

func (u *UnitOfWorkImpl) conn() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errTxActive
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return errTxNotBegun
	}
	tx := u.tx
	u.tx = nil
	return tx.Commit().Error
}

// Rollback after a successful Commit is a no-op, so it can always be
// deferred right after Begin.
func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return nil
	}
	tx := u.tx
	u.tx = nil
	return tx.Rollback().Error
}

func (u *UnitOfWorkImpl) FavoriteRepository() contract.FavoriteRepository {
	return implementation.NewFavoriteRepository(u.conn())
}
