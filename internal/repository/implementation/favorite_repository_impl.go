package implementation

import (
	"context"
	"errors"

	"docgen-selection-be/internal/entity"
	"docgen-selection-be/internal/mapper"
	"docgen-selection-be/internal/model"
	"docgen-selection-be/internal/repository/contract"
	"docgen-selection-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FavoriteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FavoriteMapper
}

func NewFavoriteRepository(db *gorm.DB) contract.FavoriteRepository {
	return &FavoriteRepositoryImpl{
		db:     db,
		mapper: mapper.NewFavoriteMapper(),
	}
}

func (r *FavoriteRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *FavoriteRepositoryImpl) Create(ctx context.Context, favorite *entity.Favorite) error {
	m, err := r.mapper.ToModel(favorite)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	created, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*favorite = *created
	return nil
}

func (r *FavoriteRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Favorite{}, id).Error
}

func (r *FavoriteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Favorite, error) {
	var m model.Favorite
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *FavoriteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Favorite, error) {
	var models []*model.Favorite
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}
