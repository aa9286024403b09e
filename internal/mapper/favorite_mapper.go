package mapper

import (
	"encoding/json"
	"time"

	"docgen-selection-be/internal/entity"
	"docgen-selection-be/internal/model"
	"docgen-selection-be/pkg/restore"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FavoriteMapper struct{}

func NewFavoriteMapper() *FavoriteMapper {
	return &FavoriteMapper{}
}

func (m *FavoriteMapper) ToEntity(f *model.Favorite) (*entity.Favorite, error) {
	if f == nil {
		return nil, nil
	}

	var deletedAt *time.Time
	if f.DeletedAt.Valid {
		t := f.DeletedAt.Time
		deletedAt = &t
	}

	data := restore.Payload{}
	if len(f.DataToSave) > 0 {
		if err := json.Unmarshal(f.DataToSave, &data); err != nil {
			return nil, err
		}
	}

	return &entity.Favorite{
		Id:           f.Id,
		OwnerId:      f.OwnerId,
		Name:         f.Name,
		DocType:      f.DocType,
		SectionIndex: f.SectionIndex,
		IsShared:     f.IsShared,
		DataToSave:   data,
		CreatedAt:    f.CreatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    f.DeletedAt.Valid,
	}, nil
}

func (m *FavoriteMapper) ToModel(f *entity.Favorite) (*model.Favorite, error) {
	if f == nil {
		return nil, nil
	}

	var deletedAt gorm.DeletedAt
	if f.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *f.DeletedAt, Valid: true}
	} else if f.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	data := f.DataToSave
	if data == nil {
		data = restore.Payload{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &model.Favorite{
		Id:           f.Id,
		OwnerId:      f.OwnerId,
		Name:         f.Name,
		DocType:      f.DocType,
		SectionIndex: f.SectionIndex,
		IsShared:     f.IsShared,
		DataToSave:   datatypes.JSON(raw),
		CreatedAt:    f.CreatedAt,
		DeletedAt:    deletedAt,
	}, nil
}

func (m *FavoriteMapper) ToEntities(favorites []*model.Favorite) ([]*entity.Favorite, error) {
	entities := make([]*entity.Favorite, len(favorites))
	for i, f := range favorites {
		e, err := m.ToEntity(f)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}
