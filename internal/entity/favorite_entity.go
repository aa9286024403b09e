package entity

import (
	"time"

	"docgen-selection-be/pkg/restore"

	"github.com/google/uuid"
)

// Favorite is immutable once created; saving again creates a new record.
type Favorite struct {
	Id           uuid.UUID
	OwnerId      uuid.UUID
	Name         string
	DocType      string
	SectionIndex int
	IsShared     bool
	DataToSave   restore.Payload
	CreatedAt    time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}

func (f *Favorite) Record() *restore.FavoriteRecord {
	return &restore.FavoriteRecord{
		ID:           f.Id,
		Name:         f.Name,
		IsShared:     f.IsShared,
		DocType:      f.DocType,
		SectionIndex: f.SectionIndex,
		DataToSave:   f.DataToSave,
	}
}
