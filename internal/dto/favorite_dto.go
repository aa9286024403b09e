package dto

import (
	"time"

	"docgen-selection-be/pkg/restore"

	"github.com/google/uuid"
)

type SaveFavoriteRequest struct {
	Name         string          `json:"name" validate:"required,max=255"`
	DocType      string          `json:"doc_type" validate:"required,max=64"`
	SectionIndex int             `json:"section_index" validate:"gte=0"`
	IsShared     bool            `json:"is_shared"`
	DataToSave   restore.Payload `json:"data_to_save" validate:"required"`
}

// SaveSectionFavoriteRequest saves whatever the mounted section currently holds.
type SaveSectionFavoriteRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	IsShared bool   `json:"is_shared"`
}

type ListFavoritesQuery struct {
	DocType      string `query:"doc_type" validate:"required"`
	SectionIndex *int   `query:"section_index" validate:"omitempty,gte=0"`
	// Mine hides favorites other users shared.
	Mine   bool `query:"mine"`
	Limit  int  `query:"limit" validate:"omitempty,gte=1,lte=100"`
	Offset int  `query:"offset" validate:"gte=0"`
}

type FavoriteResponse struct {
	Id           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	DocType      string          `json:"doc_type"`
	SectionIndex int             `json:"section_index"`
	IsShared     bool            `json:"is_shared"`
	IsOwner      bool            `json:"is_owner"`
	DataToSave   restore.Payload `json:"data_to_save"`
	CreatedAt    time.Time       `json:"created_at"`
}

type FavoriteSummaryResponse struct {
	Id           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	SectionIndex int       `json:"section_index"`
	IsShared     bool      `json:"is_shared"`
	IsOwner      bool      `json:"is_owner"`
	CreatedAt    time.Time `json:"created_at"`
}
