package dto

import (
	"docgen-selection-be/pkg/restore"

	"github.com/google/uuid"
)

type MountSectionRequest struct {
	Kind string `json:"kind" validate:"required,oneof=test-content str srs release-range commit-range pipeline-range"`
	// Async returns before the restore settles; the outcome arrives over the websocket.
	Async bool `json:"async"`
}

type UpdateSectionRequest struct {
	Data restore.Payload `json:"data" validate:"required"`
}

type SelectFavoriteRequest struct {
	FavoriteId uuid.UUID `json:"favorite_id" validate:"required"`
	Async      bool      `json:"async"`
}

type SectionStatusResponse struct {
	DocType      string          `json:"doc_type"`
	SectionIndex int             `json:"section_index"`
	Kind         string          `json:"kind"`
	Status       restore.Status  `json:"status"`
	Data         restore.Payload `json:"data"`
	Persisted    bool            `json:"persisted,omitempty"`
}

type TabStatusResponse struct {
	TabSession       uuid.UUID                `json:"tab_session"`
	DocType          string                   `json:"doc_type"`
	SelectedFavorite *uuid.UUID               `json:"selected_favorite,omitempty"`
	Sections         []*SectionStatusResponse `json:"sections"`
}
