package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Favorite struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name         string         `gorm:"type:varchar(255);not null"`
	DocType      string         `gorm:"type:varchar(64);not null;index:idx_favorites_section"`
	SectionIndex int            `gorm:"not null;index:idx_favorites_section"`
	IsShared     bool           `gorm:"not null;default:false"`
	DataToSave   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Favorite) TableName() string {
	return "favorites"
}
