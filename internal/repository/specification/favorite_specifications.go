package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OwnedBy struct {
	OwnerID uuid.UUID
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner_id = ?", s.OwnerID)
}

// VisibleTo matches favorites the user owns or that someone shared.
type VisibleTo struct {
	UserID uuid.UUID
}

func (s VisibleTo) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("(owner_id = ? OR is_shared = ?)", s.UserID, true)
}

// ForSection narrows favorites to one section of one document type.
type ForSection struct {
	DocType      string
	SectionIndex int
}

func (s ForSection) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("doc_type = ? AND section_index = ?", s.DocType, s.SectionIndex)
}

type ByDocType struct {
	DocType string
}

func (s ByDocType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("doc_type = ?", s.DocType)
}

// ForUpdate row-locks the match until the surrounding transaction ends.
type ForUpdate struct{}

func (ForUpdate) Apply(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
