// Package restore re-populates form sections from previously saved
// selections. It holds the session-slot gateway, the reference and suite
// helpers used while resolving a saved payload, and the per-section
// Coordinator that applies a payload at most once per source.
package restore

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// Payload is a section-owned snapshot of its selections. Sections decode it
// into their own shape; the engine never looks inside.
type Payload map[string]any

// EncodePayload converts a section struct into a Payload.
func EncodePayload(v any) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// Decode fills out from the payload. Unknown keys are ignored and missing
// keys leave the zero value, so payloads written by older clients decode.
func (p Payload) Decode(out any) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// FavoriteRecord is a named, immutable snapshot of one section's selections.
type FavoriteRecord struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	IsShared     bool      `json:"isShared"`
	DocType      string    `json:"docType"`
	SectionIndex int       `json:"sectionIndex"`
	DataToSave   Payload   `json:"dataToSave"`
}

// Reference points at a server-side entity that may have disappeared since it
// was saved.
type Reference struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ReferenceNode is one node of a live catalog, e.g. the shared query tree.
type ReferenceNode struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	IsValidQuery bool             `json:"isValidQuery"`
	Children     []*ReferenceNode `json:"children,omitempty"`
}

// SuiteNode is a test suite in a flat parent-pointer list. ParentID is nil for
// the plan's root suite.
type SuiteNode struct {
	ID       int    `json:"id"`
	ParentID *int   `json:"parent"`
	Name     string `json:"name"`
}

// SuiteRef is a suite the user explicitly picked.
type SuiteRef struct {
	ID int `json:"id"`
}

// Warning is a non-blocking, user-visible note about a field that could not be
// restored.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	ErrInvalidTransition = errors.New("invalid restore state transition")
	ErrFavoriteNotFound  = errors.New("favorite not found")
	ErrRestoreInProgress = errors.New("section is restoring")
	ErrSectionRetired    = errors.New("section is no longer mounted")
)
