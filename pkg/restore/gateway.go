package restore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"docgen-selection-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// StorageVersion is part of every slot key. Bump it when the envelope
// changes so older clients never misread a newer slot.
const StorageVersion = 1

const (
	slotNamespace  = "docgen"
	DefaultSlotTTL = 12 * time.Hour
)

// Gateway is the storage boundary used by a Coordinator.
type Gateway interface {
	// LoadTabSessionState returns nil when there is no slot, the store is
	// unavailable or the stored value does not parse. Slots hold JSON, so a
	// loaded payload equals EncodePayload of what was saved: numbers come back
	// as float64 and slices as []any.
	LoadTabSessionState(ctx context.Context, docType string, sectionIndex int) Payload
	// SaveTabSessionState is best effort; failures are logged and dropped.
	SaveTabSessionState(ctx context.Context, docType string, sectionIndex int, payload Payload)
	// ClearTabSessionState removes the slot. Clearing twice is a no-op.
	ClearTabSessionState(ctx context.Context, docType string, sectionIndex int)
	// LoadFavorite fetches a favorite from the backend.
	LoadFavorite(ctx context.Context, favoriteID uuid.UUID) (*FavoriteRecord, error)
}

// SlotStore is a byte key-value store holding session slots. Get reports
// found=false for a missing key without an error.
type SlotStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// FavoriteLoader fetches favorite records; backed by the favorites service.
type FavoriteLoader interface {
	LoadFavorite(ctx context.Context, favoriteID uuid.UUID) (*FavoriteRecord, error)
}

// SlotKey is the namespaced key of a session slot.
func SlotKey(tabSession uuid.UUID, docType string, sectionIndex int) string {
	return fmt.Sprintf("%s:v%d:%s:%s:%d", slotNamespace, StorageVersion, tabSession, docType, sectionIndex)
}

// LegacySlotKey is the unversioned key older clients wrote. It is read as a
// fallback and deleted on clear, never written.
func LegacySlotKey(tabSession uuid.UUID, docType string, sectionIndex int) string {
	return fmt.Sprintf("%s:%s-%d", tabSession, docType, sectionIndex)
}

type slotEnvelope struct {
	Version      int       `json:"version"`
	DocType      string    `json:"doc_type"`
	SectionIndex int       `json:"section_index"`
	SavedAt      time.Time `json:"saved_at"`
	Data         Payload   `json:"data"`
}

// SessionGateway implements Gateway for one tab session.
type SessionGateway struct {
	store      SlotStore
	favorites  FavoriteLoader
	tabSession uuid.UUID
	ttl        time.Duration
	logger     logger.ILogger
}

func NewSessionGateway(store SlotStore, favorites FavoriteLoader, tabSession uuid.UUID, ttl time.Duration, log logger.ILogger) *SessionGateway {
	if ttl <= 0 {
		ttl = DefaultSlotTTL
	}
	return &SessionGateway{
		store:      store,
		favorites:  favorites,
		tabSession: tabSession,
		ttl:        ttl,
		logger:     log,
	}
}

func (g *SessionGateway) LoadTabSessionState(ctx context.Context, docType string, sectionIndex int) Payload {
	key := SlotKey(g.tabSession, docType, sectionIndex)
	raw, found, err := g.store.Get(ctx, key)
	if err != nil {
		g.storageFailure("load", key, err)
		return nil
	}
	if found {
		var env slotEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			g.logger.Warn("Gateway", "Discarding unparsable session slot", map[string]interface{}{"key": key, "error": err.Error()})
			return nil
		}
		if env.Version != StorageVersion || env.DocType != docType || env.SectionIndex != sectionIndex {
			g.logger.Warn("Gateway", "Session slot belongs to another section or version", map[string]interface{}{
				"key": key, "version": env.Version, "doc_type": env.DocType, "section_index": env.SectionIndex,
			})
			return nil
		}
		return env.Data
	}

	legacyKey := LegacySlotKey(g.tabSession, docType, sectionIndex)
	raw, found, err = g.store.Get(ctx, legacyKey)
	if err != nil {
		g.storageFailure("load", legacyKey, err)
		return nil
	}
	if !found {
		return nil
	}
	var legacy Payload
	if err := json.Unmarshal(raw, &legacy); err != nil {
		g.logger.Warn("Gateway", "Discarding unparsable legacy session slot", map[string]interface{}{"key": legacyKey, "error": err.Error()})
		return nil
	}
	return legacy
}

func (g *SessionGateway) SaveTabSessionState(ctx context.Context, docType string, sectionIndex int, payload Payload) {
	if payload == nil {
		payload = Payload{}
	}
	key := SlotKey(g.tabSession, docType, sectionIndex)
	raw, err := json.Marshal(slotEnvelope{
		Version:      StorageVersion,
		DocType:      docType,
		SectionIndex: sectionIndex,
		SavedAt:      time.Now().UTC(),
		Data:         payload,
	})
	if err != nil {
		g.storageFailure("save", key, err)
		return
	}
	if err := g.store.Set(ctx, key, raw, g.ttl); err != nil {
		g.storageFailure("save", key, err)
		return
	}
	slotSavesTotal.Inc()
}

func (g *SessionGateway) ClearTabSessionState(ctx context.Context, docType string, sectionIndex int) {
	for _, key := range []string{
		SlotKey(g.tabSession, docType, sectionIndex),
		LegacySlotKey(g.tabSession, docType, sectionIndex),
	} {
		if err := g.store.Delete(ctx, key); err != nil {
			g.storageFailure("clear", key, err)
		}
	}
}

func (g *SessionGateway) LoadFavorite(ctx context.Context, favoriteID uuid.UUID) (*FavoriteRecord, error) {
	if g.favorites == nil {
		return nil, ErrFavoriteNotFound
	}
	return g.favorites.LoadFavorite(ctx, favoriteID)
}

func (g *SessionGateway) storageFailure(op, key string, err error) {
	slotStorageFailuresTotal.WithLabelValues(op).Inc()
	g.logger.Warn("Gateway", "Session slot storage failed", map[string]interface{}{"op": op, "key": key, "error": err.Error()})
}
