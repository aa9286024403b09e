package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const ClearTabType = "CLEAR_TAB"

// ClearTabEvent asks every section of a tab's document type to reset.
// Origin is the instance that raised it.
type ClearTabEvent struct {
	TabSession uuid.UUID `json:"tab_session"`
	DocType    string    `json:"doc_type"`
	Origin     string    `json:"origin"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e ClearTabEvent) EventType() string {
	return ClearTabType
}

func (e ClearTabEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"tab_session": e.TabSession.String(),
		"doc_type":    e.DocType,
		"origin":      e.Origin,
	}
}

func (e ClearTabEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// ClearTabFromEvent rebuilds a ClearTabEvent from a generic event, such as
// one reconstructed off the wire.
func ClearTabFromEvent(ev Event) (ClearTabEvent, error) {
	if ce, ok := ev.(ClearTabEvent); ok {
		return ce, nil
	}
	if ev.EventType() != ClearTabType {
		return ClearTabEvent{}, fmt.Errorf("unexpected event type %q", ev.EventType())
	}

	data := ev.Payload()
	rawTab, _ := data["tab_session"].(string)
	tab, err := uuid.Parse(rawTab)
	if err != nil {
		return ClearTabEvent{}, fmt.Errorf("invalid tab_session: %w", err)
	}
	docType, _ := data["doc_type"].(string)
	if docType == "" {
		return ClearTabEvent{}, fmt.Errorf("missing doc_type")
	}
	origin, _ := data["origin"].(string)

	return ClearTabEvent{
		TabSession: tab,
		DocType:    docType,
		Origin:     origin,
		OccurredAt: ev.Timestamp(),
	}, nil
}
