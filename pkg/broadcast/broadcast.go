// Package broadcast fans "clear tab" requests out to every section listening
// for a document type, in this process and, through a Bridge, in others.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"docgen-selection-be/internal/pkg/logger"
	"docgen-selection-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Handler reacts to a clear request. Errors are logged, never redelivered.
type Handler func(ctx context.Context, ev events.ClearTabEvent) error

// Bridge forwards locally raised events to other instances.
type Bridge interface {
	PublishClearTab(ctx context.Context, ev events.ClearTabEvent) error
}

type Broadcaster struct {
	pubsub     *gochannel.GoChannel
	instanceID string
	logger     logger.ILogger

	mu     sync.RWMutex
	bridge Bridge
}

// New creates a broadcaster. Publishing blocks until every local subscriber
// has handled the event, so a clear is complete when ClearTab returns.
func New(instanceID string, log logger.ILogger) *Broadcaster {
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	return &Broadcaster{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		}, watermill.NewStdLogger(false, false)),
		instanceID: instanceID,
		logger:     log,
	}
}

func Topic(docType string) string {
	return "clear-tab:" + docType
}

func (b *Broadcaster) InstanceID() string {
	return b.instanceID
}

func (b *Broadcaster) SetBridge(bridge Bridge) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bridge = bridge
}

// ClearTab raises a clear for one tab and document type.
func (b *Broadcaster) ClearTab(ctx context.Context, tab uuid.UUID, docType string) error {
	ev := events.ClearTabEvent{
		TabSession: tab,
		DocType:    docType,
		Origin:     b.instanceID,
		OccurredAt: time.Now().UTC(),
	}
	if err := b.publishLocal(ev); err != nil {
		return err
	}

	b.mu.RLock()
	bridge := b.bridge
	b.mu.RUnlock()
	if bridge != nil {
		if err := bridge.PublishClearTab(ctx, ev); err != nil {
			b.logger.Warn("Broadcast", "Forwarding clear failed", map[string]interface{}{
				"doc_type": docType,
				"error":    err.Error(),
			})
		}
	}
	return nil
}

// Deliver hands an event received from another instance to local
// subscribers. Events this instance raised are ignored.
func (b *Broadcaster) Deliver(ctx context.Context, ev events.ClearTabEvent) error {
	if ev.Origin == b.instanceID {
		return nil
	}
	return b.publishLocal(ev)
}

// Subscribe runs handler for every clear of docType until ctx ends.
func (b *Broadcaster) Subscribe(ctx context.Context, docType string, handler Handler) error {
	msgs, err := b.pubsub.Subscribe(ctx, Topic(docType))
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", Topic(docType), err)
	}

	go func() {
		for msg := range msgs {
			var ev events.ClearTabEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				b.logger.Error("Broadcast", "Malformed clear event", map[string]interface{}{"error": err.Error()})
				msg.Ack()
				continue
			}
			if err := handler(msg.Context(), ev); err != nil {
				b.logger.Error("Broadcast", "Clear handler failed", map[string]interface{}{
					"doc_type":    ev.DocType,
					"tab_session": ev.TabSession,
					"error":       err.Error(),
				})
			}
			msg.Ack()
		}
	}()
	return nil
}

func (b *Broadcaster) Close() error {
	return b.pubsub.Close()
}

func (b *Broadcaster) publishLocal(ev events.ClearTabEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal clear event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(Topic(ev.DocType), msg); err != nil {
		return fmt.Errorf("publish %s: %w", Topic(ev.DocType), err)
	}
	return nil
}
