package broadcast

import (
	"context"
	"strings"

	"docgen-selection-be/internal/pkg/logger"
	"docgen-selection-be/pkg/events"
	pktNats "docgen-selection-be/pkg/nats"
)

var subjectToken = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

// Subject is the bus subject for clears of one document type.
func Subject(docType string) string {
	return pktNats.SubjectPrefix + ".clear-tab." + subjectToken.Replace(docType)
}

// NatsBridge carries clear events between instances over JetStream.
type NatsBridge struct {
	pub    *pktNats.Publisher
	sub    *pktNats.Subscriber
	target *Broadcaster
	logger logger.ILogger
}

func NewNatsBridge(pub *pktNats.Publisher, sub *pktNats.Subscriber, target *Broadcaster, log logger.ILogger) *NatsBridge {
	return &NatsBridge{pub: pub, sub: sub, target: target, logger: log}
}

func (n *NatsBridge) PublishClearTab(ctx context.Context, ev events.ClearTabEvent) error {
	return n.pub.Publish(ctx, Subject(ev.DocType), ev)
}

// Start consumes clears raised elsewhere and redelivers them locally.
func (n *NatsBridge) Start(ctx context.Context) (func(), error) {
	return n.sub.Subscribe(ctx, pktNats.SubjectPrefix+".clear-tab.>", func(ctx context.Context, e events.Event) error {
		ev, err := events.ClearTabFromEvent(e)
		if err != nil {
			n.logger.Warn("Broadcast", "Ignoring malformed remote clear", map[string]interface{}{"error": err.Error()})
			return nil
		}
		return n.target.Deliver(ctx, ev)
	})
}
