package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"

	"docgen-selection-be/internal/pkg/logger"
	"docgen-selection-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	got []events.ClearTabEvent
}

func (r *recorder) handle(ctx context.Context, ev events.ClearTabEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, ev)
	return nil
}

func (r *recorder) events() []events.ClearTabEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.ClearTabEvent(nil), r.got...)
}

type fakeBridge struct {
	sent []events.ClearTabEvent
	err  error
}

func (f *fakeBridge) PublishClearTab(ctx context.Context, ev events.ClearTabEvent) error {
	f.sent = append(f.sent, ev)
	return f.err
}

func newBroadcaster(t *testing.T) *Broadcaster {
	b := New("instance-a", logger.NewNopLogger())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestClearTab_ReachesEverySubscriberBeforeReturning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := newBroadcaster(t)

	first, second := &recorder{}, &recorder{}
	require.NoError(t, b.Subscribe(ctx, "std", first.handle))
	require.NoError(t, b.Subscribe(ctx, "std", second.handle))

	tab := uuid.New()
	require.NoError(t, b.ClearTab(ctx, tab, "std"))

	for _, r := range []*recorder{first, second} {
		got := r.events()
		require.Len(t, got, 1)
		assert.Equal(t, tab, got[0].TabSession)
		assert.Equal(t, "std", got[0].DocType)
		assert.Equal(t, "instance-a", got[0].Origin)
	}
}

func TestClearTab_ScopedByDocType(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := newBroadcaster(t)

	std, str := &recorder{}, &recorder{}
	require.NoError(t, b.Subscribe(ctx, "std", std.handle))
	require.NoError(t, b.Subscribe(ctx, "str", str.handle))

	require.NoError(t, b.ClearTab(ctx, uuid.New(), "str"))

	assert.Empty(t, std.events())
	assert.Len(t, str.events(), 1)
}

func TestClearTab_WithoutSubscribers(t *testing.T) {
	b := newBroadcaster(t)
	assert.NoError(t, b.ClearTab(context.Background(), uuid.New(), "std"))
}

func TestClearTab_ForwardsToBridge(t *testing.T) {
	b := newBroadcaster(t)
	bridge := &fakeBridge{err: errors.New("nats down")}
	b.SetBridge(bridge)

	err := b.ClearTab(context.Background(), uuid.New(), "std")

	assert.NoError(t, err, "bridge failures do not fail the local clear")
	require.Len(t, bridge.sent, 1)
	assert.Equal(t, "instance-a", bridge.sent[0].Origin)
}

func TestDeliver_IgnoresOwnEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := newBroadcaster(t)

	rec := &recorder{}
	require.NoError(t, b.Subscribe(ctx, "std", rec.handle))

	own := events.ClearTabEvent{TabSession: uuid.New(), DocType: "std", Origin: "instance-a"}
	remote := events.ClearTabEvent{TabSession: uuid.New(), DocType: "std", Origin: "instance-b"}
	require.NoError(t, b.Deliver(ctx, own))
	require.NoError(t, b.Deliver(ctx, remote))

	got := rec.events()
	require.Len(t, got, 1)
	assert.Equal(t, remote.TabSession, got[0].TabSession)
}

func TestSubscribe_HandlerErrorDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := newBroadcaster(t)

	calls := 0
	require.NoError(t, b.Subscribe(ctx, "std", func(ctx context.Context, ev events.ClearTabEvent) error {
		calls++
		return errors.New("boom")
	}))

	require.NoError(t, b.ClearTab(ctx, uuid.New(), "std"))
	require.NoError(t, b.ClearTab(ctx, uuid.New(), "std"))
	assert.Equal(t, 2, calls)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "docgen.clear-tab.std", Subject("std"))
	assert.Equal(t, "docgen.clear-tab.a_b_c", Subject("a.b c"))
}

func TestClearTabFromEvent(t *testing.T) {
	tab := uuid.New()
	base := events.BaseEvent{
		Type: events.ClearTabType,
		Data: map[string]interface{}{"tab_session": tab.String(), "doc_type": "std", "origin": "b"},
	}

	ev, err := events.ClearTabFromEvent(base)
	require.NoError(t, err)
	assert.Equal(t, tab, ev.TabSession)
	assert.Equal(t, "b", ev.Origin)

	_, err = events.ClearTabFromEvent(events.BaseEvent{Type: "OTHER"})
	assert.Error(t, err)

	_, err = events.ClearTabFromEvent(events.BaseEvent{Type: events.ClearTabType, Data: map[string]interface{}{"tab_session": "nope"}})
	assert.Error(t, err)
}
