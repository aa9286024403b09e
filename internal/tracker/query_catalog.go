package tracker

import (
	"context"
	"sync"

	"docgen-selection-be/internal/pkg/logger"
	"docgen-selection-be/pkg/restore"
)

// QueryCatalog holds the shared query hierarchy. It is loaded once per
// workspace in the background; listeners run after every successful load.
type QueryCatalog struct {
	client Client
	logger logger.ILogger

	mu        sync.RWMutex
	nodes     []*QueryNode
	loaded    bool
	loading   bool
	listeners []func(ctx context.Context)
}

func NewQueryCatalog(client Client, log logger.ILogger) *QueryCatalog {
	return &QueryCatalog{client: client, logger: log}
}

// Fetch starts a load unless one is running or the catalog is loaded.
func (q *QueryCatalog) Fetch(ctx context.Context) {
	q.mu.Lock()
	if q.loading || q.loaded {
		q.mu.Unlock()
		return
	}
	q.loading = true
	q.mu.Unlock()

	go func() {
		bg := context.WithoutCancel(ctx)
		nodes, err := q.client.Queries(bg)

		q.mu.Lock()
		q.loading = false
		if err != nil {
			q.mu.Unlock()
			q.logger.Warn("QueryCatalog", "Loading queries failed", map[string]interface{}{"error": err.Error()})
			return
		}
		q.nodes = nodes
		q.loaded = true
		listeners := append([]func(context.Context){}, q.listeners...)
		q.mu.Unlock()

		for _, fn := range listeners {
			fn(bg)
		}
	}()
}

// Tree returns the catalog as reference nodes valid under the predicate, and
// whether the catalog has loaded.
func (q *QueryCatalog) Tree(valid QueryPredicate) ([]*restore.ReferenceNode, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.loaded {
		return nil, false
	}
	return ReferenceTree(q.nodes, valid), true
}

func (q *QueryCatalog) Loading() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.loading
}

// OnLoaded registers fn to run after each load.
func (q *QueryCatalog) OnLoaded(fn func(ctx context.Context)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listeners = append(q.listeners, fn)
}

// Invalidate marks the catalog stale so the next Fetch reloads it.
func (q *QueryCatalog) Invalidate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.loaded = false
}
