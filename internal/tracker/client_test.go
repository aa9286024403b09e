package tracker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"docgen-selection-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(ClientOptions{BaseURL: srv.URL + "/", Token: "secret"}, logger.NewNopLogger())
}

func TestHTTPClient_DecodesListAndSendsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/testplans/7/suites", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"count":2,"value":[{"id":1,"parent":null,"name":"Root"},{"id":2,"parent":1,"name":"Child"}]}`))
	})

	suites, err := c.PlanSuites(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, suites, 2)
	assert.Nil(t, suites[0].ParentID)
	require.NotNil(t, suites[1].ParentID)
	assert.Equal(t, 1, *suites[1].ParentID)
}

func TestHTTPClient_CachesByPath(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"value":[{"id":1,"name":"Plan"}]}`))
	})

	for i := 0; i < 3; i++ {
		plans, err := c.TestPlans(context.Background())
		require.NoError(t, err)
		assert.Len(t, plans, 1)
	}
	assert.Equal(t, int32(1), hits.Load())

	c.Invalidate()
	_, err := c.TestPlans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestHTTPClient_CollapsesConcurrentFetches(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{"value":[{"id":"q1","name":"Q","queryType":"tree"}]}`))
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			nodes, err := c.Queries(context.Background())
			assert.NoError(t, err)
			assert.Len(t, nodes, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPClient_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		unavailable bool
	}{
		{name: "server error", status: http.StatusBadGateway, body: "down", unavailable: true},
		{name: "not found", status: http.StatusNotFound, body: "no such project"},
		{name: "bad json", status: http.StatusOK, body: "{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Pipelines(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.unavailable, errorsIsUnavailable(err))
		})
	}
}

func TestHTTPClient_FailuresAreNotCached(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"value":[]}`))
	})

	_, err := c.Repositories(context.Background())
	require.Error(t, err)

	repos, err := c.Repositories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, repos)
	assert.Empty(t, repos)
}

func TestHTTPClient_EscapesPathSegments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/releases/definitions/web%2Fapi/history", r.URL.EscapedPath())
		w.Write([]byte(`{"value":[{"id":"10","name":"Release-10"}]}`))
	})

	history, err := c.ReleaseHistory(context.Background(), "web/api")
	require.NoError(t, err)
	assert.Equal(t, "10", history[0].ID)
}

func TestReferenceTree(t *testing.T) {
	nodes := []*QueryNode{
		{ID: "shared", Name: "Shared Queries", IsFolder: true, Children: []*QueryNode{
			{ID: "t1", QueryType: QueryTypeTree},
			{ID: "f1", QueryType: QueryTypeFlat},
			{ID: "h1", QueryType: QueryTypeOneHop},
		}},
		nil,
	}

	tree := ReferenceTree(nodes, TreeQueries)
	require.Len(t, tree, 1)
	assert.False(t, tree[0].IsValidQuery)
	require.Len(t, tree[0].Children, 3)
	assert.True(t, tree[0].Children[0].IsValidQuery)
	assert.False(t, tree[0].Children[1].IsValidQuery)
	assert.True(t, tree[0].Children[2].IsValidQuery)

	flat := ReferenceTree(nodes, FlatQueries)
	assert.True(t, flat[0].Children[1].IsValidQuery)
	assert.False(t, flat[0].Children[0].IsValidQuery)
}

func errorsIsUnavailable(err error) bool {
	return errors.Is(err, ErrTrackerUnavailable)
}
