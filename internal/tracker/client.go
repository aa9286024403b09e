package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docgen-selection-be/internal/pkg/logger"
	"docgen-selection-be/pkg/restore"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

var ErrTrackerUnavailable = errors.New("issue tracker unavailable")

// Client reads the live catalogs saved selections are checked against.
type Client interface {
	TestPlans(ctx context.Context) ([]TestPlan, error)
	PlanSuites(ctx context.Context, planID int) ([]restore.SuiteNode, error)
	Queries(ctx context.Context) ([]*QueryNode, error)
	ReleaseDefinitions(ctx context.Context) ([]ReleaseDefinition, error)
	ReleaseHistory(ctx context.Context, definitionKey string) ([]ReleaseHistoryEntry, error)
	Pipelines(ctx context.Context) ([]Pipeline, error)
	PipelineRuns(ctx context.Context, pipelineID int) ([]PipelineRun, error)
	Repositories(ctx context.Context) ([]Repository, error)
	Branches(ctx context.Context, repoID string) ([]Branch, error)
}

type ClientOptions struct {
	BaseURL        string
	Token          string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
}

func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		RequestTimeout: 15 * time.Second,
		CacheTTL:       2 * time.Minute,
	}
}

// HTTPClient talks to the tracker REST API. Catalog responses are cached per
// path and concurrent fetches of the same path share one request.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *cache.Cache
	group   singleflight.Group
	logger  logger.ILogger
}

func NewHTTPClient(opts ClientOptions, log logger.ILogger) *HTTPClient {
	defaults := DefaultClientOptions()
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaults.RequestTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaults.CacheTTL
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    &http.Client{Timeout: opts.RequestTimeout},
		cache:   cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		logger:  log,
	}
}

func (c *HTTPClient) TestPlans(ctx context.Context) ([]TestPlan, error) {
	return getList[TestPlan](ctx, c, "/testplans")
}

func (c *HTTPClient) PlanSuites(ctx context.Context, planID int) ([]restore.SuiteNode, error) {
	return getList[restore.SuiteNode](ctx, c, fmt.Sprintf("/testplans/%d/suites", planID))
}

func (c *HTTPClient) Queries(ctx context.Context) ([]*QueryNode, error) {
	return getList[*QueryNode](ctx, c, "/queries")
}

func (c *HTTPClient) ReleaseDefinitions(ctx context.Context) ([]ReleaseDefinition, error) {
	return getList[ReleaseDefinition](ctx, c, "/releases/definitions")
}

func (c *HTTPClient) ReleaseHistory(ctx context.Context, definitionKey string) ([]ReleaseHistoryEntry, error) {
	return getList[ReleaseHistoryEntry](ctx, c, "/releases/definitions/"+url.PathEscape(definitionKey)+"/history")
}

func (c *HTTPClient) Pipelines(ctx context.Context) ([]Pipeline, error) {
	return getList[Pipeline](ctx, c, "/pipelines")
}

func (c *HTTPClient) PipelineRuns(ctx context.Context, pipelineID int) ([]PipelineRun, error) {
	return getList[PipelineRun](ctx, c, fmt.Sprintf("/pipelines/%d/runs", pipelineID))
}

func (c *HTTPClient) Repositories(ctx context.Context) ([]Repository, error) {
	return getList[Repository](ctx, c, "/repositories")
}

func (c *HTTPClient) Branches(ctx context.Context, repoID string) ([]Branch, error) {
	return getList[Branch](ctx, c, "/repositories/"+url.PathEscape(repoID)+"/branches")
}

// Invalidate drops every cached catalog.
func (c *HTTPClient) Invalidate() {
	c.cache.Flush()
}

type listEnvelope[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

func getList[T any](ctx context.Context, c *HTTPClient, path string) ([]T, error) {
	if v, ok := c.cache.Get(path); ok {
		return v.([]T), nil
	}

	v, err, shared := c.group.Do(path, func() (interface{}, error) {
		var env listEnvelope[T]
		if err := c.getJSON(ctx, path, &env); err != nil {
			return nil, err
		}
		if env.Value == nil {
			env.Value = []T{}
		}
		c.cache.Set(path, env.Value, cache.DefaultExpiration)
		return env.Value, nil
	})
	if err != nil {
		c.logger.Warn("Tracker", "Catalog fetch failed", map[string]interface{}{"path": path, "error": err.Error()})
		return nil, err
	}
	if shared {
		c.logger.Debug("Tracker", "Catalog fetch shared", map[string]interface{}{"path": path})
	}
	return v.([]T), nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build tracker request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTrackerUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read tracker response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s returned %d", ErrTrackerUnavailable, path, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tracker %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode tracker response %s: %w", path, err)
	}
	return nil
}
