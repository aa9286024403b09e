// Package trackertest provides an in-memory tracker.Client for tests.
package trackertest

import (
	"context"
	"sync"
	"time"

	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/pkg/restore"
)

// Fake serves fixed catalogs. Delay postpones every answer, MethodDelay
// postpones the named method only and Err fails every call.
type Fake struct {
	mu sync.Mutex

	Plans       []tracker.TestPlan
	Suites      map[int][]restore.SuiteNode
	QueryNodes  []*tracker.QueryNode
	Definitions []tracker.ReleaseDefinition
	History     map[string][]tracker.ReleaseHistoryEntry
	PipelineSet []tracker.Pipeline
	Runs        map[int][]tracker.PipelineRun
	Repos       []tracker.Repository
	BranchSet   map[string][]tracker.Branch

	Delay       time.Duration
	MethodDelay map[string]time.Duration
	Err         error

	calls map[string]int
}

func New() *Fake {
	return &Fake{
		Suites:      map[int][]restore.SuiteNode{},
		History:     map[string][]tracker.ReleaseHistoryEntry{},
		Runs:        map[int][]tracker.PipelineRun{},
		BranchSet:   map[string][]tracker.Branch{},
		MethodDelay: map[string]time.Duration{},
		calls:       map[string]int{},
	}
}

// Calls reports how often the named method ran.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *Fake) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	delay, err := f.Delay, f.Err
	if d, ok := f.MethodDelay[method]; ok {
		delay = d
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *Fake) TestPlans(ctx context.Context) ([]tracker.TestPlan, error) {
	if err := f.enter(ctx, "TestPlans"); err != nil {
		return nil, err
	}
	return f.Plans, nil
}

func (f *Fake) PlanSuites(ctx context.Context, planID int) ([]restore.SuiteNode, error) {
	if err := f.enter(ctx, "PlanSuites"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Suites[planID], nil
}

func (f *Fake) Queries(ctx context.Context) ([]*tracker.QueryNode, error) {
	if err := f.enter(ctx, "Queries"); err != nil {
		return nil, err
	}
	return f.QueryNodes, nil
}

func (f *Fake) ReleaseDefinitions(ctx context.Context) ([]tracker.ReleaseDefinition, error) {
	if err := f.enter(ctx, "ReleaseDefinitions"); err != nil {
		return nil, err
	}
	return f.Definitions, nil
}

func (f *Fake) ReleaseHistory(ctx context.Context, key string) ([]tracker.ReleaseHistoryEntry, error) {
	if err := f.enter(ctx, "ReleaseHistory"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.History[key], nil
}

func (f *Fake) Pipelines(ctx context.Context) ([]tracker.Pipeline, error) {
	if err := f.enter(ctx, "Pipelines"); err != nil {
		return nil, err
	}
	return f.PipelineSet, nil
}

func (f *Fake) PipelineRuns(ctx context.Context, pipelineID int) ([]tracker.PipelineRun, error) {
	if err := f.enter(ctx, "PipelineRuns"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Runs[pipelineID], nil
}

func (f *Fake) Repositories(ctx context.Context) ([]tracker.Repository, error) {
	if err := f.enter(ctx, "Repositories"); err != nil {
		return nil, err
	}
	return f.Repos, nil
}

func (f *Fake) Branches(ctx context.Context, repoID string) ([]tracker.Branch, error) {
	if err := f.enter(ctx, "Branches"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.BranchSet[repoID], nil
}

var _ tracker.Client = (*Fake)(nil)
