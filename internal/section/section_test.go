package section

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"docgen-selection-be/internal/pkg/logger"
	"docgen-selection-be/internal/repository/memory"
	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/internal/tracker/trackertest"
	"docgen-selection-be/pkg/restore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

type harness struct {
	fake    *trackertest.Fake
	deps    Deps
	gateway *restore.SessionGateway
}

func newHarness(t *testing.T) *harness {
	fake := trackertest.New()
	fake.Plans = []tracker.TestPlan{{ID: 7, Name: "Sprint 7"}}
	fake.Suites[7] = []restore.SuiteNode{
		{ID: 1, Name: "A"},
		{ID: 2, ParentID: intPtr(1), Name: "B"},
		{ID: 3, ParentID: intPtr(1), Name: "C"},
		{ID: 4, ParentID: intPtr(3), Name: "D"},
	}
	fake.QueryNodes = []*tracker.QueryNode{
		{ID: "shared", Name: "Shared Queries", IsFolder: true, Children: []*tracker.QueryNode{
			{ID: "req-tree", Name: "Requirements tree", QueryType: tracker.QueryTypeTree},
			{ID: "bugs-flat", Name: "Open bugs", QueryType: tracker.QueryTypeFlat},
		}},
	}

	log := logger.NewNopLogger()
	store := memory.NewSlotRepository(time.Hour)
	return &harness{
		fake: fake,
		deps: Deps{
			Tracker:     fake,
			Suites:      tracker.NewSuiteStore(fake, log),
			Queries:     tracker.NewQueryCatalog(fake, log),
			WaitTimeout: time.Second,
		},
		gateway: restore.NewSessionGateway(store, nil, uuid.New(), time.Hour, log),
	}
}

func (h *harness) loadQueries(t *testing.T) {
	h.deps.Queries.Fetch(context.Background())
	require.True(t, restore.WaitFor(context.Background(), h.deps.Queries.Loading, time.Second))
	_, loaded := h.deps.Queries.Tree(tracker.TreeQueries)
	require.True(t, loaded)
}

func (h *harness) mount(t *testing.T, kind Kind, saved restore.Payload) Mounted {
	ctx := context.Background()
	if saved != nil {
		h.gateway.SaveTabSessionState(ctx, "std", 0, saved)
	}
	m, err := New(kind, h.deps, restore.CoordinatorOptions{DocType: "std", SectionIndex: 0, Gateway: h.gateway})
	require.NoError(t, err)
	require.NoError(t, m.Sync(ctx))
	return m
}

func fields(ws []restore.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Field)
	}
	return out
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New("bogus", Deps{}, restore.CoordinatorOptions{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestTestContent_FullRestore(t *testing.T) {
	h := newHarness(t)
	h.loadQueries(t)

	m := h.mount(t, KindTestContent, restore.Payload{
		"testPlanId":                  7,
		"nonRecursiveTestSuiteIdList": []int{1},
		"includeAttachments":          true,
		"traceAnalysisRequest": map[string]any{
			"reqTestQuery": map[string]any{"id": "req-tree", "name": "Requirements tree"},
			"testReqQuery": map[string]any{"id": "deleted", "name": "Old query"},
		},
	})

	var got TestContentState
	require.NoError(t, m.Snapshot().Decode(&got))
	assert.Equal(t, 7, got.TestPlanID)
	assert.Equal(t, []int{1}, got.NonRecursiveTestSuiteIDList)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, got.TestSuiteArray)
	assert.True(t, got.IncludeAttachments)
	require.NotNil(t, got.TraceAnalysisRequest.ReqTestQuery)
	assert.Equal(t, "req-tree", got.TraceAnalysisRequest.ReqTestQuery.ID)
	assert.Nil(t, got.TraceAnalysisRequest.TestReqQuery)

	status := m.Status()
	assert.Equal(t, restore.StateReady, status.State)
	assert.Equal(t, restore.SourceSession, status.Source)
	assert.Equal(t, []string{"traceAnalysisRequest.testReqQuery"}, fields(status.Warnings))
}

func TestTestContent_StalePlanKeepsUnrelatedFields(t *testing.T) {
	h := newHarness(t)
	h.loadQueries(t)

	m := h.mount(t, KindTestContent, restore.Payload{
		"testPlanId":                  99,
		"nonRecursiveTestSuiteIdList": []int{1},
		"includeRequirements":         true,
	})

	var got TestContentState
	require.NoError(t, m.Snapshot().Decode(&got))
	assert.Zero(t, got.TestPlanID)
	assert.Empty(t, got.NonRecursiveTestSuiteIDList)
	assert.True(t, got.IncludeRequirements)
	assert.Equal(t, []string{"testPlanId"}, fields(m.Status().Warnings))
	assert.Equal(t, 0, h.fake.Calls("PlanSuites"))
}

func TestTestContent_MissingSuiteWarns(t *testing.T) {
	h := newHarness(t)
	h.loadQueries(t)

	m := h.mount(t, KindTestContent, restore.Payload{
		"testPlanId":                  7,
		"nonRecursiveTestSuiteIdList": []int{3, 99},
	})

	var got TestContentState
	require.NoError(t, m.Snapshot().Decode(&got))
	assert.Equal(t, []int{3}, got.NonRecursiveTestSuiteIDList)
	assert.ElementsMatch(t, []int{3, 4}, got.TestSuiteArray)
	assert.Equal(t, []string{"nonRecursiveTestSuiteIdList"}, fields(m.Status().Warnings))
}

func TestTestContent_SuiteTimeoutYieldsNothing(t *testing.T) {
	h := newHarness(t)
	h.loadQueries(t)
	h.fake.MethodDelay["PlanSuites"] = 2 * time.Second
	h.deps.WaitTimeout = 100 * time.Millisecond

	start := time.Now()
	m := h.mount(t, KindTestContent, restore.Payload{
		"testPlanId":                  7,
		"nonRecursiveTestSuiteIdList": []int{1},
	})
	assert.Less(t, time.Since(start), time.Second)

	var got TestContentState
	require.NoError(t, m.Snapshot().Decode(&got))
	assert.Equal(t, 7, got.TestPlanID)
	assert.Empty(t, got.NonRecursiveTestSuiteIDList)
	assert.Empty(t, m.Status().Warnings, "a timeout reads as nothing to restore")
	assert.Equal(t, restore.StateReady, m.Status().State)
}

func TestTestContent_SuiteLoadFailureWarns(t *testing.T) {
	h := newHarness(t)
	h.loadQueries(t)
	h.deps.Suites = tracker.NewSuiteStore(failingSuites{h.fake}, logger.NewNopLogger())

	m := h.mount(t, KindTestContent, restore.Payload{
		"testPlanId":                  7,
		"nonRecursiveTestSuiteIdList": []int{1},
		"includeAttachments":          true,
	})

	var got TestContentState
	require.NoError(t, m.Snapshot().Decode(&got))
	assert.Equal(t, 7, got.TestPlanID)
	assert.Empty(t, got.NonRecursiveTestSuiteIDList)
	assert.True(t, got.IncludeAttachments)
	assert.Equal(t, []string{"nonRecursiveTestSuiteIdList"}, fields(m.Status().Warnings))
}

// failingSuites serves everything from the fake except plan suites.
type failingSuites struct {
	*trackertest.Fake
}

func (failingSuites) PlanSuites(ctx context.Context, planID int) ([]restore.SuiteNode, error) {
	return nil, errors.New("suites unavailable")
}

func TestSuitePicks_TwoPlansRestoreConcurrently(t *testing.T) {
	h := newHarness(t)
	h.loadQueries(t)
	h.fake.Plans = append(h.fake.Plans, tracker.TestPlan{ID: 8, Name: "Sprint 8"})
	h.fake.Suites[8] = []restore.SuiteNode{
		{ID: 20, Name: "X"},
		{ID: 21, ParentID: intPtr(20), Name: "Y"},
	}
	h.fake.MethodDelay["PlanSuites"] = 100 * time.Millisecond

	ctx := context.Background()
	h.gateway.SaveTabSessionState(ctx, "std", 0, restore.Payload{"testPlanId": 7, "nonRecursiveTestSuiteIdList": []int{3}})
	h.gateway.SaveTabSessionState(ctx, "std", 1, restore.Payload{"testPlanId": 8, "nonRecursiveTestSuiteIdList": []int{20}})

	content, err := New(KindTestContent, h.deps, restore.CoordinatorOptions{DocType: "std", SectionIndex: 0, Gateway: h.gateway})
	require.NoError(t, err)
	results, err := New(KindSTR, h.deps, restore.CoordinatorOptions{DocType: "std", SectionIndex: 1, Gateway: h.gateway})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, m := range []Mounted{content, results} {
		wg.Add(1)
		go func(m Mounted) {
			defer wg.Done()
			assert.NoError(t, m.Sync(ctx))
		}(m)
	}
	wg.Wait()

	var gotContent TestContentState
	require.NoError(t, content.Snapshot().Decode(&gotContent))
	assert.Equal(t, []int{3}, gotContent.NonRecursiveTestSuiteIDList)
	assert.ElementsMatch(t, []int{3, 4}, gotContent.TestSuiteArray)
	assert.Empty(t, content.Status().Warnings)

	var gotResults STRState
	require.NoError(t, results.Snapshot().Decode(&gotResults))
	assert.Equal(t, []int{20}, gotResults.NonRecursiveTestSuiteIDList)
	assert.ElementsMatch(t, []int{20, 21}, gotResults.TestSuiteArray)
	assert.Empty(t, results.Status().Warnings)

	var saved STRState
	require.NoError(t, h.gateway.LoadTabSessionState(ctx, "std", 1).Decode(&saved))
	assert.Equal(t, []int{20}, saved.NonRecursiveTestSuiteIDList)
	assert.Equal(t, 2, h.fake.Calls("PlanSuites"))
}

func TestTestContent_LegacyFlatList(t *testing.T) {
	h := newHarness(t)
	h.loadQueries(t)

	m := h.mount(t, KindTestContent, restore.Payload{
		"testPlanId":     7,
		"testSuiteArray": []int{3, 4},
	})

	snap := m.Snapshot()
	var got TestContentState
	require.NoError(t, snap.Decode(&got))
	assert.Equal(t, []int{3, 4}, got.NonRecursiveTestSuiteIDList)
	assert.Contains(t, snap, "includeCustomerId", "the normalising save writes the current shape")

	reloaded := h.gateway.LoadTabSessionState(context.Background(), "std", 0)
	assert.Equal(t, snap, reloaded)
}

func TestTestContent_UpdateExpandsLoadedSuites(t *testing.T) {
	h := newHarness(t)
	h.loadQueries(t)
	m := h.mount(t, KindTestContent, restore.Payload{"testPlanId": 7, "nonRecursiveTestSuiteIdList": []int{2}})

	persisted, err := m.Update(context.Background(), restore.Payload{
		"testPlanId":                  7,
		"nonRecursiveTestSuiteIdList": []int{3},
	})
	require.NoError(t, err)
	assert.True(t, persisted)

	var got TestContentState
	require.NoError(t, h.gateway.LoadTabSessionState(context.Background(), "std", 0).Decode(&got))
	assert.Equal(t, []int{3}, got.NonRecursiveTestSuiteIDList)
	assert.ElementsMatch(t, []int{3, 4}, got.TestSuiteArray)
}

func TestSTR_FlatQueryRequired(t *testing.T) {
	h := newHarness(t)
	h.loadQueries(t)

	m := h.mount(t, KindSTR, restore.Payload{
		"testPlanId":         7,
		"includeStepResults": true,
		"openPcrQuery":       map[string]any{"id": "req-tree", "name": "Requirements tree"},
	})

	var got STRState
	require.NoError(t, m.Snapshot().Decode(&got))
	assert.Equal(t, 7, got.TestPlanID)
	assert.True(t, got.IncludeStepResults)
	assert.Nil(t, got.OpenPCRQuery)
	ws := m.Status().Warnings
	require.Len(t, ws, 1)
	assert.Contains(t, ws[0].Message, "cannot be used")
}

func TestSRS_RevalidatesWhenCatalogArrives(t *testing.T) {
	h := newHarness(t)
	h.fake.MethodDelay["Queries"] = 50 * time.Millisecond

	var m Mounted
	h.deps.Queries.OnLoaded(func(ctx context.Context) {
		if m != nil {
			m.Revalidate(ctx)
		}
	})

	h.gateway.SaveTabSessionState(context.Background(), "std", 0, restore.Payload{
		"systemRequirementsQuery":   map[string]any{"id": "req-tree"},
		"softwareRequirementsQuery": map[string]any{"id": "gone", "name": "Removed"},
		"includeTraceability":       true,
	})
	mounted, err := New(KindSRS, h.deps, restore.CoordinatorOptions{DocType: "std", Gateway: h.gateway})
	require.NoError(t, err)
	m = mounted
	require.NoError(t, m.Sync(context.Background()))

	var before SRSState
	require.NoError(t, m.Snapshot().Decode(&before))
	require.NotNil(t, before.SoftwareRequirementsQuery, "kept until the catalog can answer")

	require.Eventually(t, func() bool {
		var got SRSState
		_ = m.Snapshot().Decode(&got)
		return got.SoftwareRequirementsQuery == nil
	}, time.Second, 10*time.Millisecond)

	var got SRSState
	require.NoError(t, h.gateway.LoadTabSessionState(context.Background(), "std", 0).Decode(&got))
	assert.Nil(t, got.SoftwareRequirementsQuery)
	require.NotNil(t, got.SystemRequirementsQuery)
	assert.True(t, got.IncludeTraceability)
	assert.Equal(t, []string{"softwareRequirementsQuery"}, fields(m.Status().Warnings))
}

func TestReleaseRange_Restore(t *testing.T) {
	h := newHarness(t)
	h.fake.Definitions = []tracker.ReleaseDefinition{{Key: "web", Name: "Web"}}
	h.fake.History["web"] = []tracker.ReleaseHistoryEntry{{ID: "10"}, {ID: "11"}}

	m := h.mount(t, KindReleaseRange, restore.Payload{
		"selectedRelease": map[string]any{"key": "web", "name": "Web (old name)"},
		"from":            "10",
		"to":              "12",
	})

	var got ReleaseRangeState
	require.NoError(t, m.Snapshot().Decode(&got))
	require.NotNil(t, got.SelectedRelease)
	assert.Equal(t, "Web", got.SelectedRelease.Name)
	assert.Equal(t, "10", got.From)
	assert.Empty(t, got.To)
	assert.Equal(t, []string{"to"}, fields(m.Status().Warnings))
	assert.Equal(t, restore.KeyToken("web", "10", "12"), m.Status().Token)
}

func TestReleaseRange_MissingDefinition(t *testing.T) {
	h := newHarness(t)
	m := h.mount(t, KindReleaseRange, restore.Payload{
		"selectedRelease": map[string]any{"key": "gone"},
		"from":            "1",
	})

	var got ReleaseRangeState
	require.NoError(t, m.Snapshot().Decode(&got))
	assert.Nil(t, got.SelectedRelease)
	assert.Empty(t, got.From)
	assert.Equal(t, []string{"selectedRelease"}, fields(m.Status().Warnings))
	assert.Equal(t, 0, h.fake.Calls("ReleaseHistory"))
}

func TestCommitRange_Restore(t *testing.T) {
	h := newHarness(t)
	h.fake.Repos = []tracker.Repository{{ID: "r1", Name: "api", DefaultBranch: "main"}}
	h.fake.BranchSet["r1"] = []tracker.Branch{{Name: "main"}}

	m := h.mount(t, KindCommitRange, restore.Payload{
		"repoId":   "r1",
		"branch":   "feature/old",
		"fromDate": "2024-03-01T00:00:00Z",
		"toDate":   "not a date",
	})

	var got CommitRangeState
	require.NoError(t, m.Snapshot().Decode(&got))
	assert.Equal(t, "r1", got.RepoID)
	assert.Equal(t, "main", got.Branch)
	assert.Equal(t, "2024-03-01T00:00:00Z", got.FromDate)
	assert.Empty(t, got.ToDate)
	assert.ElementsMatch(t, []string{"toDate", "branch"}, fields(m.Status().Warnings))
}

func TestCommitRange_ReversedDates(t *testing.T) {
	h := newHarness(t)
	m := h.mount(t, KindCommitRange, restore.Payload{
		"fromDate": "2024-03-10T00:00:00Z",
		"toDate":   "2024-03-01T00:00:00Z",
	})

	var got CommitRangeState
	require.NoError(t, m.Snapshot().Decode(&got))
	assert.Equal(t, "2024-03-10T00:00:00Z", got.FromDate)
	assert.Empty(t, got.ToDate)
}

func TestPipelineRange_Restore(t *testing.T) {
	h := newHarness(t)
	h.fake.PipelineSet = []tracker.Pipeline{{ID: 5, Name: "nightly"}}
	h.fake.Runs[5] = []tracker.PipelineRun{
		{ID: 100, Result: tracker.RunSucceeded},
		{ID: 101, Result: tracker.RunFailed},
	}

	m := h.mount(t, KindPipelineRange, restore.Payload{"pipelineId": 5, "fromRunId": 100, "toRunId": 101})

	var got PipelineRangeState
	require.NoError(t, m.Snapshot().Decode(&got))
	assert.Equal(t, PipelineRangeState{PipelineID: 5, FromRunID: 100}, got)
	assert.Equal(t, []string{"toRunId"}, fields(m.Status().Warnings))
}

func TestPipelineRange_TrackerDown(t *testing.T) {
	h := newHarness(t)
	h.fake.Err = errors.New("tracker unreachable")

	m := h.mount(t, KindPipelineRange, restore.Payload{"pipelineId": 5})

	assert.Equal(t, restore.StateReady, m.Status().State)
	assert.Equal(t, []string{"pipelineId"}, fields(m.Status().Warnings))
}

func TestRemountRestoresFromSession(t *testing.T) {
	h := newHarness(t)
	h.fake.PipelineSet = []tracker.Pipeline{{ID: 5, Name: "nightly"}}

	first := h.mount(t, KindPipelineRange, nil)
	_, err := first.Update(context.Background(), restore.Payload{"pipelineId": 5})
	require.NoError(t, err)

	second := h.mount(t, KindPipelineRange, nil)
	var got PipelineRangeState
	require.NoError(t, second.Snapshot().Decode(&got))
	assert.Equal(t, 5, got.PipelineID)
	assert.Equal(t, restore.SourceSession, second.Status().Source)
}

func TestClearResetsSectionAndSlot(t *testing.T) {
	h := newHarness(t)
	h.fake.PipelineSet = []tracker.Pipeline{{ID: 5}}
	m := h.mount(t, KindPipelineRange, restore.Payload{"pipelineId": 5})

	m.Clear(context.Background())

	assert.Equal(t, restore.Payload{"pipelineId": float64(0), "fromRunId": float64(0), "toRunId": float64(0)}, m.Snapshot())
	assert.Nil(t, h.gateway.LoadTabSessionState(context.Background(), "std", 0))
	assert.Equal(t, restore.SourceNone, m.Status().Source)
}

func TestApplySavedData_MistypedFieldKeepsTheRest(t *testing.T) {
	cases := []struct {
		name     string
		kind     Kind
		saved    restore.Payload
		setup    func(h *harness)
		warnings []string
		check    func(t *testing.T, snap restore.Payload)
	}{
		{
			name:     "test content plan id as string",
			kind:     KindTestContent,
			saved:    restore.Payload{"testPlanId": "7", "includeAttachments": true, "includeCustomerId": true},
			warnings: []string{"testPlanId"},
			check: func(t *testing.T, snap restore.Payload) {
				var got TestContentState
				require.NoError(t, snap.Decode(&got))
				assert.Zero(t, got.TestPlanID)
				assert.True(t, got.IncludeAttachments)
				assert.True(t, got.IncludeCustomerID)
			},
		},
		{
			name: "test content nested query",
			kind: KindTestContent,
			saved: restore.Payload{
				"includeRequirements": true,
				"traceAnalysisRequest": map[string]any{
					"reqTestQuery": map[string]any{"id": "req-tree"},
					"testReqQuery": 5,
				},
			},
			warnings: []string{"traceAnalysisRequest.testReqQuery"},
			check: func(t *testing.T, snap restore.Payload) {
				var got TestContentState
				require.NoError(t, snap.Decode(&got))
				assert.True(t, got.IncludeRequirements)
				require.NotNil(t, got.TraceAnalysisRequest.ReqTestQuery)
				assert.Equal(t, "req-tree", got.TraceAnalysisRequest.ReqTestQuery.ID)
				assert.Nil(t, got.TraceAnalysisRequest.TestReqQuery)
			},
		},
		{
			name:     "str suite list as string",
			kind:     KindSTR,
			saved:    restore.Payload{"testPlanId": 7, "nonRecursiveTestSuiteIdList": "1", "includeStepResults": true},
			warnings: []string{"nonRecursiveTestSuiteIdList"},
			check: func(t *testing.T, snap restore.Payload) {
				var got STRState
				require.NoError(t, snap.Decode(&got))
				assert.Equal(t, 7, got.TestPlanID)
				assert.Empty(t, got.NonRecursiveTestSuiteIDList)
				assert.True(t, got.IncludeStepResults)
			},
		},
		{
			name: "srs query as string",
			kind: KindSRS,
			saved: restore.Payload{
				"systemRequirementsQuery":   map[string]any{"id": "req-tree"},
				"softwareRequirementsQuery": "req-tree",
				"includeTraceability":       true,
			},
			warnings: []string{"softwareRequirementsQuery"},
			check: func(t *testing.T, snap restore.Payload) {
				var got SRSState
				require.NoError(t, snap.Decode(&got))
				require.NotNil(t, got.SystemRequirementsQuery)
				assert.Nil(t, got.SoftwareRequirementsQuery)
				assert.True(t, got.IncludeTraceability)
			},
		},
		{
			name:  "release range bound as number",
			kind:  KindReleaseRange,
			saved: restore.Payload{"selectedRelease": map[string]any{"key": "web"}, "from": 10, "to": "11"},
			setup: func(h *harness) {
				h.fake.Definitions = []tracker.ReleaseDefinition{{Key: "web", Name: "Web"}}
				h.fake.History["web"] = []tracker.ReleaseHistoryEntry{{ID: "10"}, {ID: "11"}}
			},
			warnings: []string{"from"},
			check: func(t *testing.T, snap restore.Payload) {
				var got ReleaseRangeState
				require.NoError(t, snap.Decode(&got))
				require.NotNil(t, got.SelectedRelease)
				assert.Empty(t, got.From)
				assert.Equal(t, "11", got.To)
			},
		},
		{
			name:  "commit range date as number",
			kind:  KindCommitRange,
			saved: restore.Payload{"repoId": "r1", "branch": "main", "fromDate": 20240301},
			setup: func(h *harness) {
				h.fake.Repos = []tracker.Repository{{ID: "r1", Name: "api", DefaultBranch: "main"}}
				h.fake.BranchSet["r1"] = []tracker.Branch{{Name: "main"}}
			},
			warnings: []string{"fromDate"},
			check: func(t *testing.T, snap restore.Payload) {
				var got CommitRangeState
				require.NoError(t, snap.Decode(&got))
				assert.Equal(t, CommitRangeState{RepoID: "r1", Branch: "main"}, got)
			},
		},
		{
			name:  "pipeline range run as string",
			kind:  KindPipelineRange,
			saved: restore.Payload{"pipelineId": 5, "fromRunId": "100", "toRunId": 101},
			setup: func(h *harness) {
				h.fake.PipelineSet = []tracker.Pipeline{{ID: 5, Name: "nightly"}}
				h.fake.Runs[5] = []tracker.PipelineRun{
					{ID: 100, Result: tracker.RunSucceeded},
					{ID: 101, Result: tracker.RunSucceeded},
				}
			},
			warnings: []string{"fromRunId"},
			check: func(t *testing.T, snap restore.Payload) {
				var got PipelineRangeState
				require.NoError(t, snap.Decode(&got))
				assert.Equal(t, PipelineRangeState{PipelineID: 5, ToRunID: 101}, got)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.loadQueries(t)
			if tc.setup != nil {
				tc.setup(h)
			}

			m := h.mount(t, tc.kind, tc.saved)

			status := m.Status()
			assert.Equal(t, restore.StateReady, status.State)
			assert.Equal(t, tc.warnings, fields(status.Warnings))
			tc.check(t, m.Snapshot())
		})
	}
}

func TestUpdate_MistypedFieldIsRejected(t *testing.T) {
	h := newHarness(t)
	h.fake.PipelineSet = []tracker.Pipeline{{ID: 5}}
	m := h.mount(t, KindPipelineRange, nil)

	_, err := m.Update(context.Background(), restore.Payload{"pipelineId": "5"})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
