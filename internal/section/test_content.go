package section

import (
	"context"

	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/pkg/restore"
)

type TraceAnalysisRequest struct {
	ReqTestQuery *restore.Reference `json:"reqTestQuery"`
	TestReqQuery *restore.Reference `json:"testReqQuery"`
}

type TestContentState struct {
	TestPlanID                  int                  `json:"testPlanId"`
	NonRecursiveTestSuiteIDList []int                `json:"nonRecursiveTestSuiteIdList"`
	TestSuiteArray              []int                `json:"testSuiteArray"`
	IncludeAttachments          bool                 `json:"includeAttachments"`
	IncludeRequirements         bool                 `json:"includeRequirements"`
	IncludeCustomerID           bool                 `json:"includeCustomerId"`
	TraceAnalysisRequest        TraceAnalysisRequest `json:"traceAnalysisRequest"`

	pendingQueries bool
}

type testContentSection struct {
	deps  Deps
	state TestContentState
}

func (s *testContentSection) ApplySavedData(ctx context.Context, payload restore.Payload) (TestContentState, []restore.Warning, error) {
	var saved TestContentState
	decoded := decodeSaved(payload, &saved)
	staged, warnings := s.resolve(ctx, saved)
	return staged, append(decoded, warnings...), nil
}

func (s *testContentSection) resolve(ctx context.Context, saved TestContentState) (TestContentState, []restore.Warning) {
	// Clients before the split saved only the flattened list.
	picks := saved.NonRecursiveTestSuiteIDList
	if len(picks) == 0 {
		picks = saved.TestSuiteArray
	}

	staged := TestContentState{
		IncludeAttachments:  saved.IncludeAttachments,
		IncludeRequirements: saved.IncludeRequirements,
		IncludeCustomerID:   saved.IncludeCustomerID,
	}

	sel, warnings := s.deps.resolvePlanSuites(ctx, saved.TestPlanID, picks)
	staged.TestPlanID = sel.PlanID
	staged.NonRecursiveTestSuiteIDList = sel.Expansion.NonRecursiveTestSuiteIDList
	staged.TestSuiteArray = sel.Expansion.TestSuiteArray

	tree, loaded := s.deps.queryTree(ctx, tracker.TreeQueries)
	if !loaded {
		staged.TraceAnalysisRequest = saved.TraceAnalysisRequest
		staged.pendingQueries = true
		return staged, warnings
	}
	warnings = append(warnings, staged.checkQueries(tree, saved.TraceAnalysisRequest)...)
	return staged, warnings
}

func (st *TestContentState) checkQueries(tree []*restore.ReferenceNode, saved TraceAnalysisRequest) []restore.Warning {
	var warnings, w []restore.Warning
	st.TraceAnalysisRequest.ReqTestQuery, w = checkQuery(tree, "traceAnalysisRequest.reqTestQuery", saved.ReqTestQuery)
	warnings = append(warnings, w...)
	st.TraceAnalysisRequest.TestReqQuery, w = checkQuery(tree, "traceAnalysisRequest.testReqQuery", saved.TestReqQuery)
	warnings = append(warnings, w...)
	st.pendingQueries = false
	return warnings
}

func (s *testContentSection) Revalidate(ctx context.Context) (bool, []restore.Warning) {
	if !s.state.pendingQueries {
		return false, nil
	}
	tree, loaded := s.deps.Queries.Tree(tracker.TreeQueries)
	if !loaded {
		return false, nil
	}
	warnings := s.state.checkQueries(tree, s.state.TraceAnalysisRequest)
	return len(warnings) > 0, warnings
}

func (s *testContentSection) Commit(state TestContentState) { s.state = state }

func (s *testContentSection) ResetLocalState() { s.state = TestContentState{} }

func (s *testContentSection) Snapshot() restore.Payload {
	st := s.state
	st.NonRecursiveTestSuiteIDList = nonNil(st.NonRecursiveTestSuiteIDList)
	st.TestSuiteArray = nonNil(st.TestSuiteArray)
	return snapshot(st)
}

func (s *testContentSection) Update(payload restore.Payload) error {
	var next TestContentState
	if err := decode(payload, &next, KindTestContent); err != nil {
		return err
	}
	if expanded, ok := s.deps.expandLoaded(next.TestPlanID, next.NonRecursiveTestSuiteIDList); ok {
		next.TestSuiteArray = expanded
	}
	s.state = next
	return nil
}
