package section

import (
	"context"

	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/pkg/restore"
)

// STRState selects the software test report content.
type STRState struct {
	TestPlanID                  int                `json:"testPlanId"`
	NonRecursiveTestSuiteIDList []int              `json:"nonRecursiveTestSuiteIdList"`
	TestSuiteArray              []int              `json:"testSuiteArray"`
	IncludeOpenPCRs             bool               `json:"includeOpenPCRs"`
	IncludeStepResults          bool               `json:"includeStepResults"`
	OpenPCRQuery                *restore.Reference `json:"openPcrQuery"`

	pendingQueries bool
}

type strSection struct {
	deps  Deps
	state STRState
}

func (s *strSection) ApplySavedData(ctx context.Context, payload restore.Payload) (STRState, []restore.Warning, error) {
	var saved STRState
	decoded := decodeSaved(payload, &saved)
	staged, warnings := s.resolve(ctx, saved)
	return staged, append(decoded, warnings...), nil
}

func (s *strSection) resolve(ctx context.Context, saved STRState) (STRState, []restore.Warning) {
	picks := saved.NonRecursiveTestSuiteIDList
	if len(picks) == 0 {
		picks = saved.TestSuiteArray
	}

	staged := STRState{
		IncludeOpenPCRs:    saved.IncludeOpenPCRs,
		IncludeStepResults: saved.IncludeStepResults,
	}

	sel, warnings := s.deps.resolvePlanSuites(ctx, saved.TestPlanID, picks)
	staged.TestPlanID = sel.PlanID
	staged.NonRecursiveTestSuiteIDList = sel.Expansion.NonRecursiveTestSuiteIDList
	staged.TestSuiteArray = sel.Expansion.TestSuiteArray

	if saved.OpenPCRQuery == nil {
		return staged, warnings
	}
	tree, loaded := s.deps.queryTree(ctx, tracker.FlatQueries)
	if !loaded {
		staged.OpenPCRQuery = saved.OpenPCRQuery
		staged.pendingQueries = true
		return staged, warnings
	}
	var w []restore.Warning
	staged.OpenPCRQuery, w = checkQuery(tree, "openPcrQuery", saved.OpenPCRQuery)
	return staged, append(warnings, w...)
}

func (s *strSection) Revalidate(ctx context.Context) (bool, []restore.Warning) {
	if !s.state.pendingQueries {
		return false, nil
	}
	tree, loaded := s.deps.Queries.Tree(tracker.FlatQueries)
	if !loaded {
		return false, nil
	}
	s.state.pendingQueries = false
	var warnings []restore.Warning
	s.state.OpenPCRQuery, warnings = checkQuery(tree, "openPcrQuery", s.state.OpenPCRQuery)
	return len(warnings) > 0, warnings
}

func (s *strSection) Commit(state STRState) { s.state = state }

func (s *strSection) ResetLocalState() { s.state = STRState{} }

func (s *strSection) Snapshot() restore.Payload {
	st := s.state
	st.NonRecursiveTestSuiteIDList = nonNil(st.NonRecursiveTestSuiteIDList)
	st.TestSuiteArray = nonNil(st.TestSuiteArray)
	return snapshot(st)
}

func (s *strSection) Update(payload restore.Payload) error {
	var next STRState
	if err := decode(payload, &next, KindSTR); err != nil {
		return err
	}
	if expanded, ok := s.deps.expandLoaded(next.TestPlanID, next.NonRecursiveTestSuiteIDList); ok {
		next.TestSuiteArray = expanded
	}
	s.state = next
	return nil
}
