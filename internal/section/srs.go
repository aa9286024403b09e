package section

import (
	"context"

	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/pkg/restore"
)

type SRSState struct {
	SystemRequirementsQuery   *restore.Reference `json:"systemRequirementsQuery"`
	SoftwareRequirementsQuery *restore.Reference `json:"softwareRequirementsQuery"`
	IncludeTraceability       bool               `json:"includeTraceability"`

	pendingQueries bool
}

type srsSection struct {
	deps  Deps
	state SRSState
}

func (s *srsSection) ApplySavedData(ctx context.Context, payload restore.Payload) (SRSState, []restore.Warning, error) {
	var saved SRSState
	decoded := decodeSaved(payload, &saved)
	staged, warnings := s.resolve(ctx, saved)
	return staged, append(decoded, warnings...), nil
}

func (s *srsSection) resolve(ctx context.Context, saved SRSState) (SRSState, []restore.Warning) {
	staged := SRSState{IncludeTraceability: saved.IncludeTraceability}

	tree, loaded := s.deps.queryTree(ctx, tracker.TreeQueries)
	if !loaded {
		staged.SystemRequirementsQuery = saved.SystemRequirementsQuery
		staged.SoftwareRequirementsQuery = saved.SoftwareRequirementsQuery
		staged.pendingQueries = true
		return staged, nil
	}
	return staged, staged.checkQueries(tree, saved)
}

func (st *SRSState) checkQueries(tree []*restore.ReferenceNode, saved SRSState) []restore.Warning {
	var warnings, w []restore.Warning
	st.SystemRequirementsQuery, w = checkQuery(tree, "systemRequirementsQuery", saved.SystemRequirementsQuery)
	warnings = append(warnings, w...)
	st.SoftwareRequirementsQuery, w = checkQuery(tree, "softwareRequirementsQuery", saved.SoftwareRequirementsQuery)
	warnings = append(warnings, w...)
	st.pendingQueries = false
	return warnings
}

func (s *srsSection) Revalidate(ctx context.Context) (bool, []restore.Warning) {
	if !s.state.pendingQueries {
		return false, nil
	}
	tree, loaded := s.deps.Queries.Tree(tracker.TreeQueries)
	if !loaded {
		return false, nil
	}
	warnings := s.state.checkQueries(tree, s.state)
	return len(warnings) > 0, warnings
}

func (s *srsSection) Commit(state SRSState) { s.state = state }

func (s *srsSection) ResetLocalState() { s.state = SRSState{} }

func (s *srsSection) Snapshot() restore.Payload { return snapshot(s.state) }

func (s *srsSection) Update(payload restore.Payload) error {
	var next SRSState
	if err := decode(payload, &next, KindSRS); err != nil {
		return err
	}
	s.state = next
	return nil
}
