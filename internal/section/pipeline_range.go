package section

import (
	"context"

	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/pkg/restore"
)

// PipelineRangeState selects the runs of one pipeline between two successful
// runs.
type PipelineRangeState struct {
	PipelineID int `json:"pipelineId"`
	FromRunID  int `json:"fromRunId"`
	ToRunID    int `json:"toRunId"`
}

type pipelineRangeSection struct {
	deps  Deps
	state PipelineRangeState
}

func (s *pipelineRangeSection) ApplySavedData(ctx context.Context, payload restore.Payload) (PipelineRangeState, []restore.Warning, error) {
	var saved PipelineRangeState
	decoded := decodeSaved(payload, &saved)
	staged, warnings := s.resolve(ctx, saved)
	return staged, append(decoded, warnings...), nil
}

func (s *pipelineRangeSection) resolve(ctx context.Context, saved PipelineRangeState) (PipelineRangeState, []restore.Warning) {
	if saved.PipelineID == 0 {
		return PipelineRangeState{}, nil
	}

	pipelines, err := s.deps.Tracker.Pipelines(ctx)
	if err != nil {
		return PipelineRangeState{}, []restore.Warning{warn("pipelineId", "Pipeline %d could not be verified: %v", saved.PipelineID, err)}
	}
	pipeline, ok := findPipeline(pipelines, saved.PipelineID)
	if !ok {
		return PipelineRangeState{}, []restore.Warning{warn("pipelineId", "Pipeline %d no longer exists", saved.PipelineID)}
	}
	staged := PipelineRangeState{PipelineID: pipeline.ID}
	if saved.FromRunID == 0 && saved.ToRunID == 0 {
		return staged, nil
	}

	runs, err := s.deps.Tracker.PipelineRuns(ctx, pipeline.ID)
	if err != nil {
		return staged, []restore.Warning{warn("fromRunId", "Runs of %q could not be loaded: %v", pipeline.Name, err)}
	}
	byID := make(map[int]tracker.PipelineRun, len(runs))
	for _, r := range runs {
		byID[r.ID] = r
	}

	var warnings []restore.Warning
	staged.FromRunID, warnings = checkRun(byID, "fromRunId", saved.FromRunID, pipeline.Name, warnings)
	staged.ToRunID, warnings = checkRun(byID, "toRunId", saved.ToRunID, pipeline.Name, warnings)
	return staged, warnings
}

func checkRun(runs map[int]tracker.PipelineRun, field string, id int, pipeline string, warnings []restore.Warning) (int, []restore.Warning) {
	if id == 0 {
		return 0, warnings
	}
	run, ok := runs[id]
	if !ok {
		return 0, append(warnings, warn(field, "Run %d of %q no longer exists", id, pipeline))
	}
	if run.Result != tracker.RunSucceeded {
		return 0, append(warnings, warn(field, "Run %d of %q did not succeed (%s)", id, pipeline, run.Result))
	}
	return id, warnings
}

func findPipeline(pipelines []tracker.Pipeline, id int) (tracker.Pipeline, bool) {
	for _, p := range pipelines {
		if p.ID == id {
			return p, true
		}
	}
	return tracker.Pipeline{}, false
}

func (s *pipelineRangeSection) Commit(state PipelineRangeState) { s.state = state }

func (s *pipelineRangeSection) ResetLocalState() { s.state = PipelineRangeState{} }

func (s *pipelineRangeSection) Snapshot() restore.Payload { return snapshot(s.state) }

func (s *pipelineRangeSection) Update(payload restore.Payload) error {
	var next PipelineRangeState
	if err := decode(payload, &next, KindPipelineRange); err != nil {
		return err
	}
	s.state = next
	return nil
}
