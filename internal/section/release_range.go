package section

import (
	"context"

	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/pkg/restore"
)

type ReleaseRef struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// ReleaseRangeState selects two releases of one definition; From and To are
// release history ids.
type ReleaseRangeState struct {
	SelectedRelease *ReleaseRef `json:"selectedRelease"`
	From            string      `json:"from"`
	To              string      `json:"to"`
}

type releaseRangeSection struct {
	deps  Deps
	state ReleaseRangeState
}

// RestoreToken keys a session restore on the release and range rather than
// on the whole payload, so cosmetic fields never trigger a second restore.
func (s *releaseRangeSection) RestoreToken(payload restore.Payload) restore.Token {
	var saved ReleaseRangeState
	if err := payload.Decode(&saved); err != nil || saved.SelectedRelease == nil {
		return restore.PayloadToken(payload)
	}
	return restore.KeyToken(saved.SelectedRelease.Key, saved.From, saved.To)
}

func (s *releaseRangeSection) ApplySavedData(ctx context.Context, payload restore.Payload) (ReleaseRangeState, []restore.Warning, error) {
	var saved ReleaseRangeState
	decoded := decodeSaved(payload, &saved)
	staged, warnings := s.resolve(ctx, saved)
	return staged, append(decoded, warnings...), nil
}

func (s *releaseRangeSection) resolve(ctx context.Context, saved ReleaseRangeState) (ReleaseRangeState, []restore.Warning) {
	if saved.SelectedRelease == nil || saved.SelectedRelease.Key == "" {
		return ReleaseRangeState{}, nil
	}
	label := saved.SelectedRelease.Name
	if label == "" {
		label = saved.SelectedRelease.Key
	}

	defs, err := s.deps.Tracker.ReleaseDefinitions(ctx)
	if err != nil {
		return ReleaseRangeState{}, []restore.Warning{warn("selectedRelease", "Release %q could not be verified: %v", label, err)}
	}
	def, ok := findDefinition(defs, saved.SelectedRelease.Key)
	if !ok {
		return ReleaseRangeState{}, []restore.Warning{warn("selectedRelease", "Release %q no longer exists", label)}
	}
	staged := ReleaseRangeState{SelectedRelease: &ReleaseRef{Key: def.Key, Name: def.Name}}

	if saved.From == "" && saved.To == "" {
		return staged, nil
	}
	history, err := s.deps.Tracker.ReleaseHistory(ctx, def.Key)
	if err != nil {
		return staged, []restore.Warning{warn("from", "Release history of %q could not be loaded: %v", def.Name, err)}
	}

	var warnings []restore.Warning
	ids := make(map[string]bool, len(history))
	for _, h := range history {
		ids[h.ID] = true
	}
	if saved.From != "" {
		if ids[saved.From] {
			staged.From = saved.From
		} else {
			warnings = append(warnings, warn("from", "Release %s is no longer in the history of %q", saved.From, def.Name))
		}
	}
	if saved.To != "" {
		if ids[saved.To] {
			staged.To = saved.To
		} else {
			warnings = append(warnings, warn("to", "Release %s is no longer in the history of %q", saved.To, def.Name))
		}
	}
	return staged, warnings
}

func findDefinition(defs []tracker.ReleaseDefinition, key string) (tracker.ReleaseDefinition, bool) {
	for _, d := range defs {
		if d.Key == key {
			return d, true
		}
	}
	return tracker.ReleaseDefinition{}, false
}

func (s *releaseRangeSection) Commit(state ReleaseRangeState) { s.state = state }

func (s *releaseRangeSection) ResetLocalState() { s.state = ReleaseRangeState{} }

func (s *releaseRangeSection) Snapshot() restore.Payload { return snapshot(s.state) }

func (s *releaseRangeSection) Update(payload restore.Payload) error {
	var next ReleaseRangeState
	if err := decode(payload, &next, KindReleaseRange); err != nil {
		return err
	}
	s.state = next
	return nil
}
