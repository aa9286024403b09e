package section

import (
	"context"
	"time"

	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/pkg/restore"
)

// CommitRangeState selects commits of one branch between two dates
// (RFC 3339).
type CommitRangeState struct {
	RepoID   string `json:"repoId"`
	Branch   string `json:"branch"`
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
}

type commitRangeSection struct {
	deps  Deps
	state CommitRangeState
}

func (s *commitRangeSection) ApplySavedData(ctx context.Context, payload restore.Payload) (CommitRangeState, []restore.Warning, error) {
	var saved CommitRangeState
	decoded := decodeSaved(payload, &saved)
	staged, warnings := s.resolve(ctx, saved)
	return staged, append(decoded, warnings...), nil
}

func (s *commitRangeSection) resolve(ctx context.Context, saved CommitRangeState) (CommitRangeState, []restore.Warning) {
	var warnings []restore.Warning
	staged := CommitRangeState{}

	// Dates do not depend on the repository.
	from, fromOK := parseDate(saved.FromDate)
	to, toOK := parseDate(saved.ToDate)
	if saved.FromDate != "" && !fromOK {
		warnings = append(warnings, warn("fromDate", "Start date %q is not a valid date", saved.FromDate))
	}
	if saved.ToDate != "" && !toOK {
		warnings = append(warnings, warn("toDate", "End date %q is not a valid date", saved.ToDate))
	}
	if fromOK {
		staged.FromDate = saved.FromDate
	}
	if toOK {
		if fromOK && to.Before(from) {
			warnings = append(warnings, warn("toDate", "End date %s is before start date %s", saved.ToDate, saved.FromDate))
		} else {
			staged.ToDate = saved.ToDate
		}
	}

	if saved.RepoID == "" {
		return staged, warnings
	}
	repos, err := s.deps.Tracker.Repositories(ctx)
	if err != nil {
		return staged, append(warnings, warn("repoId", "Repository %s could not be verified: %v", saved.RepoID, err))
	}
	repo, ok := findRepository(repos, saved.RepoID)
	if !ok {
		return staged, append(warnings, warn("repoId", "Repository %s no longer exists", saved.RepoID))
	}
	staged.RepoID = repo.ID

	if saved.Branch == "" {
		staged.Branch = repo.DefaultBranch
		return staged, warnings
	}
	branches, err := s.deps.Tracker.Branches(ctx, repo.ID)
	if err != nil {
		staged.Branch = repo.DefaultBranch
		return staged, append(warnings, warn("branch", "Branch %s could not be verified: %v", saved.Branch, err))
	}
	if hasBranch(branches, saved.Branch) {
		staged.Branch = saved.Branch
	} else {
		staged.Branch = repo.DefaultBranch
		warnings = append(warnings, warn("branch", "Branch %s no longer exists in %s", saved.Branch, repo.Name))
	}
	return staged, warnings
}

func parseDate(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, err == nil
}

func findRepository(repos []tracker.Repository, id string) (tracker.Repository, bool) {
	for _, r := range repos {
		if r.ID == id {
			return r, true
		}
	}
	return tracker.Repository{}, false
}

func hasBranch(branches []tracker.Branch, name string) bool {
	for _, b := range branches {
		if b.Name == name {
			return true
		}
	}
	return false
}

func (s *commitRangeSection) Commit(state CommitRangeState) { s.state = state }

func (s *commitRangeSection) ResetLocalState() { s.state = CommitRangeState{} }

func (s *commitRangeSection) Snapshot() restore.Payload { return snapshot(s.state) }

func (s *commitRangeSection) Update(payload restore.Payload) error {
	var next CommitRangeState
	if err := decode(payload, &next, KindCommitRange); err != nil {
		return err
	}
	s.state = next
	return nil
}
