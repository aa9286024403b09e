package section

import (
	"context"

	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/pkg/restore"
)

// planSelection is the plan and suite part shared by the test content and
// STR sections.
type planSelection struct {
	PlanID    int
	Expansion restore.SuiteExpansion
}

// resolvePlanSuites checks the saved plan, waits for its suites and maps the
// saved suite picks back onto the live list. Suites still loading at the
// deadline map to nothing; a failed load is reported on the picks.
func (d Deps) resolvePlanSuites(ctx context.Context, planID int, picks []int) (planSelection, []restore.Warning) {
	empty := planSelection{Expansion: restore.SuiteExpansion{TestSuiteArray: []int{}, NonRecursiveTestSuiteIDList: []int{}}}
	if planID == 0 {
		return empty, nil
	}

	plans, err := d.Tracker.TestPlans(ctx)
	if err != nil {
		return empty, []restore.Warning{warn("testPlanId", "Test plan %d could not be verified: %v", planID, err)}
	}
	if !containsPlan(plans, planID) {
		return empty, []restore.Warning{warn("testPlanId", "Test plan %d no longer exists", planID)}
	}

	sel := planSelection{PlanID: planID, Expansion: empty.Expansion}
	if len(picks) == 0 {
		return sel, nil
	}

	d.Suites.Fetch(ctx, planID)
	restore.WaitFor(ctx, func() bool { return d.Suites.Loading(planID) }, d.WaitTimeout)
	all, loaded := d.Suites.Lookup(planID)
	if !loaded {
		if err := d.Suites.Err(planID); err != nil {
			return sel, []restore.Warning{warn("nonRecursiveTestSuiteIdList", "Test suites of plan %d could not be loaded: %v", planID, err)}
		}
		return sel, nil
	}

	known := make(map[int]bool, len(all))
	for _, s := range all {
		known[s.ID] = true
	}
	var warnings []restore.Warning
	roots := make([]restore.SuiteRef, 0, len(picks))
	for _, id := range picks {
		if !known[id] {
			warnings = append(warnings, warn("nonRecursiveTestSuiteIdList", "Test suite %d is no longer part of plan %d", id, planID))
			continue
		}
		roots = append(roots, restore.SuiteRef{ID: id})
	}

	sel.Expansion = restore.ExpandSuites(roots, all)
	return sel, warnings
}

// expandLoaded recomputes the flattened suite scope for a user edit when the
// plan's suites are already in memory.
func (d Deps) expandLoaded(planID int, picks []int) ([]int, bool) {
	if d.Suites == nil || planID == 0 {
		return nil, false
	}
	all, loaded := d.Suites.Lookup(planID)
	if !loaded {
		return nil, false
	}
	return restore.ExpandSuites(restore.SuiteRefs(picks), all).TestSuiteArray, true
}

func containsPlan(plans []tracker.TestPlan, id int) bool {
	for _, p := range plans {
		if p.ID == id {
			return true
		}
	}
	return false
}

// queryTree returns the live query catalog for the predicate. When it has not
// loaded yet a background fetch is started and ok is false; the section keeps
// the saved references and revalidates once the catalog arrives.
func (d Deps) queryTree(ctx context.Context, valid tracker.QueryPredicate) ([]*restore.ReferenceNode, bool) {
	tree, loaded := d.Queries.Tree(valid)
	if !loaded {
		d.Queries.Fetch(ctx)
	}
	return tree, loaded
}

// checkQuery gates a saved query reference on the live catalog.
func checkQuery(tree []*restore.ReferenceNode, field string, saved *restore.Reference) (*restore.Reference, []restore.Warning) {
	if saved == nil || saved.ID == "" {
		return nil, nil
	}
	if ref := restore.ValidateReference(tree, saved); ref != nil {
		return ref, nil
	}
	label := saved.Name
	if label == "" {
		label = saved.ID
	}
	if restore.FindReference(tree, saved.ID) != nil {
		return nil, []restore.Warning{warn(field, "Query %q cannot be used for this field", label)}
	}
	return nil, []restore.Warning{warn(field, "Query %q is no longer available", label)}
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
