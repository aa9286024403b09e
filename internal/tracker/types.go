// Package tracker is the read-only boundary to the issue tracker the form
// selections point into: test plans and suites, shared queries, release
// definitions, pipelines and git repositories.
package tracker

import (
	"time"

	"docgen-selection-be/pkg/restore"
)

type TestPlan struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Query types reported by the tracker.
const (
	QueryTypeFlat   = "flat"
	QueryTypeTree   = "tree"
	QueryTypeOneHop = "oneHop"
)

type QueryNode struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	IsFolder  bool         `json:"isFolder"`
	QueryType string       `json:"queryType"`
	Children  []*QueryNode `json:"children"`
}

type ReleaseDefinition struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type ReleaseHistoryEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedOn time.Time `json:"createdOn"`
}

type Pipeline struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Run results reported by the tracker.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
	RunCanceled  = "canceled"
)

type PipelineRun struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Result       string    `json:"result"`
	FinishedDate time.Time `json:"finishedDate"`
}

type Repository struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DefaultBranch string `json:"defaultBranch"`
}

type Branch struct {
	Name string `json:"name"`
}

// QueryPredicate decides whether a query has the shape a field needs.
type QueryPredicate func(q *QueryNode) bool

// TreeQueries accepts hierarchical (tree or one-hop) queries.
func TreeQueries(q *QueryNode) bool {
	return q.QueryType == QueryTypeTree || q.QueryType == QueryTypeOneHop
}

// FlatQueries accepts flat list queries.
func FlatQueries(q *QueryNode) bool {
	return q.QueryType == QueryTypeFlat
}

// ReferenceTree converts the tracker's query hierarchy into the catalog shape
// the validator walks. Folders are never valid queries.
func ReferenceTree(nodes []*QueryNode, valid QueryPredicate) []*restore.ReferenceNode {
	out := make([]*restore.ReferenceNode, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		out = append(out, &restore.ReferenceNode{
			ID:           n.ID,
			Name:         n.Name,
			IsValidQuery: !n.IsFolder && valid(n),
			Children:     ReferenceTree(n.Children, valid),
		})
	}
	return out
}
