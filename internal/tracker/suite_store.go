package tracker

import (
	"context"
	"sync"

	"docgen-selection-be/internal/pkg/logger"
	"docgen-selection-be/pkg/restore"
)

type planSuites struct {
	suites  []restore.SuiteNode
	loading bool
	err     error
}

// SuiteStore holds the suites of every test plan the tab's sections asked
// for. Fetch returns immediately; callers watch Loading(planID) until that
// plan settles. Plans load independently of each other.
type SuiteStore struct {
	client Client
	logger logger.ILogger

	mu    sync.RWMutex
	plans map[int]*planSuites
	// epoch drops results of fetches started before the last Reset.
	epoch uint64
}

func NewSuiteStore(client Client, log logger.ILogger) *SuiteStore {
	return &SuiteStore{client: client, logger: log, plans: make(map[int]*planSuites)}
}

// Fetch starts loading the suites of planID unless they are loaded or
// already loading. A failed plan is fetched again.
func (s *SuiteStore) Fetch(ctx context.Context, planID int) {
	s.mu.Lock()
	if p, ok := s.plans[planID]; ok && (p.loading || p.err == nil) {
		s.mu.Unlock()
		return
	}
	entry := &planSuites{loading: true}
	s.plans[planID] = entry
	epoch := s.epoch
	s.mu.Unlock()

	go func() {
		suites, err := s.client.PlanSuites(context.WithoutCancel(ctx), planID)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.epoch != epoch || s.plans[planID] != entry {
			return
		}
		entry.loading = false
		if err != nil {
			entry.err = err
			s.logger.Warn("SuiteStore", "Loading plan suites failed", map[string]interface{}{"plan_id": planID, "error": err.Error()})
			return
		}
		if suites == nil {
			suites = []restore.SuiteNode{}
		}
		entry.suites = suites
	}()
}

// Loading reports whether planID has a fetch in flight.
func (s *SuiteStore) Loading(planID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	return ok && p.loading
}

// Lookup returns the suites of planID and whether they are loaded. A plan
// that loaded with no suites returns an empty slice and true.
func (s *SuiteStore) Lookup(planID int) ([]restore.SuiteNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	if !ok || p.loading || p.err != nil {
		return nil, false
	}
	return p.suites, true
}

// Suites returns the loaded suites of planID, or nil when they are not ready.
func (s *SuiteStore) Suites(planID int) []restore.SuiteNode {
	suites, _ := s.Lookup(planID)
	return suites
}

// Err returns the error of planID's last fetch.
func (s *SuiteStore) Err(planID int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.plans[planID]; ok {
		return p.err
	}
	return nil
}

// Reset forgets every plan.
func (s *SuiteStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.plans = make(map[int]*planSuites)
}
