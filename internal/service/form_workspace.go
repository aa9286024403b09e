package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"docgen-selection-be/internal/pkg/logger"
	"docgen-selection-be/internal/section"
	"docgen-selection-be/pkg/restore"

	"github.com/google/uuid"
)

// workspace is the server-side half of one browser tab: the document type
// being edited, the mounted sections and the selected favorite.
//
// Lock order: mu may be held while calling into a section, never the other
// way round. selected is atomic because coordinators read it under their own
// lock.
type workspace struct {
	tab     uuid.UUID
	ownerId uuid.UUID
	deps    section.Deps
	gateway *restore.SessionGateway
	logger  logger.ILogger

	selected atomic.Pointer[restore.FavoriteRecord]

	mu       sync.Mutex
	docType  string
	sections map[int]section.Mounted
}

type mountedSection struct {
	index   int
	section section.Mounted
}

// SelectedFavorite makes the workspace the FavoriteSource of its sections.
func (w *workspace) SelectedFavorite() *restore.FavoriteRecord {
	return w.selected.Load()
}

func (w *workspace) selectFavorite(rec *restore.FavoriteRecord) {
	w.selected.Store(rec)
}

// mount replaces the section at index with a fresh one and retires the one it
// replaces. Entering another document type first clears every section of the
// previous one.
func (w *workspace) mount(ctx context.Context, docType string, index int, kind section.Kind) (section.Mounted, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	m, err := section.New(kind, w.deps, restore.CoordinatorOptions{
		DocType:      docType,
		SectionIndex: index,
		Gateway:      w.gateway,
		Favorites:    w,
		Logger:       w.logger,
	})
	if err != nil {
		return nil, err
	}

	if w.docType != "" && w.docType != docType {
		w.leaveLocked(ctx, docType)
	} else if old, ok := w.sections[index]; ok {
		old.Retire()
	}
	w.docType = docType
	w.sections[index] = m
	return m, nil
}

func (w *workspace) leaveLocked(ctx context.Context, next string) {
	w.logger.Info("FORM", "Leaving document type", map[string]interface{}{
		"tab_session": w.tab,
		"doc_type":    w.docType,
		"sections":    len(w.sections),
	})
	for _, m := range w.sections {
		m.Clear(ctx)
		m.Retire()
	}
	w.sections = make(map[int]section.Mounted)
	if fav := w.selected.Load(); fav != nil && fav.DocType != next {
		w.selected.Store(nil)
	}
	w.deps.Suites.Reset()
}

// clear resets every section of docType and drops the selected favorite.
// It reports whether docType was active in this tab.
func (w *workspace) clear(ctx context.Context, docType string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.docType != docType {
		return false
	}
	w.selected.Store(nil)
	for _, m := range w.sections {
		m.Clear(ctx)
	}
	return true
}

// retire stops every section from writing its slot; the slots are kept for
// the tab's next visit.
func (w *workspace) retire() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, m := range w.sections {
		m.Retire()
	}
}

func (w *workspace) section(docType string, index int) (section.Mounted, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.docType != docType {
		return nil, false
	}
	m, ok := w.sections[index]
	return m, ok
}

func (w *workspace) current() (string, []mountedSection) {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]mountedSection, 0, len(w.sections))
	for idx, m := range w.sections {
		out = append(out, mountedSection{index: idx, section: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return w.docType, out
}
