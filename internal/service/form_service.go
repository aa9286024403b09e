package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"docgen-selection-be/internal/dto"
	"docgen-selection-be/internal/pkg/logger"
	"docgen-selection-be/internal/section"
	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/pkg/broadcast"
	"docgen-selection-be/pkg/events"
	"docgen-selection-be/pkg/restore"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	ErrSectionNotMounted       = errors.New("section is not mounted")
	ErrTabForbidden            = errors.New("tab session belongs to another user")
	ErrFavoriteDocTypeMismatch = errors.New("favorite belongs to another document type")
)

const (
	MessageSectionStatus = "section_status"
	MessageTabCleared    = "tab_cleared"
	// MessageTabStatus greets a freshly connected socket with the whole tab.
	MessageTabStatus = "tab_status"
)

// TabNotifier pushes tab events to the browser tab.
type TabNotifier interface {
	SendToTab(tab uuid.UUID, msgType string, data interface{})
}

type FormOptions struct {
	SlotTTL      time.Duration
	WaitTimeout  time.Duration
	WorkspaceTTL time.Duration
}

type IFormService interface {
	Mount(ctx context.Context, userId, tab uuid.UUID, docType string, index int, req *dto.MountSectionRequest) (*dto.SectionStatusResponse, error)
	Update(ctx context.Context, userId, tab uuid.UUID, docType string, index int, req *dto.UpdateSectionRequest) (*dto.SectionStatusResponse, error)
	SectionStatus(ctx context.Context, userId, tab uuid.UUID, docType string, index int) (*dto.SectionStatusResponse, error)
	TabStatus(ctx context.Context, userId, tab uuid.UUID) (*dto.TabStatusResponse, error)
	SelectFavorite(ctx context.Context, userId, tab uuid.UUID, docType string, req *dto.SelectFavoriteRequest) (*dto.TabStatusResponse, error)
	SaveSectionFavorite(ctx context.Context, userId, tab uuid.UUID, docType string, index int, req *dto.SaveSectionFavoriteRequest) (*dto.FavoriteResponse, error)
	ClearTab(ctx context.Context, userId, tab uuid.UUID, docType string) error
	// Authorize checks that tab is unused or belongs to userId.
	Authorize(userId, tab uuid.UUID) error
	Close()
}

type formService struct {
	favorites   IFavoriteService
	store       restore.SlotStore
	tracker     tracker.Client
	broadcaster *broadcast.Broadcaster
	notifier    TabNotifier
	opts        FormOptions
	logger      logger.ILogger

	createMu   sync.Mutex
	workspaces *cache.Cache

	ctx        context.Context
	cancel     context.CancelFunc
	subMu      sync.Mutex
	subscribed map[string]bool
	background sync.WaitGroup
}

func NewFormService(
	favorites IFavoriteService,
	store restore.SlotStore,
	trackerClient tracker.Client,
	broadcaster *broadcast.Broadcaster,
	notifier TabNotifier,
	opts FormOptions,
	log logger.ILogger,
) IFormService {
	if opts.SlotTTL <= 0 {
		opts.SlotTTL = restore.DefaultSlotTTL
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = restore.DefaultWaitTimeout
	}
	if opts.WorkspaceTTL <= 0 {
		opts.WorkspaceTTL = opts.SlotTTL
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &formService{
		favorites:   favorites,
		store:       store,
		tracker:     trackerClient,
		broadcaster: broadcaster,
		notifier:    notifier,
		opts:        opts,
		logger:      log,
		workspaces:  cache.New(opts.WorkspaceTTL, 10*time.Minute),
		ctx:         ctx,
		cancel:      cancel,
		subscribed:  make(map[string]bool),
	}
	s.workspaces.OnEvicted(func(key string, v interface{}) {
		if ws, ok := v.(*workspace); ok {
			ws.retire()
		}
		log.Debug("FORM", "Workspace expired", map[string]interface{}{"tab_session": key})
	})
	return s
}

func (s *formService) Mount(ctx context.Context, userId, tab uuid.UUID, docType string, index int, req *dto.MountSectionRequest) (*dto.SectionStatusResponse, error) {
	ws, err := s.workspace(userId, tab, true)
	if err != nil {
		return nil, err
	}
	if err := s.subscribe(docType); err != nil {
		return nil, err
	}

	m, err := ws.mount(ctx, docType, index, section.Kind(req.Kind))
	if err != nil {
		return nil, err
	}
	s.logger.Info("FORM", "Section mounted", map[string]interface{}{
		"tab_session":   tab,
		"doc_type":      docType,
		"section_index": index,
		"kind":          req.Kind,
	})

	if req.Async {
		s.syncInBackground(ctx, tab, docType, index, m)
		return sectionStatus(docType, index, m), nil
	}

	if err := m.Sync(ctx); err != nil {
		return nil, err
	}
	res := sectionStatus(docType, index, m)
	s.notifier.SendToTab(tab, MessageSectionStatus, res)
	return res, nil
}

func (s *formService) Update(ctx context.Context, userId, tab uuid.UUID, docType string, index int, req *dto.UpdateSectionRequest) (*dto.SectionStatusResponse, error) {
	m, err := s.mounted(userId, tab, docType, index)
	if err != nil {
		return nil, err
	}

	persisted, err := m.Update(ctx, req.Data)
	if err != nil {
		return nil, err
	}

	res := sectionStatus(docType, index, m)
	res.Persisted = persisted
	return res, nil
}

func (s *formService) SectionStatus(ctx context.Context, userId, tab uuid.UUID, docType string, index int) (*dto.SectionStatusResponse, error) {
	m, err := s.mounted(userId, tab, docType, index)
	if err != nil {
		return nil, err
	}
	return sectionStatus(docType, index, m), nil
}

func (s *formService) TabStatus(ctx context.Context, userId, tab uuid.UUID) (*dto.TabStatusResponse, error) {
	ws, err := s.workspace(userId, tab, false)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return &dto.TabStatusResponse{TabSession: tab, Sections: make([]*dto.SectionStatusResponse, 0)}, nil
	}
	return tabStatus(ws), nil
}

// SelectFavorite makes a favorite the tab's active selection. Only the
// section it was saved from restores; a section mounted later picks it up
// on mount.
func (s *formService) SelectFavorite(ctx context.Context, userId, tab uuid.UUID, docType string, req *dto.SelectFavoriteRequest) (*dto.TabStatusResponse, error) {
	ws, err := s.workspace(userId, tab, true)
	if err != nil {
		return nil, err
	}

	rec, err := ws.gateway.LoadFavorite(ctx, req.FavoriteId)
	if err != nil {
		return nil, err
	}
	if rec.DocType != docType {
		return nil, ErrFavoriteDocTypeMismatch
	}

	ws.selectFavorite(rec)
	s.logger.Info("FORM", "Favorite selected", map[string]interface{}{
		"tab_session":   tab,
		"favorite_id":   rec.ID,
		"doc_type":      rec.DocType,
		"section_index": rec.SectionIndex,
	})

	if m, ok := ws.section(docType, rec.SectionIndex); ok {
		if req.Async {
			s.syncInBackground(ctx, tab, docType, rec.SectionIndex, m)
		} else {
			if err := m.Sync(ctx); err != nil {
				return nil, err
			}
			s.notifier.SendToTab(tab, MessageSectionStatus, sectionStatus(docType, rec.SectionIndex, m))
		}
	}
	return tabStatus(ws), nil
}

func (s *formService) SaveSectionFavorite(ctx context.Context, userId, tab uuid.UUID, docType string, index int, req *dto.SaveSectionFavoriteRequest) (*dto.FavoriteResponse, error) {
	m, err := s.mounted(userId, tab, docType, index)
	if err != nil {
		return nil, err
	}
	if m.Status().State != restore.StateReady {
		return nil, restore.ErrRestoreInProgress
	}

	return s.favorites.Save(ctx, userId, &dto.SaveFavoriteRequest{
		Name:         req.Name,
		DocType:      docType,
		SectionIndex: index,
		IsShared:     req.IsShared,
		DataToSave:   m.Snapshot(),
	})
}

// ClearTab broadcasts the clear; every section of the tab's document type
// has reset when it returns.
func (s *formService) ClearTab(ctx context.Context, userId, tab uuid.UUID, docType string) error {
	if err := s.Authorize(userId, tab); err != nil {
		return err
	}
	if err := s.subscribe(docType); err != nil {
		return err
	}
	return s.broadcaster.ClearTab(ctx, tab, docType)
}

func (s *formService) Authorize(userId, tab uuid.UUID) error {
	_, err := s.workspace(userId, tab, false)
	return err
}

func (s *formService) Close() {
	s.cancel()
	s.background.Wait()
}

func (s *formService) handleClear(ctx context.Context, ev events.ClearTabEvent) error {
	v, ok := s.workspaces.Get(ev.TabSession.String())
	if !ok {
		return nil
	}
	ws := v.(*workspace)
	if !ws.clear(ctx, ev.DocType) {
		return nil
	}

	s.logger.Info("FORM", "Tab cleared", map[string]interface{}{
		"tab_session": ev.TabSession,
		"doc_type":    ev.DocType,
		"origin":      ev.Origin,
	})
	s.notifier.SendToTab(ev.TabSession, MessageTabCleared, map[string]interface{}{"doc_type": ev.DocType})
	return nil
}

// revalidate runs once the workspace's query catalog arrives.
func (s *formService) revalidate(ctx context.Context, ws *workspace) {
	docType, sections := ws.current()
	for _, ms := range sections {
		if ms.section.Revalidate(ctx) {
			s.notifier.SendToTab(ws.tab, MessageSectionStatus, sectionStatus(docType, ms.index, ms.section))
		}
	}
}

func (s *formService) syncInBackground(ctx context.Context, tab uuid.UUID, docType string, index int, m section.Mounted) {
	bg := context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if err := m.Sync(bg); err != nil {
			s.logger.Error("FORM", "Section sync failed", map[string]interface{}{
				"tab_session":   tab,
				"doc_type":      docType,
				"section_index": index,
				"error":         err.Error(),
			})
		}
		s.notifier.SendToTab(tab, MessageSectionStatus, sectionStatus(docType, index, m))
	}()
}

// workspace returns the tab's workspace, creating it when create is set.
// Without create a missing workspace is (nil, nil).
func (s *formService) workspace(userId, tab uuid.UUID, create bool) (*workspace, error) {
	key := tab.String()

	s.createMu.Lock()
	defer s.createMu.Unlock()

	if v, ok := s.workspaces.Get(key); ok {
		ws := v.(*workspace)
		if ws.ownerId != userId {
			return nil, ErrTabForbidden
		}
		s.workspaces.SetDefault(key, ws)
		return ws, nil
	}
	if !create {
		return nil, nil
	}

	ws := s.newWorkspace(userId, tab)
	s.workspaces.SetDefault(key, ws)
	return ws, nil
}

func (s *formService) newWorkspace(userId, tab uuid.UUID) *workspace {
	ws := &workspace{
		tab:     tab,
		ownerId: userId,
		deps: section.Deps{
			Tracker:     s.tracker,
			Suites:      tracker.NewSuiteStore(s.tracker, s.logger),
			Queries:     tracker.NewQueryCatalog(s.tracker, s.logger),
			WaitTimeout: s.opts.WaitTimeout,
		},
		gateway:  restore.NewSessionGateway(s.store, NewFavoriteLoader(s.favorites, userId), tab, s.opts.SlotTTL, s.logger),
		logger:   s.logger,
		sections: make(map[int]section.Mounted),
	}
	ws.deps.Queries.OnLoaded(func(ctx context.Context) {
		s.revalidate(ctx, ws)
	})
	return ws
}

func (s *formService) mounted(userId, tab uuid.UUID, docType string, index int) (section.Mounted, error) {
	ws, err := s.workspace(userId, tab, false)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, ErrSectionNotMounted
	}
	m, ok := ws.section(docType, index)
	if !ok {
		return nil, ErrSectionNotMounted
	}
	return m, nil
}

func (s *formService) subscribe(docType string) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.subscribed[docType] {
		return nil
	}
	if err := s.broadcaster.Subscribe(s.ctx, docType, s.handleClear); err != nil {
		return err
	}
	s.subscribed[docType] = true
	return nil
}

func sectionStatus(docType string, index int, m section.Mounted) *dto.SectionStatusResponse {
	return &dto.SectionStatusResponse{
		DocType:      docType,
		SectionIndex: index,
		Kind:         string(m.Kind()),
		Status:       m.Status(),
		Data:         m.Snapshot(),
	}
}

func tabStatus(ws *workspace) *dto.TabStatusResponse {
	docType, sections := ws.current()
	res := &dto.TabStatusResponse{
		TabSession: ws.tab,
		DocType:    docType,
		Sections:   make([]*dto.SectionStatusResponse, 0, len(sections)),
	}
	if fav := ws.SelectedFavorite(); fav != nil {
		id := fav.ID
		res.SelectedFavorite = &id
	}
	for _, ms := range sections {
		res.Sections = append(res.Sections, sectionStatus(docType, ms.index, ms.section))
	}
	return res
}
