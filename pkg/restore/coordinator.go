package restore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"docgen-selection-be/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("docgen-selection-be/pkg/restore")

// Section is what a form section supplies to its Coordinator. S is the
// section's resolved state.
type Section[S any] interface {
	// ApplySavedData resolves a stale payload against live data and returns
	// the staged state. It must not touch live state; recoverable problems
	// are reported as warnings, not errors.
	ApplySavedData(ctx context.Context, payload Payload) (S, []Warning, error)
	// Commit installs a staged state in one step.
	Commit(state S)
	ResetLocalState()
	Snapshot() Payload
}

// SessionTokener lets a section derive its own token for session restores.
type SessionTokener interface {
	RestoreToken(payload Payload) Token
}

// Revalidator is implemented by sections whose catalog can arrive after the
// restore; Revalidate re-checks references and reports whether state changed.
// It runs with the coordinator's lock held and must not block on I/O.
type Revalidator interface {
	Revalidate(ctx context.Context) (bool, []Warning)
}

// FavoriteSource exposes the favorite currently selected in the tab.
type FavoriteSource interface {
	SelectedFavorite() *FavoriteRecord
}

type CoordinatorOptions struct {
	DocType      string
	SectionIndex int
	Gateway      Gateway
	Favorites    FavoriteSource
	Logger       logger.ILogger
}

type Status struct {
	State        State     `json:"state"`
	Source       Source    `json:"source"`
	IsRestoring  bool      `json:"isRestoring"`
	RestoreReady bool      `json:"restoreReady"`
	Token        Token     `json:"token,omitempty"`
	Generation   uint64    `json:"generation"`
	Warnings     []Warning `json:"warnings"`
}

// Coordinator decides when and from where a section is restored, applies each
// source at most once and gates the section's saves until the restore settles.
type Coordinator[S any] struct {
	// saveMu serialises slot writes with the generation check that allows
	// them. It is always taken before mu.
	saveMu sync.Mutex
	mu     sync.Mutex

	docType      string
	sectionIndex int
	gateway      Gateway
	favorites    FavoriteSource
	section      Section[S]
	logger       logger.ILogger

	state            State
	source           Source
	restoreReady     bool
	appliedToken     Token
	inFlightToken    Token
	sessionConsulted bool
	// generation is bumped by every begin and clear; a restore only commits
	// if nothing bumped it while the payload was being applied.
	generation uint64
	warnings   []Warning
	// retired is set once the section is unmounted; nothing writes its slot
	// afterwards.
	retired bool
}

func NewCoordinator[S any](section Section[S], opts CoordinatorOptions) *Coordinator[S] {
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	return &Coordinator[S]{
		docType:      opts.DocType,
		sectionIndex: opts.SectionIndex,
		gateway:      opts.Gateway,
		favorites:    opts.Favorites,
		section:      section,
		logger:       opts.Logger,
		state:        StateIdle,
		source:       SourceNone,
	}
}

// Sync is the restore effect. It is safe to call on every change; it only
// restores when a new favorite is selected or, once per lifetime, when a
// session slot exists and no favorite is active.
func (c *Coordinator[S]) Sync(ctx context.Context) error {
	c.mu.Lock()
	if c.retired {
		c.mu.Unlock()
		return nil
	}

	if fav := c.selectedFavorite(); fav != nil {
		token := FavoriteToken(fav.ID.String())
		if token == c.appliedToken || (c.state == StateRestoring && token == c.inFlightToken) {
			c.mu.Unlock()
			return nil
		}
		gen, err := c.beginLocked(token)
		c.mu.Unlock()
		if err != nil {
			return err
		}
		c.run(ctx, gen, token, SourceFavorite, fav.DataToSave)
		return nil
	}

	if c.sessionConsulted {
		c.mu.Unlock()
		return nil
	}
	c.sessionConsulted = true
	gen := c.generation
	c.mu.Unlock()

	payload := c.gateway.LoadTabSessionState(ctx, c.docType, c.sectionIndex)

	c.mu.Lock()
	if c.generation != gen || c.state != StateIdle {
		// A favorite restore or a clear started while the slot was loading.
		c.mu.Unlock()
		return nil
	}
	if payload == nil {
		if err := c.moveLocked(EventSkip); err != nil {
			c.mu.Unlock()
			return err
		}
		c.restoreReady = true
		c.mu.Unlock()
		c.logger.Debug("Restore", "Nothing to restore", c.details(nil))
		c.persistIfCurrent(ctx, gen)
		return nil
	}

	token := PayloadToken(payload)
	if t, ok := any(c.section).(SessionTokener); ok {
		token = t.RestoreToken(payload)
	}
	gen, err := c.beginLocked(token)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.run(ctx, gen, token, SourceSession, payload)
	return nil
}

// Persist is the section's "state changed" effect. It writes the current
// snapshot and returns true only when the section is ready.
func (c *Coordinator[S]) Persist(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		gatedSavesTotal.Inc()
		return false
	}
	gen := c.generation
	c.mu.Unlock()

	return c.persistIfCurrent(ctx, gen)
}

// persistIfCurrent writes the snapshot only if nothing cleared, retired or
// restarted the section since gen. A Clear waits for a write in progress.
func (c *Coordinator[S]) persistIfCurrent(ctx context.Context, gen uint64) bool {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if c.retired || c.generation != gen || c.state != StateReady {
		c.mu.Unlock()
		c.logger.Debug("Restore", "Dropping superseded save", c.details(nil))
		return false
	}
	snapshot := c.section.Snapshot()
	c.mu.Unlock()

	c.gateway.SaveTabSessionState(ctx, c.docType, c.sectionIndex, snapshot)
	return true
}

// Clear forgets which sources were applied, resets the section and removes
// its slot. A restore still in flight is discarded when it finishes.
func (c *Coordinator[S]) Clear(ctx context.Context) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if c.retired {
		c.mu.Unlock()
		return
	}
	if err := c.moveLocked(EventClear); err != nil {
		c.logger.Error("Restore", "Clear rejected", c.details(map[string]interface{}{"error": err.Error()}))
	}
	c.generation++
	c.source = SourceNone
	c.restoreReady = true
	c.appliedToken = ""
	c.inFlightToken = ""
	c.warnings = nil
	c.section.ResetLocalState()
	c.mu.Unlock()

	c.gateway.ClearTabSessionState(ctx, c.docType, c.sectionIndex)
	c.logger.Info("Restore", "Section cleared", c.details(nil))
}

// Retire detaches the coordinator from its slot once the section is replaced
// or unmounted. A restore still in flight is discarded and later calls are
// no-ops. The slot itself is left alone.
func (c *Coordinator[S]) Retire() {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retired {
		return
	}
	c.retired = true
	c.generation++
	c.inFlightToken = ""
	c.logger.Debug("Restore", "Section retired", c.details(nil))
}

// Edit runs a user change against the section and persists the result.
// Edits are rejected while a restore is in flight.
func (c *Coordinator[S]) Edit(ctx context.Context, change func() error) (bool, error) {
	c.mu.Lock()
	if c.retired {
		c.mu.Unlock()
		return false, ErrSectionRetired
	}
	if c.state == StateRestoring {
		c.mu.Unlock()
		return false, ErrRestoreInProgress
	}
	if err := change(); err != nil {
		c.mu.Unlock()
		return false, err
	}
	c.mu.Unlock()
	return c.Persist(ctx), nil
}

// Revalidate re-runs reference checks for sections whose catalog arrived late.
func (c *Coordinator[S]) Revalidate(ctx context.Context) bool {
	rv, ok := any(c.section).(Revalidator)
	if !ok {
		return false
	}

	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return false
	}
	if c.retired {
		c.mu.Unlock()
		return false
	}
	changed, warnings := rv.Revalidate(ctx)
	if !changed {
		c.mu.Unlock()
		return false
	}
	c.warnings = append(c.warnings, warnings...)
	gen := c.generation
	c.mu.Unlock()

	c.persistIfCurrent(ctx, gen)
	c.logger.Info("Restore", "Section revalidated", c.details(map[string]interface{}{"warnings": len(warnings)}))
	return true
}

func (c *Coordinator[S]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	warnings := make([]Warning, len(c.warnings))
	copy(warnings, c.warnings)
	return Status{
		State:        c.state,
		Source:       c.source,
		IsRestoring:  c.state == StateRestoring,
		RestoreReady: c.restoreReady,
		Token:        c.appliedToken,
		Generation:   c.generation,
		Warnings:     warnings,
	}
}

// Snapshot returns the section's current payload.
func (c *Coordinator[S]) Snapshot() Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.section.Snapshot()
}

func (c *Coordinator[S]) selectedFavorite() *FavoriteRecord {
	if c.favorites == nil {
		return nil
	}
	fav := c.favorites.SelectedFavorite()
	if fav == nil || fav.DocType != c.docType || fav.SectionIndex != c.sectionIndex {
		return nil
	}
	return fav
}

func (c *Coordinator[S]) moveLocked(ev Event) error {
	next, err := transition(c.state, ev)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

func (c *Coordinator[S]) beginLocked(token Token) (uint64, error) {
	if err := c.moveLocked(EventBegin); err != nil {
		return 0, err
	}
	c.generation++
	c.inFlightToken = token
	return c.generation, nil
}

func (c *Coordinator[S]) run(ctx context.Context, gen uint64, token Token, source Source, payload Payload) {
	ctx, span := tracer.Start(ctx, "restore.apply",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("doc_type", c.docType),
			attribute.Int("section_index", c.sectionIndex),
			attribute.String("source", string(source)),
			attribute.String("token", string(token)),
		),
	)
	defer span.End()

	start := time.Now()
	staged, warnings, err := c.apply(ctx, payload)
	restoreDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		restoresTotal.WithLabelValues(string(source), "discarded").Inc()
		span.SetAttributes(attribute.Bool("discarded", true))
		c.logger.Info("Restore", "Discarding superseded restore", c.details(map[string]interface{}{"token": string(token)}))
		return
	}

	outcome := "applied"
	if err != nil {
		outcome = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("Restore", "Applying saved data failed", c.details(map[string]interface{}{
			"source": string(source),
			"error":  err.Error(),
		}))
	} else {
		c.section.Commit(staged)
	}

	if moveErr := c.moveLocked(EventSettle); moveErr != nil {
		c.logger.Error("Restore", "Settle rejected", c.details(map[string]interface{}{"error": moveErr.Error()}))
	}
	c.source = source
	c.restoreReady = true
	c.appliedToken = token
	c.inFlightToken = ""
	c.warnings = warnings
	c.mu.Unlock()

	restoresTotal.WithLabelValues(string(source), outcome).Inc()
	c.logger.Info("Restore", "Restore settled", c.details(map[string]interface{}{
		"source":   string(source),
		"outcome":  outcome,
		"warnings": len(warnings),
	}))

	// One save right after settling rewrites an old-shape payload in the
	// current shape.
	c.persistIfCurrent(ctx, gen)
}

func (c *Coordinator[S]) apply(ctx context.Context, payload Payload) (staged S, warnings []Warning, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("apply saved data panicked: %v", r)
		}
	}()
	return c.section.ApplySavedData(ctx, payload)
}

func (c *Coordinator[S]) details(extra map[string]interface{}) map[string]interface{} {
	d := map[string]interface{}{
		"doc_type":      c.docType,
		"section_index": c.sectionIndex,
	}
	for k, v := range extra {
		d[k] = v
	}
	return d
}
