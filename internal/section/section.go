// Package section holds the form sections a tab can mount. Every kind owns
// its payload shape and resolves saved payloads against live tracker data;
// restore sequencing is left to restore.Coordinator.
package section

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/pkg/restore"
)

type Kind string

const (
	KindTestContent   Kind = "test-content"
	KindSTR           Kind = "str"
	KindSRS           Kind = "srs"
	KindReleaseRange  Kind = "release-range"
	KindCommitRange   Kind = "commit-range"
	KindPipelineRange Kind = "pipeline-range"
)

var (
	ErrUnknownKind    = errors.New("unknown section kind")
	ErrInvalidPayload = errors.New("invalid section payload")
)

// Kinds lists every mountable kind.
func Kinds() []Kind {
	return []Kind{KindTestContent, KindSTR, KindSRS, KindReleaseRange, KindCommitRange, KindPipelineRange}
}

// Deps are the live data sources shared by the sections of one tab.
type Deps struct {
	Tracker     tracker.Client
	Suites      *tracker.SuiteStore
	Queries     *tracker.QueryCatalog
	WaitTimeout time.Duration
}

// Mounted is a section bound to its coordinator.
type Mounted interface {
	Kind() Kind
	// Sync runs the restore effect and re-checks references whose catalog
	// arrived while the restore was running.
	Sync(ctx context.Context) error
	// Update replaces the section's state with a user edit and persists it.
	Update(ctx context.Context, payload restore.Payload) (bool, error)
	Persist(ctx context.Context) bool
	Clear(ctx context.Context)
	// Retire stops the section from writing its slot once it is replaced.
	Retire()
	Revalidate(ctx context.Context) bool
	Status() restore.Status
	Snapshot() restore.Payload
}

type editable[S any] interface {
	restore.Section[S]
	Update(payload restore.Payload) error
}

type mounted[S any] struct {
	kind    Kind
	section editable[S]
	coord   *restore.Coordinator[S]
}

// New builds a section of the given kind and its coordinator.
func New(kind Kind, deps Deps, opts restore.CoordinatorOptions) (Mounted, error) {
	switch kind {
	case KindTestContent:
		return mount[TestContentState](kind, &testContentSection{deps: deps}, opts), nil
	case KindSTR:
		return mount[STRState](kind, &strSection{deps: deps}, opts), nil
	case KindSRS:
		return mount[SRSState](kind, &srsSection{deps: deps}, opts), nil
	case KindReleaseRange:
		return mount[ReleaseRangeState](kind, &releaseRangeSection{deps: deps}, opts), nil
	case KindCommitRange:
		return mount[CommitRangeState](kind, &commitRangeSection{deps: deps}, opts), nil
	case KindPipelineRange:
		return mount[PipelineRangeState](kind, &pipelineRangeSection{deps: deps}, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func mount[S any](kind Kind, s editable[S], opts restore.CoordinatorOptions) *mounted[S] {
	return &mounted[S]{
		kind:    kind,
		section: s,
		coord:   restore.NewCoordinator[S](s, opts),
	}
}

func (m *mounted[S]) Kind() Kind { return m.kind }

func (m *mounted[S]) Sync(ctx context.Context) error {
	if err := m.coord.Sync(ctx); err != nil {
		return err
	}
	m.coord.Revalidate(ctx)
	return nil
}

func (m *mounted[S]) Update(ctx context.Context, payload restore.Payload) (bool, error) {
	return m.coord.Edit(ctx, func() error {
		return m.section.Update(payload)
	})
}

func (m *mounted[S]) Persist(ctx context.Context) bool { return m.coord.Persist(ctx) }
func (m *mounted[S]) Clear(ctx context.Context) { m.coord.Clear(ctx) }
func (m *mounted[S]) Retire() { m.coord.Retire() }
func (m *mounted[S]) Revalidate(ctx context.Context) bool { return m.coord.Revalidate(ctx) }
func (m *mounted[S]) Status() restore.Status { return m.coord.Status() }
func (m *mounted[S]) Snapshot() restore.Payload { return m.coord.Snapshot() }

func snapshot(v any) restore.Payload {
	p, err := restore.EncodePayload(v)
	if err != nil {
		return restore.Payload{}
	}
	return p
}

func decode(payload restore.Payload, out any, kind Kind) error {
	if err := payload.Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, kind, err)
	}
	return nil
}

// decodeSaved fills out field by field from a saved payload. A field whose
// saved value has the wrong type keeps its zero value and is reported, so one
// bad field never costs the others. Nested structs are decoded the same way.
func decodeSaved(payload restore.Payload, out any) []restore.Warning {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil
	}
	return decodeFields(payload, v.Elem(), "")
}

func decodeFields(values map[string]any, v reflect.Value, prefix string) []restore.Warning {
	var warnings []restore.Warning
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		raw, ok := values[name]
		if !ok || raw == nil {
			continue
		}

		field := v.Field(i)
		if nested, isMap := raw.(map[string]any); isMap && f.Type.Kind() == reflect.Struct {
			warnings = append(warnings, decodeFields(nested, field, prefix+name+".")...)
			continue
		}
		if err := decodeValue(raw, field.Addr().Interface()); err != nil {
			field.Set(reflect.Zero(f.Type))
			warnings = append(warnings, warn(prefix+name, "Saved value of %s has the wrong type and was dropped", prefix+name))
		}
	}
	return warnings
}

func decodeValue(raw any, out any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func warn(field, format string, args ...any) restore.Warning {
	return restore.Warning{Field: field, Message: fmt.Sprintf(format, args...)}
}
