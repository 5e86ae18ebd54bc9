package mapping

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Definer is implemented by values that carry a Definition, such as *Map[T].
type Definer interface {
	Definition() *Definition
}

// Registry holds fluent definitions and the resolved mapping of every type
// used so far. Create one at startup and pass it to the components that bind
// rows; it is safe for concurrent use.
type Registry struct {
	config Config
	logger *slog.Logger

	mu          sync.Mutex
	definitions map[reflect.Type]*Definition

	// resolved maps reflect.Type to *resolution. Entries are published once
	// and never replaced until Reset.
	resolved sync.Map
}

// resolution is the once-only resolution slot of one type.
type resolution struct {
	once    sync.Once
	mapping *ResolvedMapping
	err     error
}

// NewRegistry creates an empty Registry.
func NewRegistry(config Config) *Registry {
	config.validate()
	return &Registry{
		config:      config,
		logger:      config.Logger,
		definitions: make(map[reflect.Type]*Definition),
	}
}

// Config returns the registry's configuration.
func (r *Registry) Config() Config {
	return r.config
}

// Define registers a fluent definition. It fails with the first configuration
// error recorded by the builder, or with ErrAlreadyResolved when the type's
// mapping has already been resolved. A later Define for the same type
// replaces the earlier one.
func (r *Registry) Define(d Definer) error {
	def := d.Definition()
	if def == nil || def.typ == nil {
		return fmt.Errorf("%w: nil definition", ErrConfiguration)
	}
	if err := def.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resolved.Load(def.typ); ok {
		return fmt.Errorf("%w: %s", ErrAlreadyResolved, def.typ)
	}
	r.definitions[def.typ] = def
	return nil
}

// Resolve returns the mapping for t, resolving it on first use. Pointer types
// resolve to their struct type. Concurrent first calls for the same type
// return the same *ResolvedMapping; a failed resolution is cached and every
// call returns the same error.
func (r *Registry) Resolve(t reflect.Type) (*ResolvedMapping, error) {
	t = structType(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v", ErrNotStruct, t)
	}

	entry, ok := r.resolved.Load(t)
	if !ok {
		entry, _ = r.resolved.LoadOrStore(t, &resolution{})
	}
	res := entry.(*resolution)
	res.once.Do(func() {
		res.mapping, res.err = r.build(t)
	})
	return res.mapping, res.err
}

// ResolveValue resolves the mapping of v's type.
func (r *Registry) ResolveValue(v any) (*ResolvedMapping, error) {
	return r.Resolve(reflect.TypeOf(v))
}

// Resolve returns the mapping of T from r.
func Resolve[T any](r *Registry) (*ResolvedMapping, error) {
	return r.Resolve(reflect.TypeFor[T]())
}

// MustResolve is like Resolve but panics on error. Intended for package-level
// variables initialized after all definitions are registered.
func MustResolve[T any](r *Registry) *ResolvedMapping {
	m, err := Resolve[T](r)
	if err != nil {
		panic(err)
	}
	return m
}

// build picks the fluent definition when one exists, else scans tags.
func (r *Registry) build(t reflect.Type) (*ResolvedMapping, error) {
	r.mu.Lock()
	def, fluent := r.definitions[t]
	r.mu.Unlock()

	source := "fluent"
	if !fluent {
		def = Scan(t, r.config.TagKey)
		source = "tags"
	}

	m, err := resolve(def, r.config)
	if err != nil {
		r.logger.Warn("mapping resolution failed",
			"type", t.String(),
			"source", source,
			"error", err,
		)
		return nil, err
	}

	r.logger.Debug("mapping resolved",
		"type", t.String(),
		"source", source,
		"table", m.table,
		"columns", len(m.columns),
		"partitionKey", m.partition,
		"clusteringKey", m.clustering,
	)
	return m, nil
}

// Defined reports whether a fluent definition is registered for t.
func (r *Registry) Defined(t reflect.Type) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.definitions[structType(t)]
	return ok
}

// Reset drops every definition and resolved mapping. Mappings handed out
// before Reset stay valid but are no longer cached. Test helper; callers must
// not race Reset with Define.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions = make(map[reflect.Type]*Definition)
	r.resolved.Range(func(k, _ any) bool {
		r.resolved.Delete(k)
		return true
	})
}
