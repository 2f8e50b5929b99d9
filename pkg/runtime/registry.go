// Package runtime owns the live compiled rule sets for open grid
// instances. It is the boundary the renderer talks to: initialize or
// update an instance's rules, look up the compiled predicates during
// paint, destroy the instance on teardown.
//
// Each instance's artifacts are namespaced by its id and swapped
// wholesale on update, so a repaint observes either the old compilation
// or the new one, never a mix. Style injection is best-effort: a failing
// sink is logged and predicates stay available regardless.
package runtime

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/gridstack-labs/gridstyle/pkg/compiler"
	"github.com/gridstack-labs/gridstyle/pkg/core"
)

// StyleSink receives the generated CSS for a grid instance. Inject
// replaces the instance's previous sheet wholesale; Retract removes it.
// Implementations must tolerate Retract for an unknown instance.
type StyleSink interface {
	Inject(instanceID, css string) error
	Retract(instanceID string) error
}

// Registry tracks at most one live compilation per grid instance.
type Registry struct {
	mu sync.RWMutex

	// instances maps grid-instance ids to their active compilation.
	instances map[string]*compiler.Compilation

	sink   StyleSink
	logger *slog.Logger
}

// NewRegistry creates an empty registry. A nil sink disables style
// injection (predicates still work); a nil logger discards.
func NewRegistry(sink StyleSink, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		instances: make(map[string]*compiler.Compilation),
		sink:      sink,
		logger:    logger,
	}
}

// Initialize compiles and activates a rule set for a grid instance,
// replacing any prior compilation for the same id. The returned
// compilation carries the per-rule parse errors, if any.
func (r *Registry) Initialize(instanceID string, ruleList []core.Rule) *compiler.Compilation {
	return r.apply(instanceID, ruleList)
}

// Update recompiles the instance's rules and swaps the active artifacts
// atomically. Callers own write ordering: one logical flow updates a
// given instance at a time.
func (r *Registry) Update(instanceID string, ruleList []core.Rule) *compiler.Compilation {
	return r.apply(instanceID, ruleList)
}

func (r *Registry) apply(instanceID string, ruleList []core.Rule) *compiler.Compilation {
	c := compiler.Compile(instanceID, ruleList, r.logger)

	for _, ruleErr := range c.Errors {
		r.logger.Warn("rule failed to compile, it will never match",
			"instance", instanceID,
			"rule_id", ruleErr.RuleID,
			"rule", ruleErr.Name,
			"error", ruleErr.Err)
	}

	r.mu.Lock()
	r.instances[instanceID] = c
	r.mu.Unlock()

	r.inject(instanceID, c)
	return c
}

// inject pushes the compilation's CSS to the sink. Injection failure
// downgrades to a warning: styling is cosmetic, predicate lookup is not.
func (r *Registry) inject(instanceID string, c *compiler.Compilation) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Inject(instanceID, c.Stylesheet().String()); err != nil {
		r.logger.Warn("style injection failed, predicates remain active",
			"instance", instanceID,
			"error", err)
	}
}

// CellPredicates returns the compiled cell-scope entries for one column
// of one instance, in application order. Unknown instances yield nil.
func (r *Registry) CellPredicates(instanceID, columnID string) []core.PredicateEntry {
	r.mu.RLock()
	c, ok := r.instances[instanceID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return c.CellPredicates(columnID)
}

// RowPredicates returns the compiled row-scope entries for one instance,
// in application order. Unknown instances yield nil.
func (r *Registry) RowPredicates(instanceID string) []core.RowPredicateEntry {
	r.mu.RLock()
	c, ok := r.instances[instanceID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return c.RowPredicates()
}

// Styles returns the compiled style entries for one instance. Unknown
// instances yield nil.
func (r *Registry) Styles(instanceID string) []core.StyleEntry {
	r.mu.RLock()
	c, ok := r.instances[instanceID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return c.Styles()
}

// CSS returns the instance's generated stylesheet text, empty for unknown
// instances.
func (r *Registry) CSS(instanceID string) string {
	r.mu.RLock()
	c, ok := r.instances[instanceID]
	r.mu.RUnlock()
	if !ok {
		return ""
	}
	return c.Stylesheet().String()
}

// Destroy removes the instance's compilation and retracts its injected
// styles. Destroying an unknown instance is a no-op.
func (r *Registry) Destroy(instanceID string) {
	r.mu.Lock()
	_, ok := r.instances[instanceID]
	delete(r.instances, instanceID)
	r.mu.Unlock()

	if !ok || r.sink == nil {
		return
	}
	if err := r.sink.Retract(instanceID); err != nil {
		r.logger.Warn("style retraction failed",
			"instance", instanceID,
			"error", err)
	}
}

// DestroyAll tears down every live instance.
func (r *Registry) DestroyAll() {
	for _, id := range r.Instances() {
		r.Destroy(id)
	}
}

// Instances returns the ids of all live instances, sorted.
func (r *Registry) Instances() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
