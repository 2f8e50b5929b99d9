// Package transform rewrites a cell's displayed value according to a rule's
// value transform. Prefix, suffix and replace are pure string operations;
// custom transforms evaluate a Starlark expression with the cell value and
// row bound in scope. A transform that fails leaves the display value
// unchanged — nothing in the paint path throws.
package transform

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/gridstack-labs/gridstyle/pkg/core"
)

// Engine applies value transforms. It owns a Starlark thread pool so custom
// transforms in the paint path reuse threads instead of allocating per cell.
type Engine struct {
	pool   *ThreadPool
	logger *slog.Logger

	mu     sync.Mutex
	warned map[string]bool
}

// New creates a transform engine. A nil logger discards output.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		pool:   NewThreadPool(0),
		logger: logger,
		warned: make(map[string]bool),
	}
}

// Apply returns the display value after the transform. display is the value
// as the grid would render it untransformed; value and row feed custom
// function bodies. A nil, unknown, or failing transform returns display
// unchanged.
func (e *Engine) Apply(t *core.ValueTransform, display string, value any, row map[string]any) string {
	if t == nil {
		return display
	}
	switch t.Type {
	case core.TransformPrefix:
		return t.Value + display
	case core.TransformSuffix:
		return display + t.Value
	case core.TransformReplace:
		return t.Value
	case core.TransformCustom:
		out, err := e.eval(t.FunctionBody, value, row)
		if err != nil {
			e.warnOnce(t.FunctionBody, err)
			return display
		}
		return out
	default:
		return display
	}
}

// Check reports whether a custom function body parses as a Starlark
// expression. Validation surfaces call this at edit time; Apply itself
// degrades at runtime instead of failing.
func Check(body string) error {
	_, err := syntax.ParseExpr("transform", body, 0) //nolint:staticcheck // SA1019: will migrate to ParseExprOptions later
	if err != nil {
		return fmt.Errorf("invalid transform expression: %w", err)
	}
	return nil
}

func (e *Engine) eval(body string, value any, row map[string]any) (string, error) {
	globals := starlark.StringDict{
		"value": toStarlark(value),
		"row":   rowToStarlark(row),
	}

	thread := e.pool.Get("transform")
	defer e.pool.Put(thread)

	result, err := starlark.Eval(thread, "transform", body, globals) //nolint:staticcheck // SA1019: will migrate to EvalOptions later
	if err != nil {
		return "", err
	}
	return fromStarlark(result), nil
}

// warnOnce logs the first failure per function body; repeats stay silent so
// a broken transform cannot flood the log from the paint path.
func (e *Engine) warnOnce(body string, err error) {
	e.mu.Lock()
	seen := e.warned[body]
	e.warned[body] = true
	e.mu.Unlock()

	if !seen {
		e.logger.Warn("custom transform failed, value left unchanged", "error", err)
	}
}

// toStarlark converts a cell value to a Starlark value. Times become
// RFC 3339 strings; anything outside the engine's value domain falls back
// to its printed form.
func toStarlark(v any) starlark.Value {
	switch val := v.(type) {
	case nil:
		return starlark.None
	case string:
		return starlark.String(val)
	case bool:
		return starlark.Bool(val)
	case int:
		return starlark.MakeInt(val)
	case int64:
		return starlark.MakeInt64(val)
	case float64:
		return starlark.Float(val)
	case time.Time:
		return starlark.String(val.Format(time.RFC3339))
	default:
		return starlark.String(fmt.Sprint(val))
	}
}

func rowToStarlark(row map[string]any) starlark.Value {
	dict := starlark.NewDict(len(row))
	for k, v := range row {
		_ = dict.SetKey(starlark.String(k), toStarlark(v))
	}
	return dict
}

// fromStarlark renders a transform result as display text.
func fromStarlark(v starlark.Value) string {
	switch val := v.(type) {
	case starlark.NoneType:
		return ""
	case starlark.String:
		return string(val)
	case starlark.Bool:
		if val {
			return "true"
		}
		return "false"
	case starlark.Float:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	default:
		return v.String()
	}
}
