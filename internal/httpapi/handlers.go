package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gridstack-labs/gridstyle/internal/grid"
	"github.com/gridstack-labs/gridstyle/pkg/compiler"
	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/rules"
	"github.com/gridstack-labs/gridstyle/pkg/runtime"
)

func (s *Server) routes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/profiles", s.handleListProfiles)
		r.Get("/profiles/{key}", s.handleGetProfile)
		r.Put("/profiles/{key}", s.handlePutProfile)
		r.Delete("/profiles/{key}", s.handleDeleteProfile)
		r.Post("/rules/validate", s.handleValidate)
		r.Post("/preview", s.handlePreview)
		r.Get("/styles.css", s.handleCSS)
	})
}

// JSON shapes. core.Rule and core.ValidationResult marshal themselves; the
// rest of the wire surface is defined here.

type profileJSON struct {
	Key       string    `json:"key"`
	RuleCount int       `json:"ruleCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ruleErrorJSON struct {
	RuleID string `json:"ruleId"`
	Rule   string `json:"rule"`
	Error  string `json:"error"`
}

func ruleErrors(errs []compiler.RuleError) []ruleErrorJSON {
	out := make([]ruleErrorJSON, 0, len(errs))
	for _, e := range errs {
		out = append(out, ruleErrorJSON{RuleID: e.RuleID, Rule: e.Name, Error: e.Err.Error()})
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	infos, err := s.eng.Store().List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]profileJSON, 0, len(infos))
	for _, info := range infos {
		out = append(out, profileJSON{Key: info.Key, RuleCount: info.RuleCount, UpdatedAt: info.UpdatedAt})
	}
	respondJSON(w, http.StatusOK, map[string]any{"profiles": out})
}

// handleGetProfile returns the profile's rule set. Per the tolerant-load
// contract an unknown profile reads as an empty rule set, not a 404.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	ruleList, err := s.eng.Store().Load(r.Context(), key)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"key": key, "rules": ruleList})
}

// handlePutProfile replaces the profile's rule set wholesale. Saving the
// active profile also recompiles and swaps the live registry; saving any
// other profile only reports what a compile would say.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	ruleList, err := rules.Decode(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.eng.Store().Save(r.Context(), key, ruleList); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	activated := false
	var comp *compiler.Compilation
	if key == s.eng.ActiveProfile() {
		comp, _, err = s.eng.ActivateProfile(r.Context(), key)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		activated = true
	} else {
		comp = compiler.Compile(key, ruleList, s.logger)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"key":           key,
		"rules":         len(ruleList),
		"activated":     activated,
		"compileErrors": ruleErrors(comp.Errors),
	})
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := s.eng.Store().Delete(r.Context(), key); err != nil {
		if errors.Is(err, core.ErrProfileNotFound) {
			respondError(w, http.StatusNotFound, "profile not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleValidate runs the advisory structural checks over a rule array.
// Results come back in input order, one per rule.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	ruleList, err := rules.Decode(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": rules.ValidateAll(ruleList)})
}

type previewRequest struct {
	Rules       json.RawMessage   `json:"rules"`
	Columns     []string          `json:"columns"`
	Rows        []map[string]any  `json:"rows"`
	CalcColumns []core.CalcColumn `json:"calcColumns"`
}

type previewColumn struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Calc  bool   `json:"calc,omitempty"`
}

type previewCell struct {
	Value   any            `json:"value"`
	Display string         `json:"display"`
	Classes []string       `json:"classes,omitempty"`
	Style   core.StyleDecl `json:"style,omitempty"`
	Icon    *core.IconSpec `json:"icon,omitempty"`
}

// handlePreview paints the supplied rows with the supplied rules in an
// ephemeral grid instance, fully isolated from the live registry. Column
// order follows the request; without it, the union of row keys, sorted.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid preview request: "+err.Error())
		return
	}
	var ruleList []core.Rule
	if len(bytes.TrimSpace(req.Rules)) > 0 {
		var err error
		ruleList, err = rules.Decode(req.Rules)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	columnIDs := req.Columns
	if len(columnIDs) == 0 {
		columnIDs = unionKeys(req.Rows)
	}
	cols := make([]grid.Column, len(columnIDs))
	for i, id := range columnIDs {
		cols[i] = grid.Column{ID: id, Title: id}
	}

	reg := runtime.NewRegistry(runtime.NewMemorySink(), s.logger)
	g := grid.New(grid.Config{InstanceID: "preview", Registry: reg, Logger: s.logger})
	g.SetData(cols, req.Rows)
	calcErrs := g.SetCalcColumns(req.CalcColumns)
	comp := reg.Initialize("preview", ruleList)

	painted := g.Paint()
	rows := make([][]previewCell, len(painted))
	for i, rowCells := range painted {
		out := make([]previewCell, len(rowCells))
		for j, cell := range rowCells {
			out[j] = previewCell{
				Value:   cell.Value,
				Display: cell.Display,
				Classes: cell.Classes,
				Style:   cell.Style,
				Icon:    cell.Icon,
			}
		}
		rows[i] = out
	}

	outCols := make([]previewColumn, 0, len(g.Columns()))
	for _, c := range g.Columns() {
		outCols = append(outCols, previewColumn{ID: c.ID, Title: c.Title, Calc: c.Calc})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"columns":       outCols,
		"rows":          rows,
		"css":           reg.CSS("preview"),
		"compileErrors": ruleErrors(comp.Errors),
		"calcErrors":    ruleErrors(calcErrs),
	})
}

// handleCSS serves the live instance's generated stylesheet.
func (s *Server) handleCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = io.WriteString(w, s.eng.Registry().CSS(s.eng.Grid().InstanceID()))
}

// unionKeys returns the sorted union of all row keys.
func unionKeys(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
