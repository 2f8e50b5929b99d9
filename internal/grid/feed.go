package grid

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Load reads a feed file, picking the format from the extension (.csv or
// .json).
func (g *Grid) Load(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return g.LoadCSV(path)
	case ".json":
		return g.LoadJSON(path)
	default:
		return fmt.Errorf("unsupported feed format %q", filepath.Ext(path))
	}
}

// LoadCSV reads a CSV feed from disk.
func (g *Grid) LoadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	defer f.Close()
	if err := g.ReadCSV(f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// ReadCSV loads a CSV feed. The first record is the header; each header
// cell becomes a column ID and title. Cells are typed loosely: numbers
// become float64, "true"/"false" become booleans, empty cells become
// null, everything else stays a string. Date-looking strings stay
// strings; the expression language coerces them when compared.
func (g *Grid) ReadCSV(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("invalid CSV: %w", err)
	}
	if len(records) == 0 {
		g.SetData(nil, nil)
		return nil
	}

	columns := make([]Column, 0, len(records[0]))
	for _, h := range records[0] {
		h = strings.TrimSpace(h)
		columns = append(columns, Column{ID: h, Title: h})
	}

	rows := make([]map[string]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(columns))
		for i, cell := range record {
			if i >= len(columns) {
				break
			}
			row[columns[i].ID] = parseCSVValue(cell)
		}
		rows = append(rows, row)
	}

	g.SetData(columns, rows)
	return nil
}

func parseCSVValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// LoadJSON reads a JSON feed from disk.
func (g *Grid) LoadJSON(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	defer f.Close()
	if err := g.ReadJSON(f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// ReadJSON loads a JSON feed: an array of flat objects. Columns follow the
// first object's key order, with keys that only appear later appended in
// sorted order. Decoded numbers are float64, null is null.
func (g *Grid) ReadJSON(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read feed: %w", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("invalid JSON feed: %w", err)
	}

	seen := make(map[string]bool)
	var columns []Column
	for _, key := range firstObjectKeys(data) {
		if !seen[key] {
			seen[key] = true
			columns = append(columns, Column{ID: key, Title: key})
		}
	}
	var extras []string
	for _, row := range rows {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				extras = append(extras, key)
			}
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		columns = append(columns, Column{ID: key, Title: key})
	}

	g.SetData(columns, rows)
	return nil
}

// firstObjectKeys walks the tokens of the feed's first object to recover
// its key order, which json.Unmarshal into a map discards.
func firstObjectKeys(data []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('[') {
		return nil
	}
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}
