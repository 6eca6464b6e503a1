package features

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"labgraph/internal/models"
)

// Table is the columnar form of a row set, built only for writing.
type Table struct {
	Columns []string
	Rows    [][]string
}

var (
	chemicalColumns = []string{"chemical_id", "batch_id", "content", "concentration", "molarity", "volume", "chem_type", "sample_id"}
	linkColumns     = []string{"step_id", "action", "chemical_from", "step_to", "chemical_to", "step_from", "sample_id", "batch_id"}
)

func ChemicalsToTable(rows []models.ChemicalRow) Table {
	t := Table{Columns: chemicalColumns, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.ChemicalID),
			r.BatchID,
			r.Content,
			FormatValue(r.Concentration),
			FormatValue(r.Molarity),
			FormatValue(r.Volume),
			string(r.ChemType),
			r.SampleID,
		})
	}
	return t
}

func LinksToTable(rows []models.LinkRow) Table {
	t := Table{Columns: linkColumns, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.StepID),
			string(r.Action),
			FormatValue(r.ChemicalFrom),
			FormatValue(r.StepTo),
			FormatValue(r.ChemicalTo),
			FormatValue(r.StepFrom),
			r.SampleID,
			r.BatchID,
		})
	}
	return t
}

// ActionsToTable lays out step_id, action and chemical_from, then every
// attribute column in first-seen order, then sample_id and batch_id, and
// finally the output columns when characterization outputs are present.
func ActionsToTable(rows []models.ActionRow) Table {
	cols := []string{"step_id", "action", "chemical_from"}
	seen := map[string]bool{"step_id": true, "action": true, "chemical_from": true, "sample_id": true, "batch_id": true}
	hasOutputs := false
	for _, r := range rows {
		if r.IsOutput() {
			hasOutputs = true
			continue
		}
		if r.Attrs == nil {
			continue
		}
		for p := r.Attrs.Oldest(); p != nil; p = p.Next() {
			if !seen[p.Key] {
				seen[p.Key] = true
				cols = append(cols, p.Key)
			}
		}
	}
	cols = append(cols, "sample_id", "batch_id")
	if hasOutputs {
		if !seen["char_name"] {
			cols = append(cols, "char_name")
		}
		cols = append(cols, "fid", "output")
	}

	t := Table{Columns: cols, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			switch c {
			case "step_id":
				cells[i] = strconv.Itoa(r.StepID)
			case "action":
				cells[i] = string(r.Action)
			case "chemical_from":
				cells[i] = FormatValue(r.ChemicalFrom)
			case "sample_id":
				cells[i] = r.SampleID
			case "batch_id":
				cells[i] = r.BatchID
			case "fid":
				cells[i] = r.FID
			case "output":
				cells[i] = FormatValue(r.Output)
			default:
				if r.Attrs != nil {
					if v, ok := r.Attrs.Get(c); ok {
						cells[i] = FormatValue(v)
					}
				}
			}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// FormatValue renders a cell. Missing values are empty, floats always carry a
// decimal point, and nested structures are compact JSON.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	case *int:
		if x == nil {
			return ""
		}
		return strconv.Itoa(*x)
	case *float64:
		if x == nil {
			return ""
		}
		return formatFloat(*x)
	case json.RawMessage:
		return formatRaw(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func formatRaw(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return buf.String()
		}
	}
	return string(raw)
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
