package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"labgraph/internal/models"
	"labgraph/internal/util"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS lab_chemicals (
  batch_id TEXT NOT NULL,
  sample_id TEXT NOT NULL,
  chemical_id INTEGER NOT NULL,
  content TEXT NOT NULL,
  concentration DOUBLE PRECISION,
  molarity DOUBLE PRECISION,
  volume DOUBLE PRECISION,
  chem_type TEXT NOT NULL,
  PRIMARY KEY (batch_id, sample_id, chemical_id)
)`,
	`CREATE TABLE IF NOT EXISTS lab_actions (
  batch_id TEXT NOT NULL,
  sample_id TEXT NOT NULL,
  step_id INTEGER NOT NULL,
  action TEXT NOT NULL,
  chemical_from INTEGER,
  attrs TEXT NOT NULL,
  fid TEXT,
  output TEXT,
  PRIMARY KEY (batch_id, sample_id, step_id)
)`,
	`CREATE TABLE IF NOT EXISTS lab_links (
  batch_id TEXT NOT NULL,
  sample_id TEXT NOT NULL,
  seq INTEGER NOT NULL,
  step_id INTEGER NOT NULL,
  action TEXT NOT NULL,
  chemical_from INTEGER,
  step_to INTEGER,
  chemical_to INTEGER,
  step_from INTEGER,
  PRIMARY KEY (batch_id, sample_id, seq)
)`,
}

// record is the flattened row set of one table. Values are limited to
// string, int64, float64 and nil so that both drivers bind them as is.
type record struct {
	table  string
	cols   []string
	values [][]any
}

func (r record) deleteSQL(ph func(int) string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE batch_id = %s AND sample_id = %s", r.table, ph(1), ph(2))
}

func (r record) insertSQL(ph func(int) string) string {
	marks := make([]string, len(r.cols))
	for i := range marks {
		marks[i] = ph(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", r.table, strings.Join(r.cols, ", "), strings.Join(marks, ", "))
}

func dollar(i int) string { return "$" + strconv.Itoa(i) }

func question(int) string { return "?" }

func sampleRecords(t models.SampleTables) ([]record, error) {
	batch, sample := util.SanitizeText(t.BatchID), util.SanitizeText(t.SampleID)

	chems := record{
		table: "lab_chemicals",
		cols:  []string{"batch_id", "sample_id", "chemical_id", "content", "concentration", "molarity", "volume", "chem_type"},
	}
	for _, c := range t.Chemicals {
		chems.values = append(chems.values, []any{
			batch, sample, int64(c.ChemicalID), util.SanitizeText(c.Content),
			nullFloat(c.Concentration), nullFloat(c.Molarity), nullFloat(c.Volume), string(c.ChemType),
		})
	}

	actions := record{
		table: "lab_actions",
		cols:  []string{"batch_id", "sample_id", "step_id", "action", "chemical_from", "attrs", "fid", "output"},
	}
	for _, a := range t.Actions {
		attrs := "{}"
		if a.Attrs != nil {
			b, err := json.Marshal(a.Attrs)
			if err != nil {
				return nil, fmt.Errorf("encode attrs of step %d: %w", a.StepID, err)
			}
			attrs = util.SanitizeText(string(b))
		}
		var fid, output any
		if a.IsOutput() {
			fid = a.FID
			b, err := json.Marshal(a.Output)
			if err != nil {
				return nil, fmt.Errorf("encode output %s: %w", a.FID, err)
			}
			output = string(b)
		}
		actions.values = append(actions.values, []any{
			batch, sample, int64(a.StepID), string(a.Action), nullInt(a.ChemicalFrom), attrs, fid, output,
		})
	}

	links := record{
		table: "lab_links",
		cols:  []string{"batch_id", "sample_id", "seq", "step_id", "action", "chemical_from", "step_to", "chemical_to", "step_from"},
	}
	for i, l := range t.Links {
		links.values = append(links.values, []any{
			batch, sample, int64(i), int64(l.StepID), string(l.Action),
			nullInt(l.ChemicalFrom), nullInt(l.StepTo), nullInt(l.ChemicalTo), nullInt(l.StepFrom),
		})
	}
	return []record{chems, actions, links}, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
