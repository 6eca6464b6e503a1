package models

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Fields keeps the key order of a JSON object as it appeared in the input.
type Fields = orderedmap.OrderedMap[string, json.RawMessage]

// Attrs are the action-specific columns of an action row in first-seen order.
// Values are json.RawMessage for passthrough input or plain Go values.
type Attrs = orderedmap.OrderedMap[string, any]

func NewFields() *Fields {
	return orderedmap.New[string, json.RawMessage]()
}

func NewAttrs() *Attrs {
	return orderedmap.New[string, any]()
}

type ChemType string

const (
	ChemSolute      ChemType = "solute"
	ChemSolvent     ChemType = "solvent"
	ChemAntisolvent ChemType = "antisolvent"
	ChemSolution    ChemType = "solution"
)

type ActionKind string

const (
	ActionDissolve ActionKind = "dissolve"
	ActionDrop     ActionKind = "drop"
	ActionSpin     ActionKind = "spin"
	ActionAnneal   ActionKind = "anneal"
	ActionRest     ActionKind = "rest"
	ActionChar     ActionKind = "char"
)

type LinkKind string

const (
	LinkGoesInto LinkKind = "GOES_INTO"
	LinkOutputs  LinkKind = "OUTPUTS"
	LinkNext     LinkKind = "NEXT"
)

type ChemicalRow struct {
	ChemicalID    int      `json:"chemical_id"`
	BatchID       string   `json:"batch_id"`
	Content       string   `json:"content"`
	Concentration *float64 `json:"concentration,omitempty"`
	Molarity      *float64 `json:"molarity,omitempty"`
	Volume        *float64 `json:"volume,omitempty"`
	ChemType      ChemType `json:"chem_type"`
	SampleID      string   `json:"sample_id"`
}

type ActionRow struct {
	StepID       int
	Action       ActionKind
	ChemicalFrom *int
	Attrs        *Attrs
	SampleID     string
	BatchID      string

	// Set only on characterization-output rows.
	FID    string
	Output any
}

func (r ActionRow) IsOutput() bool {
	return r.FID != ""
}

// CharName returns the char_name column, or "" when the row has none.
func (r ActionRow) CharName() string {
	if r.Attrs == nil {
		return ""
	}
	v, ok := r.Attrs.Get("char_name")
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case json.RawMessage:
		var s string
		if err := json.Unmarshal(x, &s); err == nil {
			return s
		}
		return string(x)
	default:
		return ""
	}
}

type LinkRow struct {
	StepID       int      `json:"step_id"`
	Action       LinkKind `json:"action"`
	ChemicalFrom *int     `json:"chemical_from,omitempty"`
	StepTo       *int     `json:"step_to,omitempty"`
	ChemicalTo   *int     `json:"chemical_to,omitempty"`
	StepFrom     *int     `json:"step_from,omitempty"`
	SampleID     string   `json:"sample_id"`
	BatchID      string   `json:"batch_id"`
}

// SampleTables is everything built for one sample. SampleKey is the key of
// the sample in the worklist document and names the output files; SampleID
// is the sample_id column value.
type SampleTables struct {
	SampleKey string
	SampleID  string
	BatchID   string
	Chemicals []ChemicalRow
	Actions   []ActionRow
	Links     []LinkRow
}

func IntPtr(v int) *int { return &v }

func FloatPtr(v float64) *float64 { return &v }
