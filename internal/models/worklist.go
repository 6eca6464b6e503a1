package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"labgraph/internal/util"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type StepKind string

const (
	StepDestination      StepKind = "destination"
	StepDissolve         StepKind = "dissolve"
	StepDrops            StepKind = "drops"
	StepSpin             StepKind = "spin"
	StepAnneal           StepKind = "anneal"
	StepRest             StepKind = "duration"
	StepCharacterization StepKind = "characterization_tasks"
)

// Step is one decoded worklist record. Kind is derived from the first key of
// the details payload; a "duration" step named "anneal" is an anneal step.
// Unknown first keys are kept verbatim as the Kind so that dispatch can
// reject them.
type Step struct {
	Kind    StepKind
	Name    string
	Record  *Fields
	Details *Fields
}

func (s *Step) UnmarshalJSON(b []byte) error {
	rec := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(b, rec); err != nil {
		return fmt.Errorf("decode step: %w", err)
	}
	rawDetails, ok := rec.Get("details")
	if !ok || isNull(rawDetails) {
		return &util.MissingFieldError{Record: "step", Field: "details"}
	}
	details := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(rawDetails, details); err != nil {
		return fmt.Errorf("decode step details: %w", err)
	}
	first := details.Oldest()
	if first == nil {
		return &util.MissingFieldError{Record: "step details", Field: "<kind>"}
	}
	var name string
	if raw, ok := rec.Get("name"); ok {
		name, _ = rawString(raw)
	}
	kind := StepKind(first.Key)
	if kind == StepRest && name == string(StepAnneal) {
		kind = StepAnneal
	}
	*s = Step{Kind: kind, Name: name, Record: rec, Details: details}
	return nil
}

// Attributes iterates the step-level fields that are not in exclude, in
// record order.
func (s Step) Attributes(exclude ...string) []Field {
	skip := make(map[string]struct{}, len(exclude))
	for _, k := range exclude {
		skip[k] = struct{}{}
	}
	out := make([]Field, 0, s.Record.Len())
	for p := s.Record.Oldest(); p != nil; p = p.Next() {
		if _, ok := skip[p.Key]; ok {
			continue
		}
		out = append(out, Field{Key: p.Key, Value: p.Value})
	}
	return out
}

// Field returns a step-level field.
func (s Step) Field(key string) (json.RawMessage, bool) {
	return s.Record.Get(key)
}

// Droplets decodes the droplet list of a drops step. A standalone dissolve
// step carries its droplets under "dissolve" instead.
func (s Step) Droplets() ([]Droplet, error) {
	key := "drops"
	if s.Kind == StepDissolve {
		key = "dissolve"
	}
	raw, ok := s.Details.Get(key)
	if !ok {
		return nil, &util.MissingFieldError{Record: "step details", Field: key}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		raw = append(append(json.RawMessage{'['}, raw...), ']')
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	out := make([]Droplet, 0, len(items))
	for i, item := range items {
		d, err := decodeDroplet(item, i+1)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// SpinSteps decodes details.steps of a drops step. A standalone spin step
// may carry the list under "spin" instead.
func (s Step) SpinSteps() ([]*Fields, error) {
	raw, ok := s.Details.Get("steps")
	if !ok && s.Kind == StepSpin {
		raw, ok = s.Details.Get(string(StepSpin))
	}
	if !ok {
		return nil, &util.MissingFieldError{Record: "step details", Field: "steps"}
	}
	return decodeObjectList(raw, "spin steps")
}

// Tasks decodes details.characterization_tasks.
func (s Step) Tasks() ([]Task, error) {
	raw, ok := s.Details.Get(string(StepCharacterization))
	if !ok {
		return nil, &util.MissingFieldError{Record: "step details", Field: string(StepCharacterization)}
	}
	objs, err := decodeObjectList(raw, "characterization tasks")
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(objs))
	for i, obj := range objs {
		t := Task{Fields: obj, Details: orderedmap.New[string, json.RawMessage]()}
		if raw, ok := obj.Get("details"); ok && !isNull(raw) {
			if err := json.Unmarshal(raw, t.Details); err != nil {
				return nil, fmt.Errorf("decode characterization task %d details: %w", i+1, err)
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

type Field struct {
	Key   string
	Value json.RawMessage
}

// Task is one planned measurement inside a characterization_tasks step.
type Task struct {
	Fields  *Fields
	Details *Fields
}

type Solution struct {
	Solutes  string
	Solvent  string
	Molarity *float64
}

type Droplet struct {
	Solution Solution
	Volume   *float64
	Fields   *Fields
}

func decodeDroplet(raw json.RawMessage, n int) (Droplet, error) {
	record := fmt.Sprintf("droplet %d", n)
	fields := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, fields); err != nil {
		return Droplet{}, fmt.Errorf("decode %s: %w", record, err)
	}
	rawSolution, ok := fields.Get("solution")
	if !ok || isNull(rawSolution) {
		return Droplet{}, &util.MissingFieldError{Record: record, Field: "solution"}
	}
	rawVolume, ok := fields.Get("volume")
	if !ok {
		return Droplet{}, &util.MissingFieldError{Record: record, Field: "volume"}
	}
	sol := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(rawSolution, sol); err != nil {
		return Droplet{}, fmt.Errorf("decode %s solution: %w", record, err)
	}
	d := Droplet{Fields: fields}
	var err error
	if d.Solution.Solutes, err = requiredString(sol, record+" solution", "solutes"); err != nil {
		return Droplet{}, err
	}
	if d.Solution.Solvent, err = requiredString(sol, record+" solution", "solvent"); err != nil {
		return Droplet{}, err
	}
	if rawMolarity, ok := sol.Get("molarity"); ok {
		if d.Solution.Molarity, err = rawFloat(rawMolarity); err != nil {
			return Droplet{}, fmt.Errorf("%s molarity: %w", record, err)
		}
	}
	if d.Volume, err = rawFloat(rawVolume); err != nil {
		return Droplet{}, fmt.Errorf("%s volume: %w", record, err)
	}
	return d, nil
}

func requiredString(f *Fields, record, key string) (string, error) {
	raw, ok := f.Get(key)
	if !ok {
		return "", &util.MissingFieldError{Record: record, Field: key}
	}
	if isNull(raw) {
		return "", nil
	}
	s, ok := rawString(raw)
	if !ok {
		return "", fmt.Errorf("%s %s: expected string, got %s", record, key, raw)
	}
	return s, nil
}

func decodeObjectList(raw json.RawMessage, what string) ([]*Fields, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	out := make([]*Fields, 0, len(items))
	for i, item := range items {
		obj := orderedmap.New[string, json.RawMessage]()
		if err := json.Unmarshal(item, obj); err != nil {
			return nil, fmt.Errorf("decode %s %d: %w", what, i+1, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func rawString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// rawFloat accepts a JSON number, a numeric string, or null.
func rawFloat(raw json.RawMessage) (*float64, error) {
	if isNull(raw) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	s, ok := rawString(raw)
	if !ok {
		return nil, fmt.Errorf("not a number: %s", raw)
	}
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return &f, nil
}

// SampleRecord is one entry of a worklist document.
type SampleRecord struct {
	Name     string `json:"name"`
	Worklist []Step `json:"worklist"`
}

// Samples maps sample name to its record in document order.
type Samples = orderedmap.OrderedMap[string, SampleRecord]
