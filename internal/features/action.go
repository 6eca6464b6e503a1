package features

import (
	"encoding/json"
	"strings"

	"labgraph/internal/models"
	"labgraph/internal/stepid"
	"labgraph/internal/util"
)

// stepHandler appends the rows for one worklist step.
type stepHandler func(b *actionBuilder, step models.Step) error

var stepHandlers = map[models.StepKind]stepHandler{
	models.StepDissolve:         (*actionBuilder).dissolveStep,
	models.StepDrops:            (*actionBuilder).dropsStep,
	models.StepSpin:             (*actionBuilder).spinStep,
	models.StepAnneal:           (*actionBuilder).annealStep,
	models.StepRest:             (*actionBuilder).restStep,
	models.StepCharacterization: (*actionBuilder).charStep,
}

var spinAttributes = []string{"start", "start_actual", "finish_actual", "liquidhandler_timings", "spincoater_log"}

type actionBuilder struct {
	rows []models.ActionRow
	next int
}

// ActionTable flattens one or more worklists (process, then characterization)
// into action rows numbered by the stepid scheme.
func ActionTable(worklists [][]models.Step, sampleID, batchID string) ([]models.ActionRow, error) {
	b := &actionBuilder{next: stepid.First}
	for _, wl := range worklists {
		for _, step := range wl {
			if step.Kind == models.StepDestination {
				continue
			}
			h, ok := stepHandlers[step.Kind]
			if !ok {
				return nil, &util.UnsupportedStepKindError{Kind: string(step.Kind)}
			}
			before := len(b.rows)
			if err := h(b, step); err != nil {
				return nil, err
			}
			if len(b.rows) > before {
				b.next = stepid.Next(b.rows[len(b.rows)-1].StepID)
			}
		}
	}
	for i := range b.rows {
		b.rows[i].SampleID = sampleID
		b.rows[i].BatchID = batchID
	}
	return b.rows, nil
}

func (b *actionBuilder) add(row models.ActionRow) {
	if row.Attrs == nil {
		row.Attrs = models.NewAttrs()
	}
	b.rows = append(b.rows, row)
}

func (b *actionBuilder) last() int {
	return b.rows[len(b.rows)-1].StepID
}

// dropsStep expands one physical drop event into its dissolve, drop and spin
// rows.
func (b *actionBuilder) dropsStep(step models.Step) error {
	drops, err := step.Droplets()
	if err != nil {
		return err
	}
	if len(drops) == 0 {
		return &util.MissingFieldError{Record: "drops step", Field: "drops[0]"}
	}
	chemicals := b.dissolve(drops[0])
	lastDissolve := b.last()
	b.drop(drops, lastDissolve, chemicals)
	b.next = stepid.SpinStart(b.last())
	return b.spinStep(step)
}

func (b *actionBuilder) dissolveStep(step models.Step) error {
	drops, err := step.Droplets()
	if err != nil {
		return err
	}
	if len(drops) == 0 {
		return &util.MissingFieldError{Record: "dissolve step", Field: "dissolve[0]"}
	}
	b.dissolve(drops[0])
	return nil
}

// dissolve adds one row per chemical named by the droplet's solution and
// returns how many it added.
func (b *actionBuilder) dissolve(d models.Droplet) int {
	n := componentCount(d.Solution.Solutes) + componentCount(d.Solution.Solvent)
	for i := 1; i <= n; i++ {
		b.add(models.ActionRow{
			StepID:       stepid.Dissolve(b.next, i),
			Action:       models.ActionDissolve,
			ChemicalFrom: models.IntPtr(i),
		})
	}
	return n
}

// drop columns come from the first droplet; volume and solution live in the
// chemical table.
func (b *actionBuilder) drop(drops []models.Droplet, lastDissolve, chemicals int) {
	var cols []string
	for p := drops[0].Fields.Oldest(); p != nil; p = p.Next() {
		if p.Key == "volume" || p.Key == "solution" {
			continue
		}
		cols = append(cols, p.Key)
	}
	for i, d := range drops {
		attrs := models.NewAttrs()
		for _, c := range cols {
			v, _ := d.Fields.Get(c)
			attrs.Set("drop_"+c, rawOrNil(v))
		}
		b.add(models.ActionRow{
			StepID:       stepid.Drop(lastDissolve, i+1),
			Action:       models.ActionDrop,
			ChemicalFrom: models.IntPtr(stepid.DropChemical(chemicals, i+1)),
			Attrs:        attrs,
		})
	}
}

func (b *actionBuilder) spinStep(step models.Step) error {
	spins, err := step.SpinSteps()
	if err != nil {
		return err
	}
	id := b.next
	for _, spin := range spins {
		attrs := models.NewAttrs()
		for p := spin.Oldest(); p != nil; p = p.Next() {
			attrs.Set("spin_"+p.Key, p.Value)
		}
		for _, name := range spinAttributes {
			raw, ok := step.Field(name)
			if !ok {
				continue
			}
			if name == "spincoater_log" && expandLog(attrs, raw) {
				continue
			}
			attrs.Set(name, raw)
		}
		b.add(models.ActionRow{StepID: id, Action: models.ActionSpin, Attrs: attrs})
		id = stepid.Next(id)
	}
	return nil
}

// expandLog spreads a spincoater log with an rpm trace into spin_log_<key>
// columns. It reports false when the log is not such an object.
func expandLog(attrs *models.Attrs, raw json.RawMessage) bool {
	log := models.NewFields()
	if err := json.Unmarshal(raw, log); err != nil {
		return false
	}
	if _, ok := log.Get("rpm"); !ok {
		return false
	}
	for p := log.Oldest(); p != nil; p = p.Next() {
		attrs.Set("spin_log_"+p.Key, p.Value)
	}
	return true
}

func (b *actionBuilder) annealStep(step models.Step) error {
	attrs := models.NewAttrs()
	for p := step.Details.Oldest(); p != nil; p = p.Next() {
		attrs.Set("anneal_"+p.Key, p.Value)
	}
	for _, f := range step.Attributes("precedent", "id", "details") {
		attrs.Set(f.Key, f.Value)
	}
	b.add(models.ActionRow{StepID: b.next, Action: models.ActionAnneal, Attrs: attrs})
	return nil
}

func (b *actionBuilder) restStep(step models.Step) error {
	attrs := models.NewAttrs()
	v, _ := step.Details.Get("duration")
	attrs.Set("rest_duration", rawOrNil(v))
	for _, f := range step.Attributes("precedent", "id", "details") {
		attrs.Set(f.Key, f.Value)
	}
	b.add(models.ActionRow{StepID: b.next, Action: models.ActionRest, Attrs: attrs})
	return nil
}

func (b *actionBuilder) charStep(step models.Step) error {
	tasks, err := step.Tasks()
	if err != nil {
		return err
	}
	shared := step.Attributes("precedent", "id", "details", "name", "sample")
	id := b.next
	for _, task := range tasks {
		attrs := models.NewAttrs()
		for p := task.Details.Oldest(); p != nil; p = p.Next() {
			attrs.Set("char_"+p.Key, p.Value)
		}
		for p := task.Fields.Oldest(); p != nil; p = p.Next() {
			if p.Key == "details" {
				continue
			}
			var s string
			if err := json.Unmarshal(p.Value, &s); err != nil {
				attrs.Set("char_"+p.Key, p.Value)
				continue
			}
			s = strings.ToLower(s)
			if p.Key == "name" {
				s, _, _ = strings.Cut(s, "_")
			}
			attrs.Set("char_"+p.Key, s)
		}
		for _, f := range shared {
			attrs.Set(f.Key, f.Value)
		}
		b.add(models.ActionRow{StepID: id, Action: models.ActionChar, Attrs: attrs})
		id = stepid.Next(id)
	}
	return nil
}

// AppendOutputs adds one char row per characterization artifact, numbered
// after the last action row.
func AppendOutputs(rows []models.ActionRow, artifacts []Artifact, sampleID, batchID string) []models.ActionRow {
	id := stepid.First
	if len(rows) > 0 {
		id = stepid.OutputStart(rows[len(rows)-1].StepID)
	}
	for _, a := range artifacts {
		attrs := models.NewAttrs()
		attrs.Set("char_name", a.Name)
		rows = append(rows, models.ActionRow{
			StepID:   id,
			Action:   models.ActionChar,
			Attrs:    attrs,
			SampleID: sampleID,
			BatchID:  batchID,
			FID:      a.FID,
			Output:   a.Output,
		})
		id += stepid.OutputStride
	}
	return rows
}

func rawOrNil(v json.RawMessage) any {
	if v == nil {
		return nil
	}
	return v
}
