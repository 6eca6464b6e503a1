package features

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"labgraph/internal/models"
)

var fractionRe = regexp.MustCompile(`\d+\.\d+`)

type component struct {
	name          string
	concentration float64
}

// splitChemicals parses "First0.75_Second0.10_Third0.5". ok is false when any
// part is not a letter-led name directly followed by a decimal fraction.
func splitChemicals(s string) (parts []component, ok bool) {
	if s == "" {
		return nil, false
	}
	for _, part := range strings.Split(s, "_") {
		loc := fractionRe.FindStringIndex(part)
		if loc == nil || loc[0] == 0 || loc[1] != len(part) {
			return nil, false
		}
		if r, _ := utf8.DecodeRuneInString(part); !unicode.IsLetter(r) {
			return nil, false
		}
		f, err := strconv.ParseFloat(part[loc[0]:], 64)
		if err != nil {
			return nil, false
		}
		parts = append(parts, component{name: part[:loc[0]], concentration: f})
	}
	return parts, true
}

// componentCount is how many chemicals a solute or solvent string names.
func componentCount(s string) int {
	return len(strings.Split(s, "_"))
}

type chemBuilder struct {
	batchID  string
	sampleID string
	nextID   int
	mix      int
	rows     []models.ChemicalRow
}

// ChemTable extracts the chemicals used by a sample's drop steps. Solutes and
// solvents are deduplicated on (content, concentration); each droplet adds a
// "Mix<k>" solution row.
func ChemTable(sample models.SampleRecord, batchID string) ([]models.ChemicalRow, error) {
	b := &chemBuilder{batchID: batchID, sampleID: sample.Name, nextID: 1, mix: 1}
	for _, step := range sample.Worklist {
		if _, ok := step.Details.Get("drops"); !ok {
			continue
		}
		drops, err := step.Droplets()
		if err != nil {
			return nil, err
		}
		for _, d := range drops {
			b.addDroplet(d)
		}
	}
	return b.rows, nil
}

func (b *chemBuilder) addDroplet(d models.Droplet) {
	sol := d.Solution
	switch {
	case sol.Solutes != "" && sol.Solvent != "":
		b.addComponents(sol.Solutes, models.ChemSolute)
		b.addComponents(sol.Solvent, models.ChemSolvent)
		b.addMix(d.Volume, sol.Molarity)
	case sol.Solutes == "":
		if !b.hasContent(sol.Solvent) {
			b.add(models.ChemicalRow{Content: sol.Solvent, Molarity: sol.Molarity, ChemType: models.ChemAntisolvent})
		}
		b.addMix(d.Volume, nil)
	}
}

func (b *chemBuilder) addComponents(s string, typ models.ChemType) {
	parts, ok := splitChemicals(s)
	if !ok {
		if !b.has(s, nil) {
			b.add(models.ChemicalRow{Content: s, ChemType: typ})
		}
		return
	}
	for _, p := range parts {
		c := p.concentration
		if b.has(p.name, &c) {
			continue
		}
		b.add(models.ChemicalRow{Content: p.name, Concentration: &c, ChemType: typ})
	}
}

func (b *chemBuilder) addMix(volume, molarity *float64) {
	b.add(models.ChemicalRow{
		Content:  "Mix" + strconv.Itoa(b.mix),
		Volume:   volume,
		Molarity: molarity,
		ChemType: models.ChemSolution,
	})
	b.mix++
}

func (b *chemBuilder) add(row models.ChemicalRow) {
	row.ChemicalID = b.nextID
	row.BatchID = b.batchID
	row.SampleID = b.sampleID
	b.rows = append(b.rows, row)
	b.nextID++
}

func (b *chemBuilder) has(content string, concentration *float64) bool {
	for _, r := range b.rows {
		if r.ChemType == models.ChemSolution || r.ChemType == models.ChemAntisolvent {
			continue
		}
		if r.Content == content && sameFloat(r.Concentration, concentration) {
			return true
		}
	}
	return false
}

func (b *chemBuilder) hasContent(content string) bool {
	for _, r := range b.rows {
		if r.Content == content {
			return true
		}
	}
	return false
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
