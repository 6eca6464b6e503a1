package features

import (
	"strings"

	"labgraph/internal/models"
	"labgraph/internal/stepid"
	"labgraph/internal/util"
)

// LinkTable derives the graph edges of a sample from its finished action
// table alone. Edge ids and endpoints come from the stepid scheme the action
// table was numbered with.
//
// Stages: GOES_INTO per dissolve row, OUTPUTS per dissolve row into the first
// mix, the fixed deposition edges, a NEXT chain over every later step,
// and NEXT edges from each characterization task to its outputs.
func LinkTable(actions []models.ActionRow, sampleID, batchID string, resolver CharNameResolver) ([]models.LinkRow, error) {
	var dissolves, drops, spins, outputs, tasks []models.ActionRow
	for _, a := range actions {
		switch {
		case a.IsOutput():
			outputs = append(outputs, a)
		case a.Action == models.ActionDissolve:
			dissolves = append(dissolves, a)
		case a.Action == models.ActionDrop:
			drops = append(drops, a)
		case a.Action == models.ActionSpin:
			spins = append(spins, a)
		case a.Action == models.ActionChar:
			tasks = append(tasks, a)
		}
	}

	var links []models.LinkRow
	chainStart := stepid.First
	chainAfter := 0
	if len(dissolves) > 0 {
		block, err := depositionLinks(dissolves, drops, spins, actions[len(actions)-1].StepID)
		if err != nil {
			return nil, err
		}
		links = append(links, block...)
		chainStart = stepid.BlockLinks(dissolves[len(dissolves)-1].StepID, len(dissolves), 0).ChainStart
		chainAfter = blockEnd(dissolves, drops, spins)
	} else {
		for _, a := range actions {
			if !a.IsOutput() {
				chainAfter = a.StepID
				break
			}
		}
	}

	id := chainStart
	chained := false
	for _, a := range actions {
		if a.IsOutput() || a.StepID <= chainAfter {
			continue
		}
		links = append(links, models.LinkRow{
			StepID:   id,
			Action:   models.LinkNext,
			StepTo:   models.IntPtr(a.StepID),
			StepFrom: models.IntPtr(stepid.Prev(a.StepID)),
		})
		id = stepid.Next(id)
		chained = true
	}

	if len(outputs) > 0 {
		lastChain := 0
		if chained {
			lastChain = links[len(links)-1].StepID
		}
		id = stepid.OutputLinkStart(lastChain, chainStart, chained)
		for _, out := range outputs {
			task, err := matchTask(out, tasks, resolver)
			if err != nil {
				return nil, err
			}
			links = append(links, models.LinkRow{
				StepID:   id,
				Action:   models.LinkNext,
				StepTo:   models.IntPtr(out.StepID),
				StepFrom: models.IntPtr(task.StepID),
			})
			id += stepid.OutputStride
		}
	}

	for i := range links {
		links[i].SampleID = sampleID
		links[i].BatchID = batchID
	}
	return links, nil
}

// depositionLinks emits the dissolve and deposition edges. A block with a
// single drop has no antisolvent or second mix, so only the first mix is
// linked into the drop and the spin.
func depositionLinks(dissolves, drops, spins []models.ActionRow, lastAction int) ([]models.LinkRow, error) {
	last := dissolves[len(dissolves)-1]
	chemicals := len(dissolves)
	if last.ChemicalFrom != nil {
		chemicals = *last.ChemicalFrom
	}
	ids := stepid.BlockLinks(last.StepID, len(dissolves), lastAction)

	links := make([]models.LinkRow, 0, 2*len(dissolves)+5)
	for _, d := range dissolves {
		if d.ChemicalFrom == nil {
			return nil, &util.MissingFieldError{Record: "dissolve action", Field: "chemical_from"}
		}
		links = append(links, models.LinkRow{
			StepID:       d.StepID,
			Action:       models.LinkGoesInto,
			ChemicalFrom: models.IntPtr(*d.ChemicalFrom),
			StepTo:       models.IntPtr(d.StepID),
		})
	}
	for k, d := range dissolves {
		links = append(links, models.LinkRow{
			StepID:     ids.Outputs[k],
			Action:     models.LinkOutputs,
			ChemicalTo: models.IntPtr(stepid.Mix1(chemicals)),
			StepFrom:   models.IntPtr(d.StepID),
		})
	}
	if len(drops) == 0 {
		return links, nil
	}

	first := drops[0].StepID
	mix1, anti, mix2 := stepid.Mix1(chemicals), stepid.Antisolvent(chemicals), stepid.Mix2(chemicals)
	links = append(links, models.LinkRow{StepID: ids.Mix1IntoDrop, Action: models.LinkGoesInto, ChemicalFrom: models.IntPtr(mix1), StepTo: models.IntPtr(first)})
	deposited := mix1
	if len(drops) > 1 {
		second := drops[1].StepID
		links = append(links,
			models.LinkRow{StepID: ids.Mix1ToMix2, Action: models.LinkNext, ChemicalTo: models.IntPtr(mix2), StepFrom: models.IntPtr(first)},
			models.LinkRow{StepID: ids.AntisolventIntoDrop, Action: models.LinkGoesInto, ChemicalFrom: models.IntPtr(anti), StepTo: models.IntPtr(second)},
			models.LinkRow{StepID: ids.Drop2ToMix2, Action: models.LinkNext, ChemicalTo: models.IntPtr(mix2), StepFrom: models.IntPtr(second)},
		)
		deposited = mix2
	}
	if len(spins) > 0 {
		links = append(links, models.LinkRow{StepID: ids.Mix2IntoSpin, Action: models.LinkGoesInto, ChemicalFrom: models.IntPtr(deposited), StepTo: models.IntPtr(spins[0].StepID)})
	}
	return links, nil
}

// blockEnd is the last action row covered by the deposition edges; the NEXT
// chain starts after it.
func blockEnd(dissolves, drops, spins []models.ActionRow) int {
	switch {
	case len(drops) > 0 && len(spins) > 0:
		return spins[0].StepID
	case len(drops) > 0:
		return drops[len(drops)-1].StepID
	default:
		return dissolves[len(dissolves)-1].StepID
	}
}

func matchTask(out models.ActionRow, tasks []models.ActionRow, resolver CharNameResolver) (models.ActionRow, error) {
	name := strings.ToLower(resolver.Resolve(out.CharName()))
	var found []models.ActionRow
	for _, t := range tasks {
		if t.CharName() == name {
			found = append(found, t)
		}
	}
	if len(found) != 1 {
		ids := make([]int, 0, len(found))
		for _, t := range found {
			ids = append(ids, t.StepID)
		}
		return models.ActionRow{}, &util.LookupError{Name: name, Matches: ids}
	}
	return found[0], nil
}
