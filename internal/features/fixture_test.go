package features

import (
	"encoding/json"
	"testing"

	"labgraph/internal/models"

	"github.com/stretchr/testify/require"
)

const processWorklist = `[
  {"name": "destination", "id": "d0", "precedent": null, "details": {"destination": "spincoater"}},
  {"name": "spincoat", "id": "s1", "precedent": "d0",
   "start": 10.0, "start_actual": 10.4, "finish_actual": 95.2,
   "liquidhandler_timings": {"aspirate": 5.1},
   "spincoater_log": {"time": [0, 1, 2], "rpm": [0, 2000, 4000]},
   "details": {
     "drops": [
       {"solution": {"solutes": "NaCl0.75_KBr0.25", "solvent": "Water1.0", "molarity": 1.2}, "volume": 50, "time": 0, "height": 2.0, "rate": 100},
       {"solution": {"solutes": "", "solvent": "Chlorobenzene", "molarity": null}, "volume": 20, "time": 25, "height": 1.0, "rate": 200}
     ],
     "steps": [{"rpm": 4000, "acceleration": 2000, "duration": 50}]
   }},
  {"name": "anneal", "id": "a1", "precedent": "s1", "details": {"duration": 900, "temperature": 100}, "hotplate": "hp1"},
  {"name": "rest", "id": "r1", "precedent": "a1", "details": {"duration": 300}}
]`

const charWorklist = `[
  {"name": "characterize", "id": "c1", "precedent": null, "sample": "sample0",
   "details": {"characterization_tasks": [
     {"name": "PLImaging_0", "details": {"exposure_time": 0.1}, "station": "Vision"},
     {"name": "Transmission_0", "details": {"wavelength_start": 400}, "station": "Spectro"}
   ]},
   "start": 300.0}
]`

func steps(t *testing.T, raw string) []models.Step {
	t.Helper()
	var out []models.Step
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func sample(t *testing.T, name, raw string) models.SampleRecord {
	t.Helper()
	return models.SampleRecord{Name: name, Worklist: steps(t, raw)}
}

func stepIDs(rows []models.ActionRow) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.StepID)
	}
	return out
}

func attr(t *testing.T, row models.ActionRow, key string) string {
	t.Helper()
	v, ok := row.Attrs.Get(key)
	require.True(t, ok, "missing attribute %s", key)
	return FormatValue(v)
}

// fixtureActions builds the action table for the shared fixture including
// two characterization outputs.
func fixtureActions(t *testing.T) []models.ActionRow {
	t.Helper()
	rows, err := ActionTable([][]models.Step{steps(t, processWorklist), steps(t, charWorklist)}, "sample0", "b19")
	require.NoError(t, err)
	return AppendOutputs(rows, []Artifact{
		{Name: "pl_imaging", FID: "sample0_pl_imaging.tif", Output: [][]int{{1}}},
		{Name: "transmission", FID: "sample0_transmission.csv", Output: nil},
	}, "sample0", "b19")
}
