package pipeline

import "fmt"

type Stage string

const (
	StageData     Stage = "data"
	StageFeatures Stage = "features"
	StageGraph    Stage = "graph"
	// StageTest runs every stage against the configured test data.
	StageTest Stage = "test"
)

var stageOrder = []Stage{StageData, StageFeatures, StageGraph}

// ParseStages validates stage names and returns them in execution order,
// whatever order they were given in. "test" expands to all stages.
func ParseStages(args []string) ([]Stage, error) {
	want := map[Stage]bool{}
	for _, a := range args {
		s := Stage(a)
		switch s {
		case StageTest:
			for _, st := range stageOrder {
				want[st] = true
			}
		case StageData, StageFeatures, StageGraph:
			want[s] = true
		default:
			return nil, fmt.Errorf("unknown stage %q (want data, features, graph or test)", a)
		}
	}
	if want[StageFeatures] && !want[StageData] {
		return nil, fmt.Errorf("stage %s needs stage %s", StageFeatures, StageData)
	}
	out := make([]Stage, 0, len(want))
	for _, st := range stageOrder {
		if want[st] {
			out = append(out, st)
		}
	}
	return out, nil
}
