package graph

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"labgraph/internal/util"
)

// ReadColumns returns the header row of a CSV file.
func ReadColumns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}
	return header, nil
}

// DiscoverSampleFiles groups the CSV files in dir by the "_sample<N>_" token
// in their name. Every sample found must have all three tables.
func DiscoverSampleFiles(dir string) ([]SampleFiles, error) {
	names, err := util.ListFiles(dir, ".csv")
	if err != nil {
		return nil, err
	}
	bySample := map[string]*SampleFiles{}
	for _, name := range names {
		for _, m := range samplePattern.FindAllStringSubmatch(name, -1) {
			sample := m[1]
			sf, ok := bySample[sample]
			if !ok {
				sf = &SampleFiles{Sample: sample}
				bySample[sample] = sf
			}
			switch {
			case strings.Contains(name, "_"+sample+"_chem.csv"):
				sf.Chem = name
			case strings.Contains(name, "_"+sample+"_action.csv"):
				sf.Action = name
			case strings.Contains(name, "_"+sample+"_link.csv"):
				sf.Link = name
			}
		}
	}

	out := make([]SampleFiles, 0, len(bySample))
	for _, sf := range bySample {
		var missing []string
		if sf.Chem == "" {
			missing = append(missing, string(TableChem))
		}
		if sf.Action == "" {
			missing = append(missing, string(TableAction))
		}
		if sf.Link == "" {
			missing = append(missing, string(TableLink))
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%s: missing %s table in %s", sf.Sample, strings.Join(missing, ", "), dir)
		}
		out = append(out, *sf)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := sampleNumber(out[i].Sample), sampleNumber(out[j].Sample)
		if a != b {
			return a < b
		}
		return out[i].Sample < out[j].Sample
	})
	return out, nil
}
