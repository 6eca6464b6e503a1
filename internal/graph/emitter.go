package graph

import (
	"path/filepath"
	"strings"

	"labgraph/internal/logger"
	"labgraph/internal/util"
)

// QueryMaker returns the two node statements and four link statements for
// one sample. Column names are read back from the CSV headers in dir.
func QueryMaker(dir string, files SampleFiles, storedFolder string) ([]string, error) {
	chemCols, err := ReadColumns(filepath.Join(dir, files.Chem))
	if err != nil {
		return nil, err
	}
	actionCols, err := ReadColumns(filepath.Join(dir, files.Action))
	if err != nil {
		return nil, err
	}
	queries := []string{
		CreateNodes(files.Chem, NodeChemical, chemCols, storedFolder),
		CreateNodes(files.Action, NodeAction, actionCols, storedFolder),
	}
	return append(queries, CreateLinks(files.Link, storedFolder)...), nil
}

// SaveQueries writes the statements for every sample found in dir to out,
// one per line under a run header. It returns the number of statements.
func SaveQueries(dir, out, storedFolder, runID string) (int, error) {
	samples, err := DiscoverSampleFiles(dir)
	if err != nil {
		return 0, err
	}
	var b strings.Builder
	b.WriteString("// labgraph run " + runID + "\n")
	n := 0
	for _, sf := range samples {
		queries, err := QueryMaker(dir, sf, storedFolder)
		if err != nil {
			return 0, err
		}
		for _, q := range queries {
			b.WriteString(q)
			b.WriteString("\n")
		}
		n += len(queries)
		logger.Logger.Debug().Str("sample", sf.Sample).Int("statements", len(queries)).Msg("built load statements")
	}
	if err := util.WriteTextAtomic(out, b.String()); err != nil {
		return 0, err
	}
	return n, nil
}
