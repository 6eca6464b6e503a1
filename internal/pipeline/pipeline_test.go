package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"labgraph/internal/config"
	"labgraph/internal/models"
	"labgraph/internal/storage"
	"labgraph/internal/util"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	out := t.TempDir()
	return config.Config{
		DataDir:             filepath.Join("..", "..", "test", "testdata"),
		ProcessFile:         "test_process.json",
		CharFile:            "test_char.json",
		ArtifactFolder:      "Characterization_B19",
		ArtifactSubdir:      "characterization0",
		BatchID:             "b19",
		OutputDir:           out,
		CypherFile:          "output.cypher",
		MetricsFile:         filepath.Join(out, "labgraph.prom"),
		ImageScale:          64 * 255,
		CharUnderscoreAlias: "plimaging",
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
}

func TestParseStages(t *testing.T) {
	got, err := ParseStages([]string{"graph", "data", "features"})
	require.NoError(t, err)
	require.Equal(t, []Stage{StageData, StageFeatures, StageGraph}, got)

	got, err = ParseStages([]string{"test"})
	require.NoError(t, err)
	require.Equal(t, []Stage{StageData, StageFeatures, StageGraph}, got)

	got, err = ParseStages([]string{"graph"})
	require.NoError(t, err)
	require.Equal(t, []Stage{StageGraph}, got)

	_, err = ParseStages([]string{"features"})
	require.Error(t, err)

	_, err = ParseStages([]string{"data", "deploy"})
	require.Error(t, err)
}

func TestRunAllStages(t *testing.T) {
	cfg := testConfig(t)
	dbPath := filepath.Join(t.TempDir(), "lab.db")
	sink, err := storage.Open(context.Background(), "sqlite://"+dbPath)
	require.NoError(t, err)
	defer sink.Close()

	res, err := New(cfg, sink).Run(context.Background(), []Stage{StageData, StageFeatures, StageGraph})
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)
	require.Len(t, res.Samples, 2)
	require.Equal(t, "sample0", res.Samples[0].Sample)
	require.Equal(t, filepath.Join(cfg.OutputDir, "b19_sample0_chem.csv"), res.Samples[0].ChemFile)

	chem := readLines(t, res.Samples[0].ChemFile)
	require.Equal(t, "chemical_id,batch_id,content,concentration,molarity,volume,chem_type,sample_id", chem[0])
	require.Len(t, chem, 7)
	require.Equal(t, "4,b19,Mix1,,1.2,50.0,solution,sample0", chem[4])

	links := readLines(t, res.Samples[0].LinkFile)
	require.Equal(t, "22,NEXT,,21,,19,sample0,b19", links[len(links)-1])

	action := readLines(t, res.Samples[0].ActionFile)
	require.True(t, strings.HasPrefix(action[0], "step_id,action,chemical_from,"))
	require.True(t, strings.HasSuffix(action[0], ",sample_id,batch_id,fid,output"))
	require.Len(t, action, 12)

	sample1 := readLines(t, res.Samples[1].LinkFile)
	require.Equal(t, []string{
		"step_id,action,chemical_from,step_to,chemical_to,step_from,sample_id,batch_id",
		"1,NEXT,,3,,1,sample1,b19",
	}, sample1)

	require.Equal(t, 12, res.Statements)
	cypher := readLines(t, res.CypherFile)
	require.Len(t, cypher, 13)
	require.Equal(t, "// labgraph run "+res.RunID, cypher[0])
	require.Contains(t, cypher[1], `FROM "file:///b19_sample0_chem.csv"`)
	require.Contains(t, cypher[7], `FROM "file:///b19_sample1_chem.csv"`)

	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	require.Contains(t, string(prom), "labgraph_samples_total 2")
	require.Contains(t, string(prom), "labgraph_artifacts_skipped_total 1")
	require.Contains(t, string(prom), `labgraph_rows_total{table="chem"} 6`)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM lab_links WHERE sample_id = 'sample0'").Scan(&n))
	require.Equal(t, len(links)-1, n)
}

func TestRunNamesFilesAfterSampleKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataDir = t.TempDir()
	process := `{"sample3": {"name": "Film A", "worklist": [{"name": "spincoat", "details": {
		"drops": [{"solution": {"solutes": "NaCl0.75_KBr0.25", "solvent": "Water1.0", "molarity": 1}, "volume": 10}],
		"steps": [{"rpm": 1000}]
	}}]}}`
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, cfg.ProcessFile), []byte(process), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, cfg.CharFile), []byte(`{}`), 0o644))

	res, err := New(cfg, nil).Run(context.Background(), []Stage{StageData, StageFeatures, StageGraph})
	require.NoError(t, err)
	require.Len(t, res.Samples, 1)
	require.Equal(t, "sample3", res.Samples[0].Sample)
	require.Equal(t, filepath.Join(cfg.OutputDir, "b19_sample3_chem.csv"), res.Samples[0].ChemFile)

	chem := readLines(t, res.Samples[0].ChemFile)
	require.True(t, strings.HasSuffix(chem[1], ",Film A"))
	links := readLines(t, res.Samples[0].LinkFile)
	require.Len(t, links, 9)

	require.Equal(t, 6, res.Statements)
	cypher := readLines(t, res.CypherFile)
	require.Contains(t, cypher[1], `FROM "file:///b19_sample3_chem.csv"`)
}

func TestRunFeaturesWithoutData(t *testing.T) {
	_, err := New(testConfig(t), nil).Run(context.Background(), []Stage{StageFeatures})
	require.Error(t, err)
}

func TestRunMissingInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.ProcessFile = "absent.json"
	_, err := New(cfg, nil).Run(context.Background(), []Stage{StageData})
	require.Error(t, err)
	require.Contains(t, err.Error(), "data:")
}

func TestBuildSampleUnmatchedOutput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s_xrd.csv"), []byte("angle\ndeg\n10\n"), 0o644))

	var wl []models.Step
	require.NoError(t, json.Unmarshal([]byte(`[{"name":"anneal","details":{"duration":5}}]`), &wl))
	_, err := New(testConfig(t), nil).BuildSample(BuildSampleInput{
		Sample:      models.SampleRecord{Name: "s", Worklist: wl},
		BatchID:     "b",
		ArtifactDir: dir,
	})
	require.True(t, errors.Is(err, util.ErrLookup))
}

func TestGraphStageOnly(t *testing.T) {
	cfg := testConfig(t)
	r := New(cfg, nil)
	_, err := r.Run(context.Background(), []Stage{StageData, StageFeatures})
	require.NoError(t, err)

	res, err := r.Run(context.Background(), []Stage{StageGraph})
	require.NoError(t, err)
	require.Equal(t, 12, res.Statements)
}
