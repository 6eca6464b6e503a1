package etl

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"labgraph/internal/config"
	"labgraph/internal/models"
	"labgraph/internal/util"

	"github.com/stretchr/testify/require"
)

const doc = `{
  "sample2": {"name": "sample2", "worklist": [{"name": "rest", "details": {"duration": 5}}]},
  "sample0": {"name": "sample0", "worklist": [
    {"name": "anneal", "details": {"duration": 600, "temperature": 100}},
    {"name": "destination", "details": {"destination": "hotplate"}}
  ]}
}`

func TestDecodeSamplesKeepsOrder(t *testing.T) {
	samples, err := DecodeSamples([]byte(doc))
	require.NoError(t, err)

	keys := []string{}
	for p := samples.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	require.Equal(t, []string{"sample2", "sample0"}, keys)

	s0, ok := samples.Get("sample0")
	require.True(t, ok)
	require.Len(t, s0.Worklist, 2)
	require.Equal(t, models.StepAnneal, s0.Worklist[0].Kind)
	require.Equal(t, models.StepDestination, s0.Worklist[1].Kind)
}

func TestDecodeSamplesMissingDetails(t *testing.T) {
	_, err := DecodeSamples([]byte(`{"s": {"name": "s", "worklist": [{"name": "rest"}]}}`))
	require.True(t, errors.Is(err, util.ErrMissingField))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.json"), []byte(doc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.json"), []byte(`{}`), 0o644))

	cfg := config.Config{DataDir: dir, ProcessFile: "p.json", CharFile: "c.json", ArtifactFolder: "Characterization_B19", Samples: []string{"sample0"}}
	ds, err := Load(cfg)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Process.Len())
	require.Equal(t, 0, ds.Characterization.Len())
	require.Equal(t, BatchRef{Folder: "Characterization_B19", Samples: []string{"sample0"}}, ds.Batch)

	keys, err := ds.Selected()
	require.NoError(t, err)
	require.Equal(t, []string{"sample0"}, keys)
}

func TestDatasetSelected(t *testing.T) {
	samples, err := DecodeSamples([]byte(doc))
	require.NoError(t, err)

	ds := Dataset{Process: samples}
	keys, err := ds.Selected()
	require.NoError(t, err)
	require.Equal(t, []string{"sample2", "sample0"}, keys)

	ds.Batch.Samples = []string{"sample0", "sample9"}
	_, err = ds.Selected()
	require.Error(t, err)
	require.Contains(t, err.Error(), "sample9")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(config.Config{DataDir: t.TempDir(), ProcessFile: "absent.json"})
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.json"), []byte(`{"s": [}`), 0o644))
	_, err := Load(config.Config{DataDir: dir, ProcessFile: "p.json"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode worklist")
}
