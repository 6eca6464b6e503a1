// Package etl reads the process and characterization worklist documents.
package etl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"labgraph/internal/config"
	"labgraph/internal/logger"
	"labgraph/internal/models"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// BatchRef names the batch folder holding characterization artifacts and
// the samples to build. No samples means every sample of the process
// document.
type BatchRef struct {
	Folder  string
	Samples []string
}

type Dataset struct {
	Process          *models.Samples
	Characterization *models.Samples
	Batch            BatchRef
}

func Load(cfg config.Config) (Dataset, error) {
	process, err := ReadSamples(filepath.Join(cfg.DataDir, cfg.ProcessFile))
	if err != nil {
		return Dataset{}, err
	}
	char, err := ReadSamples(filepath.Join(cfg.DataDir, cfg.CharFile))
	if err != nil {
		return Dataset{}, err
	}
	logger.Logger.Info().
		Int("process_samples", process.Len()).
		Int("char_samples", char.Len()).
		Str("dir", cfg.DataDir).
		Msg("loaded worklists")
	return Dataset{
		Process:          process,
		Characterization: char,
		Batch:            BatchRef{Folder: cfg.ArtifactFolder, Samples: cfg.Samples},
	}, nil
}

// Selected returns the keys of the samples to build, in document order or in
// the order the batch ref lists them.
func (d Dataset) Selected() ([]string, error) {
	if len(d.Batch.Samples) == 0 {
		keys := make([]string, 0, d.Process.Len())
		for p := d.Process.Oldest(); p != nil; p = p.Next() {
			keys = append(keys, p.Key)
		}
		return keys, nil
	}
	for _, k := range d.Batch.Samples {
		if _, ok := d.Process.Get(k); !ok {
			return nil, fmt.Errorf("sample %s is not in the process worklists", k)
		}
	}
	return d.Batch.Samples, nil
}

// ReadSamples decodes a worklist document, keeping sample order.
func ReadSamples(path string) (*models.Samples, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read worklist: %w", err)
	}
	return DecodeSamples(b)
}

func DecodeSamples(b []byte) (*models.Samples, error) {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(b, raw); err != nil {
		return nil, fmt.Errorf("decode worklist: %w", err)
	}
	out := orderedmap.New[string, models.SampleRecord]()
	for p := raw.Oldest(); p != nil; p = p.Next() {
		var rec models.SampleRecord
		if err := json.Unmarshal(p.Value, &rec); err != nil {
			return nil, fmt.Errorf("decode sample %s: %w", p.Key, err)
		}
		if rec.Name == "" {
			rec.Name = p.Key
		}
		out.Set(p.Key, rec)
	}
	return out, nil
}
