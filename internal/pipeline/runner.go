// Package pipeline runs the data, features and graph stages in order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"labgraph/internal/config"
	"labgraph/internal/etl"
	"labgraph/internal/features"
	"labgraph/internal/graph"
	"labgraph/internal/logger"
	"labgraph/internal/metrics"
	"labgraph/internal/models"
	"labgraph/internal/storage"
	"labgraph/internal/util"

	"github.com/google/uuid"
)

type Runner struct {
	cfg      config.Config
	sink     storage.Sink
	metrics  *metrics.Recorder
	resolver features.CharNameResolver
}

// New builds a runner. sink may be nil.
func New(cfg config.Config, sink storage.Sink) *Runner {
	return &Runner{
		cfg:     cfg,
		sink:    sink,
		metrics: metrics.NewRecorder(),
		resolver: features.CharNameResolver{
			Aliases:         cfg.CharAliases,
			UnderscoreAlias: cfg.CharUnderscoreAlias,
		},
	}
}

// Run executes stages in order and stops at the first error.
func (r *Runner) Run(ctx context.Context, stages []Stage) (res Result, err error) {
	res.RunID = uuid.NewString()
	log := logger.Logger.With().Str("run_id", res.RunID).Logger()
	if r.cfg.MetricsFile != "" {
		defer func() {
			if werr := r.metrics.WriteTextfile(r.cfg.MetricsFile); werr != nil {
				log.Warn().Err(werr).Msg("metrics textfile not written")
			}
		}()
	}

	for _, st := range stages {
		start := time.Now()
		log.Info().Str("stage", string(st)).Msg("stage started")
		switch st {
		case StageData:
			ds, lerr := etl.Load(r.cfg)
			if lerr != nil {
				return res, fmt.Errorf("data: %w", lerr)
			}
			res.Dataset = &ds
		case StageFeatures:
			if res.Dataset == nil {
				return res, errors.New("features: no data loaded")
			}
			outs, ferr := r.features(ctx, *res.Dataset)
			if ferr != nil {
				return res, fmt.Errorf("features: %w", ferr)
			}
			res.Samples = outs
		case StageGraph:
			res.CypherFile = r.outPath(r.cfg.CypherFile)
			n, gerr := graph.SaveQueries(r.cfg.OutputDir, res.CypherFile, r.cfg.ImportFolder, res.RunID)
			if gerr != nil {
				return res, fmt.Errorf("graph: %w", gerr)
			}
			res.Statements = n
		default:
			return res, fmt.Errorf("unknown stage %q", st)
		}
		d := time.Since(start)
		r.metrics.ObserveStage(string(st), d)
		log.Info().Str("stage", string(st)).Dur("took", d).Msg("stage finished")
	}
	return res, nil
}

func (r *Runner) features(ctx context.Context, ds etl.Dataset) ([]WriteSampleOutput, error) {
	keys, err := ds.Selected()
	if err != nil {
		return nil, err
	}
	outs := make([]WriteSampleOutput, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, _ := ds.Process.Get(key)
		in := BuildSampleInput{
			Key:         key,
			Sample:      rec,
			BatchID:     r.cfg.BatchID,
			ArtifactDir: filepath.Join(r.cfg.DataDir, ds.Batch.Folder, key, r.cfg.ArtifactSubdir),
		}
		if char, ok := ds.Characterization.Get(key); ok {
			in.CharWorklist = char.Worklist
		} else {
			logger.Logger.Warn().Str("sample", key).Msg("no characterization worklist, using process worklist only")
		}
		tables, err := r.BuildSample(in)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", key, err)
		}
		out, err := r.WriteSample(ctx, tables)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", key, err)
		}
		outs = append(outs, out)
		r.metrics.SampleDone()
	}
	return outs, nil
}

// BuildSample derives the three tables of one sample.
func (r *Runner) BuildSample(in BuildSampleInput) (models.SampleTables, error) {
	name := in.Sample.Name
	key := in.Key
	if key == "" {
		key = name
	}
	chems, err := features.ChemTable(in.Sample, in.BatchID)
	if err != nil {
		return models.SampleTables{}, fmt.Errorf("chemical table: %w", err)
	}
	worklists := [][]models.Step{in.Sample.Worklist}
	if in.CharWorklist != nil {
		worklists = append(worklists, in.CharWorklist)
	}
	actions, err := features.ActionTable(worklists, name, in.BatchID)
	if err != nil {
		return models.SampleTables{}, fmt.Errorf("action table: %w", err)
	}
	artifacts, err := features.CharOutputs(in.ArtifactDir, features.ArtifactOptions{
		ImageScale: r.cfg.ImageScale,
		OnSkip:     func(string, string) { r.metrics.ArtifactSkipped() },
	})
	if err != nil {
		return models.SampleTables{}, fmt.Errorf("characterization outputs: %w", err)
	}
	actions = features.AppendOutputs(actions, artifacts, name, in.BatchID)
	links, err := features.LinkTable(actions, name, in.BatchID, r.resolver)
	if err != nil {
		return models.SampleTables{}, fmt.Errorf("link table: %w", err)
	}
	logger.Logger.Debug().
		Str("sample", key).
		Int("chemicals", len(chems)).
		Int("actions", len(actions)).
		Int("links", len(links)).
		Int("artifacts", len(artifacts)).
		Msg("built sample tables")
	return models.SampleTables{
		SampleKey: key,
		SampleID:  name,
		BatchID:   in.BatchID,
		Chemicals: chems,
		Actions:   actions,
		Links:     links,
	}, nil
}

// WriteSample writes the sample's CSVs to the output directory and hands the
// tables to the sink when one is configured.
func (r *Runner) WriteSample(ctx context.Context, t models.SampleTables) (WriteSampleOutput, error) {
	key := t.SampleKey
	if key == "" {
		key = t.SampleID
	}
	out := WriteSampleOutput{
		Sample:     key,
		ChemFile:   r.outPath(graph.CSVFileName(t.BatchID, key, graph.TableChem)),
		ActionFile: r.outPath(graph.CSVFileName(t.BatchID, key, graph.TableAction)),
		LinkFile:   r.outPath(graph.CSVFileName(t.BatchID, key, graph.TableLink)),
	}
	if !graph.Discoverable(filepath.Base(out.ChemFile)) {
		logger.Logger.Warn().Str("sample", key).Msg("sample key is not of the form sample<N>; the graph stage will not load its tables")
	}
	writes := []struct {
		path  string
		kind  graph.TableKind
		table features.Table
	}{
		{out.ChemFile, graph.TableChem, features.ChemicalsToTable(t.Chemicals)},
		{out.ActionFile, graph.TableAction, features.ActionsToTable(t.Actions)},
		{out.LinkFile, graph.TableLink, features.LinksToTable(t.Links)},
	}
	for _, w := range writes {
		if err := util.WriteCSVAtomic(w.path, w.table.Columns, w.table.Rows); err != nil {
			return out, err
		}
		r.metrics.AddRows(string(w.kind), len(w.table.Rows))
	}
	if r.sink != nil {
		if err := r.sink.SaveSample(ctx, t); err != nil {
			return out, fmt.Errorf("store: %w", err)
		}
	}
	logger.Logger.Info().Str("sample", key).Str("dir", r.cfg.OutputDir).Msg("wrote sample tables")
	return out, nil
}

func (r *Runner) outPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.cfg.OutputDir, name)
}
