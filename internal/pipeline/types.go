package pipeline

import (
	"labgraph/internal/etl"
	"labgraph/internal/models"
)

type BuildSampleInput struct {
	Key          string
	Sample       models.SampleRecord
	CharWorklist []models.Step
	BatchID      string
	ArtifactDir  string
}

type WriteSampleOutput struct {
	Sample     string
	ChemFile   string
	ActionFile string
	LinkFile   string
}

type Result struct {
	RunID      string
	Dataset    *etl.Dataset
	Samples    []WriteSampleOutput
	CypherFile string
	Statements int
}
