package graph

// NodeType selects the node pattern a LOAD CSV statement creates.
type NodeType string

const (
	NodeChemical NodeType = "chem"
	NodeAction   NodeType = "action"
)

func (n NodeType) pattern() string {
	if n == NodeAction {
		return "(a:Action {"
	}
	return "(c:Chemical {"
}

type RelationType string

const (
	RelGoesInto RelationType = "GOES_INTO"
	RelOutputs  RelationType = "OUTPUTS"
	RelNext     RelationType = "NEXT"
)

// TableKind is the suffix of a per-sample CSV file.
type TableKind string

const (
	TableChem   TableKind = "chem"
	TableAction TableKind = "action"
	TableLink   TableKind = "link"
)

// SampleFiles are the three CSV file names written for one sample.
type SampleFiles struct {
	Sample string
	Chem   string
	Action string
	Link   string
}
