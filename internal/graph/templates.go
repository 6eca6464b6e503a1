package graph

import "strings"

const loadCSV = `LOAD CSV WITH HEADERS FROM "file:///`

const (
	goesIntoQuery = "AS row MATCH (c:Chemical {chemical_id: row['chemical_from'], sample_id: row['sample_id'], " +
		"batch_id: row['batch_id']}), (a:Action {step_id:row['step_to'], sample_id: row['sample_id'], " +
		"batch_id: row['batch_id']}) CREATE (c)-[:" + string(RelGoesInto) + "]->(a);"

	outputsQuery = "AS row MATCH (a1:Action {action: 'dissolve', step_id: row['step_from'], sample_id: row['sample_id'], " +
		"batch_id: row['batch_id']}),(c1:Chemical {chemical_id:row['chemical_to'], sample_id: row['sample_id'], " +
		"batch_id: row['batch_id']}) CREATE (a1)-[:" + string(RelOutputs) + "]->(c1);"

	dropNextQuery = "AS row MATCH (a3:Action {action:'drop',step_id: row['step_from'], sample_id: row['sample_id'], " +
		"batch_id: row['batch_id']}),(c4:Chemical {chemical_id:row['chemical_to'], sample_id: row['sample_id'], " +
		"batch_id: row['batch_id']}) CREATE (a3)-[:" + string(RelNext) + "]->(c4);"

	actionNextQuery = "AS row MATCH (a3:Action {step_id: row['step_from'], sample_id: row['sample_id'], " +
		"batch_id: row['batch_id']}),(a4:Action {step_id:row['step_to'], sample_id: row['sample_id'], " +
		"batch_id: row['batch_id']}) CREATE (a3)-[:" + string(RelNext) + "]->(a4);"
)

func source(file, storedFolder string) string {
	var b strings.Builder
	b.WriteString(loadCSV)
	if storedFolder != "" {
		b.WriteString(storedFolder)
		b.WriteString("/")
	}
	b.WriteString(file)
	b.WriteString(`" `)
	return b.String()
}

// CreateNodes builds the statement that creates one node per CSV row with
// every column copied as a property.
func CreateNodes(file string, node NodeType, cols []string, storedFolder string) string {
	props := make([]string, 0, len(cols))
	for _, c := range cols {
		props = append(props, c+": row['"+c+"']")
	}
	return source(file, storedFolder) + "AS row CREATE " + node.pattern() + strings.Join(props, ", ") + "});"
}

// CreateLinks builds the four relationship statements over a link CSV.
func CreateLinks(file, storedFolder string) []string {
	src := source(file, storedFolder)
	return []string{
		src + goesIntoQuery,
		src + outputsQuery,
		src + dropNextQuery,
		src + actionNextQuery,
	}
}
