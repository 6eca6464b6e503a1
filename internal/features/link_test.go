package features

import (
	"errors"
	"testing"

	"labgraph/internal/models"
	"labgraph/internal/util"

	"github.com/stretchr/testify/require"
)

var plResolver = CharNameResolver{UnderscoreAlias: "plimaging"}

type edge struct {
	id       int
	kind     models.LinkKind
	chemFrom int
	stepTo   int
	chemTo   int
	stepFrom int
}

func edges(rows []models.LinkRow) []edge {
	deref := func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	}
	out := make([]edge, 0, len(rows))
	for _, r := range rows {
		out = append(out, edge{r.StepID, r.Action, deref(r.ChemicalFrom), deref(r.StepTo), deref(r.ChemicalTo), deref(r.StepFrom)})
	}
	return out
}

func TestLinkTableFixture(t *testing.T) {
	links, err := LinkTable(fixtureActions(t), "sample0", "b19", plResolver)
	require.NoError(t, err)

	require.Equal(t, []edge{
		{1, models.LinkGoesInto, 1, 1, 0, 0},
		{2, models.LinkGoesInto, 2, 2, 0, 0},
		{3, models.LinkGoesInto, 3, 3, 0, 0},
		{4, models.LinkOutputs, 0, 0, 4, 1},
		{5, models.LinkOutputs, 0, 0, 4, 2},
		{6, models.LinkOutputs, 0, 0, 4, 3},
		{9, models.LinkGoesInto, 4, 7, 0, 0},
		{10, models.LinkNext, 0, 0, 6, 7},
		{26, models.LinkGoesInto, 5, 8, 0, 0},
		{12, models.LinkNext, 0, 0, 6, 8},
		{12, models.LinkGoesInto, 6, 11, 0, 0},
		{14, models.LinkNext, 0, 13, 0, 11},
		{16, models.LinkNext, 0, 15, 0, 13},
		{18, models.LinkNext, 0, 17, 0, 15},
		{20, models.LinkNext, 0, 19, 0, 17},
		{22, models.LinkNext, 0, 21, 0, 17},
		{23, models.LinkNext, 0, 22, 0, 19},
	}, edges(links))
	for _, l := range links {
		require.Equal(t, "sample0", l.SampleID)
		require.Equal(t, "b19", l.BatchID)
	}
}

func requireReferencesExist(t *testing.T, chems []models.ChemicalRow, actions []models.ActionRow, links []models.LinkRow) {
	t.Helper()
	chemIDs := map[int]bool{}
	for _, c := range chems {
		chemIDs[c.ChemicalID] = true
	}
	stepIDs := map[int]bool{}
	for _, a := range actions {
		stepIDs[a.StepID] = true
	}
	for _, l := range links {
		for _, p := range []*int{l.ChemicalFrom, l.ChemicalTo} {
			if p != nil {
				require.True(t, chemIDs[*p], "link %d references chemical %d", l.StepID, *p)
			}
		}
		for _, p := range []*int{l.StepFrom, l.StepTo} {
			if p != nil {
				require.True(t, stepIDs[*p], "link %d references step %d", l.StepID, *p)
			}
		}
	}
}

func TestLinkTableReferencesExist(t *testing.T) {
	chems, err := ChemTable(sample(t, "sample0", processWorklist), "b19")
	require.NoError(t, err)
	actions := fixtureActions(t)
	links, err := LinkTable(actions, "sample0", "b19", plResolver)
	require.NoError(t, err)
	requireReferencesExist(t, chems, actions, links)
}

func TestLinkTableNoDeposition(t *testing.T) {
	wl := steps(t, `[
		{"name":"anneal","details":{"duration":600}},
		{"name":"rest","details":{"duration":30}},
		{"name":"rest","details":{"duration":60}}
	]`)
	actions, err := ActionTable([][]models.Step{wl}, "s", "b")
	require.NoError(t, err)
	links, err := LinkTable(actions, "s", "b", plResolver)
	require.NoError(t, err)
	require.Equal(t, []edge{
		{1, models.LinkNext, 0, 3, 0, 1},
		{3, models.LinkNext, 0, 5, 0, 3},
	}, edges(links))
}

func TestLinkTableNoMatchingTask(t *testing.T) {
	actions := AppendOutputs(fixtureActions(t), []Artifact{{Name: "xrd", FID: "sample0_xrd.csv"}}, "sample0", "b19")
	_, err := LinkTable(actions, "sample0", "b19", plResolver)
	require.True(t, errors.Is(err, util.ErrLookup))

	var lookup *util.LookupError
	require.True(t, errors.As(err, &lookup))
	require.Equal(t, "xrd", lookup.Name)
	require.Empty(t, lookup.Matches)
}

func TestLinkTableAmbiguousTask(t *testing.T) {
	char := steps(t, `[{"name":"characterize","details":{"characterization_tasks":[
		{"name":"Transmission_0"},
		{"name":"Transmission_1"}
	]}}]`)
	actions, err := ActionTable([][]models.Step{char}, "s", "b")
	require.NoError(t, err)
	actions = AppendOutputs(actions, []Artifact{{Name: "transmission", FID: "s_transmission.csv"}}, "s", "b")

	_, err = LinkTable(actions, "s", "b", plResolver)
	var lookup *util.LookupError
	require.True(t, errors.As(err, &lookup))
	require.Equal(t, []int{1, 3}, lookup.Matches)
}

func TestLinkTableAliasResolver(t *testing.T) {
	char := steps(t, `[{"name":"characterize","details":{"characterization_tasks":[{"name":"PL_0"}]}}]`)
	actions, err := ActionTable([][]models.Step{char}, "s", "b")
	require.NoError(t, err)
	actions = AppendOutputs(actions, []Artifact{{Name: "PL_Image", FID: "s_PL_Image.tif"}}, "s", "b")

	resolver := CharNameResolver{Aliases: map[string]string{"pl_image": "pl"}}
	links, err := LinkTable(actions, "s", "b", resolver)
	require.NoError(t, err)
	require.Equal(t, []edge{{1, models.LinkNext, 0, 3, 0, 1}}, edges(links))
}

func TestLinkTableSingleDroplet(t *testing.T) {
	rec := sample(t, "s", `[{"name":"spincoat","details":{
		"drops":[{"solution":{"solutes":"NaCl0.75_KBr0.25","solvent":"Water1.0","molarity":1},"volume":1}],
		"steps":[{"rpm":1000}]
	}}]`)
	chems, err := ChemTable(rec, "b")
	require.NoError(t, err)
	require.Len(t, chems, 4)
	actions, err := ActionTable([][]models.Step{rec.Worklist}, "s", "b")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 7, 10}, stepIDs(actions))

	links, err := LinkTable(actions, "s", "b", plResolver)
	require.NoError(t, err)
	require.Equal(t, []edge{
		{1, models.LinkGoesInto, 1, 1, 0, 0},
		{2, models.LinkGoesInto, 2, 2, 0, 0},
		{3, models.LinkGoesInto, 3, 3, 0, 0},
		{4, models.LinkOutputs, 0, 0, 4, 1},
		{5, models.LinkOutputs, 0, 0, 4, 2},
		{6, models.LinkOutputs, 0, 0, 4, 3},
		{9, models.LinkGoesInto, 4, 7, 0, 0},
		{12, models.LinkGoesInto, 4, 10, 0, 0},
	}, edges(links))
	requireReferencesExist(t, chems, actions, links)
}

func TestLinkTableDissolveWithoutDrops(t *testing.T) {
	wl := steps(t, `[
		{"name":"mix","details":{"dissolve":[{"solution":{"solutes":"A0.5","solvent":"B1.0","molarity":1},"volume":1}]}},
		{"name":"anneal","details":{"duration":600}}
	]`)
	actions, err := ActionTable([][]models.Step{wl}, "s", "b")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 4}, stepIDs(actions))

	links, err := LinkTable(actions, "s", "b", plResolver)
	require.NoError(t, err)
	require.Equal(t, []edge{
		{1, models.LinkGoesInto, 1, 1, 0, 0},
		{2, models.LinkGoesInto, 2, 2, 0, 0},
		{3, models.LinkOutputs, 0, 0, 3, 1},
		{4, models.LinkOutputs, 0, 0, 3, 2},
		{12, models.LinkNext, 0, 4, 0, 2},
	}, edges(links))
}

func TestCharNameResolver(t *testing.T) {
	r := plResolver
	require.Equal(t, "plimaging", r.Resolve("pl_imaging"))
	require.Equal(t, "transmission", r.Resolve("transmission"))

	r = CharNameResolver{Aliases: map[string]string{"darkfield": "df"}}
	require.Equal(t, "df", r.Resolve("DarkField"))
	require.Equal(t, "pl_imaging", r.Resolve("pl_imaging"))
}
