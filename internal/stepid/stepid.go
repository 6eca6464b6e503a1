// Package stepid is the single definition of the step-id addressing scheme.
// The action builder assigns ids with it and the link builder recomputes
// adjacency from the same functions.
package stepid

const (
	// First is the id of the first action row of a sample.
	First = 1
	// Stride separates consecutive action steps.
	Stride = 2
	// SpinGap separates the last drop of a deposition block from its first spin.
	SpinGap = 3
	// OutputStride separates consecutive characterization-output rows.
	OutputStride = 1
)

// Next is the id that follows a block ending at last.
func Next(last int) int { return last + Stride }

// Prev is the id of the action step chained before id.
func Prev(id int) int { return id - Stride }

// Dissolve is the id of the i-th (1-based) dissolve row of a block starting at start.
func Dissolve(start, i int) int { return start + i - 1 }

// Drop is the id of the i-th (1-based) drop of a block whose last dissolve row is lastDissolve.
func Drop(lastDissolve, i int) int { return lastDissolve*2 + i }

// DropChemical is the chemical consumed by the i-th drop when the dissolve
// block introduced chemicals chemicals: drop 1 takes the first mix, drop 2
// the antisolvent.
func DropChemical(chemicals, i int) int { return chemicals + i }

// SpinStart is the id of the first spin after the drop ending at lastDrop.
func SpinStart(lastDrop int) int { return lastDrop + SpinGap }

// OutputStart is the id of the first characterization-output row.
func OutputStart(lastRow int) int { return Next(lastRow) }

// Chemical ids of the synthetic rows following the dissolved chemicals.
func Mix1(chemicals int) int        { return chemicals + 1 }
func Antisolvent(chemicals int) int { return chemicals + 2 }
func Mix2(chemicals int) int        { return chemicals + 3 }

// Links holds the link-table ids derived from one deposition block.
type Links struct {
	// Outputs are the OUTPUTS edge ids, one per dissolve row.
	Outputs []int
	// Mix1IntoDrop is the GOES_INTO edge from the first mix to the first drop.
	Mix1IntoDrop int
	// Mix1ToMix2 is the NEXT edge from the first drop to the second mix.
	Mix1ToMix2 int
	// AntisolventIntoDrop is the GOES_INTO edge from the antisolvent to the second drop.
	AntisolventIntoDrop int
	// Drop2ToMix2 and Mix2IntoSpin share an id.
	Drop2ToMix2  int
	Mix2IntoSpin int
	// ChainStart is the id of the first chained NEXT edge.
	ChainStart int
}

// BlockLinks lays out link ids for a deposition block whose last dissolve row
// is lastDissolve with n dissolve rows. lastAction is the id of the final
// action-table row.
func BlockLinks(lastDissolve, n, lastAction int) Links {
	l := Links{Outputs: make([]int, 0, n)}
	for k := 1; k <= n; k++ {
		l.Outputs = append(l.Outputs, lastDissolve+k)
	}
	lastOutput := lastDissolve + n
	l.Mix1IntoDrop = lastOutput + 3
	l.Mix1ToMix2 = lastOutput + 4
	l.AntisolventIntoDrop = lastAction + 4
	l.Drop2ToMix2 = lastOutput + 6
	l.Mix2IntoSpin = lastOutput + 6
	l.ChainStart = lastOutput + 8
	return l
}

// OutputLinkStart is the id of the first characterization-output edge given
// the last chained NEXT edge id, or chainStart when the chain is empty.
func OutputLinkStart(lastChain, chainStart int, chained bool) int {
	if !chained {
		return chainStart
	}
	return Next(lastChain)
}
