package witness

import "github.com/example/solvency-ledger/internal/mst"

// Change captures one leaf mutation as an old/new tree pair, the unit the
// liabilities circuit folds over. Both trees are immutable snapshots taken
// around a single leaf write.
type Change struct {
	Index int
	Old   *mst.Tree
	New   *mst.Tree
}
