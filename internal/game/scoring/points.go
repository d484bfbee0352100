// Package scoring computes points and keeps the ordered ledger of scoring messages.
package scoring

import "fmt"

func mustBeAtLeast(name string, v, min int) {
	if v < min {
		panic(fmt.Sprintf("scoring: %s must be at least %d, got %d", name, min, v))
	}
}

// ForClosedForest returns the points of a closed forest.
// It panics unless tileCount > 1 and mushroomGroupCount >= 0.
func ForClosedForest(tileCount, mushroomGroupCount int) int {
	mustBeAtLeast("tile count", tileCount, 2)
	mustBeAtLeast("mushroom group count", mushroomGroupCount, 0)
	return 2*tileCount + 3*mushroomGroupCount
}

// ForClosedRiver returns the points of a closed river.
// It panics unless tileCount > 1 and fishCount >= 0.
func ForClosedRiver(tileCount, fishCount int) int {
	mustBeAtLeast("tile count", tileCount, 2)
	mustBeAtLeast("fish count", fishCount, 0)
	return tileCount + fishCount
}

// ForMeadow returns the points of a meadow given its uncancelled animals.
func ForMeadow(mammothCount, aurochsCount, deerCount int) int {
	mustBeAtLeast("mammoth count", mammothCount, 0)
	mustBeAtLeast("aurochs count", aurochsCount, 0)
	mustBeAtLeast("deer count", deerCount, 0)
	return 3*mammothCount + 2*aurochsCount + deerCount
}

// ForRiverSystem returns the points of a river system's fish.
func ForRiverSystem(fishCount int) int {
	mustBeAtLeast("fish count", fishCount, 0)
	return fishCount
}

// ForLogboat returns the logboat bonus. It panics unless lakeCount > 0.
func ForLogboat(lakeCount int) int {
	mustBeAtLeast("lake count", lakeCount, 1)
	return 2 * lakeCount
}

// ForRaft returns the raft bonus. It panics unless lakeCount > 0.
func ForRaft(lakeCount int) int {
	mustBeAtLeast("lake count", lakeCount, 1)
	return lakeCount
}
