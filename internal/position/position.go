// Package position computes ordering keys for lists and cards.
//
// Siblings are displayed in ascending key order. Appending assigns max+1, so
// sequentially created siblings get 1, 2, 3, ... Inserting between two
// neighbors takes the integer midpoint; when the neighbors hold adjacent
// integers and no midpoint exists, the whole sibling run is renumbered to
// multiples of Step before the new key is picked. Renumbering never changes
// the logical order of existing siblings, only the spacing.
//
// Callers must serialize planning and persistence for siblings of the same
// parent (see mutation.BoardLocker); the planner itself is pure.
package position

import "errors"

// Step is the spacing used when a sibling run is renumbered. Midpoint
// insertion halves the available gap each time, so a fresh gap of 1024
// absorbs ten consecutive worst-case inserts before the next renumber.
const Step = 1024

// ErrIndexOutOfRange is returned for a target index outside [0, n].
var ErrIndexOutOfRange = errors.New("position: target index out of range")

// Update assigns a new key to the sibling at Index in the slice the plan was
// computed from.
type Update struct {
	Index    int
	Position int
}

// Plan is the outcome of an insert or move: the key for the entity being
// placed, plus any sibling renumbering needed to open a gap.
type Plan struct {
	Position int
	Updates  []Update

	// Unchanged is set when a move targets the entity's current slot and
	// nothing needs to be written.
	Unchanged bool
}

// Insert plans a key for a new entity entering a sorted sibling run at the
// given logical index (0 = before everything, len(siblings) = append).
func Insert(siblings []int, index int) (Plan, error) {
	n := len(siblings)
	if index < 0 || index > n {
		return Plan{}, ErrIndexOutOfRange
	}

	if n == 0 {
		return Plan{Position: 1}, nil
	}
	if index == n {
		return Plan{Position: siblings[n-1] + 1}, nil
	}

	lower := 0
	if index > 0 {
		lower = siblings[index-1]
	}
	upper := siblings[index]

	if upper-lower >= 2 {
		return Plan{Position: lower + (upper-lower)/2}, nil
	}

	// Adjacent keys: renumber the whole run to multiples of Step, then
	// drop the newcomer into the middle of its slot.
	updates := make([]Update, n)
	for i := range siblings {
		updates[i] = Update{Index: i, Position: (i + 1) * Step}
	}
	return Plan{Position: index*Step + Step/2, Updates: updates}, nil
}

// Move plans relocating the sibling at index from to logical index to within
// the same run. Both indices address the current sorted run, so to ranges
// over [0, n-1]. Moving an entity onto its own slot is a no-op.
func Move(siblings []int, from, to int) (Plan, error) {
	n := len(siblings)
	if from < 0 || from >= n || to < 0 || to >= n {
		return Plan{}, ErrIndexOutOfRange
	}
	if from == to || n == 1 {
		return Plan{Position: siblings[from], Unchanged: true}, nil
	}

	// Plan against the run with the moved entity taken out, then map
	// update indices back to the original slice.
	rest := make([]int, 0, n-1)
	for i, p := range siblings {
		if i != from {
			rest = append(rest, p)
		}
	}

	plan, err := Insert(rest, to)
	if err != nil {
		return Plan{}, err
	}
	for i, u := range plan.Updates {
		if u.Index >= from {
			plan.Updates[i].Index = u.Index + 1
		}
	}
	return plan, nil
}
