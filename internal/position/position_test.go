package position_test

import (
	"sort"
	"testing"

	"taskboard/internal/position"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// applyInsert materializes a plan: existing siblings with updates applied,
// plus the newcomer's key. Returns the newcomer's resulting logical index.
func applyInsert(siblings []int, plan position.Plan) (keys []int, newIndex int) {
	final := append([]int(nil), siblings...)
	for _, u := range plan.Updates {
		final[u.Index] = u.Position
	}
	keys = append(final, plan.Position)
	sort.Ints(keys)
	for i, k := range keys {
		if k == plan.Position {
			return keys, i
		}
	}
	return keys, -1
}

func TestInsertEmpty(t *testing.T) {
	plan, err := position.Insert(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Position)
	assert.Empty(t, plan.Updates)
}

func TestInsertAppend(t *testing.T) {
	plan, err := position.Insert([]int{1, 2, 3}, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, plan.Position)
	assert.Empty(t, plan.Updates)
}

func TestInsertBetweenWithGap(t *testing.T) {
	plan, err := position.Insert([]int{10, 20, 30}, 1)
	require.NoError(t, err)
	assert.Equal(t, 15, plan.Position)
	assert.Empty(t, plan.Updates)
}

func TestInsertAtEveryIndex(t *testing.T) {
	siblings := []int{3, 7, 8, 20}
	for index := 0; index <= len(siblings); index++ {
		plan, err := position.Insert(siblings, index)
		require.NoError(t, err)

		_, got := applyInsert(siblings, plan)
		assert.Equal(t, index, got, "newcomer must land at index %d", index)
	}
}

func TestInsertAdjacentKeysTriggersRenumber(t *testing.T) {
	siblings := []int{1, 2, 3}

	plan, err := position.Insert(siblings, 1)
	require.NoError(t, err)
	require.Len(t, plan.Updates, len(siblings), "whole run is renumbered")

	keys, got := applyInsert(siblings, plan)
	assert.Equal(t, 1, got)

	// Renumbering must preserve the relative order of the old siblings.
	assert.Equal(t, position.Step, keys[0])
	assert.True(t, sort.IntsAreSorted(keys))
}

func TestInsertBeforeFirstWithoutRoom(t *testing.T) {
	// First key is 1, so there is no integer before it.
	plan, err := position.Insert([]int{1, 5}, 0)
	require.NoError(t, err)
	require.Len(t, plan.Updates, 2)
	assert.Equal(t, position.Step/2, plan.Position)

	_, got := applyInsert([]int{1, 5}, plan)
	assert.Equal(t, 0, got)
}

func TestInsertOutOfRange(t *testing.T) {
	_, err := position.Insert([]int{1}, 2)
	assert.ErrorIs(t, err, position.ErrIndexOutOfRange)

	_, err = position.Insert([]int{1}, -1)
	assert.ErrorIs(t, err, position.ErrIndexOutOfRange)
}

func TestMoveToOwnIndexIsNoOp(t *testing.T) {
	plan, err := position.Move([]int{1, 2, 3}, 1, 1)
	require.NoError(t, err)
	assert.True(t, plan.Unchanged)
	assert.Equal(t, 2, plan.Position)
	assert.Empty(t, plan.Updates)
}

func TestMoveOnlyEntityIsNoOp(t *testing.T) {
	plan, err := position.Move([]int{7}, 0, 0)
	require.NoError(t, err)
	assert.True(t, plan.Unchanged)
}

func TestMoveLastToFront(t *testing.T) {
	// [A@1 B@2 C@3]: moving C to index 0 must yield order C, A, B.
	siblings := []int{1, 2, 3}
	plan, err := position.Move(siblings, 2, 0)
	require.NoError(t, err)
	assert.False(t, plan.Unchanged)

	final := append([]int(nil), siblings...)
	for _, u := range plan.Updates {
		final[u.Index] = u.Position
	}
	final[2] = plan.Position

	assert.Less(t, final[2], final[0], "C before A")
	assert.Less(t, final[0], final[1], "A before B")
}

func TestMoveFirstToEnd(t *testing.T) {
	siblings := []int{1, 2, 3}
	plan, err := position.Move(siblings, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, plan.Position)
	assert.Empty(t, plan.Updates)
}

func TestMoveEveryPair(t *testing.T) {
	siblings := []int{2, 3, 4, 5, 6}
	for from := 0; from < len(siblings); from++ {
		for to := 0; to < len(siblings); to++ {
			plan, err := position.Move(siblings, from, to)
			require.NoError(t, err)
			if from == to {
				assert.True(t, plan.Unchanged)
				continue
			}

			final := append([]int(nil), siblings...)
			for _, u := range plan.Updates {
				final[u.Index] = u.Position
			}
			final[from] = plan.Position

			// Rank of the moved entity after re-sorting.
			rank := 0
			for i, k := range final {
				if i == from {
					continue
				}
				if k < final[from] {
					rank++
				}
			}
			assert.Equal(t, to, rank, "move %d -> %d", from, to)

			// Relative order of the others is untouched.
			var rest []int
			for i, k := range final {
				if i != from {
					rest = append(rest, k)
				}
			}
			assert.True(t, sort.IntsAreSorted(rest))
		}
	}
}

func TestMoveOutOfRange(t *testing.T) {
	_, err := position.Move([]int{1, 2}, 0, 2)
	assert.ErrorIs(t, err, position.ErrIndexOutOfRange)

	_, err = position.Move([]int{1, 2}, 5, 0)
	assert.ErrorIs(t, err, position.ErrIndexOutOfRange)
}
