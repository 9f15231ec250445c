package manufacturing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortingTable(t *testing.T, opts Options) *Table {
	t.Helper()
	table := New(opts)
	table.Refresh([]Row{line("a", 2, "S"), line("b", 2, "S"), line("c", 2, "S")})
	require.NoError(t, table.EnterSort())
	return table
}

func TestDragEndClearsState(t *testing.T) {
	table := sortingTable(t, Options{})

	require.NoError(t, table.DragStart(1))
	require.NoError(t, table.DragOver(2))
	assert.Equal(t, DragState{From: 1, Over: 2, Active: true}, table.View().Drag)

	table.DragEnd()
	assert.Equal(t, idleDrag, table.View().Drag)
	assert.Equal(t, []RowID{"a", "b", "c"}, ids(table.Live()))

	assert.ErrorIs(t, table.DragOver(0), ErrNoDrag)
	assert.ErrorIs(t, table.Drop(0), ErrNoDrag)
	assert.ErrorIs(t, table.DragStart(3), ErrIndexOutOfRange)
}

func TestTouchDragPastThreshold(t *testing.T) {
	table := sortingTable(t, Options{})

	require.NoError(t, table.TouchStart(0, 100, 100))
	require.NoError(t, table.TouchMove(104, 104, 2))
	assert.False(t, table.View().Drag.Active, "below threshold is still a tap")

	require.NoError(t, table.TouchMove(100, 112, 2))
	assert.True(t, table.View().Drag.Active)

	require.NoError(t, table.TouchEnd())
	assert.Equal(t, []RowID{"b", "c", "a"}, ids(table.Live()))
	assert.Equal(t, idleDrag, table.View().Drag)
	assert.Equal(t, 3, table.PendingChanges())
}

func TestTouchTapDoesNotReorder(t *testing.T) {
	table := sortingTable(t, Options{})

	require.NoError(t, table.TouchStart(0, 10, 10))
	require.NoError(t, table.TouchMove(12, 11, 1))
	require.NoError(t, table.TouchEnd())

	assert.Equal(t, []RowID{"a", "b", "c"}, ids(table.Live()))
	assert.Nil(t, table.View().LastMoved)
	assert.ErrorIs(t, table.TouchMove(40, 40, 1), ErrNoDrag)
}

func TestTouchCustomThreshold(t *testing.T) {
	table := sortingTable(t, Options{TouchThreshold: 30})

	require.NoError(t, table.TouchStart(2, 0, 0))
	require.NoError(t, table.TouchMove(20, 0, 0))
	assert.False(t, table.View().Drag.Active)
	require.NoError(t, table.TouchMove(30, 0, 0))
	require.NoError(t, table.TouchEnd())

	assert.Equal(t, []RowID{"c", "a", "b"}, ids(table.Live()))
}

func TestTouchRequiresSortMode(t *testing.T) {
	table := New(Options{})
	table.Refresh([]Row{line("a", 2, "S")})
	assert.ErrorIs(t, table.TouchStart(0, 0, 0), ErrNotSorting)
}

func TestClickSelection(t *testing.T) {
	table := sortingTable(t, Options{})

	require.NoError(t, table.Click("a", true))
	require.NoError(t, table.Click("c", true))
	assert.Equal(t, []RowID{"a", "c"}, table.View().MultiSelected)
	assert.Empty(t, table.View().Selected)

	require.NoError(t, table.Click("a", true))
	assert.Equal(t, []RowID{"c"}, table.View().MultiSelected)

	require.NoError(t, table.Click("b", false))
	assert.Equal(t, RowID("b"), table.View().Selected)
	assert.Empty(t, table.View().MultiSelected)

	assert.ErrorIs(t, table.Click("zz", false), ErrRowNotFound)

	require.NoError(t, table.Cancel())
	assert.Empty(t, table.View().Selected)
	assert.ErrorIs(t, table.Click("a", false), ErrNotSorting)
}
