package manufacturing

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

func newTable(t *testing.T, rows ...Row) (*Table, *recordingListener) {
	t.Helper()
	listener := newRecordingListener()
	table := New(Options{Listener: listener})
	table.Refresh(rows)
	return table, listener
}

func TestTableSplitSortCancel(t *testing.T) {
	table, listener := newTable(t, line("1", 3, "A"), line("2", 1, "B"))

	require.NoError(t, table.Split("1", 1))
	assert.Equal(t, []RowID{"1_split_1", "1_split_2", "2"}, ids(table.Live()))
	assert.True(t, table.SplitsActive())

	require.NoError(t, table.EnterSort())
	require.NoError(t, table.DragStart(2))
	require.NoError(t, table.DragOver(0))
	require.NoError(t, table.Drop(0))

	assert.Equal(t, []RowID{"2", "1_split_1", "1_split_2"}, ids(table.Live()))
	assert.Equal(t, 3, table.PendingChanges())
	require.NotNil(t, table.View().LastMoved)
	assert.Equal(t, 0, *table.View().LastMoved)

	require.NoError(t, table.Cancel())
	assert.Equal(t, ModeViewing, table.Mode())
	assert.Equal(t, 0, table.PendingChanges())
	assert.Equal(t, []RowID{"1_split_1", "1_split_2", "2"}, ids(table.Live()))
	assert.Equal(t, []string{"sort_exited"}, listener.events)
}

func TestTableCancelRestoresBaselineAfterRandomMoves(t *testing.T) {
	rows := make([]Row, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, line(string(rune('a'+i)), i+2, "S-1"))
	}
	table, _ := newTable(t, rows...)
	require.NoError(t, table.EnterSort())
	baseline := table.Baseline()

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		require.NoError(t, table.Move(rng.Intn(len(rows)), rng.Intn(len(rows))))
	}
	assert.Len(t, table.Live(), len(rows))

	require.NoError(t, table.Cancel())
	if diff := cmp.Diff(baseline, table.Live(), decimalEqual); diff != "" {
		t.Fatalf("cancel did not restore baseline (-want +got):\n%s", diff)
	}
}

func TestTableConfirmSaveCommitsOrder(t *testing.T) {
	table, listener := newTable(t, line("1", 3, "A"), line("2", 1, "B"), line("3", 4, "A"))

	require.NoError(t, table.EnterSort())
	require.NoError(t, table.Move(0, 2))
	assert.Equal(t, 3, table.PendingChanges())

	assert.ErrorIs(t, table.ConfirmSave(), ErrSaveNotRequested)
	require.NoError(t, table.RequestSave())
	assert.True(t, table.View().SaveRequested)
	require.NoError(t, table.DismissSave())
	assert.False(t, table.View().SaveRequested)

	require.NoError(t, table.RequestSave())
	require.NoError(t, table.ConfirmSave())

	assert.Equal(t, ModeViewing, table.Mode())
	assert.Equal(t, []string{"order_committed", "sort_exited"}, listener.events)
	require.Len(t, listener.committed, 1)
	assert.Equal(t, []RowID{"2", "3", "1"}, ids(listener.committed[0]))
	assert.Equal(t, []RowID{"2", "3", "1"}, ids(table.Baseline()))
	assert.Nil(t, table.View().LastMoved)
}

func TestTableReorderRequiresSortMode(t *testing.T) {
	table, _ := newTable(t, line("1", 3, "A"), line("2", 1, "B"))

	assert.ErrorIs(t, table.Move(0, 1), ErrNotSorting)
	assert.ErrorIs(t, table.DragStart(0), ErrNotSorting)
	assert.ErrorIs(t, table.RequestSave(), ErrNotSorting)
	assert.ErrorIs(t, table.Cancel(), ErrNotSorting)
	assert.Equal(t, []RowID{"1", "2"}, ids(table.Live()))

	require.NoError(t, table.EnterSort())
	assert.ErrorIs(t, table.EnterSort(), ErrAlreadySorting)
	assert.ErrorIs(t, table.Move(0, 5), ErrIndexOutOfRange)
}

func TestTableSortingFreezesLive(t *testing.T) {
	table, _ := newTable(t, line("1", 3, "A"), line("2", 1, "B"))
	require.NoError(t, table.EnterSort())

	table.SetShipmentScope("A")
	assert.Equal(t, []RowID{"1"}, ids(table.Visible()))
	assert.Equal(t, []RowID{"1", "2"}, ids(table.Live()))

	table.Refresh([]Row{line("1", 3, "A"), line("2", 1, "B"), line("3", 2, "A")})
	assert.Equal(t, []RowID{"1", "2"}, ids(table.Live()))
	assert.Equal(t, 0, table.PendingChanges())

	require.NoError(t, table.Cancel())
	assert.Equal(t, []RowID{"1", "2"}, ids(table.Live()))

	table.SetSearch("")
	assert.Equal(t, []RowID{"1", "3"}, ids(table.Live()))
}

func TestTableStatusSurvivesRederive(t *testing.T) {
	table, listener := newTable(t, line("1", 3, "A"), line("2", 1, "B"))

	require.NoError(t, table.OpenStatusMenu("1"))
	assert.Equal(t, RowID("1"), table.View().StatusMenu)
	require.NoError(t, table.SetStatus("1", enums.RowStatusInProgress))
	assert.Empty(t, table.View().StatusMenu)
	assert.Equal(t, enums.RowStatusInProgress, listener.statuses["1"])

	table.SetSearch("fx")
	assert.Equal(t, enums.RowStatusInProgress, statusOf(table.Live(), "1"))

	table.Refresh([]Row{line("1", 3, "A"), line("2", 1, "B")})
	assert.Equal(t, enums.RowStatusInProgress, statusOf(table.Live(), "1"))
	assert.Equal(t, enums.RowStatusNotStarted, statusOf(table.Live(), "2"))

	assert.ErrorIs(t, table.SetStatus("1", enums.RowStatus("done")), ErrInvalidStatus)
	assert.ErrorIs(t, table.SetStatus("404", enums.RowStatusCompleted), ErrRowNotFound)
	assert.ErrorIs(t, table.OpenStatusMenu("404"), ErrRowNotFound)
}

func TestTableStatusOnSplitReachesParent(t *testing.T) {
	table, _ := newTable(t, line("1", 4, "A"), line("2", 1, "B"))
	require.NoError(t, table.Split("1", 1))

	require.NoError(t, table.SetStatus("1_split_2", enums.RowStatusOnHold))
	live := table.Live()
	assert.Equal(t, enums.RowStatusOnHold, statusOf(live, "1_split_2"))
	assert.Equal(t, enums.RowStatusNotStarted, statusOf(live, "1_split_1"))
	assert.Equal(t, enums.RowStatusNotStarted, statusOf(live, "2"))

	table.SetShipmentScope("B")
	assert.Equal(t, []RowID{"2"}, ids(table.Live()))
	table.SetShipmentScope("")
	assert.Equal(t, enums.RowStatusOnHold, statusOf(table.Live(), "1"))
}

func TestTableStatusOnParentReachesSplits(t *testing.T) {
	table, _ := newTable(t, line("1", 4, "A"))
	require.NoError(t, table.Split("1", 3))

	require.NoError(t, table.SetStatus("1", enums.RowStatusCompleted))
	for _, row := range table.Live() {
		assert.Equal(t, enums.RowStatusCompleted, row.Status, row.ID)
	}
}

func TestTableSplitErrors(t *testing.T) {
	table, _ := newTable(t, line("1", 4, "A"), line("2", 1, "B"))

	assert.ErrorIs(t, table.Split("missing", 1), ErrRowNotFound)
	assert.ErrorIs(t, table.Split("2", 1), ErrInvalidSplitQuantity)
	assert.ErrorIs(t, table.Split("1", 4), ErrInvalidSplitQuantity)
	assert.Equal(t, []RowID{"1", "2"}, ids(table.Live()))
	assert.False(t, table.SplitsActive())
}

func TestTableSplitsClearWhenFilteredAway(t *testing.T) {
	table, _ := newTable(t, line("1", 4, "A"), line("2", 1, "B"))
	require.NoError(t, table.Split("1", 1))

	table.SetShipmentScope("B")
	assert.Equal(t, []RowID{"2"}, ids(table.Live()))
	assert.False(t, table.SplitsActive())

	table.SetShipmentScope("")
	assert.Equal(t, []RowID{"1", "2"}, ids(table.Live()))
}

func TestTableSplitSurvivesNarrowingFilter(t *testing.T) {
	table, listener := newTable(t, line("1", 3, "A"), line("2", 1, "B"))
	require.NoError(t, table.Split("1", 1))

	narrow := Filters{ColumnQuantity: {Condition: enums.FilterConditionLessThan, Value: "2"}}
	require.NoError(t, table.SetFilters(narrow))
	assert.Equal(t, []RowID{"2", "1_split_1"}, ids(table.Live()))
	assert.Equal(t, []RowID{"1_split_2"}, ids(table.Parked()))
	assert.True(t, table.SplitsActive())

	require.NoError(t, table.EnterSort())
	require.NoError(t, table.RequestSave())
	require.NoError(t, table.ConfirmSave())
	require.Len(t, listener.committed, 1)
	assert.Equal(t, []RowID{"2", "1_split_1", "1_split_2"}, ids(listener.committed[0]))

	require.NoError(t, table.SetFilters(nil))
	live := table.Live()
	assert.Equal(t, []RowID{"1_split_1", "1_split_2", "2"}, ids(live))
	assert.Empty(t, table.Parked())
	total := 0
	for _, row := range live {
		total += row.Quantity
	}
	assert.Equal(t, 4, total)
}

func TestTableStatusByRootAfterSplitsCommitted(t *testing.T) {
	first := line("1_split_1", 1, "A")
	first.Split = &SplitOrigin{Tag: SplitFirst, OriginalID: "1", SourceID: "1"}
	second := line("1_split_2", 2, "A")
	second.Split = &SplitOrigin{Tag: SplitSecond, OriginalID: "1", SourceID: "1"}
	table, listener := newTable(t, first, second, line("2", 1, "B"))

	require.NoError(t, table.SetStatus("1", enums.RowStatusCompleted))
	live := table.Live()
	assert.Equal(t, enums.RowStatusCompleted, statusOf(live, "1_split_1"))
	assert.Equal(t, enums.RowStatusCompleted, statusOf(live, "1_split_2"))
	assert.Equal(t, enums.RowStatusNotStarted, statusOf(live, "2"))
	assert.Equal(t, enums.RowStatusCompleted, listener.statuses["1"])

	require.NoError(t, table.AddNote("1", "boxed"))
	assert.Equal(t, []string{"boxed"}, table.Notes("1"))
}

func TestTableRefreshAdoptsCommittedSplits(t *testing.T) {
	table, _ := newTable(t, line("1", 4, "A"), line("2", 1, "B"))
	require.NoError(t, table.Split("1", 1))

	first := line("1_split_1", 1, "A")
	first.Split = &SplitOrigin{Tag: SplitFirst, OriginalID: "1", SourceID: "1"}
	second := line("1_split_2", 3, "A")
	second.Split = &SplitOrigin{Tag: SplitSecond, OriginalID: "1", SourceID: "1"}

	table.Refresh([]Row{first, second, line("2", 1, "B")})
	assert.Equal(t, []RowID{"1_split_1", "1_split_2", "2"}, ids(table.Live()))
	assert.False(t, table.SplitsActive())
}

func TestTableNotes(t *testing.T) {
	table, listener := newTable(t, line("1", 4, "A"))

	require.NoError(t, table.AddNote("1", "  check seal  "))
	require.NoError(t, table.AddNote("1", "relabel"))
	assert.Equal(t, []string{"check seal", "relabel"}, table.Notes("1"))
	assert.Equal(t, []string{"check seal", "relabel"}, listener.notes["1"])

	assert.ErrorIs(t, table.AddNote("1", "   "), ErrEmptyNote)
	assert.ErrorIs(t, table.AddNote("404", "hi"), ErrRowNotFound)
	assert.Empty(t, table.Notes("404"))
}

func TestTableSetFiltersRejectsUnknownColumn(t *testing.T) {
	table, _ := newTable(t, line("1", 4, "A"), line("2", 12, "B"))

	err := table.SetFilters(Filters{Column("colour"): {Values: []string{"red"}}})
	require.Error(t, err)
	assert.Len(t, table.Live(), 2)

	require.NoError(t, table.SetFilters(Filters{ColumnQuantity: {Condition: enums.FilterConditionGreaterOrEqual, Value: "10"}}))
	assert.Equal(t, []RowID{"2"}, ids(table.Live()))
	assert.Equal(t, enums.FilterConditionGreaterOrEqual, table.Query().Filters[ColumnQuantity].Condition)
}

func TestCountMoved(t *testing.T) {
	baseline := []Row{line("a", 2, "S"), line("b", 2, "S"), line("c", 2, "S")}
	assert.Equal(t, 0, CountMoved(baseline, baseline))
	assert.Equal(t, 2, CountMoved(baseline, []Row{baseline[1], baseline[0], baseline[2]}))
	assert.Equal(t, 1, CountMoved(baseline, baseline[:2]))
}
