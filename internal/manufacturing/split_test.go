package manufacturing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanSplit(t *testing.T) {
	row := line("7", 10, "S-1")

	halves, err := PlanSplit(row, 4)
	require.NoError(t, err)

	first, second := halves[0], halves[1]
	assert.Equal(t, RowID("7_split_1"), first.ID)
	assert.Equal(t, RowID("7_split_2"), second.ID)
	assert.Equal(t, 4, first.Quantity)
	assert.Equal(t, 6, second.Quantity)
	assert.Equal(t, SplitFirst, first.Split.Tag)
	assert.Equal(t, SplitSecond, second.Split.Tag)
	for _, half := range halves {
		assert.Equal(t, RowID("7"), half.Split.OriginalID)
		assert.Equal(t, RowID("7"), half.Split.SourceID)
		assert.True(t, half.IsPendingSplit())
		assert.Equal(t, row.Formula, half.Formula)
		assert.Equal(t, row.ShipmentNumber, half.ShipmentNumber)
	}
	assert.Nil(t, row.Split, "input row is not mutated")
}

func TestPlanSplitRejectsOutOfRange(t *testing.T) {
	row := line("7", 10, "S-1")
	for _, qty := range []int{0, -1, 10, 11} {
		_, err := PlanSplit(row, qty)
		assert.ErrorIs(t, err, ErrInvalidSplitQuantity, "first qty %d", qty)
	}

	_, err := PlanSplit(line("8", 1, "S-1"), 1)
	assert.ErrorIs(t, err, ErrInvalidSplitQuantity)
}

func TestPlanSplitOfPendingSplit(t *testing.T) {
	halves, err := PlanSplit(line("7", 10, "S-1"), 4)
	require.NoError(t, err)

	nested, err := PlanSplit(halves[1], 2)
	require.NoError(t, err)

	assert.Equal(t, RowID("7_split_2_split_1"), nested[0].ID)
	assert.Equal(t, RowID("7_split_2_split_2"), nested[1].ID)
	assert.Equal(t, 2, nested[0].Quantity)
	assert.Equal(t, 4, nested[1].Quantity)
	for _, half := range nested {
		assert.Equal(t, RowID("7"), half.Split.OriginalID)
		assert.Equal(t, RowID("7"), half.Split.SourceID)
	}
}

func TestPlanSplitOfCommittedSplit(t *testing.T) {
	stored := line("7_split_2", 6, "S-1")
	stored.Split = &SplitOrigin{Tag: SplitSecond, OriginalID: "7", SourceID: "7"}

	halves, err := PlanSplit(stored, 1)
	require.NoError(t, err)
	for _, half := range halves {
		assert.Equal(t, RowID("7"), half.Split.OriginalID)
		assert.Equal(t, RowID("7_split_2"), half.Split.SourceID)
		assert.True(t, half.Split.Pending)
	}
}

func TestPlanSplitConservesQuantity(t *testing.T) {
	for qty := 2; qty <= 25; qty++ {
		for first := 1; first < qty; first++ {
			halves, err := PlanSplit(line("r", qty, "S-1"), first)
			require.NoError(t, err)
			assert.Equal(t, qty, halves[0].Quantity+halves[1].Quantity)
			assert.Positive(t, halves[0].Quantity)
			assert.Positive(t, halves[1].Quantity)
		}
	}
}

func TestClampSplitQuantity(t *testing.T) {
	cases := []struct {
		name      string
		quantity  int
		requested int
		want      int
		ok        bool
	}{
		{name: "in range", quantity: 10, requested: 3, want: 3, ok: true},
		{name: "below", quantity: 10, requested: 0, want: 1},
		{name: "above", quantity: 10, requested: 10, want: 9},
		{name: "unsplittable", quantity: 1, requested: 1, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ClampSplitQuantity(tc.quantity, tc.requested)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.ok, ok)
		})
	}
}
