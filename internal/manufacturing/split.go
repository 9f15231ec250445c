package manufacturing

import "fmt"

// SplitBounds returns the inclusive range of valid first batch quantities for
// a row of the given quantity. ok is false when the row cannot be split.
func SplitBounds(quantity int) (lo, hi int, ok bool) {
	if quantity < 2 {
		return 0, 0, false
	}
	return 1, quantity - 1, true
}

// ClampSplitQuantity pulls requested into the valid range for quantity.
func ClampSplitQuantity(quantity, requested int) (int, bool) {
	lo, hi, ok := SplitBounds(quantity)
	if !ok {
		return 0, false
	}
	switch {
	case requested < lo:
		return lo, false
	case requested > hi:
		return hi, false
	default:
		return requested, true
	}
}

// SplitID derives the id of one half of a split from its parent id.
func SplitID(parent RowID, tag SplitTag) RowID {
	n := 1
	if tag == SplitSecond {
		n = 2
	}
	return RowID(fmt.Sprintf("%s_split_%d", parent, n))
}

// PlanSplit partitions row into two pending split rows whose quantities sum
// to row.Quantity.
func PlanSplit(row Row, firstQty int) ([2]Row, error) {
	if _, ok := ClampSplitQuantity(row.Quantity, firstQty); !ok {
		return [2]Row{}, ErrInvalidSplitQuantity
	}

	originalID := row.ID
	sourceID := row.ID
	if row.Split != nil {
		originalID = row.Split.OriginalID
		if row.Split.Pending {
			sourceID = row.Split.SourceID
		}
	}

	first := row.Clone()
	first.ID = SplitID(row.ID, SplitFirst)
	first.Quantity = firstQty
	first.Split = &SplitOrigin{Tag: SplitFirst, OriginalID: originalID, SourceID: sourceID, Pending: true}

	second := row.Clone()
	second.ID = SplitID(row.ID, SplitSecond)
	second.Quantity = row.Quantity - firstQty
	second.Split = &SplitOrigin{Tag: SplitSecond, OriginalID: originalID, SourceID: sourceID, Pending: true}

	return [2]Row{first, second}, nil
}
