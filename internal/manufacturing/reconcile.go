package manufacturing

import (
	"cmp"
	"slices"
)

type splitGroup struct {
	key     RowID
	members []Row
	parked  bool
}

// ordered returns the members in live order. A group that had members parked
// falls back to split order, which is the id order of the split tree.
func (g *splitGroup) ordered() []Row {
	out := cloneRows(g.members)
	if g.parked {
		slices.SortStableFunc(out, func(a, b Row) int { return cmp.Compare(a.ID, b.ID) })
	}
	return out
}

// Reconcile overlays the pending splits of live and parked onto a freshly
// derived visible sequence.
//
// Pending split rows are grouped by the source row they replace. A group whose
// source row is still visible takes that row's position with all of its
// members, including members parked by an earlier query. A group whose source
// row was filtered out keeps the members that pass query on their own,
// appended after the visible rows, and parks the rest. Parked rows are not
// shown but keep the group whole for when its source row comes back. A group
// with no passing member is dropped, and its source row shows unsplit again.
// Reconcile is a pure function of its inputs.
func Reconcile(live, parked, visible []Row, query Query) (rows, stillParked []Row) {
	visibleIDs := make(map[RowID]struct{}, len(visible))
	for _, row := range visible {
		visibleIDs[row.ID] = struct{}{}
	}
	groups := pendingGroups(live, parked, visibleIDs)
	if len(groups) == 0 {
		return cloneRows(visible), nil
	}

	byKey := make(map[RowID]*splitGroup, len(groups))
	for _, g := range groups {
		byKey[g.key] = g
	}

	rows = make([]Row, 0, len(visible)+len(live))
	placed := make(map[RowID]bool, len(groups))
	for _, row := range visible {
		if g, ok := byKey[row.ID]; ok {
			rows = append(rows, g.ordered()...)
			placed[g.key] = true
			continue
		}
		rows = append(rows, row.Clone())
	}

	for _, g := range groups {
		if placed[g.key] {
			continue
		}
		var shown, hidden []Row
		for _, member := range g.ordered() {
			if MatchesQuery(member, query) {
				shown = append(shown, member)
				continue
			}
			hidden = append(hidden, member)
		}
		if len(shown) == 0 {
			continue
		}
		rows = append(rows, shown...)
		stillParked = append(stillParked, hidden...)
	}
	return rows, stillParked
}

// pendingGroups skips members already present in visible; those were
// committed and the visible copy wins.
func pendingGroups(live, parked []Row, visibleIDs map[RowID]struct{}) []*splitGroup {
	var groups []*splitGroup
	index := map[RowID]*splitGroup{}
	seen := map[RowID]struct{}{}
	add := func(row Row, fromParked bool) {
		if !row.IsPendingSplit() {
			return
		}
		if _, ok := visibleIDs[row.ID]; ok {
			return
		}
		if _, dup := seen[row.ID]; dup {
			return
		}
		seen[row.ID] = struct{}{}
		key := row.Split.SourceID
		g, ok := index[key]
		if !ok {
			g = &splitGroup{key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.members = append(g.members, row)
		g.parked = g.parked || fromParked
	}
	for _, row := range live {
		add(row, false)
	}
	for _, row := range parked {
		add(row, true)
	}
	return groups
}
