package shipments

import (
	"fmt"

	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox/payloads"
)

type commitPlan struct {
	positions map[string]int
	inserts   []models.ShipmentRow
	deletes   []string
	rows      []payloads.CommittedRow
}

// planCommit lays a committed order over the stored list.
//
// The committed rows are usually a filtered subset of the list. The stored
// rows they reference keep their slots relative to rows the editor could not
// see; the committed order is written into those slots and any rows added by
// splits follow the last slot. Pending splits replace their source row and
// must conserve its quantity.
func planCommit(stored []models.ShipmentRow, committed []manufacturing.Row) (commitPlan, error) {
	plan := commitPlan{positions: map[string]int{}}
	if len(committed) == 0 {
		return plan, nil
	}

	byID := make(map[string]models.ShipmentRow, len(stored))
	for _, row := range stored {
		byID[row.ID] = row
	}

	seen := make(map[manufacturing.RowID]struct{}, len(committed))
	slots := map[string]struct{}{}
	groups := map[string]int{}
	var sources []string
	for _, row := range committed {
		if _, dup := seen[row.ID]; dup {
			return plan, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("row %s appears twice in the committed order", row.ID))
		}
		seen[row.ID] = struct{}{}

		if _, ok := byID[string(row.ID)]; ok {
			slots[string(row.ID)] = struct{}{}
			continue
		}
		if !row.IsPendingSplit() {
			return plan, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("row %s no longer exists", row.ID)).
				WithDetails(map[string]any{"row_id": row.ID})
		}
		source := string(row.Split.SourceID)
		if _, ok := groups[source]; !ok {
			sources = append(sources, source)
		}
		groups[source] += row.Quantity
	}

	for _, source := range sources {
		src, ok := byID[source]
		if !ok {
			return plan, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("split source %s no longer exists", source)).
				WithDetails(map[string]any{"row_id": source})
		}
		if _, kept := slots[source]; kept {
			return plan, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("row %s is both kept and split", source))
		}
		if groups[source] != src.Quantity {
			return plan, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("split of %s does not conserve quantity", source)).
				WithDetails(map[string]any{"row_id": source, "stored": src.Quantity, "committed": groups[source]})
		}
		slots[source] = struct{}{}
		plan.deletes = append(plan.deletes, source)
	}

	type entry struct {
		stored    *models.ShipmentRow
		committed *manufacturing.Row
	}
	order := make([]entry, 0, len(stored)+len(committed))
	slotCount := len(slots)
	next := 0
	for i := range stored {
		if _, ok := slots[stored[i].ID]; !ok {
			order = append(order, entry{stored: &stored[i]})
			continue
		}
		if next < slotCount-1 {
			order = append(order, entry{committed: &committed[next]})
			next++
			continue
		}
		for ; next < len(committed); next++ {
			order = append(order, entry{committed: &committed[next]})
		}
	}

	for i, e := range order {
		position := i + 1
		if e.stored != nil {
			if e.stored.Position != position {
				plan.positions[e.stored.ID] = position
			}
			continue
		}
		row := *e.committed
		if _, ok := byID[string(row.ID)]; ok {
			if byID[string(row.ID)].Position != position {
				plan.positions[string(row.ID)] = position
			}
		} else {
			plan.inserts = append(plan.inserts, fromRow(row, position))
		}
		plan.rows = append(plan.rows, committedRow(row, position))
	}
	return plan, nil
}

func committedRow(row manufacturing.Row, position int) payloads.CommittedRow {
	out := payloads.CommittedRow{
		RowID:    string(row.ID),
		Position: position,
		Quantity: row.Quantity,
	}
	if row.Split != nil {
		out.SplitTag = string(row.Split.Tag)
		out.OriginalID = string(row.Split.OriginalID)
	}
	return out
}
