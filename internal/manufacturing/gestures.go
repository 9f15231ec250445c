package manufacturing

import "math"

// DragStart begins a pointer drag of the row at index.
func (t *Table) DragStart(index int) error {
	if err := t.requireSorting(); err != nil {
		return err
	}
	if !t.inRange(index) {
		return ErrIndexOutOfRange
	}
	t.drag = DragState{From: index, Over: -1, Active: true}
	return nil
}

// DragOver records the row the dragged row currently hovers.
func (t *Table) DragOver(index int) error {
	if !t.drag.Active {
		return ErrNoDrag
	}
	if !t.inRange(index) {
		return ErrIndexOutOfRange
	}
	t.drag.Over = index
	return nil
}

// Drop moves the dragged row to index in a single splice.
func (t *Table) Drop(index int) error {
	if err := t.requireSorting(); err != nil {
		return err
	}
	if !t.drag.Active {
		return ErrNoDrag
	}
	from := t.drag.From
	t.drag = idleDrag
	return t.move(from, index)
}

// DragEnd clears drag state whether or not a drop happened.
func (t *Table) DragEnd() {
	t.drag = idleDrag
}

// TouchStart records a touch on the row at index. It becomes a drag only
// after moving past the touch threshold.
func (t *Table) TouchStart(index int, x, y float64) error {
	if err := t.requireSorting(); err != nil {
		return err
	}
	if !t.inRange(index) {
		return ErrIndexOutOfRange
	}
	t.touch = TouchState{Index: index, StartX: x, StartY: y, Active: true}
	t.drag = idleDrag
	return nil
}

// TouchMove updates a touch. over is the row under the finger or -1.
func (t *Table) TouchMove(x, y float64, over int) error {
	if !t.touch.Active {
		return ErrNoDrag
	}
	if !t.drag.Active {
		if math.Hypot(x-t.touch.StartX, y-t.touch.StartY) < t.threshold {
			return nil
		}
		t.drag = DragState{From: t.touch.Index, Over: -1, Active: true}
	}
	if t.inRange(over) {
		t.drag.Over = over
	}
	return nil
}

// TouchEnd finishes a touch, moving the row if it was dragged onto another
// row. A tap leaves the order untouched.
func (t *Table) TouchEnd() error {
	drag := t.drag
	wasTouch := t.touch.Active
	t.touch = TouchState{Index: -1}
	t.drag = idleDrag
	if !wasTouch || !drag.Active || drag.Over < 0 {
		return nil
	}
	return t.move(drag.From, drag.Over)
}

// Click selects a row. A plain click replaces the selection and clears the
// multi-selection; a modified click toggles the row in the multi-selection.
func (t *Table) Click(rowID RowID, modified bool) error {
	if err := t.requireSorting(); err != nil {
		return err
	}
	if indexOf(t.live, rowID) < 0 {
		return ErrRowNotFound
	}
	if !modified {
		t.selected = rowID
		t.multiSelected = nil
		return nil
	}
	for i, id := range t.multiSelected {
		if id == rowID {
			t.multiSelected = append(t.multiSelected[:i:i], t.multiSelected[i+1:]...)
			return nil
		}
	}
	t.multiSelected = append(t.multiSelected, rowID)
	return nil
}
