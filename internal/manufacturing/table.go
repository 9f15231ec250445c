package manufacturing

import (
	"strings"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

// Mode is the editing state of a Table.
type Mode string

const (
	ModeViewing Mode = "viewing"
	ModeSorting Mode = "sorting"
)

// IsValid reports whether the value is a known Mode.
func (m Mode) IsValid() bool {
	return m == ModeViewing || m == ModeSorting
}

// DefaultTouchThreshold is the distance in pixels a touch has to travel
// before it turns into a drag.
const DefaultTouchThreshold = 10.0

// Options configures a Table.
type Options struct {
	Listener       Listener
	TouchThreshold float64
}

// StatusOverride is a status edit that survives re-derivation from the
// source. Key is the row the edit was addressed to and Parent the source row
// a pending split replaced, if any.
type StatusOverride struct {
	Key    RowID           `json:"key"`
	Parent RowID           `json:"parent,omitempty"`
	Status enums.RowStatus `json:"status"`
}

func (o StatusOverride) matches(row Row) bool {
	if row.ID == o.Key {
		return true
	}
	if o.Parent != "" && row.ID == o.Parent {
		return true
	}
	if row.Split != nil && (row.Split.OriginalID == o.Key || row.Split.SourceID == o.Key) {
		return true
	}
	return false
}

// DragState tracks a pointer or touch drag.
type DragState struct {
	From   int  `json:"from"`
	Over   int  `json:"over"`
	Active bool `json:"active"`
}

// TouchState tracks a touch that has not yet been recognized as a drag.
type TouchState struct {
	Index  int     `json:"index"`
	StartX float64 `json:"start_x"`
	StartY float64 `json:"start_y"`
	Active bool    `json:"active"`
}

var idleDrag = DragState{From: -1, Over: -1}

// Table is the sortable, filterable and splittable row list of one editor.
// It is not safe for concurrent use.
type Table struct {
	listener  Listener
	threshold float64

	source   []Row
	visible  []Row
	live     []Row
	baseline []Row
	parked   []Row
	query    Query
	mode     Mode

	overrides []StatusOverride
	notes     map[RowID][]string

	lastMoved     int
	selected      RowID
	multiSelected []RowID
	drag          DragState
	touch         TouchState
	saveRequested bool
	statusMenu    RowID
}

// New returns an empty Table in viewing mode.
func New(opts Options) *Table {
	t := &Table{
		mode:  ModeViewing,
		notes: map[RowID][]string{},
	}
	t.configure(opts)
	t.resetTransient()
	return t
}

func (t *Table) configure(opts Options) {
	t.listener = opts.Listener
	if t.listener == nil {
		t.listener = NopListener{}
	}
	t.threshold = opts.TouchThreshold
	if t.threshold <= 0 {
		t.threshold = DefaultTouchThreshold
	}
}

// Mode returns the current editing state.
func (t *Table) Mode() Mode { return t.mode }

// Query returns a copy of the active query.
func (t *Table) Query() Query { return t.query.clone() }

// Live returns a copy of the live sequence.
func (t *Table) Live() []Row { return cloneRows(t.live) }

// Baseline returns a copy of the sort session baseline.
func (t *Table) Baseline() []Row { return cloneRows(t.baseline) }

// Visible returns a copy of the last derived sequence.
func (t *Table) Visible() []Row { return cloneRows(t.visible) }

// SplitsActive reports whether the table holds uncommitted splits, shown or
// parked by the current query.
func (t *Table) SplitsActive() bool { return hasPendingSplits(t.live) || len(t.parked) > 0 }

// Parked returns a copy of the pending split rows hidden by the query.
func (t *Table) Parked() []Row { return cloneRows(t.parked) }

// Refresh replaces the source rows and re-derives the live sequence.
func (t *Table) Refresh(source []Row) {
	t.source = cloneRows(source)
	t.markCommitted()
	t.rederive()
	t.pruneOverrides()
}

// SetSearch replaces the free-text search.
func (t *Table) SetSearch(search string) {
	t.query.Search = search
	t.rederive()
}

// SetShipmentScope narrows the list to one shipment; "" clears the scope.
func (t *Table) SetShipmentScope(shipment string) {
	t.query.Shipment = strings.TrimSpace(shipment)
	t.rederive()
}

// SetFilters replaces the column filters.
func (t *Table) SetFilters(filters Filters) error {
	if err := filters.Validate(); err != nil {
		return err
	}
	t.query.Filters = filters.clone()
	t.rederive()
	return nil
}

// SetQuery replaces search, shipment scope and filters at once.
func (t *Table) SetQuery(query Query) error {
	if err := query.Filters.Validate(); err != nil {
		return err
	}
	t.query = query.clone()
	t.query.Shipment = strings.TrimSpace(t.query.Shipment)
	t.rederive()
	return nil
}

// rederive recomputes the visible sequence. Outside sort mode the live
// sequence follows it, reconciled against pending splits; in sort mode live
// and baseline stay frozen until the session exits.
func (t *Table) rederive() {
	t.visible = Derive(t.source, t.query)
	if t.mode == ModeSorting {
		return
	}
	merged := t.applyOverrides(cloneRows(t.visible))
	if t.SplitsActive() {
		t.live, t.parked = Reconcile(t.live, t.parked, merged, t.query)
		return
	}
	t.live = merged
}

// markCommitted clears the pending flag of splits the source now contains.
func (t *Table) markCommitted() {
	ids := make(map[RowID]struct{}, len(t.source))
	for _, row := range t.source {
		ids[row.ID] = struct{}{}
	}
	for _, rows := range [][]Row{t.live, t.baseline} {
		for i := range rows {
			if rows[i].IsPendingSplit() {
				if _, ok := ids[rows[i].ID]; ok {
					rows[i].Split.Pending = false
				}
			}
		}
	}
	kept := t.parked[:0]
	for _, row := range t.parked {
		if _, ok := ids[row.ID]; !ok {
			kept = append(kept, row)
		}
	}
	t.parked = kept
	if len(t.parked) == 0 {
		t.parked = nil
	}
}

func (t *Table) applyOverrides(rows []Row) []Row {
	if len(t.overrides) == 0 {
		return rows
	}
	for i := range rows {
		for _, o := range t.overrides {
			if o.matches(rows[i]) {
				rows[i].Status = o.Status
			}
		}
	}
	return rows
}

// pruneOverrides drops status edits for rows that no longer exist anywhere.
func (t *Table) pruneOverrides() {
	if len(t.overrides) == 0 {
		return
	}
	kept := t.overrides[:0]
	for _, o := range t.overrides {
		if anyMatch(o, t.source) || anyMatch(o, t.live) || anyMatch(o, t.baseline) || anyMatch(o, t.parked) {
			kept = append(kept, o)
		}
	}
	t.overrides = kept
}

func anyMatch(o StatusOverride, rows []Row) bool {
	for _, row := range rows {
		if o.matches(row) {
			return true
		}
	}
	return false
}

// EnterSort captures the live sequence as the session baseline.
func (t *Table) EnterSort() error {
	if t.mode == ModeSorting {
		return ErrAlreadySorting
	}
	t.baseline = cloneRows(t.live)
	t.mode = ModeSorting
	t.resetTransient()
	return nil
}

// Move splices the row at from into position to.
func (t *Table) Move(from, to int) error {
	if err := t.requireSorting(); err != nil {
		return err
	}
	return t.move(from, to)
}

func (t *Table) move(from, to int) error {
	if !t.inRange(from) || !t.inRange(to) {
		return ErrIndexOutOfRange
	}
	if from != to {
		row := t.live[from]
		rest := append(t.live[:from:from], t.live[from+1:]...)
		moved := make([]Row, 0, len(t.live))
		moved = append(moved, rest[:to]...)
		moved = append(moved, row)
		moved = append(moved, rest[to:]...)
		t.live = moved
	}
	t.lastMoved = to
	return nil
}

// PendingChanges counts baseline rows whose position differs in the live
// sequence. It is zero outside sort mode.
func (t *Table) PendingChanges() int {
	if t.mode != ModeSorting {
		return 0
	}
	return CountMoved(t.baseline, t.live)
}

// CountMoved counts rows of baseline whose index in live differs, including
// rows missing from live.
func CountMoved(baseline, live []Row) int {
	pos := make(map[RowID]int, len(live))
	for i, row := range live {
		pos[row.ID] = i
	}
	n := 0
	for i, row := range baseline {
		j, ok := pos[row.ID]
		if !ok || j != i {
			n++
		}
	}
	return n
}

// RequestSave opens the save confirmation.
func (t *Table) RequestSave() error {
	if err := t.requireSorting(); err != nil {
		return err
	}
	t.saveRequested = true
	return nil
}

// DismissSave closes the save confirmation without saving.
func (t *Table) DismissSave() error {
	if err := t.requireSorting(); err != nil {
		return err
	}
	t.saveRequested = false
	return nil
}

// ConfirmSave commits the live order as the new baseline, reports it to the
// listener and leaves sort mode. Parked split rows follow the live order in
// the report so every split group is committed whole.
func (t *Table) ConfirmSave() error {
	if err := t.requireSorting(); err != nil {
		return err
	}
	if !t.saveRequested {
		return ErrSaveNotRequested
	}
	t.baseline = cloneRows(t.live)
	t.mode = ModeViewing
	t.resetTransient()
	committed := cloneRows(t.live)
	committed = append(committed, cloneRows(t.parked)...)
	t.listener.OrderCommitted(committed)
	t.listener.SortExited()
	return nil
}

// Cancel restores the baseline and leaves sort mode.
func (t *Table) Cancel() error {
	if err := t.requireSorting(); err != nil {
		return err
	}
	t.live = cloneRows(t.baseline)
	t.mode = ModeViewing
	t.resetTransient()
	t.listener.SortExited()
	return nil
}

// Split replaces a live row with two rows that partition its quantity.
// A missing row leaves the table untouched.
func (t *Table) Split(rowID RowID, firstQty int) error {
	i := indexOf(t.live, rowID)
	if i < 0 {
		return ErrRowNotFound
	}
	halves, err := PlanSplit(t.live[i], firstQty)
	if err != nil {
		return err
	}
	for _, half := range halves {
		if indexOf(t.live, half.ID) >= 0 || indexOf(t.parked, half.ID) >= 0 {
			return ErrDuplicateRowID
		}
	}
	next := make([]Row, 0, len(t.live)+1)
	next = append(next, t.live[:i]...)
	next = append(next, halves[0], halves[1])
	next = append(next, t.live[i+1:]...)
	t.live = next
	return nil
}

// OpenStatusMenu marks the status selector of a row as open.
func (t *Table) OpenStatusMenu(rowID RowID) error {
	if indexOf(t.live, rowID) < 0 {
		return ErrRowNotFound
	}
	t.statusMenu = rowID
	return nil
}

// CloseStatusMenu closes any open status selector.
func (t *Table) CloseStatusMenu() {
	t.statusMenu = ""
}

// SetStatus updates the status of a row, its split descendants and, for a
// pending split, the row it replaced, in both live and baseline.
func (t *Table) SetStatus(rowID RowID, status enums.RowStatus) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	target, ok := t.findRow(rowID)
	if !ok {
		return ErrRowNotFound
	}
	override := StatusOverride{Key: rowID, Status: status}
	if target.ID == rowID && target.IsPendingSplit() {
		override.Parent = target.Split.SourceID
	}

	for _, rows := range [][]Row{t.live, t.baseline, t.parked} {
		for i := range rows {
			if override.matches(rows[i]) {
				rows[i].Status = status
			}
		}
	}

	kept := t.overrides[:0]
	for _, o := range t.overrides {
		if o.Key != rowID {
			kept = append(kept, o)
		}
	}
	t.overrides = append(kept, override)

	if t.statusMenu == rowID {
		t.statusMenu = ""
	}
	t.listener.StatusChanged(rowID, status)
	return nil
}

// AddNote records a note for a row and forwards it to the listener.
func (t *Table) AddNote(rowID RowID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyNote
	}
	if _, ok := t.findRow(rowID); !ok {
		return ErrRowNotFound
	}
	t.notes[rowID] = append(t.notes[rowID], text)
	t.listener.NoteAdded(rowID, text)
	return nil
}

// Notes returns the notes recorded for a row in this table.
func (t *Table) Notes(rowID RowID) []string {
	return append([]string{}, t.notes[rowID]...)
}

// findRow looks a row up by id, then by the root or source id of split
// descendants.
func (t *Table) findRow(rowID RowID) (Row, bool) {
	for _, rows := range [][]Row{t.live, t.baseline, t.source, t.parked} {
		if i := indexOf(rows, rowID); i >= 0 {
			return rows[i], true
		}
	}
	for _, rows := range [][]Row{t.live, t.baseline, t.source, t.parked} {
		for _, row := range rows {
			if row.Split != nil && (row.Split.OriginalID == rowID || row.Split.SourceID == rowID) {
				return row, true
			}
		}
	}
	return Row{}, false
}

func (t *Table) requireSorting() error {
	if t.mode != ModeSorting {
		return ErrNotSorting
	}
	return nil
}

func (t *Table) inRange(i int) bool {
	return i >= 0 && i < len(t.live)
}

func (t *Table) resetTransient() {
	t.lastMoved = -1
	t.selected = ""
	t.multiSelected = nil
	t.drag = idleDrag
	t.touch = TouchState{Index: -1}
	t.saveRequested = false
}

// View is a read-only projection of a Table for rendering.
type View struct {
	Mode           Mode      `json:"mode"`
	Rows           []Row     `json:"rows"`
	Query          Query     `json:"query"`
	PendingChanges int       `json:"pending_changes"`
	LastMoved      *int      `json:"last_moved,omitempty"`
	Selected       RowID     `json:"selected,omitempty"`
	MultiSelected  []RowID   `json:"multi_selected,omitempty"`
	Drag           DragState `json:"drag"`
	SaveRequested  bool      `json:"save_requested"`
	StatusMenu     RowID     `json:"status_menu,omitempty"`
	SplitsActive   bool      `json:"splits_active"`
	SourceCount    int       `json:"source_count"`
}

// View returns the current rendering state.
func (t *Table) View() View {
	v := View{
		Mode:           t.mode,
		Rows:           cloneRows(t.live),
		Query:          t.query.clone(),
		PendingChanges: t.PendingChanges(),
		Selected:       t.selected,
		MultiSelected:  append([]RowID(nil), t.multiSelected...),
		Drag:           t.drag,
		SaveRequested:  t.saveRequested,
		StatusMenu:     t.statusMenu,
		SplitsActive:   t.SplitsActive(),
		SourceCount:    len(t.source),
	}
	if v.Rows == nil {
		v.Rows = []Row{}
	}
	if t.lastMoved >= 0 {
		lm := t.lastMoved
		v.LastMoved = &lm
	}
	return v
}
