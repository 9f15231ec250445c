package manufacturing

import "fmt"

const snapshotVersion = 1

// Snapshot is the serializable state of a Table.
type Snapshot struct {
	Version       int                `json:"version"`
	Mode          Mode               `json:"mode"`
	Query         Query              `json:"query"`
	Source        []Row              `json:"source"`
	Live          []Row              `json:"live"`
	Baseline      []Row              `json:"baseline,omitempty"`
	Parked        []Row              `json:"parked,omitempty"`
	Overrides     []StatusOverride   `json:"overrides,omitempty"`
	Notes         map[RowID][]string `json:"notes,omitempty"`
	LastMoved     int                `json:"last_moved"`
	Selected      RowID              `json:"selected,omitempty"`
	MultiSelected []RowID            `json:"multi_selected,omitempty"`
	Drag          DragState          `json:"drag"`
	Touch         TouchState         `json:"touch"`
	SaveRequested bool               `json:"save_requested,omitempty"`
	StatusMenu    RowID              `json:"status_menu,omitempty"`
}

// Snapshot captures the table state.
func (t *Table) Snapshot() Snapshot {
	notes := make(map[RowID][]string, len(t.notes))
	for id, list := range t.notes {
		notes[id] = append([]string{}, list...)
	}
	return Snapshot{
		Version:       snapshotVersion,
		Mode:          t.mode,
		Query:         t.query.clone(),
		Source:        cloneRows(t.source),
		Live:          cloneRows(t.live),
		Baseline:      cloneRows(t.baseline),
		Parked:        cloneRows(t.parked),
		Overrides:     append([]StatusOverride(nil), t.overrides...),
		Notes:         notes,
		LastMoved:     t.lastMoved,
		Selected:      t.selected,
		MultiSelected: append([]RowID(nil), t.multiSelected...),
		Drag:          t.drag,
		Touch:         t.touch,
		SaveRequested: t.saveRequested,
		StatusMenu:    t.statusMenu,
	}
}

// Restore rebuilds a Table from a snapshot.
func Restore(s Snapshot, opts Options) (*Table, error) {
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidSnapshot, s.Version)
	}
	if !s.Mode.IsValid() {
		return nil, fmt.Errorf("%w: mode %q", ErrInvalidSnapshot, s.Mode)
	}
	if err := s.Query.Filters.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	t := &Table{
		mode:          s.Mode,
		query:         s.Query.clone(),
		source:        cloneRows(s.Source),
		live:          cloneRows(s.Live),
		baseline:      cloneRows(s.Baseline),
		parked:        cloneRows(s.Parked),
		overrides:     append([]StatusOverride(nil), s.Overrides...),
		notes:         map[RowID][]string{},
		lastMoved:     s.LastMoved,
		selected:      s.Selected,
		multiSelected: append([]RowID(nil), s.MultiSelected...),
		drag:          s.Drag,
		touch:         s.Touch,
		saveRequested: s.SaveRequested,
		statusMenu:    s.StatusMenu,
	}
	for id, list := range s.Notes {
		t.notes[id] = append([]string{}, list...)
	}
	t.configure(opts)
	t.visible = Derive(t.source, t.query)
	return t, nil
}
