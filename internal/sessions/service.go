package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	"github.com/angelmondragon/shiplist-backend/internal/shipments"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
	"github.com/angelmondragon/shiplist-backend/pkg/metrics"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
)

type shipmentsService interface {
	ListRows(ctx context.Context) ([]manufacturing.Row, error)
	CommitOrder(ctx context.Context, actor outbox.ActorRef, rows []manufacturing.Row) (*shipments.CommitResult, error)
	UpdateStatus(ctx context.Context, actor outbox.ActorRef, rowID string, status enums.RowStatus) (*shipments.StatusResult, error)
	AddNote(ctx context.Context, actor outbox.ActorRef, rowID, body string) (*shipments.NoteDTO, error)
}

// Service applies table transitions on behalf of an editor.
type Service interface {
	View(ctx context.Context, editor Editor) (*manufacturing.View, error)
	SetQuery(ctx context.Context, editor Editor, query manufacturing.Query) (*manufacturing.View, error)
	EnterSort(ctx context.Context, editor Editor) (*manufacturing.View, error)
	Gesture(ctx context.Context, editor Editor, g Gesture) (*manufacturing.View, error)
	Move(ctx context.Context, editor Editor, from, to int) (*manufacturing.View, error)
	Select(ctx context.Context, editor Editor, rowID string, modified bool) (*manufacturing.View, error)
	RequestSave(ctx context.Context, editor Editor) (*manufacturing.View, error)
	DismissSave(ctx context.Context, editor Editor) (*manufacturing.View, error)
	ConfirmSave(ctx context.Context, editor Editor) (*manufacturing.View, error)
	Cancel(ctx context.Context, editor Editor) (*manufacturing.View, error)
	Split(ctx context.Context, editor Editor, rowID string, firstQty int) (*manufacturing.View, error)
	OpenStatusMenu(ctx context.Context, editor Editor, rowID string) (*manufacturing.View, error)
	CloseStatusMenu(ctx context.Context, editor Editor) (*manufacturing.View, error)
	SetStatus(ctx context.Context, editor Editor, rowID string, status enums.RowStatus) (*manufacturing.View, error)
	AddNote(ctx context.Context, editor Editor, rowID, text string) (*manufacturing.View, error)
	Reset(ctx context.Context, editor Editor) error
}

// Options tunes the tables built by the service. A nil Locker serializes
// transitions in process only.
type Options struct {
	TouchThreshold float64
	Locker         Locker
}

type service struct {
	store     Store
	shipments shipmentsService
	logg      *logger.Logger
	metrics   *metrics.SessionMetrics
	locker    Locker
	threshold float64
}

// NewService builds a session service with the required dependencies.
func NewService(store Store, shipments shipmentsService, logg *logger.Logger, m *metrics.SessionMetrics, opts Options) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if shipments == nil {
		return nil, fmt.Errorf("shipments service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	locker := opts.Locker
	if locker == nil {
		locker = NewLocalLocker(0)
	}
	return &service{
		store:     store,
		shipments: shipments,
		logg:      logg,
		metrics:   m,
		locker:    locker,
		threshold: opts.TouchThreshold,
	}, nil
}

func (s *service) View(ctx context.Context, editor Editor) (*manufacturing.View, error) {
	return s.apply(ctx, editor, "view", func(*manufacturing.Table) error { return nil })
}

func (s *service) SetQuery(ctx context.Context, editor Editor, query manufacturing.Query) (*manufacturing.View, error) {
	if err := query.Filters.Validate(); err != nil {
		return nil, filterError(err)
	}
	return s.apply(ctx, editor, "set_query", func(t *manufacturing.Table) error {
		return t.SetQuery(query)
	})
}

func (s *service) EnterSort(ctx context.Context, editor Editor) (*manufacturing.View, error) {
	return s.apply(ctx, editor, "enter_sort", func(t *manufacturing.Table) error {
		return t.EnterSort()
	})
}

func (s *service) Gesture(ctx context.Context, editor Editor, g Gesture) (*manufacturing.View, error) {
	if !g.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid gesture %q", g.Kind))
	}
	return s.apply(ctx, editor, string(g.Kind), func(t *manufacturing.Table) error {
		switch g.Kind {
		case GestureDragStart:
			return t.DragStart(g.Index)
		case GestureDragOver:
			return t.DragOver(g.Index)
		case GestureDrop:
			return t.Drop(g.Index)
		case GestureDragEnd:
			t.DragEnd()
			return nil
		case GestureTouchStart:
			return t.TouchStart(g.Index, g.X, g.Y)
		case GestureTouchMove:
			over := -1
			if g.Over != nil {
				over = *g.Over
			}
			return t.TouchMove(g.X, g.Y, over)
		default:
			return t.TouchEnd()
		}
	})
}

func (s *service) Move(ctx context.Context, editor Editor, from, to int) (*manufacturing.View, error) {
	return s.apply(ctx, editor, "move", func(t *manufacturing.Table) error {
		return t.Move(from, to)
	})
}

func (s *service) Select(ctx context.Context, editor Editor, rowID string, modified bool) (*manufacturing.View, error) {
	return s.apply(ctx, editor, "select", func(t *manufacturing.Table) error {
		return t.Click(manufacturing.RowID(rowID), modified)
	})
}

func (s *service) RequestSave(ctx context.Context, editor Editor) (*manufacturing.View, error) {
	return s.apply(ctx, editor, "request_save", func(t *manufacturing.Table) error {
		return t.RequestSave()
	})
}

func (s *service) DismissSave(ctx context.Context, editor Editor) (*manufacturing.View, error) {
	return s.apply(ctx, editor, "dismiss_save", func(t *manufacturing.Table) error {
		return t.DismissSave()
	})
}

func (s *service) ConfirmSave(ctx context.Context, editor Editor) (*manufacturing.View, error) {
	pending := 0
	view, err := s.apply(ctx, editor, "confirm_save", func(t *manufacturing.Table) error {
		pending = t.PendingChanges()
		return t.ConfirmSave()
	})
	if err == nil {
		s.metrics.ObserveCommit(pending)
	}
	return view, err
}

func (s *service) Cancel(ctx context.Context, editor Editor) (*manufacturing.View, error) {
	return s.apply(ctx, editor, "cancel", func(t *manufacturing.Table) error {
		return t.Cancel()
	})
}

// Split is recoverable when the row disappeared under the editor: the miss is
// logged and the unchanged view is returned.
func (s *service) Split(ctx context.Context, editor Editor, rowID string, firstQty int) (*manufacturing.View, error) {
	split := false
	view, err := s.apply(ctx, editor, "split", func(t *manufacturing.Table) error {
		err := t.Split(manufacturing.RowID(rowID), firstQty)
		if errors.Is(err, manufacturing.ErrRowNotFound) {
			s.logg.Warn(s.logg.WithField(ctx, "row_id", rowID), "split target not in live sequence")
			return nil
		}
		split = err == nil
		return err
	})
	if split && err == nil {
		s.metrics.IncSplit()
	}
	return view, err
}

func (s *service) OpenStatusMenu(ctx context.Context, editor Editor, rowID string) (*manufacturing.View, error) {
	return s.apply(ctx, editor, "open_status_menu", func(t *manufacturing.Table) error {
		return t.OpenStatusMenu(manufacturing.RowID(rowID))
	})
}

func (s *service) CloseStatusMenu(ctx context.Context, editor Editor) (*manufacturing.View, error) {
	return s.apply(ctx, editor, "close_status_menu", func(t *manufacturing.Table) error {
		t.CloseStatusMenu()
		return nil
	})
}

func (s *service) SetStatus(ctx context.Context, editor Editor, rowID string, status enums.RowStatus) (*manufacturing.View, error) {
	return s.apply(ctx, editor, "set_status", func(t *manufacturing.Table) error {
		return t.SetStatus(manufacturing.RowID(rowID), status)
	})
}

func (s *service) AddNote(ctx context.Context, editor Editor, rowID, text string) (*manufacturing.View, error) {
	return s.apply(ctx, editor, "add_note", func(t *manufacturing.Table) error {
		return t.AddNote(manufacturing.RowID(rowID), text)
	})
}

func (s *service) Reset(ctx context.Context, editor Editor) error {
	if editor.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "editor identity missing")
	}
	unlock, err := s.lock(ctx, editor)
	if err != nil {
		return err
	}
	defer unlock()
	if err := s.store.Delete(ctx, editor.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete table session")
	}
	return nil
}

// apply loads the editor's table, refreshes its source, runs one transition,
// forwards the notifications it produced and stores the result. Nothing is
// stored when the transition or a forwarded notification fails. The editor's
// lock is held from load to save.
func (s *service) apply(ctx context.Context, editor Editor, op string, fn func(*manufacturing.Table) error) (view *manufacturing.View, err error) {
	if editor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "editor identity missing")
	}
	started := time.Now()
	ctx = s.logg.WithSession(s.logg.WithEditorID(ctx, editor.ID.String()), editor.ID.String())
	ctx = s.logg.WithField(ctx, "op", op)
	defer func() {
		s.metrics.ObserveTransition(op, resultFor(err), time.Since(started))
	}()

	unlock, err := s.lock(ctx, editor)
	if err != nil {
		return nil, err
	}
	defer unlock()

	events := &buffer{}
	table, err := s.load(ctx, editor, events)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, table); err != nil {
		return nil, err
	}

	if err := fn(table); err != nil {
		mapped := mapError(err)
		if pkgerrors.HasCode(mapped, pkgerrors.CodeInternal) {
			s.logg.Error(ctx, "table transition failed", err)
		}
		return nil, mapped
	}

	if err := s.dispatch(ctx, editor, table, events.events); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, editor.ID, table.Snapshot()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save table session")
	}
	v := table.View()
	return &v, nil
}

func (s *service) lock(ctx context.Context, editor Editor) (func(), error) {
	release, err := s.locker.Lock(ctx, editor.ID)
	switch {
	case errors.Is(err, ErrSessionBusy):
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "table session is busy, retry")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock table session")
	}
	return func() {
		if err := release(ctx); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "table session lock not released")
		}
	}, nil
}

func (s *service) load(ctx context.Context, editor Editor, listener manufacturing.Listener) (*manufacturing.Table, error) {
	opts := manufacturing.Options{Listener: listener, TouchThreshold: s.threshold}
	snap, err := s.store.Load(ctx, editor.ID)
	if err != nil {
		if errors.Is(err, manufacturing.ErrInvalidSnapshot) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "discarding unreadable table session")
			return manufacturing.New(opts), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table session")
	}
	if snap == nil {
		return manufacturing.New(opts), nil
	}
	table, err := manufacturing.Restore(*snap, opts)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "discarding invalid table session")
		return manufacturing.New(opts), nil
	}
	return table, nil
}

func (s *service) refresh(ctx context.Context, table *manufacturing.Table) error {
	rows, err := s.shipments.ListRows(ctx)
	if err != nil {
		return err
	}
	table.Refresh(rows)
	return nil
}

func (s *service) dispatch(ctx context.Context, editor Editor, table *manufacturing.Table, events []tableEvent) error {
	actor := editor.actor()
	for _, e := range events {
		switch e.kind {
		case eventOrderCommitted:
			result, err := s.shipments.CommitOrder(ctx, actor, e.rows)
			if err != nil {
				return err
			}
			if err := s.refresh(ctx, table); err != nil {
				return err
			}
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"rows":         result.Rows,
				"splits_saved": result.SplitsSaved,
			}), "row order committed")
		case eventStatusChanged:
			if _, err := s.shipments.UpdateStatus(ctx, actor, string(e.rowID), e.status); err != nil {
				return err
			}
		case eventNoteAdded:
			if _, err := s.shipments.AddNote(ctx, actor, string(e.rowID), e.text); err != nil {
				return err
			}
		case eventSortExited:
			s.logg.Debug(ctx, "sort mode exited")
		}
	}
	return nil
}

func resultFor(err error) string {
	if err == nil {
		return metrics.ResultOK
	}
	typed := pkgerrors.As(err)
	if typed != nil && typed.Code() != pkgerrors.CodeInternal && typed.Code() != pkgerrors.CodeDependency {
		return metrics.ResultRejected
	}
	return metrics.ResultError
}
