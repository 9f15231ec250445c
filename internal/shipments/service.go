package shipments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	"github.com/angelmondragon/shiplist-backend/pkg/db"
	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the data source and persistence side of the manufacturing list.
type Service interface {
	ListRows(ctx context.Context) ([]manufacturing.Row, error)
	ListShipments(ctx context.Context) ([]string, error)
	CommitOrder(ctx context.Context, actor outbox.ActorRef, rows []manufacturing.Row) (*CommitResult, error)
	UpdateStatus(ctx context.Context, actor outbox.ActorRef, rowID string, status enums.RowStatus) (*StatusResult, error)
	AddNote(ctx context.Context, actor outbox.ActorRef, rowID, body string) (*NoteDTO, error)
	ListNotes(ctx context.Context, rowID string) ([]NoteDTO, error)
	ImportRows(ctx context.Context, actor outbox.ActorRef, source string, rows []ImportRow) (*ImportResult, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a shipments service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

func (s *service) ListRows(ctx context.Context) ([]manufacturing.Row, error) {
	rows, err := s.repo.ListRows(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipment rows")
	}
	return ToRows(rows), nil
}

func (s *service) ListShipments(ctx context.Context) ([]string, error) {
	numbers, err := s.repo.ListShipmentNumbers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}
	if numbers == nil {
		numbers = []string{}
	}
	return numbers, nil
}

func (s *service) CommitOrder(ctx context.Context, actor outbox.ActorRef, rows []manufacturing.Row) (*CommitResult, error) {
	if actor.EditorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "editor identity missing")
	}

	var result CommitResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stored, err := repo.ListRows(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment rows")
		}
		plan, err := planCommit(stored, rows)
		if err != nil {
			return err
		}
		if err := repo.DeleteRows(ctx, plan.deletes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove split sources")
		}
		if err := repo.CreateRows(ctx, plan.inserts); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "split row already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert split rows")
		}
		if err := repo.UpdatePositions(ctx, plan.positions); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update positions")
		}

		result = CommitResult{
			Rows:        len(plan.rows),
			SplitsSaved: len(plan.inserts),
			Removed:     len(plan.deletes),
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventRowOrderCommitted,
			AggregateType: enums.AggregateShipmentList,
			AggregateID:   ListAggregateID,
			Actor:         actorRef(actor),
			Data: payloads.RowOrderCommittedEvent{
				Rows:        plan.rows,
				SplitsSaved: len(plan.inserts),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor outbox.ActorRef, rowID string, status enums.RowStatus) (*StatusResult, error) {
	rowID = strings.TrimSpace(rowID)
	if rowID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "row id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid row status")
	}

	var result StatusResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stored, err := resolveRow(ctx, repo, rowID)
		if err != nil {
			return err
		}
		updated, err := repo.UpdateStatus(ctx, statusKey(stored, rowID), status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update row status")
		}
		result = StatusResult{
			RowID:    rowID,
			StoredID: stored.ID,
			Status:   status,
			Previous: stored.Status,
			Updated:  updated,
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventRowStatusChanged,
			AggregateType: enums.AggregateShipmentRow,
			AggregateID:   stored.ID,
			Actor:         actorRef(actor),
			Data: payloads.RowStatusChangedEvent{
				RowID:    rowID,
				StoredID: stored.ID,
				Status:   status,
				Previous: stored.Status,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) AddNote(ctx context.Context, actor outbox.ActorRef, rowID, body string) (*NoteDTO, error) {
	if actor.EditorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "editor identity missing")
	}
	rowID = strings.TrimSpace(rowID)
	body = strings.TrimSpace(body)
	if rowID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "row id required")
	}
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note body required")
	}

	var note *models.RowNote
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stored, err := resolveRow(ctx, repo, rowID)
		if err != nil {
			return err
		}
		note, err = repo.CreateNote(ctx, &models.RowNote{
			RowID:    rowID,
			EditorID: actor.EditorID,
			Body:     body,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create note")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventRowNoteAdded,
			AggregateType: enums.AggregateShipmentRow,
			AggregateID:   stored.ID,
			Actor:         actorRef(actor),
			Data: payloads.RowNoteAddedEvent{
				NoteID: note.ID,
				RowID:  rowID,
				Body:   body,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	dto := toNoteDTO(*note)
	return &dto, nil
}

func (s *service) ListNotes(ctx context.Context, rowID string) ([]NoteDTO, error) {
	rowID = strings.TrimSpace(rowID)
	if rowID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "row id required")
	}
	notes, err := s.repo.ListNotes(ctx, rowID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notes")
	}
	out := make([]NoteDTO, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteDTO(n))
	}
	return out, nil
}

func (s *service) ImportRows(ctx context.Context, actor outbox.ActorRef, source string, rows []ImportRow) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no rows to import")
	}
	for i, row := range rows {
		if err := validateImportRow(row); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid import row").
				WithDetails(map[string]any{"index": i})
		}
	}

	var result ImportResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		tail, err := repo.MaxPosition(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tail position")
		}

		records := make([]models.ShipmentRow, 0, len(rows))
		shipments := map[string]struct{}{}
		result = ImportResult{FirstPosition: tail + 1, IDs: make([]string, 0, len(rows))}
		for i, row := range rows {
			record := importRecord(row, tail+1+i)
			records = append(records, record)
			shipments[record.ShipmentNumber] = struct{}{}
			result.IDs = append(result.IDs, record.ID)
		}
		if err := repo.CreateRows(ctx, records); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "row id already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert imported rows")
		}
		result.Imported = len(records)

		numbers := make([]string, 0, len(shipments))
		for n := range shipments {
			numbers = append(numbers, n)
		}
		sort.Strings(numbers)
		event := outbox.DomainEvent{
			EventType:     enums.EventRowsImported,
			AggregateType: enums.AggregateShipmentList,
			AggregateID:   ListAggregateID,
			Actor:         actorRef(actor),
			Data: payloads.RowsImportedEvent{
				Count:           len(records),
				FirstPosition:   result.FirstPosition,
				ShipmentNumbers: numbers,
				Source:          source,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// resolveRow finds the stored row for id. Split ids that were never committed
// resolve to their nearest stored ancestor, and a root id whose row was
// replaced by committed splits resolves to its first descendant.
func resolveRow(ctx context.Context, repo Repository, id string) (*models.ShipmentRow, error) {
	candidate := id
	for {
		row, err := repo.FindRow(ctx, candidate)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment row")
		}
		row, err = repo.FindDescendant(ctx, candidate)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load split descendant")
		}
		parent, ok := splitParent(candidate)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "row not found").
				WithDetails(map[string]any{"row_id": id})
		}
		candidate = parent
	}
}

// statusKey is the id a status update is applied under. A descendant found
// through its root id is updated through the root so every sibling follows.
func statusKey(stored *models.ShipmentRow, requested string) string {
	if stored.ID != requested && stored.OriginalID != nil && *stored.OriginalID == requested {
		return requested
	}
	return stored.ID
}

func splitParent(id string) (string, bool) {
	for _, suffix := range []string{"_split_1", "_split_2"} {
		if parent, ok := strings.CutSuffix(id, suffix); ok && parent != "" {
			return parent, true
		}
	}
	return "", false
}

func validateImportRow(row ImportRow) error {
	switch {
	case strings.TrimSpace(row.ShipmentNumber) == "":
		return errors.New("shipment number required")
	case strings.TrimSpace(row.Type) == "":
		return errors.New("type required")
	case strings.TrimSpace(row.Formula) == "":
		return errors.New("formula required")
	case strings.TrimSpace(row.Size) == "":
		return errors.New("size required")
	case row.Quantity <= 0:
		return errors.New("quantity must be positive")
	case row.Volume.IsNegative():
		return errors.New("volume must not be negative")
	case row.Status != "" && !row.Status.IsValid():
		return fmt.Errorf("invalid status %q", row.Status)
	}
	return nil
}

func importRecord(row ImportRow, position int) models.ShipmentRow {
	id := strings.TrimSpace(row.ID)
	if id == "" {
		id = uuid.NewString()
	}
	status := row.Status
	if status == "" {
		status = enums.RowStatusNotStarted
	}
	return models.ShipmentRow{
		ID:             id,
		Position:       position,
		Status:         status,
		ShipmentNumber: strings.TrimSpace(row.ShipmentNumber),
		Type:           strings.TrimSpace(row.Type),
		Formula:        strings.TrimSpace(row.Formula),
		Size:           strings.TrimSpace(row.Size),
		Quantity:       row.Quantity,
		Tote:           strings.TrimSpace(row.Tote),
		Volume:         row.Volume,
		Measure:        strings.TrimSpace(row.Measure),
	}
}

func actorRef(actor outbox.ActorRef) *outbox.ActorRef {
	if actor.EditorID == uuid.Nil {
		return nil
	}
	return &actor
}
