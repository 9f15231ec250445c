// Package activity projects manufacturing domain events into a per-row history.
package activity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Service reads row history.
type Service interface {
	List(ctx context.Context, rowID string, query ListQuery) ([]EntryDTO, error)
}

// ListQuery narrows a history listing. Empty Types means every event type.
type ListQuery struct {
	Limit int
	Types []enums.OutboxEventType
}

// EntryDTO is the API shape of one history entry.
type EntryDTO struct {
	ID         uuid.UUID             `json:"id"`
	EventType  enums.OutboxEventType `json:"event_type"`
	EditorID   *uuid.UUID            `json:"editor_id,omitempty"`
	Summary    string                `json:"summary"`
	OccurredAt time.Time             `json:"occurred_at"`
}

type service struct {
	repo Repository
}

// NewService wires activity dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, rowID string, query ListQuery) ([]EntryDTO, error) {
	rowID = strings.TrimSpace(rowID)
	if rowID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "row id required")
	}
	for _, t := range query.Types {
		if !t.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown event type").
				WithDetails(map[string]any{"type": t})
		}
	}
	limit := query.Limit
	switch {
	case limit <= 0:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}

	entries, err := s.repo.ListByRow(ctx, rowID, limit, query.Types...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list row activity")
	}
	out := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryDTO{
			ID:         e.ID,
			EventType:  e.EventType,
			EditorID:   e.EditorID,
			Summary:    e.Summary,
			OccurredAt: e.OccurredAt,
		})
	}
	return out, nil
}
