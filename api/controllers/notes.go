package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/shiplist-backend/api/responses"
	"github.com/angelmondragon/shiplist-backend/api/validators"
	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	"github.com/angelmondragon/shiplist-backend/internal/sessions"
	"github.com/angelmondragon/shiplist-backend/internal/shipments"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
)

const maxNoteLength = 2000

type notesReader interface {
	ListNotes(ctx context.Context, rowID string) ([]shipments.NoteDTO, error)
}

func ListRowNotes(svc notesReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}
		rowID, err := rowIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notes, err := svc.ListNotes(r.Context(), rowID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if notes == nil {
			notes = []shipments.NoteDTO{}
		}
		responses.WriteSuccess(w, map[string]any{"notes": notes})
	}
}

type noteRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// AddRowNote records a note through the editor's table so the note dialog closes.
func AddRowNote(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		rowID, err := rowIDParam(r)
		if err != nil {
			return nil, err
		}
		var req noteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		body := validators.SanitizeString(req.Body, maxNoteLength)
		if body == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "note body is required")
		}
		return svc.AddNote(r.Context(), editor, rowID, body)
	})
}
