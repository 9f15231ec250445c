package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/api/middleware"
	"github.com/angelmondragon/shiplist-backend/internal/sessions"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
)

func editorFromRequest(r *http.Request) (sessions.Editor, error) {
	editorID := middleware.EditorIDFromContext(r.Context())
	if editorID == uuid.Nil {
		return sessions.Editor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "editor context missing")
	}
	return sessions.Editor{ID: editorID, Role: middleware.RoleFromContext(r.Context())}, nil
}

func actorFromRequest(r *http.Request) (outbox.ActorRef, error) {
	editor, err := editorFromRequest(r)
	if err != nil {
		return outbox.ActorRef{}, err
	}
	return outbox.ActorRef{EditorID: editor.ID, Role: string(editor.Role)}, nil
}

func rowIDParam(r *http.Request) (string, error) {
	rowID := strings.TrimSpace(chi.URLParam(r, "rowId"))
	if rowID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "row id is required")
	}
	return rowID, nil
}
