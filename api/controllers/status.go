package controllers

import (
	"net/http"

	"github.com/angelmondragon/shiplist-backend/api/validators"
	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	"github.com/angelmondragon/shiplist-backend/internal/sessions"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
)

type statusRequest struct {
	Status string `json:"status" validate:"required,rowstatus"`
}

// UpdateRowStatus applies a status from the status menu and persists it.
func UpdateRowStatus(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		rowID, err := rowIDParam(r)
		if err != nil {
			return nil, err
		}
		var req statusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		status, err := enums.ParseRowStatus(req.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
				WithDetails(map[string]any{"allowed": enums.RowStatuses()})
		}
		return svc.SetStatus(r.Context(), editor, rowID, status)
	})
}

func OpenStatusMenu(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		rowID, err := rowIDParam(r)
		if err != nil {
			return nil, err
		}
		return svc.OpenStatusMenu(r.Context(), editor, rowID)
	})
}

func CloseStatusMenu(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		return svc.CloseStatusMenu(r.Context(), editor)
	})
}
