package controllers

import (
	"net/http"

	"github.com/angelmondragon/shiplist-backend/api/responses"
	"github.com/angelmondragon/shiplist-backend/api/validators"
	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	"github.com/angelmondragon/shiplist-backend/internal/sessions"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
)

type sessionAction func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error)

// sessionHandler resolves the editor, runs one transition and writes the resulting view.
func sessionHandler(svc sessions.Service, logg *logger.Logger, action sessionAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}
		editor, err := editorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := action(r, editor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func GetSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		return svc.View(r.Context(), editor)
	})
}

// ResetSession drops the caller's table session.
func ResetSession(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}
		editor, err := editorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Reset(r.Context(), editor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"reset": true})
	}
}

type queryRequest struct {
	Search   string                `json:"search" validate:"max=200"`
	Shipment string                `json:"shipment" validate:"max=100"`
	Filters  manufacturing.Filters `json:"filters"`
}

func SetSessionQuery(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		var req queryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.SetQuery(r.Context(), editor, manufacturing.Query{
			Search:   validators.SanitizeString(req.Search, 200),
			Shipment: validators.SanitizeString(req.Shipment, 100),
			Filters:  req.Filters,
		})
	})
}

func EnterSort(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		return svc.EnterSort(r.Context(), editor)
	})
}

type gestureRequest struct {
	Kind  string  `json:"kind" validate:"required"`
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Over  *int    `json:"over"`
}

// SessionGesture forwards one pointer or touch event to the table.
func SessionGesture(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		var req gestureRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		kind, err := sessions.ParseGestureKind(req.Kind)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gesture")
		}
		return svc.Gesture(r.Context(), editor, sessions.Gesture{
			Kind:  kind,
			Index: req.Index,
			X:     req.X,
			Y:     req.Y,
			Over:  req.Over,
		})
	})
}

type moveRequest struct {
	From *int `json:"from" validate:"required,gte=0"`
	To   *int `json:"to" validate:"required,gte=0"`
}

func MoveRow(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		var req moveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.Move(r.Context(), editor, *req.From, *req.To)
	})
}

type selectRequest struct {
	RowID    string `json:"row_id" validate:"required"`
	Modified bool   `json:"modified"`
}

func SelectRow(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		var req selectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.Select(r.Context(), editor, req.RowID, req.Modified)
	})
}

func RequestSave(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		return svc.RequestSave(r.Context(), editor)
	})
}

func DismissSave(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		return svc.DismissSave(r.Context(), editor)
	})
}

// ConfirmSave commits the pending order and splits.
func ConfirmSave(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		return svc.ConfirmSave(r.Context(), editor)
	})
}

func CancelSort(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		return svc.Cancel(r.Context(), editor)
	})
}

type splitRequest struct {
	RowID         string `json:"row_id" validate:"required"`
	FirstQuantity int    `json:"first_quantity" validate:"required,gte=1"`
}

func SplitRow(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionHandler(svc, logg, func(r *http.Request, editor sessions.Editor) (*manufacturing.View, error) {
		var req splitRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.Split(r.Context(), editor, req.RowID, req.FirstQuantity)
	})
}
