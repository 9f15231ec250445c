package controllers

import (
	"net/http"

	"github.com/angelmondragon/shiplist-backend/api/responses"
	"github.com/angelmondragon/shiplist-backend/api/validators"
	"github.com/angelmondragon/shiplist-backend/internal/activity"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
)

// ListRowActivity returns the projected history of a row, newest first.
// Repeated or comma separated ?type= values restrict the event types.
func ListRowActivity(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}
		rowID, err := rowIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		types, err := validators.ParseQueryEnums(r, "type", enums.ParseOutboxEventType, enums.OutboxEventTypes())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.List(r.Context(), rowID, activity.ListQuery{Limit: limit, Types: types})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if entries == nil {
			entries = []activity.EntryDTO{}
		}
		responses.WriteSuccess(w, map[string]any{"entries": entries})
	}
}
