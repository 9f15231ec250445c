package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/shiplist-backend/api/responses"
	"github.com/angelmondragon/shiplist-backend/api/validators"
	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
)

type rowsReader interface {
	ListRows(ctx context.Context) ([]manufacturing.Row, error)
	ListShipments(ctx context.Context) ([]string, error)
}

type rowsResponse struct {
	Rows  []manufacturing.Row `json:"rows"`
	Total int                 `json:"total"`
}

// ListRows returns the production list narrowed by search text and shipment
// scope without touching the caller's table session.
func ListRows(svc rowsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}

		rows, err := svc.ListRows(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := manufacturing.Query{
			Search:   validators.SanitizeString(r.URL.Query().Get("q"), 200),
			Shipment: strings.TrimSpace(r.URL.Query().Get("shipment")),
		}
		visible := manufacturing.Derive(rows, query)
		responses.WriteSuccess(w, rowsResponse{Rows: visible, Total: len(rows)})
	}
}

func ListShipments(svc rowsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}

		shipments, err := svc.ListShipments(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if shipments == nil {
			shipments = []string{}
		}
		responses.WriteSuccess(w, map[string][]string{"shipments": shipments})
	}
}
