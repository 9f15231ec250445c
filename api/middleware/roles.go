package middleware

import (
	"net/http"

	"github.com/angelmondragon/shiplist-backend/api/responses"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
)

// RequireRole admits only editors holding exactly role.
func RequireRole(role enums.EditorRole, logg *logger.Logger) func(http.Handler) http.Handler {
	return requireRole(func(r enums.EditorRole) bool { return r == role }, string(role)+" role required", logg)
}

// RequireEditor admits roles allowed to change the production list.
func RequireEditor(logg *logger.Logger) func(http.Handler) http.Handler {
	return requireRole(enums.EditorRole.CanEdit, "editor role required", logg)
}

func requireRole(allowed func(enums.EditorRole) bool, msg string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed(RoleFromContext(r.Context())) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, msg))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
