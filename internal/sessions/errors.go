package sessions

import (
	"errors"

	"go.uber.org/multierr"

	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
)

// mapError converts table errors into typed API errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	switch {
	case errors.Is(err, manufacturing.ErrNotSorting),
		errors.Is(err, manufacturing.ErrAlreadySorting),
		errors.Is(err, manufacturing.ErrNoDrag),
		errors.Is(err, manufacturing.ErrSaveNotRequested):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, err.Error())
	case errors.Is(err, manufacturing.ErrRowNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, err.Error())
	case errors.Is(err, manufacturing.ErrDuplicateRowID):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, err.Error())
	case errors.Is(err, manufacturing.ErrInvalidSplitQuantity),
		errors.Is(err, manufacturing.ErrIndexOutOfRange),
		errors.Is(err, manufacturing.ErrInvalidStatus),
		errors.Is(err, manufacturing.ErrEmptyNote):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "table transition failed")
}

// filterError reports every filter problem as validation details.
func filterError(err error) error {
	problems := multierr.Errors(err)
	details := make([]string, 0, len(problems))
	for _, p := range problems {
		details = append(details, p.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid filters").WithDetails(map[string]any{"filters": details})
}
