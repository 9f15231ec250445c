package manufacturing

import "errors"

var (
	ErrNotSorting           = errors.New("table is not in sort mode")
	ErrAlreadySorting       = errors.New("table is already in sort mode")
	ErrRowNotFound          = errors.New("row not found in live sequence")
	ErrInvalidSplitQuantity = errors.New("first batch quantity out of range")
	ErrDuplicateRowID       = errors.New("split would duplicate an existing row id")
	ErrIndexOutOfRange      = errors.New("row index out of range")
	ErrNoDrag               = errors.New("no drag in progress")
	ErrSaveNotRequested     = errors.New("save was not requested")
	ErrInvalidStatus        = errors.New("invalid row status")
	ErrEmptyNote            = errors.New("note text is empty")
	ErrInvalidSnapshot      = errors.New("invalid table snapshot")
)
