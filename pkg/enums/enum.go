// Package enums holds the closed string sets stored in the database and
// exchanged over the API.
package enums

import (
	"fmt"
	"slices"
)

func parseEnum[T ~string](kind, value string, valid []T) (T, error) {
	if v := T(value); slices.Contains(valid, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, value)
}
