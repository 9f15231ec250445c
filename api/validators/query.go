package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
)

func queryError(message, key string, extra map[string]any) error {
	details := map[string]any{"field": key}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

// ParseQueryInt reads key as an int in [min, max]. An absent key yields defaultVal.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, queryError("query parameter must be numeric", key, nil)
	case value < min || value > max:
		return 0, queryError("query parameter out of range", key, map[string]any{"min": min, "max": max})
	}
	return value, nil
}

// ParseQueryList accepts both ?k=a&k=b and ?k=a,b. Blank entries are dropped.
func ParseQueryList(r *http.Request, key string) []string {
	var out []string
	for _, entry := range r.URL.Query()[key] {
		for part := range strings.SplitSeq(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ParseQueryEnums runs every ParseQueryList entry through parse. The first
// unknown value fails the request and lists the allowed values.
func ParseQueryEnums[T ~string](r *http.Request, key string, parse func(string) (T, error), allowed []T) ([]T, error) {
	raw := ParseQueryList(r, key)
	out := make([]T, 0, len(raw))
	for _, value := range raw {
		parsed, err := parse(value)
		if err != nil {
			return nil, queryError("invalid "+key+" value", key, map[string]any{"value": value, "allowed": allowed})
		}
		out = append(out, parsed)
	}
	return out, nil
}
