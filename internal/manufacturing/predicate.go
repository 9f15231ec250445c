package manufacturing

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

// Matches evaluates one column condition against a field value.
//
// Ordering conditions are always numeric and unparsable input compares false.
// A malformed range rejects for between and accepts for notBetween.
// Missing and unknown conditions pass.
func Matches(field string, cond enums.FilterCondition, value string, numeric bool) bool {
	switch cond {
	case enums.FilterConditionNone:
		return true
	case enums.FilterConditionEquals:
		if numeric {
			return toNumber(field) == toNumber(value)
		}
		return foldEqual(field, value)
	case enums.FilterConditionNotEquals:
		if numeric {
			return toNumber(field) != toNumber(value)
		}
		return !foldEqual(field, value)
	case enums.FilterConditionGreaterThan:
		return toNumber(field) > toNumber(value)
	case enums.FilterConditionLessThan:
		return toNumber(field) < toNumber(value)
	case enums.FilterConditionGreaterOrEqual:
		return toNumber(field) >= toNumber(value)
	case enums.FilterConditionLessOrEqual:
		return toNumber(field) <= toNumber(value)
	case enums.FilterConditionBetween:
		lo, hi, ok := parseRange(value)
		if !ok {
			return false
		}
		n := toNumber(field)
		return n >= lo && n <= hi
	case enums.FilterConditionNotBetween:
		lo, hi, ok := parseRange(value)
		if !ok {
			return true
		}
		n := toNumber(field)
		return n < lo || n > hi
	default:
		return true
	}
}

// toNumber parses s as a float, yielding NaN for anything unparsable
// including the empty string.
func toNumber(s string) float64 {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return math.NaN()
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// parseRange reads a "min-max" pair.
func parseRange(value string) (float64, float64, bool) {
	parts := strings.Split(value, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, hi := toNumber(parts[0]), toNumber(parts[1])
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return 0, 0, false
	}
	return lo, hi, true
}

func foldEqual(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}
