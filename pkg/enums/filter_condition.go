package enums

import "slices"

// FilterCondition is the comparison applied by a column condition filter.
type FilterCondition string

const (
	FilterConditionNone           FilterCondition = ""
	FilterConditionEquals         FilterCondition = "equals"
	FilterConditionNotEquals      FilterCondition = "notEquals"
	FilterConditionGreaterThan    FilterCondition = "greaterThan"
	FilterConditionLessThan       FilterCondition = "lessThan"
	FilterConditionGreaterOrEqual FilterCondition = "greaterOrEqual"
	FilterConditionLessOrEqual    FilterCondition = "lessOrEqual"
	FilterConditionBetween        FilterCondition = "between"
	FilterConditionNotBetween     FilterCondition = "notBetween"
)

var validFilterConditions = []FilterCondition{
	FilterConditionEquals,
	FilterConditionNotEquals,
	FilterConditionGreaterThan,
	FilterConditionLessThan,
	FilterConditionGreaterOrEqual,
	FilterConditionLessOrEqual,
	FilterConditionBetween,
	FilterConditionNotBetween,
}

// String implements fmt.Stringer.
func (c FilterCondition) String() string {
	return string(c)
}

// IsValid reports whether the value is a known FilterCondition.
func (c FilterCondition) IsValid() bool {
	return slices.Contains(validFilterConditions, c)
}

// IsRange reports whether the condition expects a "min-max" value.
func (c FilterCondition) IsRange() bool {
	return c == FilterConditionBetween || c == FilterConditionNotBetween
}

// ParseFilterCondition converts raw input into a FilterCondition. An empty
// value parses to FilterConditionNone.
func ParseFilterCondition(value string) (FilterCondition, error) {
	if value == "" {
		return FilterConditionNone, nil
	}
	return parseEnum("filter condition", value, validFilterConditions)
}
