package manufacturing

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

// FilterSpec is the filter configuration of one column: an optional allow-list
// of exact values and an optional condition. Both clauses are ANDed.
type FilterSpec struct {
	Values    []string              `json:"values,omitempty"`
	Condition enums.FilterCondition `json:"condition,omitempty"`
	Value     string                `json:"value,omitempty"`
}

// IsActive reports whether the filter constrains anything.
func (f FilterSpec) IsActive() bool {
	return len(f.Values) > 0 || f.Condition != enums.FilterConditionNone
}

func (f FilterSpec) clone() FilterSpec {
	out := f
	if f.Values != nil {
		out.Values = append([]string{}, f.Values...)
	}
	return out
}

// Filters maps a column to its filter spec.
type Filters map[Column]FilterSpec

// Validate reports every unknown column and condition in one error.
func (f Filters) Validate() error {
	var err error
	for _, col := range f.sortedColumns() {
		spec := f[col]
		if !col.IsValid() {
			err = multierr.Append(err, fmt.Errorf("unknown column %q", col))
			continue
		}
		if spec.Condition != enums.FilterConditionNone && !spec.Condition.IsValid() {
			err = multierr.Append(err, fmt.Errorf("column %q: unknown condition %q", col, spec.Condition))
		}
	}
	return err
}

func (f Filters) clone() Filters {
	if f == nil {
		return nil
	}
	out := make(Filters, len(f))
	for col, spec := range f {
		out[col] = spec.clone()
	}
	return out
}

func (f Filters) sortedColumns() []Column {
	cols := make([]Column, 0, len(f))
	for col := range f {
		cols = append(cols, col)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
	return cols
}

// Query is everything that narrows the source into the visible sequence.
type Query struct {
	Search   string  `json:"search,omitempty"`
	Shipment string  `json:"shipment,omitempty"`
	Filters  Filters `json:"filters,omitempty"`
}

func (q Query) clone() Query {
	out := q
	out.Filters = q.Filters.clone()
	return out
}

// Derive returns the rows of source that match query, in source order.
func Derive(source []Row, query Query) []Row {
	out := make([]Row, 0, len(source))
	for _, row := range source {
		if MatchesQuery(row, query) {
			out = append(out, row.Clone())
		}
	}
	return out
}

// MatchesQuery reports whether a single row passes search, column filters and
// shipment scope.
func MatchesQuery(row Row, query Query) bool {
	return matchesSearch(row, query.Search) &&
		matchesFilters(row, query.Filters) &&
		matchesShipment(row, query.Shipment)
}

var searchColumns = []Column{
	ColumnShipmentNumber,
	ColumnType,
	ColumnFormula,
	ColumnSize,
	ColumnQuantity,
}

func matchesSearch(row Row, search string) bool {
	if search == "" {
		return true
	}
	lower := cases.Lower(language.Und)
	needle := lower.String(search)
	for _, col := range searchColumns {
		if strings.Contains(lower.String(row.Field(col)), needle) {
			return true
		}
	}
	return false
}

func matchesFilters(row Row, filters Filters) bool {
	for col, spec := range filters {
		if !spec.IsActive() {
			continue
		}
		field := row.Field(col)
		if len(spec.Values) > 0 && !containsValue(spec.Values, field) {
			return false
		}
		if !Matches(field, spec.Condition, spec.Value, col.IsNumeric()) {
			return false
		}
	}
	return true
}

func matchesShipment(row Row, shipment string) bool {
	if shipment == "" {
		return true
	}
	return row.ShipmentNumber == shipment
}

func containsValue(values []string, field string) bool {
	for _, v := range values {
		if v == field {
			return true
		}
	}
	return false
}

// DistinctValues lists the distinct display values of a column in source,
// the option list for a column's value filter.
func DistinctValues(source []Row, col Column) []string {
	seen := make(map[string]struct{}, len(source))
	out := []string{}
	for _, row := range source {
		v := row.Field(col)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if col.IsNumeric() {
		sort.SliceStable(out, func(i, j int) bool { return toNumber(out[i]) < toNumber(out[j]) })
	} else {
		sort.Strings(out)
	}
	return out
}

