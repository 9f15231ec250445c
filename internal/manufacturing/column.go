package manufacturing

import "fmt"

// Column names a filterable field of a row.
type Column string

const (
	ColumnStatus         Column = "status"
	ColumnShipmentNumber Column = "shipmentNumber"
	ColumnType           Column = "type"
	ColumnFormula        Column = "formula"
	ColumnSize           Column = "size"
	ColumnQuantity       Column = "quantity"
	ColumnTote           Column = "tote"
	ColumnVolume         Column = "volume"
	ColumnMeasure        Column = "measure"
)

var validColumns = []Column{
	ColumnStatus,
	ColumnShipmentNumber,
	ColumnType,
	ColumnFormula,
	ColumnSize,
	ColumnQuantity,
	ColumnTote,
	ColumnVolume,
	ColumnMeasure,
}

// IsValid reports whether the value is a known column.
func (c Column) IsValid() bool {
	for _, candidate := range validColumns {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsNumeric reports whether comparisons on the column are numeric.
func (c Column) IsNumeric() bool {
	return c == ColumnQuantity || c == ColumnVolume
}

// ParseColumn converts raw input into a Column.
func ParseColumn(value string) (Column, error) {
	for _, candidate := range validColumns {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid column %q", value)
}

// Columns returns every filterable column in display order.
func Columns() []Column {
	return append([]Column{}, validColumns...)
}
