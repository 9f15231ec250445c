// Package importer reads shipment lists exported by other systems.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/angelmondragon/shiplist-backend/internal/shipments"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

const (
	fieldID       = "id"
	fieldStatus   = "status"
	fieldShipment = "shipment_number"
	fieldType     = "type"
	fieldFormula  = "formula"
	fieldSize     = "size"
	fieldQuantity = "quantity"
	fieldTote     = "tote"
	fieldVolume   = "volume"
	fieldMeasure  = "measure"
)

var requiredFields = []string{fieldShipment, fieldType, fieldFormula, fieldSize, fieldQuantity}

// headerAliases maps folded header text to a field.
var headerAliases = map[string]string{
	"id":              fieldID,
	"row id":          fieldID,
	"status":          fieldStatus,
	"shipment":        fieldShipment,
	"shipment number": fieldShipment,
	"shipment_number": fieldShipment,
	"shipment no":     fieldShipment,
	"type":            fieldType,
	"formula":         fieldFormula,
	"size":            fieldSize,
	"quantity":        fieldQuantity,
	"qty":             fieldQuantity,
	"tote":            fieldTote,
	"volume":          fieldVolume,
	"measure":         fieldMeasure,
	"unit":            fieldMeasure,
}

// ErrEmptyFile is returned when the input has no header line.
var ErrEmptyFile = errors.New("csv file is empty")

// Options controls how a file is decoded.
type Options struct {
	Encoding  Encoding
	Delimiter rune
}

// LineError describes a line that was skipped.
type LineError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Result holds the rows read from a file and the lines that were skipped.
type Result struct {
	Rows    []shipments.ImportRow
	Skipped []LineError
}

// Read parses a header driven CSV shipment list. Lines that cannot be read
// or fail validation are skipped and reported; a missing required header
// fails the whole file.
func Read(r io.Reader, opts Options) (*Result, error) {
	reader := csv.NewReader(decode(r, opts.Encoding))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			line := 0
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			result.Skipped = append(result.Skipped, LineError{Line: line, Reason: err.Error()})
			continue
		}
		line, _ := reader.FieldPos(0)
		if blank(rec) {
			continue
		}
		row, err := parseRecord(rec, cols)
		if err != nil {
			result.Skipped = append(result.Skipped, LineError{Line: line, Reason: err.Error()})
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

func columnIndex(header []string) (map[string]int, error) {
	fold := cases.Fold()
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := fold.String(strings.TrimSpace(name))
		if field, ok := headerAliases[key]; ok {
			if _, seen := cols[field]; !seen {
				cols[field] = i
			}
		}
	}
	var missing []string
	for _, field := range requiredFields {
		if _, ok := cols[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required headers: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRecord(rec []string, cols map[string]int) (shipments.ImportRow, error) {
	get := func(field string) string {
		if idx, ok := cols[field]; ok && idx < len(rec) {
			return strings.TrimSpace(rec[idx])
		}
		return ""
	}

	for _, field := range requiredFields {
		if get(field) == "" {
			return shipments.ImportRow{}, fmt.Errorf("%s is empty", field)
		}
	}

	qty, err := strconv.Atoi(strings.ReplaceAll(get(fieldQuantity), ",", ""))
	if err != nil || qty <= 0 {
		return shipments.ImportRow{}, fmt.Errorf("invalid quantity %q", get(fieldQuantity))
	}

	volume := decimal.Zero
	if raw := strings.ReplaceAll(get(fieldVolume), ",", ""); raw != "" {
		volume, err = decimal.NewFromString(raw)
		if err != nil {
			return shipments.ImportRow{}, fmt.Errorf("invalid volume %q", get(fieldVolume))
		}
	}

	status, err := parseStatus(get(fieldStatus))
	if err != nil {
		return shipments.ImportRow{}, err
	}

	return shipments.ImportRow{
		ID:             get(fieldID),
		Status:         status,
		ShipmentNumber: get(fieldShipment),
		Type:           get(fieldType),
		Formula:        get(fieldFormula),
		Size:           get(fieldSize),
		Quantity:       qty,
		Tote:           get(fieldTote),
		Volume:         volume,
		Measure:        get(fieldMeasure),
	}, nil
}

// parseStatus accepts stored values and display labels such as "On Hold".
func parseStatus(raw string) (enums.RowStatus, error) {
	if raw == "" {
		return "", nil
	}
	normalized := strings.NewReplacer(" ", "_", "-", "_").Replace(cases.Fold().String(raw))
	return enums.ParseRowStatus(normalized)
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
