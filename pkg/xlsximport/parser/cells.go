package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/models"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidFormulaCell indicates an error cell produced by a broken formula.
var ErrInvalidFormulaCell = errors.New("invalid formula cell")

// ErrNumericParse indicates a numeric or boolean cell whose raw value does not parse.
var ErrNumericParse = errors.New("numeric parse failure")

// HeaderColumn classifies a header cell. Text and formula cells become
// columns; anything else yields nil to keep positions aligned.
func HeaderColumn(ev *CellEvent) *models.Column {
	if !ev.HasRaw {
		return nil
	}
	switch ev.Type {
	case CellTypeFormula, CellTypeText:
		return &models.Column{Index: ev.Col, Name: headerName(ev.Display)}
	}
	return nil
}

func headerName(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// DataCell classifies a data cell. A nil cell with a nil error is a gap:
// the cell has no value or a type the reader does not interpret.
//
// Numeric cells without a number format are passed through as text
// carrying the raw value, for compatibility with existing importers.
func DataCell(ev *CellEvent) (*models.Cell, error) {
	if !ev.HasRaw {
		return nil, nil
	}
	var cell models.Cell
	switch ev.Type {
	case CellTypeBoolean:
		n, err := strconv.Atoi(ev.Raw)
		if err != nil {
			return nil, fmt.Errorf("%w: boolean %q", ErrNumericParse, ev.Raw)
		}
		cell = models.NewBoolean(ev.Col, ev.Raw, n == 1)
	case CellTypeError:
		if strings.HasPrefix(ev.Raw, "#") {
			return nil, fmt.Errorf("%w: %s at %s", ErrInvalidFormulaCell, ev.Raw, ev.Ref)
		}
		cell = models.NewError(ev.Col, ev.Raw)
	case CellTypeFormula:
		cell = models.NewFormula(ev.Col, ev.Raw)
	case CellTypeText:
		display := ev.Display
		cell = models.NewText(ev.Col, ev.Raw, &display)
	case CellTypeNumeric:
		if ev.Format == "" {
			cell = models.NewText(ev.Col, ev.Raw, nil)
			break
		}
		v, err := strconv.ParseFloat(ev.Raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrNumericParse, ev.Raw)
		}
		cell = models.NewNumber(ev.Col, ev.Raw, v, ev.Display, ev.Format)
	default:
		return nil, nil
	}
	return &cell, nil
}
