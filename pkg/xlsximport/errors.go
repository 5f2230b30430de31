package xlsximport

import (
	"errors"
	"fmt"

	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/container"
	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/parser"
)

// Container-level errors.
var (
	// ErrFileNotFound indicates the input file does not exist.
	ErrFileNotFound = container.ErrFileNotFound
	// ErrInvalidFormat indicates the input file is not a valid xlsx format.
	ErrInvalidFormat = container.ErrInvalidFormat
	// ErrSheetNotFound indicates the requested sheet does not exist.
	ErrSheetNotFound = container.ErrSheetNotFound
)

// Input malformation errors.
var (
	ErrMalformedAddress      = parser.ErrMalformedAddress
	ErrUnresolvedStringIndex = parser.ErrUnresolvedStringIndex
	ErrNumericParse          = parser.ErrNumericParse
)

// ErrInvalidFormulaCell indicates the sheet contains an error produced by a
// broken formula. The whole import is aborted.
var ErrInvalidFormulaCell = parser.ErrInvalidFormulaCell

// ErrHeaderRowNotLocated indicates the configured header row is missing or empty.
var ErrHeaderRowNotLocated = errors.New("header row not located")

// ErrFinish indicates the row consumer failed to finalize.
var ErrFinish = errors.New("row consumer finish failed")

// ExtractionError represents an error during a sheet scan.
type ExtractionError struct {
	Sheet     int
	Component string // "header", "rows"
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error in sheet #%d (%s): %v", e.Sheet, e.Component, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(sheet int, component string, err error) *ExtractionError {
	return &ExtractionError{
		Sheet:     sheet,
		Component: component,
		Err:       err,
	}
}

// CellError reports a cell that could not be read. Row, Column and Sheet
// are zero-based; the message is one-based.
type CellError struct {
	Row, Column, Sheet int
	Err                error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("cell at row %d, column %d of sheet %d: %v", e.Row+1, e.Column+1, e.Sheet+1, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// RowError reports a row the consumer failed to process. Row and Sheet
// are zero-based; the message is one-based.
type RowError struct {
	Row, Sheet int
	Err        error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("processing row %d of sheet %d: %v", e.Row+1, e.Sheet+1, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// HeaderError reports a header row that could not be located. Empty is
// set when the row was present but held no text cells.
type HeaderError struct {
	Row   int
	Empty bool
}

func (e *HeaderError) Error() string {
	if e.Empty {
		return fmt.Sprintf("%v: row %d is empty", ErrHeaderRowNotLocated, e.Row+1)
	}
	return fmt.Sprintf("%v: row %d not found", ErrHeaderRowNotLocated, e.Row+1)
}

func (e *HeaderError) Unwrap() error {
	return ErrHeaderRowNotLocated
}
