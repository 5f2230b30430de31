// Package models defines data structures for Excel extraction.
package models

import "fmt"

// Kind identifies which variant of a Cell is populated.
type Kind int

const (
	// KindBlank is a cell that carries no value.
	KindBlank Kind = iota
	// KindBoolean is a TRUE/FALSE cell.
	KindBoolean
	// KindNumber is a numeric cell with a number format.
	KindNumber
	// KindText is a string cell, or a numeric cell without a number format.
	KindText
	// KindFormula is a formula cell with a string result, passed through unevaluated.
	KindFormula
	// KindError is a non-formula error cell kept as an "ERROR:" sentinel.
	KindError
)

var kindNames = [...]string{
	KindBlank:   "blank",
	KindBoolean: "boolean",
	KindNumber:  "number",
	KindText:    "text",
	KindFormula: "formula",
	KindError:   "error",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ErrorPrefix is prepended to the raw value of recoverable error cells.
const ErrorPrefix = "ERROR:"

// Cell is one typed cell value of a data row.
type Cell struct {
	// Column is the zero-based column index.
	Column int `json:"c"`
	// Kind selects the populated variant.
	Kind Kind `json:"kind"`
	// Raw is the raw encoded value as stored in the sheet.
	Raw string `json:"raw"`
	// Bool is set for KindBoolean.
	Bool bool `json:"bool,omitempty"`
	// Number is set for KindNumber.
	Number float64 `json:"number,omitempty"`
	// Display is the formatted display value. It is nil for numeric
	// cells that carry no number format.
	Display *string `json:"display"`
	// Format is the number format string of a KindNumber cell.
	Format string `json:"format,omitempty"`
}

// NewBoolean returns a KindBoolean cell.
func NewBoolean(col int, raw string, v bool) Cell {
	return Cell{Column: col, Kind: KindBoolean, Raw: raw, Bool: v}
}

// NewNumber returns a KindNumber cell.
func NewNumber(col int, raw string, v float64, display, format string) Cell {
	return Cell{Column: col, Kind: KindNumber, Raw: raw, Number: v, Display: &display, Format: format}
}

// NewText returns a KindText cell. display may be nil.
func NewText(col int, raw string, display *string) Cell {
	return Cell{Column: col, Kind: KindText, Raw: raw, Display: display}
}

// NewFormula returns a KindFormula cell holding the formula result text.
func NewFormula(col int, text string) Cell {
	return Cell{Column: col, Kind: KindFormula, Raw: text, Display: &text}
}

// NewError returns a KindError cell whose display is the "ERROR:" sentinel.
func NewError(col int, raw string) Cell {
	tag := ErrorPrefix + raw
	return Cell{Column: col, Kind: KindError, Raw: raw, Display: &tag}
}

// Value returns the Go value carried by the cell: bool, float64, string or nil.
func (c Cell) Value() interface{} {
	switch c.Kind {
	case KindBoolean:
		return c.Bool
	case KindNumber:
		return c.Number
	case KindText, KindFormula:
		return c.Raw
	case KindError:
		return ErrorPrefix + c.Raw
	}
	return nil
}

// String returns the display value if present, else the raw value.
// Booleans render as TRUE or FALSE.
func (c Cell) String() string {
	if c.Kind == KindBoolean {
		if c.Bool {
			return "TRUE"
		}
		return "FALSE"
	}
	if c.Display != nil {
		return *c.Display
	}
	return c.Raw
}
