// Package parser provides the streaming sheet reader and cell classification.
package parser

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ErrMalformedAddress indicates a cell reference that is not letters followed by digits.
var ErrMalformedAddress = errors.New("malformed cell address")

// ParseAddress parses a cell reference such as "B7" into a zero-based row and column.
func ParseAddress(ref string) (row, col int, err error) {
	c, r, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedAddress, ref)
	}
	return r - 1, c - 1, nil
}

// CellName formats a zero-based row and column as a cell reference.
func CellName(row, col int) (string, error) {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", fmt.Errorf("%w: row %d, column %d", ErrMalformedAddress, row, col)
	}
	return name, nil
}
