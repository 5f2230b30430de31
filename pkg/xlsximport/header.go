package xlsximport

import (
	"log/slog"

	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/models"
	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/parser"
)

// headerSession collects the configured header row and stops the scan
// as soon as that row closes with at least one text column.
type headerSession struct {
	headerRow int
	columns   []*models.Column
	found     bool
	empty     bool
	logger    *slog.Logger
}

func (s *headerSession) StartRow(int) {
	s.columns = s.columns[:0]
}

func (s *headerSession) Cell(ev *parser.CellEvent) error {
	if ev.Row != s.headerRow {
		return nil
	}
	for len(s.columns) <= ev.Col {
		s.columns = append(s.columns, nil)
	}
	s.columns[ev.Col] = parser.HeaderColumn(ev)
	return nil
}

func (s *headerSession) EndRow(row int) (parser.Action, error) {
	switch {
	case row == s.headerRow:
		if hasColumn(s.columns) {
			s.found = true
			return parser.Stop, nil
		}
		s.empty = true
	case row > s.headerRow:
		return parser.Stop, &HeaderError{Row: s.headerRow, Empty: s.empty}
	}
	return parser.Continue, nil
}

func hasColumn(columns []*models.Column) bool {
	for _, c := range columns {
		if c != nil {
			return true
		}
	}
	return false
}

// ReadHeaderRow reads the header row at headerRowIndex of the sheet at
// sheetIndex. Entries are positioned by column index; nil entries stand
// for non-text cells and gaps.
func (w *Workbook) ReadHeaderRow(sheetIndex, headerRowIndex int) ([]*models.Column, error) {
	s := &headerSession{headerRow: headerRowIndex, logger: w.opts.logger()}
	if err := w.scan(sheetIndex, s); err != nil {
		return nil, NewExtractionError(sheetIndex, "header", err)
	}
	if !s.found {
		return nil, NewExtractionError(sheetIndex, "header", &HeaderError{Row: headerRowIndex, Empty: s.empty})
	}
	s.logger.Debug("header row located",
		"sheet", sheetIndex,
		"row", headerRowIndex+1,
		"columns", len(s.columns))
	return s.columns, nil
}
