package xlsximport

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/models"
	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/parser"
)

// RowConsumer receives the data rows of a sheet.
//
// ProcessRow gets the cells of one row in column order; nil entries are
// gaps. The slice is reused after ProcessRow returns and must be copied
// to be retained. Finish is called once after the last row of a scan
// that completed without error. RowCount reports the rows accepted so far.
type RowConsumer interface {
	ProcessRow(cells []*models.Cell, row, sheet int) error
	Finish() error
	RowCount() int64
}

// ColumnFilter reports whether the column with the given zero-based
// index, formatted as decimal text, is imported.
type ColumnFilter func(column string) bool

// AllColumns accepts every column.
func AllColumns(string) bool { return true }

// ColumnSet accepts only the listed zero-based column indexes.
func ColumnSet(columns ...int) ColumnFilter {
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[strconv.Itoa(c)] = struct{}{}
	}
	return func(column string) bool {
		_, ok := set[column]
		return ok
	}
}

type dataSession struct {
	sheet        int
	startRow     int
	consumer     RowConsumer
	isColumnUsed ColumnFilter
	logger       *slog.Logger
	trace        bool

	row     []*models.Cell
	rowOpen bool
	rows    int64
}

func (s *dataSession) StartRow(int) {
	s.row = s.row[:0]
	s.rowOpen = true
}

func (s *dataSession) Cell(ev *parser.CellEvent) error {
	if !s.rowOpen || ev.Row < s.startRow || !s.isColumnUsed(strconv.Itoa(ev.Col)) {
		return nil
	}
	if s.trace {
		s.logger.Debug("reading cell", "ref", ev.Ref, "raw", ev.Raw, "type", ev.Type.String())
	}
	cell, err := parser.DataCell(ev)
	if err != nil {
		if ev.Type == parser.CellTypeError {
			s.logger.Error("unable to import data due to invalid formula", "cell", ev.Ref, "sheet", s.sheet)
		}
		return &CellError{Row: ev.Row, Column: ev.Col, Sheet: s.sheet, Err: err}
	}
	s.row = append(s.row, cell)
	return nil
}

func (s *dataSession) EndRow(row int) (parser.Action, error) {
	defer func() {
		s.row = s.row[:0]
		s.rowOpen = false
	}()
	if !hasCell(s.row) {
		return parser.Continue, nil
	}
	if err := s.consumer.ProcessRow(s.row, row, s.sheet); err != nil {
		return parser.Stop, &RowError{Row: row, Sheet: s.sheet, Err: err}
	}
	s.rows++
	return parser.Continue, nil
}

func hasCell(cells []*models.Cell) bool {
	for _, c := range cells {
		if c != nil {
			return true
		}
	}
	return false
}

// ReadDataRows streams every row at or after startRowIndex of the sheet
// at sheetIndex to consumer, keeping only the columns isColumnUsed
// accepts (all columns when nil). Rows without any value are skipped.
// It returns the number of rows delivered.
func (w *Workbook) ReadDataRows(sheetIndex, startRowIndex int, consumer RowConsumer, isColumnUsed ColumnFilter) (int64, error) {
	if isColumnUsed == nil {
		isColumnUsed = AllColumns
	}
	logger := w.opts.logger()
	s := &dataSession{
		sheet:        sheetIndex,
		startRow:     startRowIndex,
		consumer:     consumer,
		isColumnUsed: isColumnUsed,
		logger:       logger,
		trace:        logger.Enabled(context.Background(), slog.LevelDebug),
	}
	if err := w.scan(sheetIndex, s); err != nil {
		return s.rows, NewExtractionError(sheetIndex, "rows", err)
	}
	if err := consumer.Finish(); err != nil {
		return s.rows, NewExtractionError(sheetIndex, "rows", fmt.Errorf("%w: %w", ErrFinish, err))
	}
	if s.rows == 0 {
		logger.Warn("no rows imported; check the sheet index, start row and column selection",
			"sheet", sheetIndex,
			"startRow", startRowIndex+1)
	} else {
		logger.Info("rows imported", "sheet", sheetIndex, "rows", s.rows)
	}
	return s.rows, nil
}
