package xlsximport

import (
	"io"
	"path/filepath"

	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/container"
	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/models"
	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/parser"
)

// Workbook is an opened workbook. Its shared strings and styles are
// loaded once and shared read-only by every scan.
type Workbook struct {
	name    string
	archive *container.Archive
	strings *parser.SharedStrings
	styles  *parser.Styles
	opts    Options
}

// Open opens the workbook at path.
func Open(path string, opts Options) (*Workbook, error) {
	a, err := container.Open(path)
	if err != nil {
		return nil, err
	}
	return newWorkbook(filepath.Base(path), a, opts)
}

// OpenReader opens a workbook held in r.
func OpenReader(r io.ReaderAt, size int64, opts Options) (*Workbook, error) {
	a, err := container.OpenReader(r, size)
	if err != nil {
		return nil, err
	}
	return newWorkbook("", a, opts)
}

func newWorkbook(name string, a *container.Archive, opts Options) (*Workbook, error) {
	w := &Workbook{name: name, archive: a, opts: opts}
	if err := w.load(); err != nil {
		a.Close()
		return nil, err
	}
	return w, nil
}

func (w *Workbook) load() error {
	if part := w.archive.FirstPart(container.ContentTypeSharedStrings); part != "" {
		rc, err := w.archive.OpenPart(part)
		if err != nil {
			return err
		}
		defer rc.Close()
		if w.strings, err = parser.LoadSharedStrings(rc, w.opts.sharedStringsLimit()); err != nil {
			return err
		}
	}
	if part := w.archive.FirstPart(container.ContentTypeStyles); part != "" {
		rc, err := w.archive.OpenPart(part)
		if err != nil {
			return err
		}
		defer rc.Close()
		if w.styles, err = parser.LoadStyles(rc); err != nil {
			return err
		}
	}
	w.opts.logger().Debug("workbook opened",
		"book", w.name,
		"sheets", len(w.archive.Sheets()),
		"sharedStrings", w.strings.Len())
	return nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.archive.Close()
}

// Info returns the workbook-level view.
func (w *Workbook) Info() models.WorkbookInfo {
	return models.WorkbookInfo{
		BookName: w.name,
		Date1904: w.archive.Date1904(),
		Sheets:   w.archive.Sheets(),
	}
}

// SheetIndex returns the index of the named sheet.
func (w *Workbook) SheetIndex(name string) (int, error) {
	return w.archive.SheetIndex(name)
}

// scan streams one sheet through h. The sheet part is closed on every
// return path, including early termination.
func (w *Workbook) scan(sheetIndex int, h parser.SheetHandler) error {
	rc, err := w.archive.OpenSheet(sheetIndex)
	if err != nil {
		return err
	}
	defer rc.Close()
	return parser.NewEventSource(rc, w.strings, w.styles, w.archive.Date1904()).Run(h)
}

// ReadHeaderRow opens the workbook at path and reads one header row.
func ReadHeaderRow(path string, sheetIndex, headerRowIndex int, opts Options) ([]*models.Column, error) {
	w, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer w.Close()
	return w.ReadHeaderRow(sheetIndex, headerRowIndex)
}

// ReadDataRows opens the workbook at path and streams its data rows to consumer.
func ReadDataRows(path string, sheetIndex, startRowIndex int, consumer RowConsumer, isColumnUsed ColumnFilter, opts Options) (int64, error) {
	w, err := Open(path, opts)
	if err != nil {
		return 0, err
	}
	defer w.Close()
	return w.ReadDataRows(sheetIndex, startRowIndex, consumer, isColumnUsed)
}
