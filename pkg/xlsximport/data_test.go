package xlsximport

import (
	"bytes"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/models"
	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/output"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }

// failingConsumer fails on one row and records whether Finish ran.
type failingConsumer struct {
	output.Collector
	failAt    int
	finishErr error
}

func (c *failingConsumer) ProcessRow(cells []*models.Cell, row, sheet int) error {
	if row == c.failAt {
		return errors.New("write failed")
	}
	return c.Collector.ProcessRow(cells, row, sheet)
}

func (c *failingConsumer) Finish() error {
	if c.finishErr != nil {
		return c.finishErr
	}
	return c.Collector.Finish()
}

func TestReadDataRowsFiltersColumns(t *testing.T) {
	rows := []string{
		`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>`,
		`<row r="2"/>`,
		`<row r="3"><c r="A3" t="s"><v>0</v></c></row>`,
		`<row r="4"><c r="A4" t="s"><v>2</v></c><c r="B4"><v>1</v></c></row>`,
		`<row r="5"><c r="B5"><v>2</v></c></row>`,
		`<row r="6"><c r="A6" t="s"><v>3</v></c><c r="B6"><v>3</v></c></row>`,
		`<row r="7"><c r="A7" s="1"/><c r="B7"><v>4</v></c></row>`,
		`<row r="8"><c r="B8"><v>5</v></c></row>`,
	}
	w := openTestWorkbook(t, buildXLSX(t, []string{"Name", "Age", "Ann", "Bob"}, rows))

	var c output.Collector
	n, err := w.ReadDataRows(0, 3, &c, ColumnSet(0))
	if err != nil {
		t.Fatalf("ReadDataRows failed: %v", err)
	}
	if n != 2 || c.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d (collector %d)", n, c.RowCount())
	}
	if !c.Finished {
		t.Error("Finish was not called")
	}
	expected := []output.Row{
		{Index: 3, Sheet: 0, Cells: []*models.Cell{{Column: 0, Kind: models.KindText, Raw: "Ann", Display: strPtr("Ann")}}},
		{Index: 5, Sheet: 0, Cells: []*models.Cell{{Column: 0, Kind: models.KindText, Raw: "Bob", Display: strPtr("Bob")}}},
	}
	if diff := cmp.Diff(expected, c.Rows); diff != "" {
		t.Fatal(diff)
	}
}

func TestReadDataRowsTypedCells(t *testing.T) {
	rows := []string{
		`<row r="1">` +
			`<c r="A1" t="s"><v>0</v></c>` +
			`<c r="B1" s="1"><v>1234.5</v></c>` +
			`<c r="C1"><v>1234.5</v></c>` +
			`<c r="D1" t="b"><v>1</v></c>` +
			`<c r="E1" t="b"><v>0</v></c>` +
			`<c r="F1" t="e"><v>N/A</v></c>` +
			`<c r="G1" t="str"><f>A1&amp;"!"</f><v>Widget!</v></c>` +
			`<c r="H1" s="1"/>` +
			`<c r="I1" s="2"><v>45000</v></c>` +
			`<c r="J1" t="d"><v>2023-03-15T00:00:00Z</v></c>` +
			`</row>`,
	}
	w := openTestWorkbook(t, buildXLSX(t, []string{"Widget"}, rows))

	var c output.Collector
	n, err := w.ReadDataRows(0, 0, &c, nil)
	if err != nil {
		t.Fatalf("ReadDataRows failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
	expected := []*models.Cell{
		{Column: 0, Kind: models.KindText, Raw: "Widget", Display: strPtr("Widget")},
		{Column: 1, Kind: models.KindNumber, Raw: "1234.5", Number: 1234.5, Display: strPtr("1234.50"), Format: "0.00"},
		{Column: 2, Kind: models.KindNumber, Raw: "1234.5", Number: 1234.5, Display: strPtr("1234.5"), Format: "General"},
		{Column: 3, Kind: models.KindBoolean, Raw: "1", Bool: true},
		{Column: 4, Kind: models.KindBoolean, Raw: "0"},
		{Column: 5, Kind: models.KindError, Raw: "N/A", Display: strPtr("ERROR:N/A")},
		{Column: 6, Kind: models.KindFormula, Raw: "Widget!", Display: strPtr("Widget!")},
		nil,
		{Column: 8, Kind: models.KindNumber, Raw: "45000", Number: 45000, Display: strPtr("2023-03-15"), Format: "yyyy-mm-dd"},
		nil,
	}
	if diff := cmp.Diff(expected, c.Rows[0].Cells); diff != "" {
		t.Fatal(diff)
	}
}

func TestReadDataRowsWithoutStyles(t *testing.T) {
	data := buildWorkbook(t, "", nil, []string{
		`<row r="1"><c r="A1"><v>100</v></c><c r="B1" s="1"><v>2.5</v></c><c r="C1" t="b"><v>0</v></c></row>`,
	})
	w := openTestWorkbook(t, data)

	var c output.Collector
	if _, err := w.ReadDataRows(0, 0, &c, nil); err != nil {
		t.Fatalf("ReadDataRows failed: %v", err)
	}
	expected := []*models.Cell{
		{Column: 0, Kind: models.KindText, Raw: "100"},
		{Column: 1, Kind: models.KindText, Raw: "2.5"},
		{Column: 2, Kind: models.KindBoolean, Raw: "0"},
	}
	if diff := cmp.Diff(expected, c.Rows[0].Cells); diff != "" {
		t.Fatal(diff)
	}
}

func TestReadDataRowsInvalidFormula(t *testing.T) {
	rows := []string{
		`<row r="1"><c r="A1"><v>1</v></c></row>`,
		`<row r="2"><c r="A2"><v>2</v></c><c r="B2" t="e"><v>#DIV/0!</v></c></row>`,
		`<row r="3"><c r="A3"><v>3</v></c></row>`,
	}
	w := openTestWorkbook(t, buildXLSX(t, nil, rows))

	var c output.Collector
	_, err := w.ReadDataRows(0, 0, &c, nil)
	if !errors.Is(err, ErrInvalidFormulaCell) {
		t.Fatalf("expected ErrInvalidFormulaCell, got %v", err)
	}
	var ce *CellError
	if !errors.As(err, &ce) {
		t.Fatalf("expected a CellError, got %T", err)
	}
	if ce.Row != 1 || ce.Column != 1 || ce.Sheet != 0 {
		t.Errorf("unexpected CellError position: %+v", ce)
	}
	if c.Finished {
		t.Error("Finish must not run after a failed scan")
	}
	if c.RowCount() != 1 {
		t.Errorf("expected 1 row before the failure, got %d", c.RowCount())
	}
}

func TestReadDataRowsNumericParseFailure(t *testing.T) {
	w := openTestWorkbook(t, buildXLSX(t, nil, []string{`<row r="1"><c r="A1" s="1"><v>12,5</v></c></row>`}))
	var c output.Collector
	if _, err := w.ReadDataRows(0, 0, &c, nil); !errors.Is(err, ErrNumericParse) {
		t.Fatalf("expected ErrNumericParse, got %v", err)
	}
}

func TestReadDataRowsZeroRows(t *testing.T) {
	var logs bytes.Buffer
	data := buildXLSX(t, nil, []string{`<row r="1"><c r="A1"><v>1</v></c></row>`})
	w, err := OpenReader(bytes.NewReader(data), int64(len(data)), Options{Logger: recordingLogger(&logs)})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	var c output.Collector
	n, err := w.ReadDataRows(0, 5, &c, nil)
	if err != nil {
		t.Fatalf("ReadDataRows failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 rows, got %d", n)
	}
	if !c.Finished {
		t.Error("Finish was not called")
	}
	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "no rows imported") {
		t.Errorf("expected a zero-row warning, got logs:\n%s", logs.String())
	}
}

func TestReadDataRowsConsumerFailure(t *testing.T) {
	var rows []string
	for i := 1; i <= 6; i++ {
		rows = append(rows, `<row r="`+strconv.Itoa(i)+`"><c r="A`+strconv.Itoa(i)+`"><v>`+strconv.Itoa(i)+`</v></c></row>`)
	}
	w := openTestWorkbook(t, buildXLSX(t, nil, rows, rows))

	c := &failingConsumer{failAt: 4}
	n, err := w.ReadDataRows(1, 0, c, nil)
	var re *RowError
	if !errors.As(err, &re) {
		t.Fatalf("expected a RowError, got %v", err)
	}
	if re.Row != 4 || re.Sheet != 1 {
		t.Errorf("unexpected RowError position: %+v", re)
	}
	if !strings.Contains(err.Error(), "row 5 of sheet 2") {
		t.Errorf("error should carry one-based positions: %v", err)
	}
	if c.Finished {
		t.Error("Finish must not run after a consumer failure")
	}
	if n != 4 {
		t.Errorf("expected 4 rows delivered before the failure, got %d", n)
	}
}

func TestReadDataRowsFinishFailure(t *testing.T) {
	w := openTestWorkbook(t, buildXLSX(t, nil, []string{`<row r="1"><c r="A1"><v>1</v></c></row>`}))
	c := &failingConsumer{failAt: -1, finishErr: errors.New("commit failed")}
	_, err := w.ReadDataRows(0, 0, c, nil)
	if !errors.Is(err, ErrFinish) {
		t.Fatalf("expected ErrFinish, got %v", err)
	}
	var ee *ExtractionError
	if !errors.As(err, &ee) || ee.Sheet != 0 || ee.Component != "rows" {
		t.Fatalf("expected the failure to name sheet and component, got %v", err)
	}
	if c.RowCount() != 1 {
		t.Errorf("expected the row to be counted before Finish, got %d", c.RowCount())
	}
}

func TestReadDataRowsFromFile(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	f.SetCellValue(sheetName, "A1", "Header1")
	f.SetCellValue(sheetName, "B1", "Header2")
	f.SetCellValue(sheetName, "A2", 100)
	f.SetCellValue(sheetName, "B2", 200.5)
	f.SetCellValue(sheetName, "C2", true)
	f.SetCellValue(sheetName, "A3", "Text")
	style, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellStyle(sheetName, "B2", "B2", style); err != nil {
		t.Fatal(err)
	}

	tmpFile := filepath.Join(t.TempDir(), "test.xlsx")
	if err := f.SaveAs(tmpFile); err != nil {
		t.Fatalf("Failed to save test file: %v", err)
	}

	var c output.Collector
	n, err := ReadDataRows(tmpFile, 0, 1, &c, nil, Options{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("ReadDataRows failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	expected := []output.Row{
		{Index: 1, Cells: []*models.Cell{
			{Column: 0, Kind: models.KindNumber, Raw: "100", Number: 100, Display: strPtr("100"), Format: "General"},
			{Column: 1, Kind: models.KindNumber, Raw: "200.5", Number: 200.5, Display: strPtr("200.50"), Format: "0.00"},
			{Column: 2, Kind: models.KindBoolean, Raw: "1", Bool: true},
		}},
		{Index: 2, Cells: []*models.Cell{
			{Column: 0, Kind: models.KindText, Raw: "Text", Display: strPtr("Text")},
		}},
	}
	if diff := cmp.Diff(expected, c.Rows); diff != "" {
		t.Fatal(diff)
	}
}

func TestWorkbookSharedAcrossScans(t *testing.T) {
	w := openTestWorkbook(t, buildXLSX(t, []string{"Name", "Ann"}, []string{
		`<row r="1"><c r="A1" t="s"><v>0</v></c></row>`,
		`<row r="2"><c r="A2" t="s"><v>1</v></c></row>`,
	}))
	columns, err := w.ReadHeaderRow(0, 0)
	if err != nil || len(columns) != 1 {
		t.Fatalf("ReadHeaderRow = %v, %v", columns, err)
	}
	var c output.Collector
	if n, err := w.ReadDataRows(0, 1, &c, AllColumns); err != nil || n != 1 {
		t.Fatalf("ReadDataRows = %d, %v", n, err)
	}
	if got := c.Rows[0].Cells[0].Raw; got != "Ann" {
		t.Errorf("expected Ann, got %q", got)
	}
	info := w.Info()
	if len(info.Sheets) != 1 || info.Sheets[0].Name != "S1" {
		t.Errorf("unexpected workbook info: %+v", info)
	}
}

func TestColumnSet(t *testing.T) {
	f := ColumnSet(0, 3)
	for col, expected := range map[string]bool{"0": true, "1": false, "3": true, "": false} {
		if got := f(col); got != expected {
			t.Errorf("ColumnSet(0, 3)(%q) = %v, expected %v", col, got, expected)
		}
	}
}
