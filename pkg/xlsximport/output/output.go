// Package output provides row consumers that serialize data rows.
package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/models"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Row is one delivered data row.
type Row struct {
	Index int
	Sheet int
	Cells []*models.Cell
}

// Collector keeps every row in memory.
type Collector struct {
	Rows     []Row
	Finished bool
}

// ProcessRow implements xlsximport.RowConsumer.
func (c *Collector) ProcessRow(cells []*models.Cell, row, sheet int) error {
	c.Rows = append(c.Rows, Row{Index: row, Sheet: sheet, Cells: append([]*models.Cell(nil), cells...)})
	return nil
}

// Finish implements xlsximport.RowConsumer.
func (c *Collector) Finish() error {
	c.Finished = true
	return nil
}

// RowCount returns the number of rows collected.
func (c *Collector) RowCount() int64 {
	return int64(len(c.Rows))
}

// JSONWriter writes one JSON object per row.
type JSONWriter struct {
	bw   *bufio.Writer
	enc  *json.Encoder
	rows int64
}

// NewJSONWriter returns a JSONWriter writing to w.
func NewJSONWriter(w io.Writer, pretty bool) *JSONWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &JSONWriter{bw: bw, enc: enc}
}

// ProcessRow implements xlsximport.RowConsumer.
func (j *JSONWriter) ProcessRow(cells []*models.Cell, row, sheet int) error {
	cr := models.CellRow{R: row + 1, Sheet: sheet, C: make(map[string]interface{}, len(cells))}
	for _, c := range cells {
		if c == nil {
			continue
		}
		cr.C[strconv.Itoa(c.Column+1)] = c.Value()
	}
	if err := j.enc.Encode(cr); err != nil {
		return err
	}
	j.rows++
	return nil
}

// Finish implements xlsximport.RowConsumer.
func (j *JSONWriter) Finish() error {
	return j.bw.Flush()
}

// RowCount returns the number of rows written.
func (j *JSONWriter) RowCount() int64 {
	return j.rows
}

// CSVWriter writes one record per row, placing each cell at its column.
type CSVWriter struct {
	tw     *transform.Writer
	cw     *csv.Writer
	record []string
	rows   int64
}

// NewCSVWriter returns a CSVWriter writing to w in the named encoding
// (an HTML/WHATWG label such as "windows-1252"). An empty name or
// "utf-8" writes UTF-8.
func NewCSVWriter(w io.Writer, encodingName string) (*CSVWriter, error) {
	c := new(CSVWriter)
	if name := strings.ToLower(encodingName); name != "" && name != "utf-8" && name != "utf8" {
		enc, err := htmlindex.Get(name)
		if err != nil {
			return nil, fmt.Errorf("unknown encoding %q: %w", encodingName, err)
		}
		c.tw = transform.NewWriter(w, encoding.ReplaceUnsupported(enc.NewEncoder()))
		w = c.tw
	}
	c.cw = csv.NewWriter(w)
	return c, nil
}

// ProcessRow implements xlsximport.RowConsumer.
func (c *CSVWriter) ProcessRow(cells []*models.Cell, row, sheet int) error {
	c.record = c.record[:0]
	for _, cell := range cells {
		if cell == nil {
			continue
		}
		for len(c.record) <= cell.Column {
			c.record = append(c.record, "")
		}
		c.record[cell.Column] = cell.String()
	}
	if err := c.cw.Write(c.record); err != nil {
		return err
	}
	c.rows++
	return nil
}

// Finish implements xlsximport.RowConsumer.
func (c *CSVWriter) Finish() error {
	c.cw.Flush()
	if err := c.cw.Error(); err != nil {
		return err
	}
	if c.tw != nil {
		return c.tw.Close()
	}
	return nil
}

// RowCount returns the number of rows written.
func (c *CSVWriter) RowCount() int64 {
	return c.rows
}
