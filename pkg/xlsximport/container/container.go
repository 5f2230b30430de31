// Package container provides direct part access to a spreadsheet archive
// without building a workbook object model.
package container

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/ukaji3/xlsximport-go/pkg/xlsximport/models"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input file is not a valid xlsx format.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// ErrSheetNotFound indicates the requested sheet index does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrPartNotFound indicates the requested part is not in the archive.
var ErrPartNotFound = errors.New("part not found")

// Content types of the parts the reader cares about.
const (
	ContentTypeWorksheet     = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	ContentTypeSharedStrings = "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"
	ContentTypeStyles        = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
)

const (
	contentTypesPart = "[Content_Types].xml"
	defaultWorkbook  = "xl/workbook.xml"
)

// Archive is an opened spreadsheet container.
type Archive struct {
	zr       *zip.Reader
	closer   io.Closer
	files    map[string]*zip.File
	folded   map[string]*zip.File // lower-cased names, part names are case-insensitive
	types    map[string]string    // part name -> content type
	workbook string
	sheets   []models.SheetInfo
	date1904 bool
}

// Open opens the archive at path.
func Open(name string) (*Archive, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	a, err := newArchive(&rc.Reader, rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return a, nil
}

// OpenReader opens an archive held in r.
func OpenReader(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return newArchive(zr, nil)
}

// OpenBytes opens an archive held in memory.
func OpenBytes(b []byte) (*Archive, error) {
	return OpenReader(bytes.NewReader(b), int64(len(b)))
}

func newArchive(zr *zip.Reader, closer io.Closer) (*Archive, error) {
	a := &Archive{
		zr:     zr,
		closer: closer,
		files:  make(map[string]*zip.File, len(zr.File)),
		folded: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		a.files[f.Name] = f
		a.folded[strings.ToLower(f.Name)] = f
	}
	if err := a.readContentTypes(); err != nil {
		return nil, err
	}
	if err := a.readWorkbook(); err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the underlying file, if any.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Sheets returns the worksheets in selection order.
func (a *Archive) Sheets() []models.SheetInfo {
	return a.sheets
}

// Date1904 reports whether the workbook uses the 1904 date system.
func (a *Archive) Date1904() bool {
	return a.date1904
}

// Parts returns the names of all parts with the given content type,
// in natural part-name order.
func (a *Archive) Parts(contentType string) []string {
	var parts []string
	for name, ct := range a.types {
		if ct == contentType {
			parts = append(parts, name)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return naturalLess(parts[i], parts[j]) })
	return parts
}

// HasPart reports whether the archive contains the named part.
func (a *Archive) HasPart(name string) bool {
	return a.lookup(name) != nil
}

// OpenPart opens the named part for streaming. The caller must close it.
func (a *Archive) OpenPart(name string) (io.ReadCloser, error) {
	f := a.lookup(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}
	return f.Open()
}

// OpenSheet opens the worksheet part at the zero-based index.
func (a *Archive) OpenSheet(index int) (io.ReadCloser, error) {
	if index < 0 || index >= len(a.sheets) {
		return nil, fmt.Errorf("%w: index %d (workbook has %d sheets)", ErrSheetNotFound, index, len(a.sheets))
	}
	return a.OpenPart(a.sheets[index].Part)
}

// SheetIndex returns the index of the sheet with the given name.
func (a *Archive) SheetIndex(name string) (int, error) {
	for _, s := range a.sheets {
		if s.Name == name {
			return s.Index, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

// FirstPart returns the first part of the given content type, or "" if none.
func (a *Archive) FirstPart(contentType string) string {
	if parts := a.Parts(contentType); len(parts) > 0 {
		return parts[0]
	}
	return ""
}

func (a *Archive) lookup(name string) *zip.File {
	name = strings.TrimPrefix(name, "/")
	if f, ok := a.files[name]; ok {
		return f
	}
	return a.folded[strings.ToLower(name)]
}

func (a *Archive) decodePart(name string, v interface{}) error {
	rc, err := a.OpenPart(name)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFormat, name, err)
	}
	return nil
}

type xmlContentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

func (a *Archive) readContentTypes() error {
	if !a.HasPart(contentTypesPart) {
		return fmt.Errorf("%w: missing %s", ErrInvalidFormat, contentTypesPart)
	}
	var ct xmlContentTypes
	if err := a.decodePart(contentTypesPart, &ct); err != nil {
		return err
	}
	a.types = make(map[string]string, len(ct.Overrides))
	for _, o := range ct.Overrides {
		name := strings.TrimPrefix(o.PartName, "/")
		a.types[name] = o.ContentType
		if strings.HasSuffix(o.ContentType, ".main+xml") && a.workbook == "" {
			a.workbook = name
		}
	}
	if a.workbook == "" {
		a.workbook = defaultWorkbook
	}
	return nil
}

type xmlWorkbook struct {
	WorkbookPr struct {
		Date1904 string `xml:"date1904,attr"`
	} `xml:"workbookPr"`
	Sheets []struct {
		Name string `xml:"name,attr"`
		ID   string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type xmlRelationships struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// readWorkbook orders the worksheet parts and names them from
// workbook.xml and its relationships, when those parts exist.
func (a *Archive) readWorkbook() error {
	parts := a.Parts(ContentTypeWorksheet)
	names := make(map[string]string, len(parts))

	if a.HasPart(a.workbook) {
		var wb xmlWorkbook
		if err := a.decodePart(a.workbook, &wb); err != nil {
			return err
		}
		a.date1904 = wb.WorkbookPr.Date1904 == "1" || wb.WorkbookPr.Date1904 == "true"

		relsPath := path.Join(path.Dir(a.workbook), "_rels", path.Base(a.workbook)+".rels")
		if a.HasPart(relsPath) {
			var rels xmlRelationships
			if err := a.decodePart(relsPath, &rels); err != nil {
				return err
			}
			targets := make(map[string]string, len(rels.Relationships))
			for _, r := range rels.Relationships {
				targets[r.ID] = resolveRelativePath(r.Target, path.Dir(a.workbook))
			}
			for _, s := range wb.Sheets {
				if target, ok := targets[s.ID]; ok {
					names[strings.ToLower(target)] = s.Name
				}
			}
		}
	}

	a.sheets = make([]models.SheetInfo, 0, len(parts))
	for i, p := range parts {
		a.sheets = append(a.sheets, models.SheetInfo{Index: i, Name: names[strings.ToLower(p)], Part: p})
	}
	return nil
}

// resolveRelativePath resolves a relationship target against the
// directory of its source part.
func resolveRelativePath(target, baseDir string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(baseDir, target)
}

// naturalLess compares part names treating digit runs as numbers,
// so sheet2.xml sorts before sheet10.xml.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		switch {
		case da && db:
			na, ra := splitDigits(a)
			nb, rb := splitDigits(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			a, b = ra, rb
		case a[0] != b[0]:
			return a[0] < b[0]
		default:
			a, b = a[1:], b[1:]
		}
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func splitDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
