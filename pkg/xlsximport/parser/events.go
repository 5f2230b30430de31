package parser

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/muktihari/xmltokenizer"
)

// ErrSourceConsumed indicates an EventSource was run twice.
var ErrSourceConsumed = errors.New("event source already consumed")

// CellType is the declared kind of a cell's content.
type CellType int

const (
	// CellTypeUnknown covers type tags the reader does not interpret, e.g. "d".
	CellTypeUnknown CellType = iota
	CellTypeNumeric
	CellTypeText
	CellTypeFormula
	CellTypeBoolean
	CellTypeError
)

func (t CellType) String() string {
	switch t {
	case CellTypeNumeric:
		return "NUMERIC"
	case CellTypeText:
		return "STRING"
	case CellTypeFormula:
		return "FORMULA"
	case CellTypeBoolean:
		return "BOOLEAN"
	case CellTypeError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// cellTypeOf maps the t attribute of a <c> element.
func cellTypeOf(tag string) CellType {
	switch tag {
	case "", "n":
		return CellTypeNumeric
	case "s", "inlineStr":
		return CellTypeText
	case "str":
		return CellTypeFormula
	case "b":
		return CellTypeBoolean
	case "e":
		return CellTypeError
	}
	return CellTypeUnknown
}

// CellEvent is one cell of the sheet stream. Shared-string cells are
// already resolved: Raw holds the text, never the table index.
type CellEvent struct {
	Ref     string
	Row     int // zero-based
	Col     int // zero-based
	Type    CellType
	Raw     string
	HasRaw  bool   // false when the cell carries no value at all
	Display string // formatted display value
	Format  string // number format string, "" when the cell has none
	Formula string // formula text, if any
}

// Action tells the EventSource whether to keep reading after a row ends.
type Action int

const (
	Continue Action = iota
	Stop
)

// SheetHandler receives the events of one sheet scan.
type SheetHandler interface {
	StartRow(row int)
	Cell(ev *CellEvent) error
	EndRow(row int) (Action, error)
}

// EventSource is a forward-only, single-pass reader over a sheet part.
type EventSource struct {
	r        io.Reader
	strings  *SharedStrings
	styles   *Styles
	date1904 bool
	used     bool

	row, col int
	cell     cellState
}

type cellState struct {
	ref, tag  string
	style     int
	hasStyle  bool
	value     string
	hasValue  bool
	inline    []byte
	inInline  bool
	hasInline bool
	phonetic  bool
	formula   string
	inCell    bool
}

// NewEventSource returns an EventSource reading the sheet part r.
// strings and styles may be nil.
func NewEventSource(r io.Reader, strings *SharedStrings, styles *Styles, date1904 bool) *EventSource {
	return &EventSource{r: r, strings: strings, styles: styles, date1904: date1904, row: -1}
}

// Run scans the sheet, calling h for every row and cell. It returns nil
// when the stream ends or when h asks to Stop; the rest of the input is
// left unread in that case.
func (s *EventSource) Run(h SheetHandler) error {
	if s.used {
		return ErrSourceConsumed
	}
	s.used = true

	tok := xmltokenizer.New(s.r)
	for {
		token, err := tok.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("sheet stream: %w", err)
		}

		switch string(token.Name.Local) {
		case "sheetData":
			if token.IsEndElement {
				return nil
			}
		case "row":
			if token.IsEndElement {
				if stop, err := s.endRow(h); stop || err != nil {
					return err
				}
				continue
			}
			if err := s.startRow(&token, h); err != nil {
				return err
			}
			if token.SelfClosing {
				if stop, err := s.endRow(h); stop || err != nil {
					return err
				}
			}
		case "c":
			if token.IsEndElement {
				if err := s.emitCell(h); err != nil {
					return err
				}
				continue
			}
			s.startCell(&token)
			if token.SelfClosing {
				if err := s.emitCell(h); err != nil {
					return err
				}
			}
		case "v":
			if s.cell.inCell && !token.IsEndElement && !token.SelfClosing {
				s.cell.value = decodeText(token.Data)
				s.cell.hasValue = true
			}
		case "f":
			if s.cell.inCell && !token.IsEndElement {
				s.cell.formula = decodeText(token.Data)
			}
		case "is":
			if s.cell.inCell {
				s.cell.inInline = !token.IsEndElement && !token.SelfClosing
				s.cell.hasInline = true
			}
		case "rPh":
			s.cell.phonetic = !token.IsEndElement && !token.SelfClosing
		case "t":
			if s.cell.inInline && !s.cell.phonetic && !token.IsEndElement {
				s.cell.inline = append(s.cell.inline, decodeText(token.Data)...)
			}
		}
	}
}

func (s *EventSource) startRow(token *xmltokenizer.Token, h SheetHandler) error {
	row := s.row + 1
	for i := range token.Attrs {
		attr := &token.Attrs[i]
		if string(attr.Name.Local) != "r" {
			continue
		}
		r, err := strconv.Atoi(string(attr.Value))
		if err != nil || r < 1 {
			return fmt.Errorf("%w: row %q", ErrMalformedAddress, attr.Value)
		}
		row = r - 1
	}
	s.row, s.col = row, -1
	h.StartRow(row)
	return nil
}

func (s *EventSource) endRow(h SheetHandler) (stop bool, err error) {
	action, err := h.EndRow(s.row)
	if err != nil {
		return true, err
	}
	return action == Stop, nil
}

func (s *EventSource) startCell(token *xmltokenizer.Token) {
	inline := s.cell.inline[:0]
	s.cell = cellState{inCell: true, inline: inline}
	for i := range token.Attrs {
		attr := &token.Attrs[i]
		switch string(attr.Name.Local) {
		case "r":
			s.cell.ref = string(attr.Value)
		case "t":
			s.cell.tag = string(attr.Value)
		case "s":
			if v, err := strconv.Atoi(string(attr.Value)); err == nil {
				s.cell.style, s.cell.hasStyle = v, true
			}
		}
	}
}

func (s *EventSource) emitCell(h SheetHandler) error {
	c := &s.cell
	if !c.inCell {
		return nil
	}
	c.inCell = false

	ev := CellEvent{Ref: c.ref, Type: cellTypeOf(c.tag), Formula: c.formula}
	if ev.Ref != "" {
		row, col, err := ParseAddress(ev.Ref)
		if err != nil {
			return err
		}
		ev.Row, ev.Col = row, col
	} else {
		ev.Row, ev.Col = s.row, s.col+1
		ref, err := CellName(ev.Row, ev.Col)
		if err != nil {
			return err
		}
		ev.Ref = ref
	}
	s.col = ev.Col

	switch c.tag {
	case "s":
		if c.hasValue {
			idx, err := strconv.Atoi(c.value)
			if err != nil {
				return fmt.Errorf("%w: %q at %s", ErrUnresolvedStringIndex, c.value, ev.Ref)
			}
			text, err := s.strings.Get(idx)
			if err != nil {
				return fmt.Errorf("%w at %s", err, ev.Ref)
			}
			ev.Raw, ev.HasRaw, ev.Display = text, true, text
		}
	case "inlineStr":
		if c.hasInline {
			ev.Raw, ev.HasRaw = string(c.inline), true
		} else if c.hasValue {
			ev.Raw, ev.HasRaw = c.value, true
		}
		ev.Display = ev.Raw
	default:
		ev.Raw, ev.HasRaw = c.value, c.hasValue
		ev.Display = s.display(&ev, c)
	}
	return h.Cell(&ev)
}

func (s *EventSource) display(ev *CellEvent, c *cellState) string {
	switch ev.Type {
	case CellTypeBoolean:
		switch ev.Raw {
		case "1":
			return "TRUE"
		case "0":
			return "FALSE"
		}
	case CellTypeNumeric:
		// Unstyled cells take the workbook default style at index 0.
		style := 0
		if c.hasStyle {
			style = c.style
		}
		ev.Format, _ = s.styles.FormatString(style)
		if ev.Format == "" || !ev.HasRaw {
			break
		}
		if v, err := strconv.ParseFloat(ev.Raw, 64); err == nil {
			return FormatNumber(v, ev.Format, s.date1904)
		}
	}
	return ev.Raw
}
