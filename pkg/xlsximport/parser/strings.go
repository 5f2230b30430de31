package parser

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/muktihari/xmltokenizer"
)

// ErrUnresolvedStringIndex indicates a shared-string index outside the table.
var ErrUnresolvedStringIndex = errors.New("unresolved shared string index")

// ErrTooManySharedStrings indicates the table exceeds the configured limit.
var ErrTooManySharedStrings = errors.New("shared string table exceeds limit")

// SharedStrings is the read-only shared string table of a workbook.
// It is safe for concurrent use once loaded.
type SharedStrings struct {
	items []string
}

// NewSharedStrings builds a table from literal items.
func NewSharedStrings(items ...string) *SharedStrings {
	return &SharedStrings{items: items}
}

// LoadSharedStrings reads a sharedStrings part. Rich text runs are
// concatenated and phonetic runs are dropped. A positive limit caps the
// number of entries.
func LoadSharedStrings(r io.Reader, limit int) (*SharedStrings, error) {
	tok := xmltokenizer.New(r)
	sst := new(SharedStrings)

	var (
		sb       strings.Builder
		inItem   bool
		phonetic bool
	)
	for {
		token, err := tok.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("shared strings: %w", err)
		}

		switch string(token.Name.Local) {
		case "si":
			switch {
			case token.IsEndElement:
				sst.items = append(sst.items, sb.String())
				inItem = false
			case token.SelfClosing:
				sst.items = append(sst.items, "")
			default:
				sb.Reset()
				inItem = true
			}
			if limit > 0 && len(sst.items) > limit {
				return nil, fmt.Errorf("%w: more than %d entries", ErrTooManySharedStrings, limit)
			}
		case "rPh":
			phonetic = !token.IsEndElement && !token.SelfClosing
		case "t":
			if inItem && !phonetic && !token.IsEndElement {
				sb.WriteString(decodeText(token.Data))
			}
		}
	}
	return sst, nil
}

// Get returns the string at index.
func (s *SharedStrings) Get(index int) (string, error) {
	if s == nil || index < 0 || index >= len(s.items) {
		return "", fmt.Errorf("%w: %d", ErrUnresolvedStringIndex, index)
	}
	return s.items[index], nil
}

// Len returns the number of entries.
func (s *SharedStrings) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// decodeText resolves XML entities and the _xHHHH_ escapes used by
// spreadsheet writers for control characters.
func decodeText(b []byte) string {
	s := string(b)
	if strings.IndexByte(s, '&') >= 0 {
		s = html.UnescapeString(s)
	}
	if !strings.Contains(s, "_x") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		if i+7 <= len(s) && s[i] == '_' && s[i+1] == 'x' && s[i+6] == '_' {
			if v, err := strconv.ParseUint(s[i+2:i+6], 16, 16); err == nil {
				sb.WriteRune(rune(v))
				i += 7
				continue
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}
