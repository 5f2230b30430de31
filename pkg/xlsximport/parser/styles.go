package parser

import (
	"encoding/xml"
	"fmt"
	"io"
)

// builtInNumFmt holds the implicit number formats every workbook shares.
var builtInNumFmt = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `"$"#,##0_);("$"#,##0)`,
	6:  `"$"#,##0_);[Red]("$"#,##0)`,
	7:  `"$"#,##0.00_);("$"#,##0.00)`,
	8:  `"$"#,##0.00_);[Red]("$"#,##0.00)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "m/d/yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: "#,##0_);(#,##0)",
	38: "#,##0_);[Red](#,##0)",
	39: "#,##0.00_);(#,##0.00)",
	40: "#,##0.00_);[Red](#,##0.00)",
	41: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	42: `_("$"* #,##0_);_("$"* (#,##0);_("$"* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	44: `_("$"* #,##0.00_);_("$"* (#,##0.00);_("$"* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
}

type xmlStyleSheet struct {
	NumFmts struct {
		NumFmt []struct {
			NumFmtID   int    `xml:"numFmtId,attr"`
			FormatCode string `xml:"formatCode,attr"`
		} `xml:"numFmt"`
	} `xml:"numFmts"`
	CellXfs struct {
		Xf []struct {
			NumFmtID int `xml:"numFmtId,attr"`
		} `xml:"xf"`
	} `xml:"cellXfs"`
}

// Styles maps cell style indexes to number format strings.
type Styles struct {
	custom   map[int]string
	xfNumFmt []int
}

// LoadStyles reads a styles part.
func LoadStyles(r io.Reader) (*Styles, error) {
	var ss xmlStyleSheet
	if err := xml.NewDecoder(r).Decode(&ss); err != nil {
		return nil, fmt.Errorf("styles: %w", err)
	}
	s := &Styles{custom: make(map[int]string, len(ss.NumFmts.NumFmt))}
	for _, nf := range ss.NumFmts.NumFmt {
		s.custom[nf.NumFmtID] = nf.FormatCode
	}
	for _, xf := range ss.CellXfs.Xf {
		s.xfNumFmt = append(s.xfNumFmt, xf.NumFmtID)
	}
	return s, nil
}

// FormatString returns the number format of the style at index, or
// false when the style is unknown or has no resolvable format.
func (s *Styles) FormatString(style int) (string, bool) {
	if s == nil || style < 0 || style >= len(s.xfNumFmt) {
		return "", false
	}
	id := s.xfNumFmt[style]
	if code, ok := s.custom[id]; ok && code != "" {
		return code, true
	}
	code, ok := builtInNumFmt[id]
	return code, ok
}
