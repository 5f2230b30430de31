package parser

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/xuri/nfp"
)

// FormatNumber renders v as a spreadsheet displays it under format.
// Unsupported constructs (fractions, conditions) fall back to General.
func FormatNumber(v float64, format string, date1904 bool) string {
	if format == "" || strings.EqualFold(format, "General") {
		return formatGeneral(v)
	}
	p := nfp.NumberFormatParser()
	sections := p.Parse(format)
	if len(sections) == 0 {
		return formatGeneral(v)
	}

	items, signed := sections[0].Items, true
	switch {
	case v < 0 && len(sections) > 1:
		items, signed = sections[1].Items, false
	case v == 0 && len(sections) > 2:
		items = sections[2].Items
	}

	if isDateTimeFormat(items) {
		if s, ok := formatDateTime(v, items, date1904); ok {
			return s
		}
		return formatGeneral(v)
	}
	return formatDecimal(v, items, signed)
}

func isPlaceholder(tt string) bool {
	switch tt {
	case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder, nfp.TokenTypeDigitalPlaceHolder:
		return true
	}
	return false
}

func formatDecimal(v float64, items []nfp.Token, signed bool) string {
	var (
		intZeros, decimals, percent, scale int
		afterPoint, grouping, exponent     bool
		pending                            []int
	)
	// Commas directly after the last digit placeholder divide by 1000
	// each; commas between integer placeholders turn on grouping.
	commas := make([]bool, len(items))
	flush := func() {
		for _, i := range pending {
			scale += strings.Count(items[i].TValue, ",")
			commas[i] = true
		}
		pending = pending[:0]
	}
	for i, item := range items {
		switch {
		case isPlaceholder(item.TType):
			if len(pending) > 0 && !afterPoint {
				grouping = true
			}
			pending = pending[:0]
			switch {
			case exponent:
			case afterPoint:
				decimals += len(item.TValue)
			case item.TType == nfp.TokenTypeZeroPlaceHolder:
				intZeros += len(item.TValue)
			}
		case item.TType == nfp.TokenTypeThousandsSeparator,
			item.TType == nfp.TokenTypeLiteral && len(pending) > 0 && isCommas(item.TValue):
			pending = append(pending, i)
		case item.TType == nfp.TokenTypeDecimalPoint:
			flush()
			afterPoint = true
		case item.TType == nfp.TokenTypePercent:
			flush()
			percent++
		case item.TType == nfp.TokenTypeExponential:
			flush()
			exponent = true
		case item.TType == nfp.TokenTypeFraction,
			item.TType == nfp.TokenTypeDenominator,
			item.TType == nfp.TokenTypeCondition:
			return formatGeneral(v)
		default:
			flush()
		}
	}
	flush()

	abs := math.Abs(v)
	for i := 0; i < scale; i++ {
		abs /= 1000
	}
	for i := 0; i < percent; i++ {
		abs *= 100
	}
	var num string
	if exponent {
		num = strconv.FormatFloat(abs, 'E', decimals, 64)
	} else {
		num = formatFixed(abs, decimals, intZeros, grouping)
	}

	var sb strings.Builder
	if signed && v < 0 && strings.Trim(num, "0.,") != "" {
		sb.WriteByte('-')
	}
	written := false
	for i, item := range items {
		switch {
		case commas[i]:
		case isPlaceholder(item.TType),
			item.TType == nfp.TokenTypeDecimalPoint,
			item.TType == nfp.TokenTypeThousandsSeparator,
			item.TType == nfp.TokenTypeExponential:
			if !written {
				sb.WriteString(num)
				written = true
			}
		case item.TType == nfp.TokenTypeGeneral, item.TType == nfp.TokenTypeTextPlaceHolder:
			if !written {
				sb.WriteString(formatGeneral(abs))
				written = true
			}
		case item.TType == nfp.TokenTypePercent:
			sb.WriteByte('%')
		case item.TType == nfp.TokenTypeLiteral:
			sb.WriteString(literal(item.TValue))
		case item.TType == nfp.TokenTypeCurrencyLanguage:
			sb.WriteString(currencySymbol(item))
		}
	}
	return sb.String()
}

func formatFixed(abs float64, decimals, intZeros int, grouping bool) string {
	p := math.Pow10(decimals)
	s := strconv.FormatFloat(math.Round(abs*p)/p, 'f', decimals, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	if intPart == "0" && intZeros == 0 {
		intPart = ""
	}
	for len(intPart) < intZeros {
		intPart = "0" + intPart
	}
	if grouping {
		intPart = groupThousands(intPart)
	}
	if decimals > 0 {
		return intPart + "." + frac
	}
	return intPart
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}

func formatGeneral(v float64) string {
	if v == 0 {
		return "0"
	}
	if abs := math.Abs(v); abs >= 1e11 || abs < 1e-9 {
		mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'E', 5, 64), "E")
		if strings.Contains(mant, ".") {
			mant = strings.TrimRight(strings.TrimRight(mant, "0"), ".")
		}
		return mant + "E" + exp
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 11, 64), 64)
	if err != nil {
		r = v
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func isCommas(s string) bool {
	return s != "" && strings.Trim(s, ",") == ""
}

func literal(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return strings.TrimPrefix(s, `\`)
}

func currencySymbol(item nfp.Token) string {
	for _, part := range item.Parts {
		if part.Token.TType == nfp.TokenSubTypeCurrencyString {
			return part.Token.TValue
		}
	}
	return ""
}

func isDateTimeFormat(items []nfp.Token) bool {
	for _, item := range items {
		if item.TType == nfp.TokenTypeDateTimes || item.TType == nfp.TokenTypeElapsedDateTimes {
			return true
		}
	}
	return false
}

func formatDateTime(v float64, items []nfp.Token, date1904 bool) (string, bool) {
	t, err := excelize.ExcelDateToTime(v, date1904)
	if err != nil {
		return "", false
	}
	hour12 := false
	for _, item := range items {
		if item.TType == nfp.TokenTypeDateTimes && strings.Contains(item.TValue, "/") {
			hour12 = true
		}
	}

	var sb strings.Builder
	for i, item := range items {
		switch item.TType {
		case nfp.TokenTypeDateTimes:
			sb.WriteString(dateTimePart(t, items, i, hour12))
		case nfp.TokenTypeElapsedDateTimes:
			sb.WriteString(elapsedPart(v, item.TValue))
		case nfp.TokenTypeLiteral:
			sb.WriteString(literal(item.TValue))
		case nfp.TokenTypeDecimalPoint:
			sb.WriteByte('.')
		case nfp.TokenTypeZeroPlaceHolder:
			frac := strconv.Itoa(t.Nanosecond() / int(time.Millisecond))
			for len(frac) < 3 {
				frac = "0" + frac
			}
			if n := len(item.TValue); n < len(frac) {
				frac = frac[:n]
			}
			sb.WriteString(frac)
		}
	}
	return sb.String(), true
}

func dateTimePart(t time.Time, items []nfp.Token, i int, hour12 bool) string {
	tv := strings.ToLower(items[i].TValue)
	switch tv {
	case "am/pm":
		return t.Format("PM")
	case "a/p":
		return t.Format("PM")[:1]
	}
	if tv == "" {
		return ""
	}
	switch tv[0] {
	case 'y':
		if len(tv) <= 2 {
			return t.Format("06")
		}
		return t.Format("2006")
	case 'm':
		switch {
		case len(tv) <= 2 && isMinute(items, i):
			return pad(t.Minute(), len(tv))
		case len(tv) <= 2:
			return pad(int(t.Month()), len(tv))
		case len(tv) == 3:
			return t.Format("Jan")
		case len(tv) == 5:
			return t.Format("Jan")[:1]
		}
		return t.Format("January")
	case 'd':
		switch len(tv) {
		case 1, 2:
			return pad(t.Day(), len(tv))
		case 3:
			return t.Format("Mon")
		}
		return t.Format("Monday")
	case 'h':
		h := t.Hour()
		if hour12 {
			if h = h % 12; h == 0 {
				h = 12
			}
		}
		return pad(h, len(tv))
	case 's':
		return pad(t.Second(), len(tv))
	}
	return items[i].TValue
}

// isMinute reports whether the m/mm token at i denotes minutes: it
// follows an hour token or precedes a seconds token.
func isMinute(items []nfp.Token, i int) bool {
	for j := i - 1; j >= 0; j-- {
		if items[j].TType == nfp.TokenTypeDateTimes {
			return strings.HasPrefix(strings.ToLower(items[j].TValue), "h")
		}
	}
	for j := i + 1; j < len(items); j++ {
		if items[j].TType == nfp.TokenTypeDateTimes {
			return strings.HasPrefix(strings.ToLower(items[j].TValue), "s")
		}
	}
	return false
}

func elapsedPart(v float64, tv string) string {
	tv = strings.ToLower(strings.Trim(tv, "[]"))
	if tv == "" {
		return ""
	}
	seconds := math.Round(math.Abs(v) * 86400)
	var n float64
	switch tv[0] {
	case 'h':
		n = math.Floor(seconds / 3600)
	case 'm':
		n = math.Floor(seconds / 60)
	default:
		n = seconds
	}
	return pad(int(n), len(tv))
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
