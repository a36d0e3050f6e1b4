package ingestion_engine

import (
	"bytes"
	"compress/zlib"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// extractPDF is best effort. It asks a real PDF reader first and, when that
// fails or panics on a malformed file, scrapes string tokens out of the raw
// and inflated content streams. Neither guarantees correct text.
func extractPDF(data []byte) string {
	if text := readPDF(data); len(strings.TrimSpace(text)) > 0 {
		return normaliseSpace(text)
	}
	return scrapePDFStrings(data)
}

func readPDF(data []byte) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return ""
	}
	return string(b)
}

var (
	streamRe   = regexp.MustCompile(`(?s)stream\r?\n(.*?)\r?\nendstream`)
	parenTokRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)
)

// scrapePDFStrings collects parenthesised string tokens. Compressed streams
// are inflated first; whatever does not inflate is scanned as is.
func scrapePDFStrings(data []byte) string {
	var b strings.Builder
	scan := func(chunk []byte) {
		for _, m := range parenTokRe.FindAllSubmatch(chunk, -1) {
			b.WriteString(unescapePDF(m[1]))
			b.WriteByte(' ')
		}
	}
	streams := streamRe.FindAllSubmatch(data, -1)
	for _, s := range streams {
		if inflated, ok := inflate(s[1]); ok {
			scan(inflated)
		} else {
			scan(s[1])
		}
	}
	if len(streams) == 0 {
		scan(data)
	}
	return normaliseSpace(printable(b.String()))
}

func inflate(raw []byte) ([]byte, bool) {
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, 32<<20))
	if err != nil && len(out) == 0 {
		return nil, false
	}
	return out, true
}

func unescapePDF(tok []byte) string {
	var b strings.Builder
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if c != '\\' || i+1 == len(tok) {
			// bytes above 0x7f are read as Latin-1
			b.WriteRune(rune(c))
			continue
		}
		i++
		switch tok[i] {
		case 'n', 'r', 't':
			b.WriteByte(' ')
		case '(', ')', '\\':
			b.WriteByte(tok[i])
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v, n := 0, 0
			for ; n < 3 && i < len(tok) && tok[i] >= '0' && tok[i] <= '7'; n++ {
				v = v*8 + int(tok[i]-'0')
				i++
			}
			i--
			b.WriteRune(rune(v & 0xff))
		}
	}
	return b.String()
}

func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

func normaliseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
