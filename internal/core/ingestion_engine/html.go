package ingestion_engine

import (
	"bytes"
	"strings"
	"sync"

	"code.sajari.com/docconv"
	"github.com/PuerkitoBio/goquery"
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "td": true, "th": true, "tr": true,
	"ul": true,
}

var readabilityOnce sync.Once

// setReadabilityDefaults fills docconv's package-level justext options, which
// are zero unless a caller sets them.
func setReadabilityDefaults() {
	readabilityOnce.Do(func() {
		if docconv.HTMLReadabilityOptionsValues.ReadabilityUseClasses != "" {
			return
		}
		docconv.HTMLReadabilityOptionsValues = docconv.HTMLReadabilityOptions{
			LengthLow:             70,
			LengthHigh:            200,
			StopwordsLow:          0.2,
			StopwordsHigh:         0.3,
			MaxLinkDensity:        0.2,
			MaxHeadingDistance:    200,
			ReadabilityUseClasses: "good,neargood",
		}
	})
}

// html strips markup in-process. docconv.ConvertHTML is not used: it needs
// the tidy binary and loses the input when tidy is missing.
func (e *DocconvExtractor) html(data []byte) (string, error) {
	if e.useReadability {
		if text := strings.TrimSpace(string(docconv.HTMLReadability(bytes.NewReader(data)))); text != "" {
			return text, nil
		}
	}
	return htmlToText(data)
}

// htmlToText keeps the visible text of the body, one line per block element.
func htmlToText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, template, svg, head").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	var b strings.Builder
	writeText(&b, root)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		name := goquery.NodeName(node)
		switch name {
		case "#text":
			b.WriteString(node.Text())
			return
		case "#comment":
			return
		}
		block := blockTags[name]
		if block {
			b.WriteByte('\n')
		}
		writeText(b, node)
		if block {
			b.WriteByte('\n')
		}
	})
}
