package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
	"github.com/gabriel-vasile/mimetype"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/logger"
	"github.com/markdave123-py/docsync/internal/models"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor implements core.DocumentExtractor with per-format
// strategies: a PDF reader for PDFs, sajari/docconv for Word, a goquery walk
// for HTML, and pass-through for plain text formats.
type DocconvExtractor struct {
	useReadability bool
	minChars       int
	charsPerPage   int
}

func NewDocconvExtractor(useReadability bool, cfg *IngestConfig) *DocconvExtractor {
	if useReadability {
		setReadabilityDefaults()
	}
	return &DocconvExtractor{
		useReadability: useReadability,
		minChars:       cfg.MinExtractedChars,
		charsPerPage:   cfg.CharsPerPage,
	}
}

type format int

const (
	formatPlain format = iota
	formatPDF
	formatDOC
	formatDOCX
	formatHTML
	formatUnknown
)

// Extract returns the text of data. Failures and weak results come back as
// generated content, with the reason in ExtractionError.
func (e *DocconvExtractor) Extract(ctx context.Context, name, contentHint string, data []byte) models.ExtractedText {
	text, err := e.extract(detectFormat(contentHint, data), data)
	if err != nil {
		logger.FromContext(ctx).Warn("extraction failed, using generated content", "document", name, "err", err)
		return e.Generated(name, err.Error())
	}
	return models.ExtractedText{Text: text, PageEstimate: e.pageEstimate(text)}
}

// Generated builds the fallback result for name.
func (e *DocconvExtractor) Generated(name, reason string) models.ExtractedText {
	text := SyntheticText(name)
	return models.ExtractedText{
		Text:            text,
		PageEstimate:    e.pageEstimate(text),
		Generated:       true,
		ExtractionError: reason,
	}
}

func (e *DocconvExtractor) extract(f format, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch f {
	case formatPDF:
		text = extractPDF(data)
	case formatDOCX:
		text, _, err = docconv.ConvertDocx(bytes.NewReader(data))
	case formatDOC:
		// shells out to wvText; without it every .doc falls back
		text, _, err = docconv.ConvertDoc(bytes.NewReader(data))
	case formatHTML:
		text, err = e.html(data)
	case formatPlain:
		text = strings.ToValidUTF8(string(data), "")
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: empty text file", core.ErrExtractionWeak)
		}
		return strings.TrimSpace(text), nil
	default:
		return "", fmt.Errorf("%w: unsupported format", core.ErrExtractionWeak)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrExtractionWeak, err)
	}
	text = collapseBlankLines(text)
	if len(text) < e.minChars {
		return "", fmt.Errorf("%w: %d chars, need %d", core.ErrExtractionWeak, len(text), e.minChars)
	}
	return text, nil
}

func (e *DocconvExtractor) pageEstimate(text string) int {
	return estimatePages(text, e.charsPerPage)
}

// estimatePages is length over a fixed chars-per-page, never less than one.
// It is an approximation, not real pagination.
func estimatePages(text string, perPage int) int {
	if perPage <= 0 {
		perPage = 2000
	}
	pages := (len(text) + perPage - 1) / perPage
	if pages < 1 {
		return 1
	}
	return pages
}

// detectFormat trusts the byte signature for PDFs and otherwise the declared
// hint, falling back to sniffing when the hint is generic.
func detectFormat(hint string, data []byte) format {
	if bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF")) {
		return formatPDF
	}
	if f := formatForMime(hint); f != formatUnknown {
		if f == formatPDF {
			// declared a PDF but no signature
			return formatUnknown
		}
		return f
	}
	return formatForMime(mimetype.Detect(data).String())
}

func formatForMime(m string) format {
	m = strings.ToLower(strings.TrimSpace(strings.SplitN(m, ";", 2)[0]))
	switch {
	case m == "application/pdf":
		return formatPDF
	case m == "application/msword", m == "application/x-ole-storage":
		return formatDOC
	case m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return formatDOCX
	case m == "text/html", m == "application/xhtml+xml":
		return formatHTML
	case strings.HasPrefix(m, "text/"):
		return formatPlain
	}
	return formatUnknown
}

func collapseBlankLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if strings.TrimSpace(l) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
