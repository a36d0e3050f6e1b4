package ingestion_engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/markdave123-py/docsync/internal/models"
)

// sectionMarker matches "chapter 3", "Parte IV", "Sezione 2" and similar.
// Roman numerals must be upper case so ordinary words are not mistaken for them.
var sectionMarker = regexp.MustCompile(`\b(?i:chapter|part|section|capitolo|parte|sezione|articolo)\s+(?:\d+|[IVXLCDM]+)\b`)

var sentenceEnd = regexp.MustCompile(`[.!?](\s|$)`)

const (
	minTitleLen      = 10
	maxTitleLen      = 80
	maxSubsectionLen = 100
)

// Chunker splits extracted text into section-aware, overlapping word windows.
type Chunker struct {
	words      int
	overlap    int
	minChunk   int
	minSection int
}

func NewChunker(cfg *IngestConfig) *Chunker {
	words := cfg.ChunkWords
	if words <= 0 {
		words = 1000
	}
	overlap := cfg.ChunkOverlapWords
	if overlap < 0 || overlap >= words {
		overlap = 0
	}
	return &Chunker{
		words:      words,
		overlap:    overlap,
		minChunk:   cfg.MinChunkChars,
		minSection: cfg.MinSectionChars,
	}
}

type section struct {
	text       string
	wordOffset int // words before this section in the whole document
}

// Chunk is deterministic: the same text always yields the same chunks.
func (c *Chunker) Chunk(docName string, ext models.ExtractedText) []models.Chunk {
	sections := c.sections(ext.Text)
	pages := ext.PageEstimate
	if pages < 1 {
		pages = 1
	}

	var (
		out  []models.Chunk
		pos  int
		step = c.words - c.overlap
	)
	for si, sec := range sections {
		title := sectionTitle(sec.text, si)
		words := strings.Fields(sec.text)
		for start := 0; start < len(words); start += step {
			end := start + c.words
			if end > len(words) {
				end = len(words)
			}
			content := strings.Join(words[start:end], " ")
			if len(content) >= c.minChunk {
				meta := map[string]any{
					"generated_content": ext.Generated,
					"page_estimate":     pages,
					"section_index":     si,
					"word_start":        sec.wordOffset + start,
					"word_end":          sec.wordOffset + end,
				}
				if ext.ExtractionError != "" {
					meta["extraction_error"] = ext.ExtractionError
				}
				out = append(out, models.Chunk{
					Content:        content,
					ChapterTitle:   title,
					SectionTitle:   subsectionLabel(content),
					PageNumber:     estimatePage(start, len(words), pages),
					SourceDocument: docName,
					PositionIndex:  pos,
					Metadata:       meta,
				})
				pos++
			}
			if end == len(words) {
				break
			}
		}
	}
	return out
}

// sections cuts text at every structural marker. Text before the first
// marker is a section of its own; no marker at all means one section.
func (c *Chunker) sections(text string) []section {
	var cuts []int
	for _, loc := range sectionMarker.FindAllStringIndex(text, -1) {
		if loc[0] > 0 {
			cuts = append(cuts, loc[0])
		}
	}
	cuts = append(cuts, len(text))

	var out []section
	prev := 0
	for _, cut := range cuts {
		raw := text[prev:cut]
		trimmed := strings.TrimSpace(raw)
		if len(trimmed) >= c.minSection {
			out = append(out, section{
				text:       trimmed,
				wordOffset: len(strings.Fields(text[:prev])),
			})
		}
		prev = cut
	}
	return out
}

func sectionTitle(text string, index int) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) >= minTitleLen && len(line) <= maxTitleLen {
			return line
		}
		break
	}
	return fmt.Sprintf("Section %d", index+1)
}

// subsectionLabel is the chunk's first sentence when it is short enough.
func subsectionLabel(content string) string {
	first := content
	if loc := sentenceEnd.FindStringIndex(content); loc != nil {
		first = content[:loc[0]+1]
	}
	first = strings.TrimSpace(first)
	if first == "" || len(first) >= maxSubsectionLen {
		return ""
	}
	return first
}

// estimatePage maps a window's word-offset fraction within its section onto
// the document's page estimate. Pages are 1-based and clamped to the estimate.
func estimatePage(offset, sectionWords, pages int) int {
	if sectionWords <= 0 {
		return 1
	}
	p := offset*pages/sectionWords + 1
	if p < 1 {
		return 1
	}
	if p > pages {
		return pages
	}
	return p
}
