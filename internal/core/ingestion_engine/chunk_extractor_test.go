package ingestion_engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docsync/internal/models"
)

func words(n int, prefix string) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(w, " ")
}

func TestChunker_Windows(t *testing.T) {
	c := NewChunker(DefaultIngestConfig())
	text := words(2500, "w")
	ext := models.ExtractedText{Text: text, PageEstimate: 5}

	chunks := c.Chunk("manual.txt", ext)
	require.Len(t, chunks, 3)

	t.Run("Should overlap consecutive windows by the configured word count", func(t *testing.T) {
		for i := 0; i+1 < len(chunks); i++ {
			prev := strings.Fields(chunks[i].Content)
			next := strings.Fields(chunks[i+1].Content)
			assert.Equal(t, prev[len(prev)-200:], next[:200])
		}
	})

	t.Run("Should number positions strictly increasing from zero", func(t *testing.T) {
		for i, ch := range chunks {
			assert.Equal(t, i, ch.PositionIndex)
			assert.Equal(t, "manual.txt", ch.SourceDocument)
		}
	})

	t.Run("Should interpolate page numbers over the estimate", func(t *testing.T) {
		assert.Equal(t, 1, chunks[0].PageNumber)
		assert.Equal(t, 2, chunks[1].PageNumber) // word 800 of 2500
		assert.Equal(t, 4, chunks[2].PageNumber) // word 1600 of 2500
		assert.Equal(t, 800, chunks[1].Metadata["word_start"])
		assert.Equal(t, 2500, chunks[2].Metadata["word_end"])
	})

	t.Run("Should be deterministic", func(t *testing.T) {
		assert.Equal(t, chunks, c.Chunk("manual.txt", ext))
	})
}

func TestChunker_Sections(t *testing.T) {
	c := NewChunker(DefaultIngestConfig())
	body := func(tag string) string { return words(60, tag) }
	text := "short preamble\n\n" +
		"Chapter 1 General provisions\n" + body("a") + "\n\n" +
		"CAPITOLO 2 Doveri del personale\n" + body("b") + "\n\n" +
		"Parte IV\n" + "tiny" + "\n\n" +
		"Section 5 " + body("c")

	chunks := c.Chunk("rules.md", models.ExtractedText{Text: text, PageEstimate: 1})
	require.Len(t, chunks, 3)

	t.Run("Should title sections from their first short line", func(t *testing.T) {
		assert.Equal(t, "Chapter 1 General provisions", chunks[0].ChapterTitle)
		assert.Equal(t, "CAPITOLO 2 Doveri del personale", chunks[1].ChapterTitle)
	})

	t.Run("Should fall back to a numbered label when the first line is long", func(t *testing.T) {
		assert.Equal(t, "Section 3", chunks[2].ChapterTitle)
	})

	t.Run("Should drop sections under the floor without error", func(t *testing.T) {
		for _, ch := range chunks {
			assert.NotContains(t, ch.Content, "tiny")
			assert.NotContains(t, ch.Content, "preamble")
		}
	})

	t.Run("Should clamp pages to the estimate", func(t *testing.T) {
		for _, ch := range chunks {
			assert.Equal(t, 1, ch.PageNumber)
		}
	})
}

func TestChunker_PagesPerSection(t *testing.T) {
	c := NewChunker(DefaultIngestConfig())
	text := "Chapter 1\n" + words(1200, "a") + "\n\nChapter 2\n" + words(1200, "b")

	chunks := c.Chunk("two-parts.txt", models.ExtractedText{Text: text, PageEstimate: 4})
	require.Len(t, chunks, 4)

	t.Run("Should interpolate from the start of each section", func(t *testing.T) {
		assert.Equal(t, 1, chunks[0].PageNumber)
		assert.Equal(t, 3, chunks[1].PageNumber) // word 800 of 1202
		assert.Equal(t, 1, chunks[2].PageNumber)
		assert.Equal(t, 3, chunks[3].PageNumber)
	})

	t.Run("Should keep document-level word positions in metadata", func(t *testing.T) {
		assert.Equal(t, 0, chunks[0].Metadata["word_start"])
		assert.Equal(t, 1202, chunks[2].Metadata["word_start"])
	})
}

func TestChunker_EdgeCases(t *testing.T) {
	c := NewChunker(DefaultIngestConfig())

	t.Run("Should yield nothing for text under the floor", func(t *testing.T) {
		assert.Empty(t, c.Chunk("short.txt", models.ExtractedText{Text: "hi", PageEstimate: 1}))
	})

	t.Run("Should not split on lower-case words after a keyword", func(t *testing.T) {
		text := "This part did change. " + words(40, "x")
		chunks := c.Chunk("a.txt", models.ExtractedText{Text: text, PageEstimate: 1})
		require.Len(t, chunks, 1)
		assert.Equal(t, "This part did change.", chunks[0].SectionTitle)
	})

	t.Run("Should carry generated flags into metadata", func(t *testing.T) {
		ext := models.ExtractedText{Text: words(50, "g"), PageEstimate: 1, Generated: true, ExtractionError: "boom"}
		chunks := c.Chunk("g.pdf", ext)
		require.NotEmpty(t, chunks)
		assert.Equal(t, true, chunks[0].Metadata["generated_content"])
		assert.Equal(t, "boom", chunks[0].Metadata["extraction_error"])
	})

	t.Run("Should ignore an overlap not smaller than the window", func(t *testing.T) {
		cfg := DefaultIngestConfig()
		cfg.ChunkWords, cfg.ChunkOverlapWords = 50, 50
		chunks := NewChunker(cfg).Chunk("o.txt", models.ExtractedText{Text: words(100, "o"), PageEstimate: 1})
		assert.Len(t, chunks, 2)
	})
}

func TestSubsectionLabel(t *testing.T) {
	assert.Equal(t, "Short one.", subsectionLabel("Short one. And the rest"))
	assert.Equal(t, "", subsectionLabel(strings.Repeat("long ", 30)+". tail"))
}
