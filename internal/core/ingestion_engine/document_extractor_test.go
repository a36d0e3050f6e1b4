package ingestion_engine

import (
	"bytes"
	"compress/zlib"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docsync/internal/testutil"
)

const sentence = "The disciplinary board meets every month to review reported breaches of conduct. "

func fakePDF(t *testing.T, content string, compress bool) []byte {
	t.Helper()
	stream := []byte("BT /F1 12 Tf (" + content + ") Tj ET")
	if compress {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		_, err := zw.Write(stream)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		stream = buf.Bytes()
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n1 0 obj\n<< /Length 10 >>\nstream\n")
	b.Write(stream)
	b.WriteString("\nendstream\nendobj\n%%EOF\n")
	return b.Bytes()
}

func TestDocconvExtractor_Plain(t *testing.T) {
	e := NewDocconvExtractor(false, DefaultIngestConfig())
	ctx := testutil.NewTestContext(t)

	t.Run("Should pass short text through untouched", func(t *testing.T) {
		got := e.Extract(ctx, "short.txt", "text/plain", []byte("hi"))
		assert.Equal(t, "hi", got.Text)
		assert.False(t, got.Generated)
		assert.Equal(t, 1, got.PageEstimate)
	})

	t.Run("Should fall back on blank text", func(t *testing.T) {
		got := e.Extract(ctx, "blank.md", "text/markdown", []byte("  \n\t"))
		assert.True(t, got.Generated)
		assert.Contains(t, got.ExtractionError, "too weak")
	})

	t.Run("Should estimate pages from length", func(t *testing.T) {
		got := e.Extract(ctx, "long.csv", "text/csv", []byte(strings.Repeat("a,b,c\n", 1000)))
		assert.Equal(t, 3, got.PageEstimate)
	})
}

func TestDocconvExtractor_PDF(t *testing.T) {
	e := NewDocconvExtractor(false, DefaultIngestConfig())
	ctx := testutil.NewTestContext(t)

	t.Run("Should scrape string tokens from a raw stream", func(t *testing.T) {
		got := e.Extract(ctx, "manual.pdf", "application/pdf", fakePDF(t, strings.Repeat(sentence, 3), false))
		require.False(t, got.Generated, got.ExtractionError)
		assert.Contains(t, got.Text, "disciplinary board meets every month")
	})

	t.Run("Should inflate compressed streams", func(t *testing.T) {
		got := e.Extract(ctx, "manual.pdf", "application/pdf", fakePDF(t, strings.Repeat(sentence, 3), true))
		require.False(t, got.Generated, got.ExtractionError)
		assert.Contains(t, got.Text, "reported breaches of conduct")
	})

	t.Run("Should treat weak signal as failure", func(t *testing.T) {
		got := e.Extract(ctx, "thin.pdf", "application/pdf", fakePDF(t, "ab", false))
		assert.True(t, got.Generated)
		assert.Contains(t, got.ExtractionError, "too weak")
		assert.Equal(t, SyntheticText("thin.pdf"), got.Text)
	})

	t.Run("Should not trust a pdf hint without the signature", func(t *testing.T) {
		got := e.Extract(ctx, "fake.pdf", "application/pdf", []byte(strings.Repeat(sentence, 3)))
		assert.True(t, got.Generated)
	})
}

func TestDocconvExtractor_HTML(t *testing.T) {
	e := NewDocconvExtractor(false, DefaultIngestConfig())
	ctx := testutil.NewTestContext(t)

	t.Run("Should strip markup to plain text", func(t *testing.T) {
		page := "<html><head><title>Rules</title></head><body><h1>Rules</h1><p>" +
			strings.Repeat(sentence, 3) + "</p></body></html>"

		got := e.Extract(ctx, "rules.html", "text/html", []byte(page))
		require.False(t, got.Generated, got.ExtractionError)
		assert.Contains(t, got.Text, "disciplinary board")
		assert.NotContains(t, got.Text, "<p>")
		assert.True(t, strings.HasPrefix(got.Text, "Rules\n"))
	})

	t.Run("Should drop scripts and styles and keep list items apart", func(t *testing.T) {
		page := `<!DOCTYPE html><html><head><style>p{color:red}</style></head><body>
			<script>var token = "secret";</script>
			<div><ul><li>` + sentence + `</li><li>` + sentence + `</li></ul></div>
			<!-- footer comment --></body></html>`

		got := e.Extract(ctx, "list.html", "text/html", []byte(page))
		require.False(t, got.Generated, got.ExtractionError)
		assert.NotContains(t, got.Text, "secret")
		assert.NotContains(t, got.Text, "color:red")
		assert.NotContains(t, got.Text, "footer comment")
		assert.Len(t, strings.Split(got.Text, "\n"), 2)
	})

	t.Run("Should still extract with readability enabled", func(t *testing.T) {
		r := NewDocconvExtractor(true, DefaultIngestConfig())
		page := "<html><body><div><p>" + strings.Repeat(sentence, 3) + "</p></div></body></html>"

		got := r.Extract(ctx, "rules.html", "text/html", []byte(page))
		require.False(t, got.Generated, got.ExtractionError)
		assert.Contains(t, got.Text, "disciplinary board")
	})

	t.Run("Should fall back when the page has no visible text", func(t *testing.T) {
		got := e.Extract(ctx, "empty.html", "text/html", []byte("<html><body><script>x()</script></body></html>"))
		assert.True(t, got.Generated)
		assert.Contains(t, got.ExtractionError, "too weak")
	})
}

func TestUnescapePDF(t *testing.T) {
	assert.Equal(t, "a(b)c\\ d", unescapePDF([]byte(`a\(b\)c\\\nd`)))
	assert.Equal(t, "é", unescapePDF([]byte(`\351`)))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, formatPDF, detectFormat("application/octet-stream", []byte("%PDF-1.7 ...")))
	assert.Equal(t, formatHTML, detectFormat("text/html; charset=utf-8", []byte("<p>x</p>")))
	assert.Equal(t, formatPlain, detectFormat("text/csv", []byte("a,b")))
	assert.Equal(t, formatDOCX, detectFormat("application/vnd.openxmlformats-officedocument.wordprocessingml.document", nil))
	assert.Equal(t, formatUnknown, detectFormat("application/pdf", []byte("not a pdf")))
}
