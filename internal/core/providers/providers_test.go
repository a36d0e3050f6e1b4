package providers

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/models"
)

var allowList = []string{".pdf", "docx", ".txt"}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed("Manuale.PDF", allowList))
	assert.True(t, Allowed("note.docx", allowList))
	assert.False(t, Allowed("photo.jpg", allowList))
	assert.False(t, Allowed("README", allowList))
}

func TestFilterAllowed(t *testing.T) {
	refs := []models.DocumentRef{
		{Name: "a.pdf"},
		{Name: "b.exe"},
		{Name: "a.pdf", Locator: "dup"},
		{Name: "c.txt", ContentHint: "text/x-custom"},
	}
	out := FilterAllowed(refs, allowList)
	require.Len(t, out, 2)
	assert.Equal(t, "a.pdf", out[0].Name)
	assert.Empty(t, out[0].Locator)
	assert.Equal(t, "application/pdf", out[0].ContentHint)
	assert.Equal(t, "text/x-custom", out[1].ContentHint)
}

func TestReadLimited(t *testing.T) {
	t.Run("Should return data at the ceiling", func(t *testing.T) {
		data, err := ReadLimited(bytes.NewReader([]byte("12345")), 5)
		require.NoError(t, err)
		assert.Equal(t, "12345", string(data))
	})

	t.Run("Should refuse payloads over the ceiling", func(t *testing.T) {
		data, err := ReadLimited(bytes.NewReader([]byte("123456")), 5)
		assert.ErrorIs(t, err, core.ErrSizeExceeded)
		assert.Nil(t, data)
	})
}

type stubLister struct {
	name  string
	refs  []models.DocumentRef
	err   error
	calls int
}

func (s *stubLister) Name() string { return s.name }

func (s *stubLister) List(context.Context) ([]models.DocumentRef, error) {
	s.calls++
	return s.refs, s.err
}

func TestChain_List(t *testing.T) {
	ctx := context.Background()

	t.Run("Should stop at the first non-empty strategy", func(t *testing.T) {
		first := &stubLister{name: "first"}
		second := &stubLister{name: "second", refs: []models.DocumentRef{{Name: "x.pdf"}}}
		third := &stubLister{name: "third", refs: []models.DocumentRef{{Name: "y.pdf"}}}
		refs, err := NewChain("p", first, second, third).List(ctx)
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "x.pdf", refs[0].Name)
		assert.Equal(t, 0, third.calls)
	})

	t.Run("Should skip failing strategies", func(t *testing.T) {
		failing := &stubLister{name: "failing", err: errors.New("boom")}
		ok := &stubLister{name: "ok", refs: []models.DocumentRef{{Name: "x.pdf"}}}
		refs, err := NewChain("p", failing, ok).List(ctx)
		require.NoError(t, err)
		assert.Len(t, refs, 1)
	})

	t.Run("Should report errors only when every strategy failed", func(t *testing.T) {
		a := &stubLister{name: "a", err: core.ErrProviderUnavailable}
		b := &stubLister{name: "b", err: errors.New("other")}
		_, err := NewChain("p", a, b).List(ctx)
		assert.ErrorIs(t, err, core.ErrProviderUnavailable)
	})

	t.Run("Should return empty when strategies only found nothing", func(t *testing.T) {
		a := &stubLister{name: "a", err: errors.New("boom")}
		b := &stubLister{name: "b"}
		refs, err := NewChain("p", a, b).List(ctx)
		assert.NoError(t, err)
		assert.Empty(t, refs)
	})
}

type stubProvider struct {
	stubLister
}

func (s *stubProvider) Fetch(context.Context, models.DocumentRef) ([]byte, error) {
	return []byte("payload"), nil
}

func TestWithFallback(t *testing.T) {
	p := &stubProvider{stubLister{name: "share"}}
	seeds := NewStatic("share", []string{"manuale.pdf"}, func(n string) string { return "https://host/" + n })
	wrapped := WithFallback(p, seeds)

	assert.Equal(t, "share", wrapped.Name())
	refs, err := wrapped.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "https://host/manuale.pdf", refs[0].Locator)
	assert.Equal(t, "application/pdf", refs[0].ContentHint)

	data, err := wrapped.Fetch(context.Background(), refs[0])
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(&stubProvider{stubLister{name: "webdav"}}, &stubProvider{stubLister{name: "bucket"}})
	assert.Equal(t, []string{"bucket", "webdav"}, r.Names())
	_, err := r.Get("webdav")
	assert.NoError(t, err)
	_, err = r.Get("ftp")
	assert.ErrorIs(t, err, core.ErrUnknownProvider)
}
