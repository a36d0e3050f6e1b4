package webdav

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docsync/internal/core"
)

const rootListing = `<?xml version="1.0" encoding="utf-8"?>
<d:multistatus xmlns:d="DAV:">
  <d:response>
    <d:href>/docs/</d:href>
    <d:propstat><d:prop><d:resourcetype><d:collection/></d:resourcetype></d:prop><d:status>HTTP/1.1 200 OK</d:status></d:propstat>
  </d:response>
  <d:response>
    <d:href>/docs/regolamento.pdf</d:href>
    <d:propstat><d:prop>
      <d:displayname>regolamento.pdf</d:displayname>
      <d:getcontentlength>13</d:getcontentlength>
      <d:getcontenttype>application/pdf</d:getcontenttype>
      <d:getetag>"etag-1"</d:getetag>
      <d:getlastmodified>Tue, 03 Sep 2024 10:00:00 GMT</d:getlastmodified>
      <d:resourcetype/>
    </d:prop><d:status>HTTP/1.1 200 OK</d:status></d:propstat>
  </d:response>
  <d:response>
    <d:href>/docs/logo.png</d:href>
    <d:propstat><d:prop>
      <d:displayname>logo.png</d:displayname>
      <d:getcontentlength>5</d:getcontentlength>
      <d:resourcetype/>
    </d:prop><d:status>HTTP/1.1 200 OK</d:status></d:propstat>
  </d:response>
  <d:response>
    <d:href>/docs/sub/</d:href>
    <d:propstat><d:prop><d:displayname>sub</d:displayname><d:resourcetype><d:collection/></d:resourcetype></d:prop><d:status>HTTP/1.1 200 OK</d:status></d:propstat>
  </d:response>
</d:multistatus>`

const subListing = `<?xml version="1.0" encoding="utf-8"?>
<d:multistatus xmlns:d="DAV:">
  <d:response>
    <d:href>/docs/sub/</d:href>
    <d:propstat><d:prop><d:resourcetype><d:collection/></d:resourcetype></d:prop><d:status>HTTP/1.1 200 OK</d:status></d:propstat>
  </d:response>
  <d:response>
    <d:href>/docs/sub/note.txt</d:href>
    <d:propstat><d:prop>
      <d:displayname>note.txt</d:displayname>
      <d:getcontentlength>4</d:getcontentlength>
      <d:resourcetype/>
    </d:prop><d:status>HTTP/1.1 200 OK</d:status></d:propstat>
  </d:response>
</d:multistatus>`

func davServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "PROPFIND" && strings.TrimSuffix(r.URL.Path, "/") == "/docs":
			w.WriteHeader(http.StatusMultiStatus)
			fmt.Fprint(w, rootListing)
		case r.Method == "PROPFIND" && strings.TrimSuffix(r.URL.Path, "/") == "/docs/sub":
			w.WriteHeader(http.StatusMultiStatus)
			fmt.Fprint(w, subListing)
		case r.Method == http.MethodGet && r.URL.Path == "/docs/regolamento.pdf":
			fmt.Fprint(w, "%PDF-1.4 body")
		case r.Method == http.MethodGet && r.URL.Path == "/docs/sub/note.txt":
			fmt.Fprint(w, strings.Repeat("n", 100))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_List(t *testing.T) {
	srv := davServer(t)
	c, err := NewClient(srv.URL, "", "", "/docs", []string{".pdf", ".txt"}, 50, 5*time.Second)
	require.NoError(t, err)

	refs, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "regolamento.pdf", refs[0].Name)
	assert.Equal(t, "/docs/regolamento.pdf", refs[0].Locator)
	assert.Equal(t, int64(13), *refs[0].SizeBytes)
	assert.Equal(t, "application/pdf", refs[0].ContentHint)
	assert.Equal(t, "etag-1", refs[0].ETag)
	assert.Equal(t, "sub/note.txt", refs[1].Name)
	assert.Equal(t, "text/plain", refs[1].ContentHint)
}

func TestClient_ListUnreachableRoot(t *testing.T) {
	srv := davServer(t)
	c, err := NewClient(srv.URL, "", "", "/missing", []string{".pdf"}, 50, 5*time.Second)
	require.NoError(t, err)
	_, err = c.List(context.Background())
	assert.ErrorIs(t, err, core.ErrProviderUnavailable)
}

func TestClient_Fetch(t *testing.T) {
	srv := davServer(t)
	c, err := NewClient(srv.URL, "", "", "/docs", []string{".pdf", ".txt"}, 50, 5*time.Second)
	require.NoError(t, err)
	refs, err := c.List(context.Background())
	require.NoError(t, err)

	t.Run("Should read small files", func(t *testing.T) {
		data, err := c.Fetch(context.Background(), refs[0])
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 body", string(data))
	})

	t.Run("Should refuse files over the ceiling", func(t *testing.T) {
		ref := refs[1]
		ref.SizeBytes = nil
		data, err := c.Fetch(context.Background(), ref)
		assert.ErrorIs(t, err, core.ErrSizeExceeded)
		assert.Nil(t, data)
	})
}

func TestClient_Locate(t *testing.T) {
	srv := davServer(t)
	c, err := NewClient(srv.URL, "", "", "/docs", []string{".pdf", ".txt"}, 50, 5*time.Second)
	require.NoError(t, err)
	refs, err := c.List(context.Background())
	require.NoError(t, err)
	for _, ref := range refs {
		assert.Equal(t, ref.Locator, c.Locate(ref.Name))
	}
}
