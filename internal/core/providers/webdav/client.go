// Package webdav lists and downloads documents from a WebDAV account
// (PROPFIND for listing, GET for content).
package webdav

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/core/providers"
	"github.com/markdave123-py/docsync/internal/models"
)

// ProviderName identifies documents discovered over WebDAV.
const ProviderName = "webdav"

// maxDepth bounds the directory walk.
const maxDepth = 8

type Client struct {
	dav      *gowebdav.Client
	root     string
	allowed  []string
	maxBytes int64
}

var _ core.Provider = (*Client)(nil)

// NewClient connects a WebDAV account rooted at root.
func NewClient(url, user, password, root string, allowed []string, maxBytes int64, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: webdav url is empty", core.ErrConfiguration)
	}
	dav := gowebdav.NewClient(url, user, password)
	dav.SetTimeout(timeout)
	if root == "" {
		root = "/"
	}
	return &Client{dav: dav, root: root, allowed: allowed, maxBytes: maxBytes}, nil
}

func (c *Client) Name() string { return ProviderName }

// Locate maps a root-relative name onto its server path.
func (c *Client) Locate(name string) string { return path.Join(c.root, name) }

// List walks the tree below root. Names are paths relative to root.
func (c *Client) List(ctx context.Context) ([]models.DocumentRef, error) {
	var refs []models.DocumentRef
	if err := c.walk(ctx, "", 0, &refs); err != nil {
		return nil, err
	}
	return providers.FilterAllowed(refs, c.allowed), nil
}

func (c *Client) walk(ctx context.Context, rel string, depth int, out *[]models.DocumentRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := c.dav.ReadDir(path.Join(c.root, rel))
	if err != nil {
		if depth == 0 {
			return fmt.Errorf("%w: propfind %s: %w", core.ErrProviderUnavailable, c.root, err)
		}
		// a broken subfolder does not hide the rest of the tree
		return nil
	}
	for _, fi := range entries {
		name := path.Join(rel, fi.Name())
		if fi.IsDir() {
			if depth+1 < maxDepth {
				if err := c.walk(ctx, name, depth+1, out); err != nil {
					return err
				}
			}
			continue
		}
		*out = append(*out, toRef(name, path.Join(c.root, name), fi))
	}
	return nil
}

// davInfo is the extra metadata gowebdav attaches to PROPFIND entries.
type davInfo interface {
	ContentType() string
	ETag() string
}

func toRef(name, locator string, fi os.FileInfo) models.DocumentRef {
	size := fi.Size()
	mod := fi.ModTime()
	ref := models.DocumentRef{
		Provider:  ProviderName,
		Name:      name,
		Locator:   locator,
		SizeBytes: &size,
	}
	if !mod.IsZero() {
		ref.LastModified = &mod
	}
	if f, ok := fi.(davInfo); ok {
		ref.ContentHint = f.ContentType()
		ref.ETag = strings.Trim(f.ETag(), `"`)
	}
	return ref
}

// Fetch downloads the file at the locator path under the size ceiling.
func (c *Client) Fetch(ctx context.Context, ref models.DocumentRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ref.SizeBytes != nil && c.maxBytes > 0 && *ref.SizeBytes > c.maxBytes {
		return nil, fmt.Errorf("%w: listed size %d > %d", core.ErrSizeExceeded, *ref.SizeBytes, c.maxBytes)
	}
	rc, err := c.dav.ReadStream(ref.Locator)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", core.ErrProviderUnavailable, ref.Locator, err)
	}
	defer rc.Close()
	return providers.ReadLimited(rc, c.maxBytes)
}
