// Package folderapi lists and downloads files from a public folder link on a
// cloud drive that exposes a JSON folder API (showpublink / getpublinkdownload).
package folderapi

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/core/providers"
	"github.com/markdave123-py/docsync/internal/models"
)

// ProviderName identifies documents discovered through the folder API.
const ProviderName = "folderapi"

// modifiedLayout is the timestamp format used by the folder API.
const modifiedLayout = time.RFC1123Z

type Client struct {
	http           *resty.Client
	code           string
	allowed        []string
	maxBytes       int64
	downloadScheme string
}

var _ core.Provider = (*Client)(nil)

// Option tweaks a Client.
type Option func(*Client)

// WithDownloadScheme overrides the scheme used for download hosts (https by default).
func WithDownloadScheme(scheme string) Option {
	return func(c *Client) { c.downloadScheme = scheme }
}

// NewClient builds a folder API adapter for one public link code.
func NewClient(baseURL, code string, allowed []string, maxBytes int64, timeout time.Duration, opts ...Option) (*Client, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: folder api link code is empty", core.ErrConfiguration)
	}
	if baseURL == "" {
		return nil, fmt.Errorf("%w: folder api base url is empty", core.ErrConfiguration)
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		code:           code,
		allowed:        allowed,
		maxBytes:       maxBytes,
		downloadScheme: "https",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Name() string { return ProviderName }

// List walks the public folder tree and returns every allowed file.
func (c *Client) List(ctx context.Context) ([]models.DocumentRef, error) {
	body, err := c.call(ctx, "/showpublink", map[string]string{"code": c.code})
	if err != nil {
		return nil, err
	}
	meta := gjson.GetBytes(body, "metadata")
	if !meta.Exists() {
		return nil, nil
	}
	var refs []models.DocumentRef
	c.walk(meta, "", &refs)
	return providers.FilterAllowed(refs, c.allowed), nil
}

func (c *Client) walk(node gjson.Result, dir string, out *[]models.DocumentRef) {
	node.Get("contents").ForEach(func(_, item gjson.Result) bool {
		name := item.Get("name").String()
		if name == "" {
			return true
		}
		if item.Get("isfolder").Bool() {
			c.walk(item, path.Join(dir, name), out)
			return true
		}
		ref := models.DocumentRef{
			Provider:    ProviderName,
			Name:        path.Join(dir, name),
			Locator:     item.Get("fileid").String(),
			ContentHint: item.Get("contenttype").String(),
		}
		if size := item.Get("size"); size.Exists() {
			n := size.Int()
			ref.SizeBytes = &n
		}
		if mod := item.Get("modified").String(); mod != "" {
			if ts, err := time.Parse(modifiedLayout, mod); err == nil {
				ref.LastModified = &ts
			}
		}
		if hash := item.Get("hash"); hash.Exists() {
			ref.ETag = hash.String()
		}
		*out = append(*out, ref)
		return true
	})
}

// Fetch resolves a download host for the file and streams it under the size ceiling.
func (c *Client) Fetch(ctx context.Context, ref models.DocumentRef) ([]byte, error) {
	if ref.SizeBytes != nil && c.maxBytes > 0 && *ref.SizeBytes > c.maxBytes {
		return nil, fmt.Errorf("%w: listed size %d > %d", core.ErrSizeExceeded, *ref.SizeBytes, c.maxBytes)
	}
	if _, err := strconv.ParseInt(ref.Locator, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: invalid file id %q", core.ErrProviderUnavailable, ref.Locator)
	}
	body, err := c.call(ctx, "/getpublinkdownload", map[string]string{"code": c.code, "fileid": ref.Locator})
	if err != nil {
		return nil, err
	}
	hosts := gjson.GetBytes(body, "hosts").Array()
	p := gjson.GetBytes(body, "path").String()
	if len(hosts) == 0 || p == "" {
		return nil, fmt.Errorf("%w: download link missing hosts or path", core.ErrAPIEnvelope)
	}
	url := c.downloadScheme + "://" + hosts[0].String() + p

	resp, err := c.http.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %w", core.ErrProviderUnavailable, ref.Name, err)
	}
	raw := resp.RawBody()
	defer raw.Close()
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: download %s: status %d", core.ErrProviderUnavailable, ref.Name, resp.StatusCode())
	}
	return providers.ReadLimited(raw, c.maxBytes)
}

// call performs one API request and unwraps the result envelope. Any non-zero
// result or error field is a hard failure for this adapter.
func (c *Client) call(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).SetQueryParams(params).Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrProviderUnavailable, endpoint, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s: status %d", core.ErrProviderUnavailable, endpoint, resp.StatusCode())
	}
	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s: response is not json", core.ErrAPIEnvelope, endpoint)
	}
	result := gjson.GetBytes(body, "result")
	apiErr := gjson.GetBytes(body, "error")
	if (result.Exists() && result.Int() != 0) || apiErr.Exists() {
		return nil, fmt.Errorf("%w: %s: result %d: %s", core.ErrAPIEnvelope, endpoint, result.Int(), apiErr.String())
	}
	return body, nil
}
