// Package sharepage discovers documents on a public share page by scraping
// its HTML. Three strategies run in priority order: plain anchors, data-*
// attributes, then JSON blobs embedded in script tags.
package sharepage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/core/providers"
	"github.com/markdave123-py/docsync/internal/models"
)

// ProviderName identifies documents discovered on the share page.
const ProviderName = "sharepage"

type Scraper struct {
	http     *resty.Client
	pageURL  *url.URL
	allowed  []string
	maxBytes int64
}

var _ core.Provider = (*Scraper)(nil)

// NewScraper builds a scraper for one share page.
func NewScraper(pageURL string, allowed []string, maxBytes int64, timeout time.Duration) (*Scraper, error) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid share page url %q", core.ErrConfiguration, pageURL)
	}
	return &Scraper{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", "docsync/1.0 (+share page indexer)"),
		pageURL:  u,
		allowed:  allowed,
		maxBytes: maxBytes,
	}, nil
}

func (s *Scraper) Name() string { return ProviderName }

// Locate resolves a bare file name against the share page, for seed lists.
func (s *Scraper) Locate(name string) string {
	ref, err := url.Parse(name)
	if err != nil {
		return name
	}
	return s.pageURL.ResolveReference(ref).String()
}

// List downloads the page once and runs the scraping strategies over it.
func (s *Scraper) List(ctx context.Context) ([]models.DocumentRef, error) {
	resp, err := s.http.R().SetContext(ctx).Get(s.pageURL.String())
	if err != nil {
		return nil, fmt.Errorf("%w: share page: %w", core.ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: share page: status %d", core.ErrProviderUnavailable, resp.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("%w: parse share page: %w", core.ErrProviderUnavailable, err)
	}
	p := &page{doc: doc, base: s.pageURL, allowed: s.allowed}
	chain := providers.NewChain(ProviderName, anchorStrategy{p}, dataAttrStrategy{p}, scriptStrategy{p})
	refs, err := chain.List(ctx)
	if err != nil {
		return nil, err
	}
	return providers.FilterAllowed(refs, s.allowed), nil
}

// Fetch downloads a scraped link. An HTML answer for a non-HTML document is
// an error page, not the document.
func (s *Scraper) Fetch(ctx context.Context, ref models.DocumentRef) ([]byte, error) {
	resp, err := s.http.R().SetContext(ctx).SetDoNotParseResponse(true).Get(ref.Locator)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", core.ErrProviderUnavailable, ref.Name, err)
	}
	raw := resp.RawBody()
	defer raw.Close()
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: get %s: status %d", core.ErrProviderUnavailable, ref.Name, resp.StatusCode())
	}
	if s.maxBytes > 0 && resp.RawResponse.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("%w: content-length %d > %d", core.ErrSizeExceeded, resp.RawResponse.ContentLength, s.maxBytes)
	}
	ct := strings.ToLower(resp.Header().Get("Content-Type"))
	if strings.HasPrefix(ct, "text/html") && providers.ContentHint(ref.Name) != "text/html" {
		return nil, fmt.Errorf("%w: got %s for %s", core.ErrUnexpectedContent, ct, ref.Name)
	}
	return providers.ReadLimited(raw, s.maxBytes)
}

// page is one parsed share page shared by the strategies.
type page struct {
	doc     *goquery.Document
	base    *url.URL
	allowed []string
}

// resolve turns a raw link into an absolute URL and a display name. It
// returns ok=false when the link does not point at an allowed file.
func (p *page) resolve(raw, label string) (models.DocumentRef, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(strings.ToLower(raw), "javascript:") {
		return models.DocumentRef{}, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return models.DocumentRef{}, false
	}
	abs := p.base.ResolveReference(u)
	name := path.Base(abs.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if !providers.Allowed(name, p.allowed) {
		label = strings.TrimSpace(label)
		if !providers.Allowed(label, p.allowed) {
			return models.DocumentRef{}, false
		}
		name = label
	}
	return models.DocumentRef{
		Provider:    ProviderName,
		Name:        name,
		Locator:     abs.String(),
		ContentHint: providers.ContentHint(name),
	}, true
}
