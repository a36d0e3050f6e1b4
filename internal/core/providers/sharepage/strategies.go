package sharepage

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/markdave123-py/docsync/internal/models"
)

type anchorStrategy struct{ p *page }

func (anchorStrategy) Name() string { return "anchors" }

func (a anchorStrategy) List(_ context.Context) ([]models.DocumentRef, error) {
	var out []models.DocumentRef
	a.p.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		label := sel.AttrOr("download", "")
		if label == "" {
			label = sel.Text()
		}
		if ref, ok := a.p.resolve(href, label); ok {
			out = append(out, ref)
		}
	})
	return out, nil
}

// dataAttrStrategy looks for file links hidden in data-* attributes, which
// share pages rendered by javascript widgets tend to use instead of anchors.
type dataAttrStrategy struct{ p *page }

func (dataAttrStrategy) Name() string { return "data-attributes" }

var nameAttrs = []string{"data-name", "data-filename", "data-title"}

func (d dataAttrStrategy) List(_ context.Context) ([]models.DocumentRef, error) {
	var out []models.DocumentRef
	d.p.doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		if len(sel.Nodes) == 0 {
			return
		}
		label := ""
		for _, attr := range nameAttrs {
			if v, ok := sel.Attr(attr); ok {
				label = v
				break
			}
		}
		for _, attr := range sel.Nodes[0].Attr {
			if !strings.HasPrefix(attr.Key, "data-") {
				continue
			}
			if ref, ok := d.p.resolve(attr.Val, label); ok {
				out = append(out, ref)
				return
			}
		}
	})
	return out, nil
}

// scriptStrategy digs through JSON embedded in script tags, either whole
// JSON documents or object literals assigned to a variable.
type scriptStrategy struct{ p *page }

func (scriptStrategy) Name() string { return "script-json" }

var assignedObject = regexp.MustCompile(`(?s)=\s*(\{.*\}|\[.*\])\s*;?\s*$`)

var (
	nameKeys = []string{"name", "filename", "fileName", "title"}
	linkKeys = []string{"url", "href", "download_url", "downloadUrl", "link", "path", "src"}
)

func (s scriptStrategy) List(_ context.Context) ([]models.DocumentRef, error) {
	var out []models.DocumentRef
	s.p.doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		body := strings.TrimSpace(sel.Text())
		if body == "" {
			return
		}
		if !gjson.Valid(body) {
			m := assignedObject.FindStringSubmatch(body)
			if m == nil || !gjson.Valid(m[1]) {
				return
			}
			body = m[1]
		}
		s.collect(gjson.Parse(body), &out, 0)
	})
	return out, nil
}

func (s scriptStrategy) collect(v gjson.Result, out *[]models.DocumentRef, depth int) {
	if depth > 32 {
		return
	}
	if v.IsObject() {
		if ref, ok := s.fromObject(v); ok {
			*out = append(*out, ref)
		}
	}
	if v.IsObject() || v.IsArray() {
		v.ForEach(func(_, child gjson.Result) bool {
			s.collect(child, out, depth+1)
			return true
		})
	}
}

func (s scriptStrategy) fromObject(v gjson.Result) (models.DocumentRef, bool) {
	label := firstString(v, nameKeys)
	link := firstString(v, linkKeys)
	if link == "" {
		link = label
	}
	if link == "" {
		return models.DocumentRef{}, false
	}
	ref, ok := s.p.resolve(link, label)
	if !ok {
		return ref, false
	}
	if size := v.Get("size"); size.Exists() && size.Type == gjson.Number {
		n := size.Int()
		ref.SizeBytes = &n
	}
	return ref, true
}

func firstString(v gjson.Result, keys []string) string {
	for _, k := range keys {
		if r := v.Get(k); r.Type == gjson.String && r.String() != "" {
			return r.String()
		}
	}
	return ""
}
