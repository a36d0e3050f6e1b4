// Package providers holds the pieces shared by every storage adapter: the
// extension allow-list, bounded reads, the ordered discovery fallback chain
// and the registry the orchestrator resolves providers from.
package providers

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/models"
)

var contentHints = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".htm":  "text/html",
	".csv":  "text/csv",
}

// Ext returns the lower-cased extension of name, including the dot.
func Ext(name string) string {
	return strings.ToLower(path.Ext(strings.TrimSpace(name)))
}

// ContentHint maps a file name to the mime type its extension declares.
func ContentHint(name string) string {
	if hint, ok := contentHints[Ext(name)]; ok {
		return hint
	}
	return "application/octet-stream"
}

// Allowed reports whether name carries one of the allowed extensions.
func Allowed(name string, allowed []string) bool {
	ext := Ext(name)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if !strings.HasPrefix(a, ".") {
			a = "." + a
		}
		if a == ext {
			return true
		}
	}
	return false
}

// FilterAllowed drops refs outside the allow-list and duplicate names,
// keeping the first occurrence.
func FilterAllowed(refs []models.DocumentRef, allowed []string) []models.DocumentRef {
	seen := make(map[string]struct{}, len(refs))
	out := make([]models.DocumentRef, 0, len(refs))
	for _, ref := range refs {
		if !Allowed(ref.Name, allowed) {
			continue
		}
		if _, dup := seen[ref.Name]; dup {
			continue
		}
		seen[ref.Name] = struct{}{}
		if ref.ContentHint == "" {
			ref.ContentHint = ContentHint(ref.Name)
		}
		out = append(out, ref)
	}
	return out
}

// ReadLimited reads r fully unless it holds more than max bytes, in which case
// it returns ErrSizeExceeded and no data.
func ReadLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", core.ErrProviderUnavailable, err)
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: more than %d bytes", core.ErrSizeExceeded, max)
	}
	return data, nil
}

// Registry resolves configured providers by name.
type Registry struct {
	byName map[string]core.Provider
}

// NewRegistry indexes the given providers by Name.
func NewRegistry(ps ...core.Provider) *Registry {
	r := &Registry{byName: make(map[string]core.Provider, len(ps))}
	for _, p := range ps {
		if p != nil {
			r.byName[p.Name()] = p
		}
	}
	return r
}

// Get returns the named provider or ErrUnknownProvider.
func (r *Registry) Get(name string) (core.Provider, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownProvider, name)
	}
	return p, nil
}

// Names returns the configured provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
