package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/logger"
	"github.com/markdave123-py/docsync/internal/models"
)

// Chain tries discovery strategies in order; the first one returning a
// non-empty result wins. Errors from earlier strategies are only reported
// when no strategy produced anything.
type Chain struct {
	name       string
	strategies []core.Lister
}

var _ core.Lister = (*Chain)(nil)

// NewChain builds an ordered fallback chain.
func NewChain(name string, strategies ...core.Lister) *Chain {
	return &Chain{name: name, strategies: strategies}
}

func (c *Chain) Name() string { return c.name }

func (c *Chain) List(ctx context.Context) ([]models.DocumentRef, error) {
	log := logger.FromContext(ctx).With("provider", c.name)
	var errs []error
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		refs, err := s.List(ctx)
		if err != nil {
			log.Warn("discovery strategy failed", "strategy", s.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if len(refs) > 0 {
			log.Debug("discovery strategy matched", "strategy", s.Name(), "documents", len(refs))
			return refs, nil
		}
		log.Debug("discovery strategy found nothing", "strategy", s.Name())
	}
	if len(errs) > 0 && len(errs) == len(c.strategies) {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}

// Static is the last-resort strategy: a configured list of known names.
type Static struct {
	provider string
	names    []string
	locate   func(name string) string
}

// NewStatic lists names verbatim; locate maps a name to its locator, nil
// meaning the name is its own locator.
func NewStatic(provider string, names []string, locate func(name string) string) *Static {
	return &Static{provider: provider, names: names, locate: locate}
}

func (s *Static) Name() string { return "seed-list" }

func (s *Static) List(_ context.Context) ([]models.DocumentRef, error) {
	out := make([]models.DocumentRef, 0, len(s.names))
	for _, n := range s.names {
		loc := n
		if s.locate != nil {
			loc = s.locate(n)
		}
		out = append(out, models.DocumentRef{
			Provider:    s.provider,
			Name:        n,
			Locator:     loc,
			ContentHint: ContentHint(n),
		})
	}
	return out, nil
}

// listerFunc adapts a provider's own List to the Lister interface.
type listerFunc struct {
	name string
	fn   func(ctx context.Context) ([]models.DocumentRef, error)
}

func (l listerFunc) Name() string { return l.name }

func (l listerFunc) List(ctx context.Context) ([]models.DocumentRef, error) { return l.fn(ctx) }

// withFallback keeps a provider's Fetch and routes List through a chain whose
// first strategy is the provider itself.
type withFallback struct {
	core.Provider
	chain *Chain
}

// WithFallback wraps p so that List falls through to alternates, in order,
// whenever p lists nothing or fails.
func WithFallback(p core.Provider, alternates ...core.Lister) core.Provider {
	if len(alternates) == 0 {
		return p
	}
	primary := listerFunc{name: "primary", fn: p.List}
	strategies := append([]core.Lister{primary}, alternates...)
	return &withFallback{Provider: p, chain: NewChain(p.Name(), strategies...)}
}

func (w *withFallback) List(ctx context.Context) ([]models.DocumentRef, error) {
	return w.chain.List(ctx)
}
