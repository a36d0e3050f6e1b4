package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/models"
)

// FakeProvider serves documents from memory. Names listed in FetchErrors
// fail on Fetch with the given error.
type FakeProvider struct {
	ProviderName string
	Refs         []models.DocumentRef
	Files        map[string][]byte
	FetchErrors  map[string]error
	ListErr      error

	mu      sync.Mutex
	fetched []string
}

var _ core.Provider = (*FakeProvider)(nil)

func NewFakeProvider(name string) *FakeProvider {
	return &FakeProvider{ProviderName: name, Files: map[string][]byte{}, FetchErrors: map[string]error{}}
}

// Add registers a document with content.
func (p *FakeProvider) Add(name string, data []byte) *FakeProvider {
	size := int64(len(data))
	p.Refs = append(p.Refs, models.DocumentRef{
		Provider:    p.ProviderName,
		Name:        name,
		Locator:     name,
		SizeBytes:   &size,
		ContentHint: hintFor(name),
	})
	p.Files[name] = data
	return p
}

// AddFailing registers a listed document whose fetch fails with err.
func (p *FakeProvider) AddFailing(name string, err error) *FakeProvider {
	p.Refs = append(p.Refs, models.DocumentRef{
		Provider:    p.ProviderName,
		Name:        name,
		Locator:     name,
		ContentHint: hintFor(name),
	})
	p.FetchErrors[name] = err
	return p
}

func (p *FakeProvider) Name() string { return p.ProviderName }

func (p *FakeProvider) List(_ context.Context) ([]models.DocumentRef, error) {
	if p.ListErr != nil {
		return nil, p.ListErr
	}
	return append([]models.DocumentRef(nil), p.Refs...), nil
}

func (p *FakeProvider) Fetch(_ context.Context, ref models.DocumentRef) ([]byte, error) {
	p.mu.Lock()
	p.fetched = append(p.fetched, ref.Name)
	p.mu.Unlock()
	if err, ok := p.FetchErrors[ref.Name]; ok {
		return nil, err
	}
	data, ok := p.Files[ref.Locator]
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", core.ErrProviderUnavailable, ref.Name)
	}
	return data, nil
}

// Fetched lists fetched names in call order.
func (p *FakeProvider) Fetched() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.fetched...)
}

func hintFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(name, ".html"):
		return "text/html"
	case strings.HasSuffix(name, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain"
	}
}

// FakeEmbedder returns a constant vector of Dim values. When FailOn matches
// a substring of the text, the call fails.
type FakeEmbedder struct {
	Dim    int
	FailOn string

	mu    sync.Mutex
	calls int
}

var _ core.EmbeddingProvider = (*FakeEmbedder)(nil)

func (e *FakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		if e.FailOn != "" && strings.Contains(t, e.FailOn) {
			return nil, errors.New("embedding quota exhausted")
		}
		v := make([]float32, e.Dim)
		for i := range v {
			v[i] = float32(len(t)%7) / 7
		}
		out = append(out, v)
	}
	return out, nil
}

// Calls reports how many EmbedTexts calls were made.
func (e *FakeEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// FakeObjectClient records uploads.
type FakeObjectClient struct {
	mu      sync.Mutex
	Uploads map[string][]byte
	Err     error
}

var _ core.ObjectClient = (*FakeObjectClient)(nil)

func (o *FakeObjectClient) UploadFile(_ context.Context, key string, data []byte, _ string) (string, error) {
	if o.Err != nil {
		return "", o.Err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Uploads == nil {
		o.Uploads = map[string][]byte{}
	}
	o.Uploads[key] = data
	return "mem://" + key, nil
}

// FakeQueue records enqueued jobs; Full makes every Enqueue fail.
type FakeQueue struct {
	mu   sync.Mutex
	Jobs []core.ProcessJob
	Full bool
}

var _ core.JobQueue = (*FakeQueue)(nil)

func (q *FakeQueue) Enqueue(job core.ProcessJob) error {
	if q.Full {
		return core.ErrQueueFull
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Jobs = append(q.Jobs, job)
	return nil
}
