package core

import "errors"

// Pipeline error taxonomy. Everything below the document level is absorbed
// and recorded; only ErrConfiguration aborts a run.
var (
	// ErrProviderUnavailable indicates a listing or fetch transport failure.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrSizeExceeded indicates a payload larger than the fetch ceiling.
	ErrSizeExceeded = errors.New("size ceiling exceeded")

	// ErrUnexpectedContent indicates the provider returned a different kind of
	// payload than requested, such as an HTML error page for a PDF.
	ErrUnexpectedContent = errors.New("unexpected content type")

	// ErrAPIEnvelope indicates the provider answered with an API-level error.
	ErrAPIEnvelope = errors.New("provider api error")

	// ErrExtractionWeak indicates extracted text below the signal threshold.
	ErrExtractionWeak = errors.New("extracted text too weak")

	// ErrEmbeddingProvider indicates the embedding call for a chunk failed.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrStoreWrite indicates a persistence failure.
	ErrStoreWrite = errors.New("store write error")

	// ErrConfiguration indicates missing credentials or environment for a run.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnknownProvider indicates a request named a provider that is not configured.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrQueueFull indicates the async processing queue rejected a job.
	ErrQueueFull = errors.New("processing queue full")
)
