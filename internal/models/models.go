package models

import (
	"time"
)

// DocumentRef is one entry returned by a provider listing. Name is unique within
// its provider only; Locator is opaque and only meaningful to the provider that
// produced it.
type DocumentRef struct {
	Provider     string     `json:"provider"`
	Name         string     `json:"name"`
	Locator      string     `json:"locator"`
	SizeBytes    *int64     `json:"size_bytes,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	ETag         string     `json:"etag,omitempty"`
	ContentHint  string     `json:"content_hint"` // mime type or extension
}

// ProcessingState is the per-pass classification of a discovered document.
type ProcessingState string

const (
	StateDiscovered       ProcessingState = "discovered"
	StateNew              ProcessingState = "new"
	StateAlreadyProcessed ProcessingState = "already_processed"
)

// FetchResult is what the content fetcher hands to the extractor. When Fallback
// is set, Data is empty and Text carries synthetic content.
type FetchResult struct {
	Data        []byte
	Size        int64
	ContentType string
	Fallback    bool
	Text        string
	FetchError  string
}

// ExtractedText is the plain text of one document. Generated marks content
// that was not read from the real file.
type ExtractedText struct {
	Text            string `json:"text"`
	PageEstimate    int    `json:"page_estimate"`
	Generated       bool   `json:"generated"`
	ExtractionError string `json:"extraction_error,omitempty"`
}

// Chunk is one retrieval-sized slice of a document.
type Chunk struct {
	Content        string         `json:"content"`
	ChapterTitle   string         `json:"chapter_title,omitempty"`
	SectionTitle   string         `json:"section_title,omitempty"`
	PageNumber     int            `json:"page_number"`
	SourceDocument string         `json:"source_document"`
	PositionIndex  int            `json:"position_index"`
	Metadata       map[string]any `json:"metadata"`
}

// StoredChunk is a persisted chunk row.
type StoredChunk struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	Chunk                // content + metadata
	Embedding  []float32 `db:"embedding" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Document status values in the catalogue.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// Document is a catalogue row in the documents table.
type Document struct {
	ID         string     `db:"id" json:"id"`
	Provider   string     `db:"provider" json:"provider"`
	Name       string     `db:"name" json:"name"`
	Title      string     `db:"title" json:"title"`
	MimeType   string     `db:"mime_type" json:"mime_type"`
	SizeBytes  *int64     `db:"size_bytes" json:"size_bytes,omitempty"`
	ETag       string     `db:"etag" json:"etag,omitempty"`
	ModifiedAt *time.Time `db:"modified_at" json:"modified_at,omitempty"`
	SourceURL  string     `db:"source_url" json:"source_url"`
	Generated  bool       `db:"generated" json:"generated"`
	ChunkCount int        `db:"chunk_count" json:"chunk_count"`
	Status     string     `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// SearchHit is a chunk returned by similarity search.
type SearchHit struct {
	DocumentID   string         `json:"document_id"`
	DocumentName string         `json:"document_name"`
	Title        string         `json:"title"`
	SourceURL    string         `json:"source_url"`
	Content      string         `json:"content"`
	PageNumber   int            `json:"page_number"`
	ChapterTitle string         `json:"chapter_title,omitempty"`
	Generated    bool           `json:"generated"`
	Distance     float64        `json:"distance"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Trigger sources for a SyncRun.
const (
	TriggerManual    = "manual"
	TriggerDiscovery = "discovery"
	TriggerSchedule  = "schedule"
)

// RunError is one per-document failure recorded in a SyncRun.
type RunError struct {
	Document string `json:"document"`
	Message  string `json:"message"`
}

// DocumentOutcome is the terminal result for one processed document.
type DocumentOutcome struct {
	Document    string `json:"document"`
	Success     bool   `json:"success"`
	ChunksSaved int    `json:"chunks_saved"`
	Generated   bool   `json:"generated"`
	Reason      string `json:"reason,omitempty"`
}

// SyncRun summarises one orchestration invocation. It is written once, after
// the run completes, and never updated.
type SyncRun struct {
	ID              string            `json:"id"`
	Provider        string            `json:"provider"`
	TriggeredBy     string            `json:"triggered_by"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at"`
	DiscoveredCount int               `json:"discovered_count"`
	NewCount        int               `json:"new_count"`
	ProcessedCount  int               `json:"processed_count"`
	FailedCount     int               `json:"failed_count"`
	ChunksSaved     int               `json:"chunks_saved"`
	Errors          []RunError        `json:"errors"`
	Outcomes        []DocumentOutcome `json:"outcomes"`
}
