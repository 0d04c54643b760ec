// Package models defines the HTTP request and response bodies.
package models

import (
	"github.com/hyperjump/waygraph/internal/ingest"
	"github.com/hyperjump/waygraph/internal/vector"
)

// EmbedRequest asks for the embedding of a text.
type EmbedRequest struct {
	Text string `json:"text" validate:"notblank,max=32000"`
}

// EmbedResponse carries one embedding.
type EmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// AddNoteRequest adds one note.
type AddNoteRequest struct {
	Content string `json:"content" validate:"notblank,max=32000"`
}

// MessageInput is one chat message in an extraction request.
type MessageInput struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content"`
}

// ExtractNotesRequest turns a chat transcript into notes.
type ExtractNotesRequest struct {
	Messages []MessageInput `json:"messages" validate:"required,min=1,dive"`
}

// ExtractNotesResponse lists the notes created from a transcript, oldest first.
type ExtractNotesResponse struct {
	Notes []*ingest.Result `json:"notes"`
}

// SimilarRequest finds the stored note nearest to a text without storing it.
type SimilarRequest struct {
	Text string `json:"text" validate:"notblank,max=32000"`
}

// SimilarResponse holds the nearest note, or nil with a message when the store is empty.
type SimilarResponse struct {
	Similar *vector.Neighbor `json:"similar"`
	Message string           `json:"message,omitempty"`
}

// NoteListResponse lists notes in insertion order.
type NoteListResponse struct {
	Notes []vector.Record `json:"notes"`
	Total int             `json:"total"`
}

// SearchHit is a keyword hit with the note's content.
type SearchHit struct {
	ID      string  `json:"id"`
	Index   int     `json:"index"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse is the response for a keyword search.
type SearchResponse struct {
	Query     string       `json:"query"`
	Hits      []*SearchHit `json:"hits"`
	QueryTime int64        `json:"query_time_ms"`
}

// SearchQuery is a keyword search read from query parameters.
type SearchQuery struct {
	Query string `json:"q" validate:"notblank"`
	Limit int    `json:"limit" validate:"min=0,max=100"`
	Fuzzy bool   `json:"fuzzy"`
}

// Normalize sets the default limit.
func (q *SearchQuery) Normalize() {
	if q.Limit == 0 {
		q.Limit = 10
	}
}
