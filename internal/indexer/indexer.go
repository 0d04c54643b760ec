// Package indexer turns text and inbox files into notes: preprocess, embed, ingest, and
// index for keyword search.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/waygraph/internal/embedding"
	"github.com/hyperjump/waygraph/internal/extract"
	"github.com/hyperjump/waygraph/internal/fileid"
	"github.com/hyperjump/waygraph/internal/ingest"
	"github.com/hyperjump/waygraph/internal/keyword"
	"github.com/hyperjump/waygraph/internal/models"
	"github.com/hyperjump/waygraph/internal/vector"
	"go.uber.org/zap"
)

var (
	// ErrEmptyContent is returned when a note is empty after preprocessing.
	ErrEmptyContent = errors.New("note content is empty")
	// ErrEmbedding marks failures of the embedding collaborator. Nothing is ingested.
	ErrEmbedding = errors.New("embedding failed")
)

// Indexer adds notes to the pipeline and the keyword index.
type Indexer struct {
	pipeline     *ingest.Pipeline
	embedder     embedding.Embedder
	keywordIndex keyword.NoteIndex
	extractor    *extract.Extractor
	files        *fileid.Registry
	threshold    float64
	logger       *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (note added, file skipped, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithKeywordIndex indexes every added note for keyword search.
func WithKeywordIndex(k keyword.NoteIndex) IndexerOption {
	return func(idx *Indexer) { idx.keywordIndex = k }
}

// WithExtractor sets the extractor used by IndexFile; the default handles txt, md, pdf, docx and xlsx.
func WithExtractor(e *extract.Extractor) IndexerOption {
	return func(idx *Indexer) { idx.extractor = e }
}

// NewIndexer creates an indexer that links notes closer than threshold.
func NewIndexer(pipeline *ingest.Pipeline, embedder embedding.Embedder, threshold float64, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		pipeline:  pipeline,
		embedder:  embedder,
		extractor: extract.NewExtractor(),
		files:     fileid.NewRegistry(),
		threshold: threshold,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Store returns the note store behind the pipeline.
func (idx *Indexer) Store() vector.NoteStore {
	return idx.pipeline.Store()
}

// Threshold returns the link threshold.
func (idx *Indexer) Threshold() float64 {
	return idx.threshold
}

// Embed returns the embedding of text, wrapping failures in ErrEmbedding.
func (idx *Indexer) Embed(ctx context.Context, text string) ([]float32, error) {
	text = Preprocess(text)
	if text == "" {
		return nil, ErrEmptyContent
	}
	emb, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	return emb, nil
}

// AddNote preprocesses, embeds and ingests one note.
func (idx *Indexer) AddNote(ctx context.Context, text string) (*ingest.Result, error) {
	emb, err := idx.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	res, err := idx.pipeline.Ingest(ctx, Preprocess(text), emb, idx.threshold)
	if err != nil {
		return nil, err
	}
	idx.indexKeywords(ctx, res)
	return res, nil
}

// AddNotes embeds texts in one batch and ingests them as one graph update.
// Texts that are empty after preprocessing are skipped; if none remain, ErrEmptyContent.
func (idx *Indexer) AddNotes(ctx context.Context, texts []string) ([]*ingest.Result, error) {
	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		if p := Preprocess(t); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrEmptyContent
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(embeddings) != len(cleaned) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d notes", ErrEmbedding, len(embeddings), len(cleaned))
	}
	items := make([]ingest.Item, len(cleaned))
	for i := range cleaned {
		items[i] = ingest.Item{Content: cleaned[i], Embedding: embeddings[i]}
	}
	results, err := idx.pipeline.IngestBatch(ctx, items, idx.threshold)
	for _, res := range results {
		idx.indexKeywords(ctx, res)
	}
	return results, err
}

// Similar returns the stored note nearest to text without storing it, or nil if the store is empty.
func (idx *Indexer) Similar(ctx context.Context, text string) (*vector.Neighbor, error) {
	emb, err := idx.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return idx.pipeline.Store().Nearest(ctx, emb)
}

// Search runs a keyword search and joins the hits with the stored notes.
func (idx *Indexer) Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	resp := &models.SearchResponse{Query: q.Query, Hits: []*models.SearchHit{}}
	if idx.keywordIndex == nil {
		return resp, nil
	}
	hits, err := idx.keywordIndex.Search(ctx, q.Query, q.Limit, &keyword.SearchOptions{
		FuzzyEnabled: q.Fuzzy,
		PhraseBoost:  1.5,
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	store := idx.pipeline.Store()
	for _, h := range hits {
		rec, ok := store.Get(h.ID)
		if !ok {
			continue
		}
		resp.Hits = append(resp.Hits, &models.SearchHit{ID: rec.ID, Index: rec.Index, Content: rec.Content, Score: h.Score})
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

func (idx *Indexer) indexKeywords(ctx context.Context, res *ingest.Result) {
	if idx.keywordIndex == nil {
		return
	}
	if err := idx.keywordIndex.Index(ctx, res.ID, res.Content); err != nil && idx.logger != nil {
		idx.logger.Warn("keyword indexing failed", zap.String("id", res.ID), zap.Error(err))
	}
}

// IndexFile extracts notes from the file at path and adds them as one batch.
// If allowedExts is non-empty, the file's extension must be in the list (case-insensitive).
// A file already ingested with the same mtime and size is skipped. Returns the number of notes added.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return 0, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", absPath)
	}
	stamp := fileid.StampOf(info)
	if idx.files.Unchanged(absPath, stamp) {
		if idx.logger != nil {
			idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		}
		return 0, nil
	}
	notes, err := idx.extractor.ExtractNotes(absPath)
	if err != nil {
		return 0, fmt.Errorf("extract content: %w", err)
	}
	if len(notes) == 0 {
		idx.files.Record(absPath, stamp)
		return 0, nil
	}
	results, err := idx.AddNotes(ctx, notes)
	if err != nil {
		return len(results), err
	}
	idx.files.Record(absPath, stamp)
	if idx.logger != nil {
		idx.logger.Debug("indexer file ingested",
			zap.String("path", absPath),
			zap.String("file_id", fileid.FileID(absPath)),
			zap.Int("notes", len(results)),
		)
	}
	return len(results), nil
}

// IndexDirectory walks dir recursively and indexes each regular file whose extension
// is in allowedExts (if non-empty; otherwise every supported file). Returns the number
// of notes added and the first error encountered, if any.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		if len(allowedExts) == 0 && !extract.IsSupported(path) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		added, indexErr := idx.IndexFile(ctx, path, allowedExts)
		n += added
		return indexErr
	})
	return n, err
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
