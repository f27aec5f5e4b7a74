package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/paperquery/internal/corpus"
	"github.com/dgallion1/paperquery/internal/extractor"
	"github.com/dgallion1/paperquery/internal/index"
)

// Worker processes a single ingestion job: extract, index, publish.
type Worker struct {
	corpus *corpus.Corpus
	log    *slog.Logger
}

func NewWorker(store *corpus.Corpus, log *slog.Logger) *Worker {
	return &Worker{corpus: store, log: log}
}

// Process runs the full ingest pipeline for a job. Nothing touches the
// corpus until both extraction and indexing have succeeded, so an
// abandoned or failed job never leaks a partial document.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	if ctx.Err() != nil {
		job.SetStatus(StatusFailed, "cancelled")
		return
	}

	// Phase 1: extract.
	job.SetStatus(StatusExtracting, "extracting")
	ext, err := extractor.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	doc, err := ext.Extract(job.FileData(), job.Filename)
	job.clearFileData()
	if err != nil {
		var exErr *extractor.ExtractionError
		if errors.As(err, &exErr) {
			log.Error("extraction failed", "reason", exErr.Reason, "error", err)
		} else {
			log.Error("extraction failed", "error", err)
		}
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		return
	}
	if job.Title != "" {
		doc.Title = job.Title
	}
	job.SetExtracted(doc.PageCount, len(doc.Units))
	for _, warn := range doc.Warnings {
		job.AddWarning(fmt.Sprintf("page %d: %s", warn.Page, warn.Cause))
	}
	log.Info("extracted document", "pages", doc.PageCount, "units", len(doc.Units), "warnings", len(doc.Warnings))

	// Dedup: identical content already in the corpus is not re-published.
	if existingID, ok := w.corpus.FindByHash(doc.ContentHash); ok {
		log.Info("duplicate document, skipping", "existing_doc_id", existingID)
		job.SetDocID(existingID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 2: index.
	job.SetStatus(StatusIndexing, "indexing")
	ix := index.Build(doc)

	if ctx.Err() != nil {
		job.SetStatus(StatusFailed, "cancelled")
		return
	}

	// Phase 3: publish atomically.
	if err := w.corpus.Add(doc, ix); err != nil {
		log.Error("publish failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "publishing")
		return
	}
	job.SetDocID(doc.ID)

	if len(doc.Warnings) > 0 {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("document published", "doc_id", doc.ID)
}
