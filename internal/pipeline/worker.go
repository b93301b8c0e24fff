package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/dgallion1/yamloutline/internal/pathstore"
)

// Publisher stores finished outlines somewhere durable.
type Publisher interface {
	PublishOutline(ctx context.Context, prefix string, meta pathstore.Meta, tree *doctree.DocTree) (int, error)
}

// Worker processes a single document job.
type Worker struct {
	analyzer  *Analyzer
	publisher Publisher
	log       *slog.Logger
}

// NewWorker builds a worker. publisher may be nil.
func NewWorker(analyzer *Analyzer, publisher Publisher, log *slog.Logger) *Worker {
	return &Worker{
		analyzer:  analyzer,
		publisher: publisher,
		log:       log,
	}
}

// Process runs the full outline pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "user_id", job.UserID)
	defer job.releaseFileData()

	// Phase 1: Parse and analyze
	job.SetStatus(StatusParsing, "parsing")
	res, err := w.analyzer.Analyze(ctx, job.Filename, job.FileData())
	if err != nil {
		log.Error("outline failed", "error", err)
		job.AddError(err.Error())
		w.finish(job, StatusFailed, "parsing")
		return
	}
	job.SetContentHash(res.ContentHash)

	job.SetStatus(StatusAnalyzing, "analyzing")
	tree := res.Tree
	if job.Title != "" {
		tree.Title = job.Title
	}
	job.SetOutline(tree, res.Segments, res.Cached)
	log.Info("outlined document", "keys", len(tree.Entries), "segments", res.Segments, "cached", res.Cached)

	// Phase 2: Publish
	if w.publisher == nil {
		w.finish(job, StatusCompleted, "done")
		return
	}

	job.SetStatus(StatusPublishing, "publishing")
	prefix := pathstore.DocumentPrefix(job.UserID, job.DocID)
	n, err := w.publisher.PublishOutline(ctx, prefix, pathstore.Meta{
		DocID:       job.DocID,
		Title:       tree.Title,
		Filename:    job.Filename,
		ContentHash: res.ContentHash,
	}, tree)
	job.SetPublished(n)
	if err != nil {
		log.Error("publish failed", "error", err, "published", n)
		job.AddError(fmt.Sprintf("publish: %s", err))
		if n > 0 {
			w.finish(job, StatusPartial, "publishing")
		} else {
			w.finish(job, StatusFailed, "publishing")
		}
		return
	}
	log.Info("published outline", "prefix", prefix, "entries", n)
	w.finish(job, StatusCompleted, "done")
}

func (w *Worker) finish(job *Job, status JobStatus, phase string) {
	job.SetStatus(status, phase)
	jobsTotal.WithLabelValues(string(status)).Inc()
}
