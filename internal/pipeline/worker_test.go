package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/yamloutline/internal/config"
	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/dgallion1/yamloutline/internal/outline"
	"github.com/dgallion1/yamloutline/internal/parser"
	"github.com/dgallion1/yamloutline/internal/pathstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published outlines. A non-nil err is returned
// after failAfter entries.
type recordingPublisher struct {
	mu        sync.Mutex
	prefixes  []string
	metas     []pathstore.Meta
	err       error
	failAfter int
}

func (p *recordingPublisher) PublishOutline(_ context.Context, prefix string, meta pathstore.Meta, tree *doctree.DocTree) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefixes = append(p.prefixes, prefix)
	p.metas = append(p.metas, meta)
	if p.err != nil {
		return p.failAfter, p.err
	}
	return len(tree.Entries), nil
}

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(outline.DedentNearest, parser.Options{}, nil, nil, discardLogger())
}

func TestWorker_CompletesWithoutPublisher(t *testing.T) {
	w := NewWorker(newTestAnalyzer(), nil, discardLogger())
	job := NewJob("u1", "doc1", "app.yaml", "", []byte(sampleYAML))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 5, snap.Progress.Keys)
	assert.Equal(t, 0, snap.Progress.Published)
	assert.NotEmpty(t, snap.ContentHash)
	assert.Nil(t, job.FileData())
	require.NotNil(t, job.Outline())
	assert.Equal(t, "app", job.Outline().Title)
}

func TestWorker_TitleOverride(t *testing.T) {
	w := NewWorker(newTestAnalyzer(), nil, discardLogger())
	job := NewJob("u1", "doc1", "app.yaml", "Production config", []byte(sampleYAML))

	w.Process(context.Background(), job)
	assert.Equal(t, "Production config", job.Outline().Title)
}

func TestWorker_Publishes(t *testing.T) {
	pub := &recordingPublisher{}
	w := NewWorker(newTestAnalyzer(), pub, discardLogger())
	job := NewJob("u1", "doc1", "app.yaml", "", []byte(sampleYAML))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 5, snap.Progress.Published)
	require.Len(t, pub.prefixes, 1)
	assert.Equal(t, pathstore.DocumentPrefix("u1", "doc1"), pub.prefixes[0])
	assert.Equal(t, "doc1", pub.metas[0].DocID)
	assert.Equal(t, snap.ContentHash, pub.metas[0].ContentHash)
}

func TestWorker_PartialPublish(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("store down"), failAfter: 2}
	w := NewWorker(newTestAnalyzer(), pub, discardLogger())
	job := NewJob("u1", "doc1", "app.yaml", "", []byte(sampleYAML))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusPartial, snap.Status)
	assert.Equal(t, 2, snap.Progress.Published)
	assert.Len(t, snap.Progress.Errors, 1)
}

func TestWorker_PublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("store down")}
	w := NewWorker(newTestAnalyzer(), pub, discardLogger())
	job := NewJob("u1", "doc1", "app.yaml", "", []byte(sampleYAML))

	w.Process(context.Background(), job)
	assert.Equal(t, StatusFailed, job.Snapshot().Status)
	assert.NotNil(t, job.Outline())
}

func TestWorker_UnsupportedFile(t *testing.T) {
	w := NewWorker(newTestAnalyzer(), nil, discardLogger())
	job := NewJob("u1", "doc1", "photo.png", "", []byte{0x89, 'P', 'N', 'G'})

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "parsing", snap.Phase)
	assert.Len(t, snap.Progress.Errors, 1)
	assert.Nil(t, job.Outline())
}

func testConfig() config.Config {
	return config.Config{
		WorkerCount:  2,
		MaxQueueSize: 4,
		JobTTL:       time.Hour,
	}
}

func waitDone(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	var snap JobSnapshot
	require.Eventually(t, func() bool {
		snap = job.Snapshot()
		return snap.Status.Done()
	}, 5*time.Second, 5*time.Millisecond)
	return snap
}

func TestOrchestrator_ProcessesJobs(t *testing.T) {
	o := NewOrchestrator(testConfig(), newTestAnalyzer(), nil, discardLogger())
	o.Start(context.Background())
	t.Cleanup(o.Stop)

	job := NewJob("u1", "", "app.yaml", "", []byte(sampleYAML))
	require.NoError(t, o.Submit(job))

	snap := waitDone(t, job)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Same(t, job, o.GetJob(job.ID))
	assert.Nil(t, o.GetJob("missing"))
	assert.Nil(t, o.Publisher())
	assert.NotNil(t, o.Analyzer())
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(cfg, newTestAnalyzer(), nil, discardLogger())

	require.NoError(t, o.Submit(NewJob("u", "a", "a.yaml", "", []byte("a:"))))
	assert.Equal(t, 1, o.QueueDepth())

	overflow := NewJob("u", "b", "b.yaml", "", []byte("b:"))
	err := o.Submit(overflow)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, overflow.Snapshot().Status)
	assert.Same(t, overflow, o.GetJob(overflow.ID))
}
