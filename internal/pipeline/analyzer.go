package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/yamloutline/internal/cache"
	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/dgallion1/yamloutline/internal/outline"
	"github.com/dgallion1/yamloutline/internal/parser"
)

// OutlineCache is the subset of the cache the analyzer needs.
type OutlineCache interface {
	Get(ctx context.Context, hash string) (*doctree.DocTree, error)
	Put(ctx context.Context, hash string, tree *doctree.DocTree) error
	RunGC() error
}

// Result is the outcome of outlining one document.
type Result struct {
	Tree        *doctree.DocTree
	ContentHash string
	Segments    int
	Cached      bool
}

// Analyzer parses documents and runs the outline pass over them. It is safe
// for concurrent use; each call owns its own tracker state.
type Analyzer struct {
	policy     outline.DedentPolicy
	parserOpts parser.Options
	cache      OutlineCache
	stats      *AnalysisStats
	log        *slog.Logger
}

// NewAnalyzer builds an analyzer. cache may be nil.
func NewAnalyzer(policy outline.DedentPolicy, opts parser.Options, c OutlineCache, stats *AnalysisStats, log *slog.Logger) *Analyzer {
	if stats == nil {
		stats = NewAnalysisStats(time.Hour)
	}
	return &Analyzer{
		policy:     policy,
		parserOpts: opts,
		cache:      c,
		stats:      stats,
		log:        log,
	}
}

// Stats returns the rolling latency tracker.
func (a *Analyzer) Stats() *AnalysisStats {
	return a.stats
}

// Policy returns the dedent policy used for every pass.
func (a *Analyzer) Policy() outline.DedentPolicy {
	return a.policy
}

// Analyze parses data according to filename and outlines it. Unsupported
// files fail with parser.ErrUnsupported.
func (a *Analyzer) Analyze(ctx context.Context, filename string, data []byte) (*Result, error) {
	p, err := parser.Detect(filename, data, a.parserOpts)
	if err != nil {
		analysesTotal.WithLabelValues("none", "unsupported").Inc()
		return nil, err
	}
	kind := parserKind(p)

	hash := ContentHashHex(data)
	key := a.cacheKey(filename, hash)

	if a.cache != nil {
		tree, err := a.cache.Get(ctx, key)
		switch {
		case err == nil:
			a.stats.RecordCacheHit()
			analysesTotal.WithLabelValues(kind, "cached").Inc()
			return &Result{Tree: tree, ContentHash: hash, Segments: tree.Segments, Cached: true}, nil
		case !errors.Is(err, cache.ErrMiss):
			a.log.Warn("outline cache read failed", "error", err)
		}
	}

	start := time.Now()
	src, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		analysesTotal.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	tree := doctree.Outline(src, a.policy)
	elapsed := time.Since(start)

	a.stats.Record(elapsed, len(tree.Entries))
	analysisDuration.Observe(elapsed.Seconds())
	keysEmitted.Add(float64(len(tree.Entries)))
	analysesTotal.WithLabelValues(kind, "ok").Inc()

	if a.cache != nil {
		if err := a.cache.Put(ctx, key, tree); err != nil {
			a.log.Warn("outline cache write failed", "error", err)
		}
	}

	return &Result{Tree: tree, ContentHash: hash, Segments: tree.Segments}, nil
}

// Maintain runs periodic housekeeping on the cache.
func (a *Analyzer) Maintain() {
	if a.cache == nil {
		return
	}
	if err := a.cache.RunGC(); err != nil {
		a.log.Warn("outline cache gc failed", "error", err)
	}
}

// cacheKey separates outlines of identical bytes that were parsed differently
// or analyzed under another dedent policy.
func (a *Analyzer) cacheKey(filename, hash string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s/%s/%s", a.policy, ext, trimExtBase(filename), hash)
}

func trimExtBase(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func parserKind(p parser.Parser) string {
	switch p.(type) {
	case *parser.TextParser:
		return "text"
	case *parser.MarkdownParser:
		return "markdown"
	case *parser.HTMLParser:
		return "html"
	case *parser.PDFParser:
		return "pdf"
	case *parser.DOCXParser:
		return "docx"
	default:
		return "other"
	}
}
