package cache

import (
	"context"
	"testing"

	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/dgallion1/yamloutline/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleTree() *doctree.DocTree {
	tree := doctree.Outline(&doctree.Source{
		Title:    "sample",
		Segments: []doctree.Segment{{Lines: []string{"a:", "  b:"}}},
	}, outline.DedentNearest)
	tree.Nest()
	return tree
}

func TestCache_PutGet(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "abc", sampleTree()))

	got, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "sample", got.Title)
	assert.Equal(t, 1, got.Segments)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "a.b", got.Entries[1].Key)
	assert.Equal(t, 1, got.Entries[1].Range.Line)
	assert.Nil(t, got.Roots)
}

func TestCache_Miss(t *testing.T) {
	c := openTest(t)
	_, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_Delete(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "abc", sampleTree()))
	require.NoError(t, c.Delete(ctx, "abc"))

	_, err := c.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_CanceledContext(t *testing.T) {
	c := openTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Put(ctx, "abc", sampleTree()), context.Canceled)
	_, err := c.Get(ctx, "abc")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCache_PersistentDir(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, "abc", sampleTree()))
	require.NoError(t, c.RunGC())
	require.NoError(t, c.Close())

	c, err = Open(Config{Dir: dir})
	require.NoError(t, err)
	defer c.Close()
	got, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Len(t, got.Entries, 2)
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
