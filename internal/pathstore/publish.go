package pathstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/yamloutline/internal/doctree"
)

// Meta is stored at <prefix>/meta for every published outline.
type Meta struct {
	DocID       string `json:"doc_id"`
	Title       string `json:"title"`
	Filename    string `json:"filename,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	Keys        int    `json:"keys"`
}

// DocumentPrefix is where a user's outline for docID lives.
func DocumentPrefix(userID, docID string) string {
	return fmt.Sprintf("outlines/users/%s/documents/%s", userID, docID)
}

// PublishOutline replaces whatever is stored under prefix with tree: a meta
// node and one node per entry under <prefix>/keys/<index>. Each write is
// retried on transient failures. It returns the number of entries written.
func (c *Client) PublishOutline(ctx context.Context, prefix string, meta Meta, tree *doctree.DocTree) (int, error) {
	err := c.withRetry(ctx, func() error {
		err := c.DeleteNode(ctx, prefix, true)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", prefix, err)
	}

	meta.Keys = len(tree.Entries)
	err = c.withRetry(ctx, func() error {
		return c.PutNode(ctx, prefix+"/meta", NodeRequest{
			Value:  meta,
			Source: "yamloutline:" + meta.DocID,
		})
	})
	if err != nil {
		return 0, fmt.Errorf("write meta: %w", err)
	}

	written := 0
	for i, e := range tree.Entries {
		key := fmt.Sprintf("%s/keys/%06d", prefix, i)
		value := map[string]any{
			"key":   e.Key,
			"line":  e.Range.Line,
			"start": e.Range.Start,
			"end":   e.Range.End,
		}
		if e.Segment != "" {
			value["segment"] = e.Segment
		}
		err := c.withRetry(ctx, func() error {
			return c.PutNode(ctx, key, NodeRequest{
				Value:  value,
				Source: "yamloutline:" + meta.DocID,
			})
		})
		if err != nil {
			return written, fmt.Errorf("write entry %d: %w", i, err)
		}
		written++
	}
	return written, nil
}
