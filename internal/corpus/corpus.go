// Package corpus holds the session's published documents. Documents are
// append-only during querying; publication and removal take the write
// lock, so concurrent queries see a consistent read-only view.
package corpus

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dgallion1/paperquery/internal/document"
	"github.com/dgallion1/paperquery/internal/index"
)

// Entry pairs a published document with its prebuilt index.
type Entry struct {
	Doc   *document.Document
	Index *index.SectionIndex
}

// Corpus is the in-memory document store for one session.
type Corpus struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func New() *Corpus {
	return &Corpus{entries: make(map[string]*Entry)}
}

// Add publishes a document with its index. A document with the same ID
// is replaced, never mutated.
func (c *Corpus) Add(doc *document.Document, ix *index.SectionIndex) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document has no id")
	}
	if ix == nil {
		return fmt.Errorf("document %s has no index", doc.ID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[doc.ID] = &Entry{Doc: doc, Index: ix}
	return nil
}

// Get returns the entry for a document ID.
func (c *Corpus) Get(id string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// List returns all entries sorted by document ID for stable output.
func (c *Corpus) List() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Doc.ID < out[j].Doc.ID })
	return out
}

// Remove deletes a document. Returns false if it was not present.
func (c *Corpus) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		return false
	}
	delete(c.entries, id)
	return true
}

// Len returns the number of published documents.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// FindByHash returns the ID of a document with the given content hash,
// used to skip duplicate uploads.
func (c *Corpus) FindByHash(hash string) (string, bool) {
	if hash == "" {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for id, e := range c.entries {
		if e.Doc.ContentHash == hash {
			return id, true
		}
	}
	return "", false
}
