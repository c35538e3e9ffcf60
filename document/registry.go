package document

import (
	"fmt"

	"ctagline/logger"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Registry maps editor buffer handles to documents. It is bounded so that
// buffers whose delete event never reached us are eventually dropped, least
// recently used first.
type Registry struct {
	docs *lru.Cache[int, *Document]
}

func NewRegistry(capacity int) (*Registry, error) {
	docs, err := lru.NewWithEvict(capacity, func(buffer int, doc *Document) {
		logger.Debug("registry: dropped buffer %d (%s)", buffer, doc.Path())
	})
	if err != nil {
		return nil, fmt.Errorf("create document registry: %w", err)
	}
	return &Registry{docs: docs}, nil
}

// Open returns the document for buffer, creating it when needed. An existing
// document keeps its tags and picks up path.
func (r *Registry) Open(buffer int, path string) *Document {
	if doc, ok := r.docs.Get(buffer); ok {
		if path != "" && doc.Path() != path {
			doc.SetPath(path)
		}
		return doc
	}
	doc := New(buffer, path)
	r.docs.Add(buffer, doc)
	return doc
}

// Get returns the document for buffer without creating one.
func (r *Registry) Get(buffer int) (*Document, bool) {
	return r.docs.Get(buffer)
}

// Holds reports whether doc is still the registered document for its buffer.
// A generation result for a closed or replaced document must not be published.
func (r *Registry) Holds(doc *Document) bool {
	current, ok := r.docs.Peek(doc.Buffer)
	return ok && current == doc
}

// Close discards the document and its tags.
func (r *Registry) Close(buffer int) bool {
	return r.docs.Remove(buffer)
}

func (r *Registry) Len() int {
	return r.docs.Len()
}

// Purge discards every document. Used when a different editor instance
// connects, since buffer handles are only unique within one instance.
func (r *Registry) Purge() {
	r.docs.Purge()
}
