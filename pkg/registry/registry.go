// Package registry builds the global citation registry: a breadth-first
// traversal over development documents starting from the citation markers of
// a top-level message, assigning every discovered document id exactly one
// stable ordinal number.
//
// A Registry instance belongs to one render pass of one piece of content.
// When the content changes, the owner discards the instance and builds a
// fresh one; numbering is never shared or mutated across builds.
package registry

import (
	"github.com/coolbeans/devcite/pkg/citation"
	"github.com/coolbeans/devcite/pkg/document"
)

// Registry holds the stable id-to-number assignment table and the documents
// resolved during one build. Numbers are 1-based, assigned in discovery
// order, and never reassigned.
type Registry struct {
	numbering map[string]int
	raw       map[string]string // first raw marker text per id
	documents map[string]*document.Document
	processed map[string]bool
	order     []string // ids in assignment order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		numbering: make(map[string]int),
		raw:       make(map[string]string),
		documents: make(map[string]*document.Document),
		processed: make(map[string]bool),
	}
}

// assign gives the id the next ordinal if it has none yet. Returns the id's
// number and whether this call assigned it. An id that already holds a
// number keeps it, which is what makes "seed wins" hold when a seed id is
// rediscovered inside another document.
func (registry *Registry) assign(id, rawText string) (int, bool) {
	if existingNumber, exists := registry.numbering[id]; exists {
		return existingNumber, false
	}
	number := len(registry.order) + 1
	registry.numbering[id] = number
	registry.raw[id] = rawText
	registry.order = append(registry.order, id)
	return number, true
}

// markProcessed records that an id has been dequeued and expanded.
func (registry *Registry) markProcessed(id string) {
	registry.processed[id] = true
}

// storeDocument caches a resolved document for the current render pass.
func (registry *Registry) storeDocument(id string, doc *document.Document) {
	registry.documents[id] = doc
}

// NumberFor returns the ordinal assigned to an id.
func (registry *Registry) NumberFor(id string) (int, bool) {
	number, ok := registry.numbering[id]
	return number, ok
}

// DocumentFor returns the resolved document for an id. An id can hold a
// number yet have no document when its fetch failed; the renderer shows a
// placeholder for those.
func (registry *Registry) DocumentFor(id string) (*document.Document, bool) {
	doc, ok := registry.documents[id]
	return doc, ok
}

// IsProcessed reports whether an id has been dequeued and expanded.
func (registry *Registry) IsProcessed(id string) bool {
	return registry.processed[id]
}

// Citations returns every numbered citation in assignment order.
func (registry *Registry) Citations() []citation.Citation {
	citations := make([]citation.Citation, 0, len(registry.order))
	for _, id := range registry.order {
		citations = append(citations, citation.Citation{
			ID:      id,
			Number:  registry.numbering[id],
			RawText: registry.raw[id],
		})
	}
	return citations
}

// Numbering returns a copy of the id-to-number table.
func (registry *Registry) Numbering() map[string]int {
	numbering := make(map[string]int, len(registry.numbering))
	for id, number := range registry.numbering {
		numbering[id] = number
	}
	return numbering
}

// Documents returns a copy of the resolved document map.
func (registry *Registry) Documents() map[string]*document.Document {
	documents := make(map[string]*document.Document, len(registry.documents))
	for id, doc := range registry.documents {
		documents[id] = doc
	}
	return documents
}

// Len returns the number of ids that hold a citation number.
func (registry *Registry) Len() int {
	return len(registry.order)
}
