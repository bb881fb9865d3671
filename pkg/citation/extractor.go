package citation

import (
	"sort"
)

// Extractor scans narrative text for citation markers using a fixed list of
// marker syntaxes. Extraction is purely lexical: ids are not resolved or
// validated. Safe for concurrent use.
type Extractor struct {
	syntaxes []MarkerSyntax
}

// NewExtractor creates an Extractor over the given syntaxes in order.
// With no syntaxes, the builtin grammars are used.
func NewExtractor(syntaxes ...MarkerSyntax) *Extractor {
	if len(syntaxes) == 0 {
		syntaxes = BuiltinSyntaxes()
	}
	return &Extractor{syntaxes: syntaxes}
}

// Syntaxes returns the names of the syntaxes this extractor applies.
func (extractor *Extractor) Syntaxes() []string {
	names := make([]string, 0, len(extractor.syntaxes))
	for _, syntax := range extractor.syntaxes {
		names = append(names, syntax.Name())
	}
	return names
}

// Scan returns every marker occurrence in the text, merged across all
// syntaxes and ordered by offset. Repeated ids are kept; overlapping matches
// from different syntaxes are resolved in favor of the earlier one.
// Used by the rendering layer, which must rewrite every occurrence.
func (extractor *Extractor) Scan(text string) []Marker {
	var allMarkers []Marker
	for _, syntax := range extractor.syntaxes {
		allMarkers = append(allMarkers, syntax.Find(text)...)
	}
	if len(allMarkers) == 0 {
		return nil
	}

	sort.SliceStable(allMarkers, func(i, j int) bool {
		return allMarkers[i].Offset < allMarkers[j].Offset
	})

	// Drop matches that overlap an already-accepted earlier match.
	merged := allMarkers[:0]
	previousEnd := -1
	for _, marker := range allMarkers {
		if marker.Offset < previousEnd {
			continue
		}
		merged = append(merged, marker)
		previousEnd = marker.Offset + len(marker.RawText)
	}
	return merged
}

// Extract returns the referenced ids in first-occurrence order, deduplicated
// within this single call. Repeats of an id contribute nothing after the
// first marker. Extract is idempotent over identical input.
func (extractor *Extractor) Extract(text string) []Marker {
	scanned := extractor.Scan(text)
	if len(scanned) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(scanned))
	deduplicated := make([]Marker, 0, len(scanned))
	for _, marker := range scanned {
		if seen[marker.ID] {
			continue
		}
		seen[marker.ID] = true
		deduplicated = append(deduplicated, marker)
	}
	return deduplicated
}

// ExtractIDs is a convenience wrapper returning only the ids from Extract.
func (extractor *Extractor) ExtractIDs(text string) []string {
	markers := extractor.Extract(text)
	ids := make([]string, 0, len(markers))
	for _, marker := range markers {
		ids = append(ids, marker.ID)
	}
	return ids
}
