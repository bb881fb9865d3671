// Package render binds citation markers in a message to their assigned
// numbers for display. It rewrites markers into reference segments carrying
// (id, number) and maps selections back to document detail data.
package render

import (
	"fmt"
	"strings"

	"github.com/coolbeans/devcite/pkg/citation"
	"github.com/coolbeans/devcite/pkg/document"
	"github.com/coolbeans/devcite/pkg/registry"
)

// NotFoundPlaceholder is the detail text shown for a citation whose document
// could not be resolved. Selecting such a citation is a normal outcome, not
// an application error.
const NotFoundPlaceholder = "Development not found"

// SegmentKind distinguishes literal text from citation references.
type SegmentKind string

const (
	// SegmentText is a literal run of message text.
	SegmentText SegmentKind = "text"

	// SegmentReference is a citation marker rewritten into a clickable
	// reference.
	SegmentReference SegmentKind = "reference"
)

// Segment is one piece of the display form of a message.
type Segment struct {
	// Kind is the segment type.
	Kind SegmentKind `json:"kind"`

	// Text is the literal text for SegmentText, or the raw marker text for
	// SegmentReference.
	Text string `json:"text"`

	// ID is the referenced document id (reference segments only).
	ID string `json:"id,omitempty"`

	// Number is the citation number (reference segments only).
	Number int `json:"number,omitempty"`

	// Pending is true when the id holds no number yet because the registry
	// build has not reached it. Renderers show a loading state, never a
	// missing number.
	Pending bool `json:"pending,omitempty"`
}

// SelectionState classifies the outcome of a citation click.
type SelectionState string

const (
	// SelectionFound means a resolved document is available for display.
	SelectionFound SelectionState = "found"

	// SelectionNotFound means the id is numbered but its document could not
	// be resolved; show NotFoundPlaceholder.
	SelectionNotFound SelectionState = "not_found"

	// SelectionPending means the id holds no number yet.
	SelectionPending SelectionState = "pending"
)

// Selection is the side-panel payload for a clicked citation.
type Selection struct {
	// ID is the clicked document id.
	ID string `json:"id"`

	// Number is the citation number, when assigned.
	Number int `json:"number,omitempty"`

	// State classifies the selection.
	State SelectionState `json:"state"`

	// Document is the detail card data when State is SelectionFound.
	Document *document.Document `json:"document,omitempty"`

	// Placeholder is the display text when State is SelectionNotFound.
	Placeholder string `json:"placeholder,omitempty"`
}

// Binding is the display form of one message against one registry.
// It is immutable once built; when the content or registry changes, the
// owner builds a fresh Binding.
type Binding struct {
	segments []Segment
	reg      *registry.Registry
}

// Bind splits the message text into literal and reference segments, looking
// up each marker's number in the registry. Every marker occurrence is
// rewritten, including repeats of the same id. A nil extractor uses the
// builtin syntaxes.
func Bind(text string, extractor *citation.Extractor, reg *registry.Registry) *Binding {
	if extractor == nil {
		extractor = citation.NewExtractor()
	}
	if reg == nil {
		reg = registry.NewRegistry()
	}

	var segments []Segment
	cursor := 0
	for _, marker := range extractor.Scan(text) {
		if marker.Offset > cursor {
			segments = append(segments, Segment{
				Kind: SegmentText,
				Text: text[cursor:marker.Offset],
			})
		}

		referenceSegment := Segment{
			Kind: SegmentReference,
			Text: marker.RawText,
			ID:   marker.ID,
		}
		if number, ok := reg.NumberFor(marker.ID); ok {
			referenceSegment.Number = number
		} else {
			referenceSegment.Pending = true
		}
		segments = append(segments, referenceSegment)

		cursor = marker.Offset + len(marker.RawText)
	}
	if cursor < len(text) {
		segments = append(segments, Segment{Kind: SegmentText, Text: text[cursor:]})
	}

	return &Binding{segments: segments, reg: reg}
}

// Segments returns the display segments in order.
func (binding *Binding) Segments() []Segment {
	return binding.segments
}

// References returns the reference segments for the distinct ids cited in
// this message, in first-occurrence order.
func (binding *Binding) References() []Segment {
	seen := make(map[string]bool)
	var references []Segment
	for _, segment := range binding.segments {
		if segment.Kind != SegmentReference || seen[segment.ID] {
			continue
		}
		seen[segment.ID] = true
		references = append(references, segment)
	}
	return references
}

// Select resolves a citation click into side-panel detail data.
func (binding *Binding) Select(id string) Selection {
	number, numbered := binding.reg.NumberFor(id)
	if !numbered {
		return Selection{ID: id, State: SelectionPending}
	}

	doc, found := binding.reg.DocumentFor(id)
	if !found {
		return Selection{
			ID:          id,
			Number:      number,
			State:       SelectionNotFound,
			Placeholder: NotFoundPlaceholder,
		}
	}

	return Selection{ID: id, Number: number, State: SelectionFound, Document: doc}
}

// Text returns the message with every numbered marker rewritten to "[n]".
// Pending markers keep their raw form rather than showing a wrong number.
func (binding *Binding) Text() string {
	var out strings.Builder
	for _, segment := range binding.segments {
		if segment.Kind == SegmentReference && !segment.Pending {
			fmt.Fprintf(&out, "[%d]", segment.Number)
			continue
		}
		out.WriteString(segment.Text)
	}
	return out.String()
}

// Markdown returns the rewritten message followed by a reference list, one
// line per distinct cited id: the document title and URL when resolved, the
// not-found placeholder otherwise.
func (binding *Binding) Markdown() string {
	var out strings.Builder
	out.WriteString(binding.Text())

	references := binding.References()
	if len(references) == 0 {
		return out.String()
	}

	out.WriteString("\n")
	for _, reference := range references {
		if reference.Pending {
			continue
		}
		selection := binding.Select(reference.ID)
		switch selection.State {
		case SelectionFound:
			out.WriteString(fmt.Sprintf("\n[%d]: %s", reference.Number, selection.Document.Title))
			if selection.Document.URL != "" {
				out.WriteString(" — " + selection.Document.URL)
			}
		case SelectionNotFound:
			out.WriteString(fmt.Sprintf("\n[%d]: %s", reference.Number, NotFoundPlaceholder))
		}
	}
	return out.String()
}
