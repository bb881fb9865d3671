// Package citation provides marker extraction for AI-generated narrative text.
// Citation markers reference external development documents by an opaque id
// embedded inline, e.g. "[Dev ID: abc123]" or "[DEVID - abc123]".
package citation

// Marker is a single citation marker occurrence found in text.
type Marker struct {
	// ID is the referenced document identifier, trimmed of surrounding whitespace.
	ID string `json:"id"`

	// RawText is the full matched marker as it appeared in the source text.
	RawText string `json:"raw_text"`

	// Offset is the byte offset of the marker within the scanned text.
	Offset int `json:"offset"`

	// Syntax is the name of the marker syntax that produced this match.
	Syntax string `json:"syntax"`
}

// Citation pairs a document id with its assigned ordinal number.
// Numbers are 1-based and assigned in first-discovery order; once assigned,
// a number is never changed for the lifetime of the owning registry.
type Citation struct {
	// ID is the referenced document identifier.
	ID string `json:"id"`

	// Number is the stable ordinal assigned at first discovery.
	Number int `json:"number"`

	// RawText is the raw marker text that first introduced the id, if known.
	RawText string `json:"raw_text,omitempty"`
}
