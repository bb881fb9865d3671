// Package document fetches development documents from the content service
// and normalizes their heterogeneous response shapes into one canonical form.
package document

import (
	"encoding/json"
	"fmt"
)

// Document is the canonical shape of a development record. The content
// service owns these records; this package only reads them.
type Document struct {
	ID            string           `json:"id"`
	Title         string           `json:"title,omitempty"`
	Description   string           `json:"description,omitempty"`
	Industry      string           `json:"industry,omitempty"`
	Product       string           `json:"product,omitempty"`
	Summary       string           `json:"summary,omitempty"`
	Analysis      string           `json:"analysis,omitempty"`
	URL           string           `json:"url,omitempty"`
	Date          string           `json:"date,omitempty"`
	NumericalData []NumericalPoint `json:"numerical_data,omitempty"`
}

// NumericalPoint is one data point attached to a development.
type NumericalPoint struct {
	Number   string `json:"number,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Context  string `json:"context,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// Narrative returns the text that may itself contain citation markers.
// Summary is preferred; Analysis is the fallback when Summary is empty.
func (doc *Document) Narrative() string {
	if doc.Summary != "" {
		return doc.Summary
	}
	return doc.Analysis
}

// rawDocument mirrors the union of field names the content service has used
// across API revisions. Normalize collapses it into the canonical Document.
type rawDocument struct {
	MongoID     string `json:"_id"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Industry    string `json:"industry"`
	Product     string `json:"product"`
	Summary     string `json:"summary"`
	Analysis    string `json:"analysis"`
	URL         string `json:"url"`
	Date        string `json:"date"`
	CreatedAt   string `json:"created_at"`

	NumericalData []NumericalPoint `json:"numerical_data"`
}

// Normalize decodes a content-service response body into the canonical
// Document shape. Variant field names collapse with a fixed precedence:
// _id over id, title over name, date over created_at. The fallbackID is
// used when the response carries no id field at all (the caller always
// knows which id it asked for).
func Normalize(body []byte, fallbackID string) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing document body: %w", err)
	}

	id := raw.MongoID
	if id == "" {
		id = raw.ID
	}
	if id == "" {
		id = fallbackID
	}

	title := raw.Title
	if title == "" {
		title = raw.Name
	}

	date := raw.Date
	if date == "" {
		date = raw.CreatedAt
	}

	return &Document{
		ID:            id,
		Title:         title,
		Description:   raw.Description,
		Industry:      raw.Industry,
		Product:       raw.Product,
		Summary:       raw.Summary,
		Analysis:      raw.Analysis,
		URL:           raw.URL,
		Date:          date,
		NumericalData: raw.NumericalData,
	}, nil
}
