package registry

import (
	"time"
)

// ItemStatus is the outcome of processing one frontier item.
type ItemStatus string

const (
	// ItemResolved indicates the document was fetched and expanded.
	ItemResolved ItemStatus = "resolved"

	// ItemUnresolved indicates the fetch failed; the id keeps its number.
	ItemUnresolved ItemStatus = "unresolved"

	// ItemSkipped indicates the item was not fetched (already processed,
	// or the document limit was reached).
	ItemSkipped ItemStatus = "skipped"
)

// ReportItem records the outcome for one document id.
type ReportItem struct {
	// ID is the document id.
	ID string `json:"id"`

	// Number is the citation number the id holds.
	Number int `json:"number"`

	// Depth is the BFS depth at which the id was discovered (seeds are 0).
	Depth int `json:"depth"`

	// DiscoveredBy is the id of the document whose narrative cited this one.
	// Empty for seeds.
	DiscoveredBy string `json:"discovered_by,omitempty"`

	// Status is the processing outcome.
	Status ItemStatus `json:"status"`

	// StatusCode is the HTTP status, when a response was received.
	StatusCode int `json:"status_code,omitempty"`

	// Error describes why the item was unresolved or skipped.
	Error string `json:"error,omitempty"`
}

// Report summarizes one registry build.
type Report struct {
	// Items holds the per-id outcomes in processing order.
	Items []ReportItem `json:"items"`

	// TotalDiscovered counts every id that received a number.
	TotalDiscovered int `json:"total_discovered"`

	// ResolvedCount counts fetched and expanded documents.
	ResolvedCount int `json:"resolved_count"`

	// UnresolvedCount counts ids whose fetch failed.
	UnresolvedCount int `json:"unresolved_count"`

	// SkippedCount counts items skipped without a fetch.
	SkippedCount int `json:"skipped_count"`

	// MaxDepthReached is the deepest BFS level processed.
	MaxDepthReached int `json:"max_depth_reached"`

	// Cancelled reports that the build's context ended before the frontier
	// drained. The registry is still valid as far as it got.
	Cancelled bool `json:"cancelled,omitempty"`

	// Failure holds the recovered error when the build loop itself broke.
	// Per-document fetch failures never set this.
	Failure string `json:"failure,omitempty"`

	// StartedAt is when the build began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the total build duration.
	Elapsed time.Duration `json:"elapsed"`
}

// NewReport creates an empty report stamped with the current time.
func NewReport() *Report {
	return &Report{StartedAt: time.Now()}
}

// record appends an item outcome and updates the counters.
func (report *Report) record(item ReportItem) {
	report.Items = append(report.Items, item)
	switch item.Status {
	case ItemResolved:
		report.ResolvedCount++
	case ItemUnresolved:
		report.UnresolvedCount++
	case ItemSkipped:
		report.SkippedCount++
	}
	if item.Depth > report.MaxDepthReached {
		report.MaxDepthReached = item.Depth
	}
}

// finish stamps the elapsed duration.
func (report *Report) finish() {
	report.Elapsed = time.Since(report.StartedAt)
}
