package registry

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/coolbeans/devcite/pkg/citation"
	"github.com/coolbeans/devcite/pkg/document"
)

// DefaultMaxDocuments bounds how many documents one build will resolve.
// Numbering still completes for ids discovered past the limit; only their
// expansion is skipped.
const DefaultMaxDocuments = 200

// DocumentResolver resolves one document id into a document.Result.
// *document.Resolver satisfies this; tests inject stubs.
type DocumentResolver interface {
	Resolve(ctx context.Context, id string) document.Result
}

// BuilderConfig holds configuration for a Builder.
type BuilderConfig struct {
	// Extractor scans fetched documents for nested markers.
	// If nil, an extractor over the builtin syntaxes is used.
	Extractor *citation.Extractor

	// MaxDocuments caps resolutions per build. Zero means DefaultMaxDocuments;
	// negative means unlimited.
	MaxDocuments int

	// Logger receives build progress at debug level. Nil disables logging.
	Logger *zap.Logger
}

// Builder runs registry builds against a document resolver. One Builder can
// serve many builds; each Build call produces a fresh Registry.
type Builder struct {
	resolver     DocumentResolver
	extractor    *citation.Extractor
	maxDocuments int
	logger       *zap.Logger
}

// NewBuilder creates a Builder over the given resolver.
func NewBuilder(resolver DocumentResolver, config BuilderConfig) *Builder {
	extractor := config.Extractor
	if extractor == nil {
		extractor = citation.NewExtractor()
	}

	maxDocuments := config.MaxDocuments
	if maxDocuments == 0 {
		maxDocuments = DefaultMaxDocuments
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Builder{
		resolver:     resolver,
		extractor:    extractor,
		maxDocuments: maxDocuments,
		logger:       logger,
	}
}

// frontierItem is one entry in the BFS queue.
type frontierItem struct {
	id           string
	depth        int
	discoveredBy string
}

// BuildFromText extracts seed markers from the top-level message text and
// builds the registry from them.
func (builder *Builder) BuildFromText(ctx context.Context, text string) (*Registry, *Report) {
	return builder.Build(ctx, builder.extractor.Extract(text))
}

// Build performs the breadth-first traversal. Seeds are numbered 1..k in the
// order supplied before any document is fetched, so nested discoveries can
// never take a lower number than a seed. Resolutions happen one at a time in
// queue order, keeping numbering deterministic for fixed inputs.
//
// Per-document fetch failures never abort the build: the id keeps its
// number, no document is stored, and only that document's own nested
// citations go undiscovered. An unexpected panic in the loop is caught at
// this boundary; the partially built registry is returned with the failure
// noted in the report, and numbers already assigned stay valid.
func (builder *Builder) Build(ctx context.Context, seeds []citation.Marker) (reg *Registry, report *Report) {
	reg = NewRegistry()
	report = NewReport()
	defer report.finish()

	defer func() {
		if recovered := recover(); recovered != nil {
			report.Failure = fmt.Sprintf("registry build aborted: %v", recovered)
			builder.logger.Error("registry build panicked",
				zap.String("failure", report.Failure))
		}
	}()

	// Number every seed before the traversal starts. Duplicate seed ids keep
	// their first number.
	var frontier []frontierItem
	for _, seed := range seeds {
		id := strings.TrimSpace(seed.ID)
		if id == "" {
			continue
		}
		if _, isNew := reg.assign(id, seed.RawText); isNew {
			frontier = append(frontier, frontierItem{id: id, depth: 0})
			report.TotalDiscovered++
		}
	}

	resolvedCount := 0
	for len(frontier) > 0 {
		if ctx.Err() != nil {
			report.Cancelled = true
			builder.logger.Debug("registry build cancelled",
				zap.Int("numbered", reg.Len()),
				zap.Int("pending", len(frontier)))
			break
		}

		currentItem := frontier[0]
		frontier = frontier[1:]

		number, _ := reg.NumberFor(currentItem.id)

		// Cycle/duplicate guard: each id is fetched and expanded at most once.
		if reg.IsProcessed(currentItem.id) {
			report.record(ReportItem{
				ID:     currentItem.id,
				Number: number,
				Depth:  currentItem.depth,
				Status: ItemSkipped,
				Error:  "already processed",
			})
			continue
		}
		reg.markProcessed(currentItem.id)

		if builder.maxDocuments > 0 && resolvedCount >= builder.maxDocuments {
			report.record(ReportItem{
				ID:           currentItem.id,
				Number:       number,
				Depth:        currentItem.depth,
				DiscoveredBy: currentItem.discoveredBy,
				Status:       ItemSkipped,
				Error:        "document limit reached",
			})
			continue
		}

		result := builder.resolver.Resolve(ctx, currentItem.id)
		if !result.Resolved {
			builder.logger.Debug("citation unresolvable",
				zap.String("id", currentItem.id),
				zap.Int("number", number),
				zap.String("error", result.Error))
			report.record(ReportItem{
				ID:           currentItem.id,
				Number:       number,
				Depth:        currentItem.depth,
				DiscoveredBy: currentItem.discoveredBy,
				Status:       ItemUnresolved,
				StatusCode:   result.StatusCode,
				Error:        result.Error,
			})
			continue
		}

		resolvedCount++
		reg.storeDocument(currentItem.id, result.Document)
		report.record(ReportItem{
			ID:           currentItem.id,
			Number:       number,
			Depth:        currentItem.depth,
			DiscoveredBy: currentItem.discoveredBy,
			Status:       ItemResolved,
			StatusCode:   result.StatusCode,
		})

		// Expand: nested markers in the document's own narrative. New ids get
		// the next number and join the back of the queue.
		nestedMarkers := builder.extractor.Extract(result.Document.Narrative())
		for _, nestedMarker := range nestedMarkers {
			if _, isNew := reg.assign(nestedMarker.ID, nestedMarker.RawText); isNew {
				frontier = append(frontier, frontierItem{
					id:           nestedMarker.ID,
					depth:        currentItem.depth + 1,
					discoveredBy: currentItem.id,
				})
				report.TotalDiscovered++
			}
		}
	}

	return reg, report
}
