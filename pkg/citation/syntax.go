package citation

import (
	"fmt"
	"regexp"
	"strings"
)

// MarkerSyntax recognizes one citation marker grammar within text.
// Implementations must be safe for concurrent use.
type MarkerSyntax interface {
	// Name returns a short identifier for the syntax (e.g., "dev-id-colon").
	Name() string

	// Find returns every marker occurrence in the text, in offset order.
	// Markers whose id trims to an empty string are not returned.
	Find(text string) []Marker
}

// Builtin syntax names.
const (
	// SyntaxDevIDColon matches markers of the form "[Dev ID: <id>]".
	SyntaxDevIDColon = "dev-id-colon"

	// SyntaxDevIDDash matches markers of the form "[DEVID - <id>]".
	SyntaxDevIDDash = "dev-id-dash"
)

// The two historical marker grammars. Both tolerate case variation in the
// keyword and arbitrary non-"]" content as the id; a closing bracket is
// required, so an unterminated marker never matches.
var (
	devIDColonPattern = `(?i)\[\s*Dev\s*ID\s*:\s*([^\]]+)\]`
	devIDDashPattern  = `(?i)\[\s*DEVID\s*-\s*([^\]]+)\]`
)

// RegexSyntax is a MarkerSyntax backed by a single regular expression with
// one capture group holding the id.
type RegexSyntax struct {
	name    string
	pattern *regexp.Regexp
}

// NewRegexSyntax compiles a marker syntax from a regex pattern. The pattern
// must contain at least one capture group; group 1 is taken as the id.
func NewRegexSyntax(name, pattern string) (*RegexSyntax, error) {
	if name == "" {
		return nil, fmt.Errorf("syntax name cannot be empty")
	}

	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling syntax %q pattern %q: %w", name, pattern, err)
	}
	if compiled.NumSubexp() < 1 {
		return nil, fmt.Errorf("syntax %q pattern must have a capture group for the id", name)
	}

	return &RegexSyntax{name: name, pattern: compiled}, nil
}

// Name returns the syntax identifier.
func (syntax *RegexSyntax) Name() string {
	return syntax.name
}

// Find returns all marker occurrences in offset order.
func (syntax *RegexSyntax) Find(text string) []Marker {
	matchIndexes := syntax.pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matchIndexes) == 0 {
		return nil
	}

	markers := make([]Marker, 0, len(matchIndexes))
	for _, match := range matchIndexes {
		// match[0:2] is the full marker, match[2:4] is capture group 1.
		if match[2] < 0 {
			continue
		}
		id := strings.TrimSpace(text[match[2]:match[3]])
		if id == "" {
			continue
		}
		markers = append(markers, Marker{
			ID:      id,
			RawText: text[match[0]:match[1]],
			Offset:  match[0],
			Syntax:  syntax.name,
		})
	}
	return markers
}

// DevIDColonSyntax returns the builtin "[Dev ID: <id>]" syntax.
func DevIDColonSyntax() *RegexSyntax {
	syntax, err := NewRegexSyntax(SyntaxDevIDColon, devIDColonPattern)
	if err != nil {
		panic(err) // builtin pattern, compiles by construction
	}
	return syntax
}

// DevIDDashSyntax returns the builtin "[DEVID - <id>]" syntax.
func DevIDDashSyntax() *RegexSyntax {
	syntax, err := NewRegexSyntax(SyntaxDevIDDash, devIDDashPattern)
	if err != nil {
		panic(err)
	}
	return syntax
}

// BuiltinSyntaxes returns the builtin marker syntaxes in evaluation order.
func BuiltinSyntaxes() []MarkerSyntax {
	return []MarkerSyntax{DevIDColonSyntax(), DevIDDashSyntax()}
}
