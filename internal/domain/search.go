package domain

import (
	"fmt"
	"time"
)

// Mode selects the retrieval strategy.
type Mode string

const (
	ModeSemantic Mode = "semantic"
	ModeKeyword  Mode = "keyword"
	ModeHybrid   Mode = "hybrid"
)

// ParseMode validates a caller-supplied mode string. Empty defaults to hybrid.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeHybrid, nil
	case ModeSemantic, ModeKeyword, ModeHybrid:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// SearchType is the outcome label written to the query log. Beyond the three
// modes it records degraded paths: "fallback" when a semantic query dropped to
// substring matching, "error" when the whole search failed. An "_enhanced"
// suffix marks queries rewritten by the enhancer.
type SearchType string

const (
	SearchTypeSemantic SearchType = "semantic"
	SearchTypeKeyword  SearchType = "keyword"
	SearchTypeHybrid   SearchType = "hybrid"
	SearchTypeFallback SearchType = "fallback"
	SearchTypeError    SearchType = "error"
)

// Enhanced marks a search type as query-enhanced.
func (t SearchType) Enhanced() SearchType {
	return t + "_enhanced"
}

// Result is a single request-scoped search hit. Score scale is
// strategy-dependent: a rank ordering, not a probability.
type Result struct {
	ID          string
	Title       string
	Content     string
	ContentType string
	Tags        []string
	Metadata    map[string]any
	Score       float64
	CreatedAt   time.Time
}

// Response is the shape every search call returns, including failed ones
// (empty results, SearchType "error").
type Response struct {
	Results        []Result
	Total          int
	Query          string
	SearchType     SearchType
	ResponseTimeMs int64
	Suggestions    []string
}

// Suggestion is a "did you mean / related query" string with its origin tier.
type Suggestion struct {
	Text   string
	Source SuggestionSource
}

// SuggestionSource identifies which fallback tier produced a suggestion.
type SuggestionSource string

const (
	SuggestionSourceAI       SuggestionSource = "ai"
	SuggestionSourceTitles   SuggestionSource = "titles"
	SuggestionSourceTemplate SuggestionSource = "template"
)
