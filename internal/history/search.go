// Package history provides keyword search over previously issued quotes.
// The history is seeded reference data; searching it reads the ledger
// store but never writes anything.
package history

import (
	"errors"
	"strings"

	"github.com/beaverschoice/paperd/internal/ledger"
)

// DefaultLimit caps results when the caller does not ask for a count.
const DefaultLimit = 5

// ErrNoTerms is returned when a search request carries no usable keywords.
var ErrNoTerms = errors.New("no search terms provided")

// Index answers keyword searches over the seeded quote history.
type Index struct {
	store *ledger.Store
}

func NewIndex(store *ledger.Store) *Index {
	return &Index{store: store}
}

// Search returns the most recent quotes matching every keyword, each a
// case-insensitive substring test against the original request text or
// the quote explanation. No matches is an empty result, not an error.
func (i *Index) Search(terms []string, limit int) ([]ledger.QuoteRecord, error) {
	cleaned := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoTerms
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return i.store.SearchQuotes(cleaned, limit)
}

// ParseTerms splits a comma-separated keyword string into search terms.
func ParseTerms(s string) []string {
	parts := strings.Split(s, ",")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			terms = append(terms, p)
		}
	}
	return terms
}
