// Package catalog answers browse queries over a snapshot of the catalog.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/erazemk/reunite/internal/model"
	"github.com/erazemk/reunite/internal/search"
)

// Sort orders.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// ParseSort returns the sort order named by s. Anything unrecognized sorts
// newest first.
func ParseSort(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), SortOldest) {
		return SortOldest
	}
	return SortNewest
}

// Filters narrow a browse query. Zero values disable a filter.
type Filters struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	Location string `json:"location,omitempty"`
	Sort     string `json:"sort,omitempty"`
}

// Tokens returns the search keywords.
func (f Filters) Tokens() []string {
	return search.Tokenize(f.Search)
}

func (f Filters) location() string {
	return strings.ToLower(strings.TrimSpace(f.Location))
}

// Active reports whether any narrowing filter is set. Sort order alone does
// not count.
func (f Filters) Active() bool {
	return len(f.Tokens()) > 0 || f.Category != "" || f.location() != ""
}

// Tags describes the active filters, one label per filter.
func (f Filters) Tags() []string {
	tags := []string{}
	if tokens := f.Tokens(); len(tokens) > 0 {
		tags = append(tags, "Keywords: "+strings.Join(tokens, ", "))
	}
	if f.Category != "" {
		tags = append(tags, "Category: "+f.Category)
	}
	if loc := f.location(); loc != "" {
		tags = append(tags, "Location: "+loc)
	}
	return tags
}

// Result is the outcome of a browse query.
type Result struct {
	Items         []model.Item `json:"items"`
	TotalApproved int          `json:"total_approved"`
	Shown         int          `json:"shown"`
	Filters       Filters      `json:"filters"`
}

// Summary is a one-line description of the result for display.
func (r Result) Summary() string {
	if r.TotalApproved == 0 {
		return "Awaiting approved inventory."
	}
	if !r.Filters.Active() {
		return "Showing most recent approved records."
	}

	var bits []string
	if tokens := r.Filters.Tokens(); len(tokens) > 0 {
		bits = append(bits, fmt.Sprintf("keywords %q", strings.Join(tokens, ", ")))
	}
	if r.Filters.Category != "" {
		bits = append(bits, "category "+r.Filters.Category)
	}
	if loc := r.Filters.location(); loc != "" {
		bits = append(bits, fmt.Sprintf("location %q", loc))
	}
	return fmt.Sprintf("Filtered %d of %d via %s", r.Shown, r.TotalApproved, strings.Join(bits, " + "))
}

// Query filters and sorts items. Only approved items are considered; the
// keyword, category and location filters are applied in that order and
// the survivors are sorted by creation time. items is not modified.
func Query(items []model.Item, f Filters) Result {
	f.Sort = ParseSort(f.Sort)
	tokens := f.Tokens()
	loc := f.location()

	out := []model.Item{}
	total := 0
	for i := range items {
		it := &items[i]
		if !it.IsApproved() {
			continue
		}
		total++
		if !search.MatchesItem(it, tokens) {
			continue
		}
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		if loc != "" && !strings.Contains(strings.ToLower(it.Location), loc) {
			continue
		}
		out = append(out, *it)
	}

	slices.SortStableFunc(out, func(a, b model.Item) int {
		if f.Sort == SortOldest {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return Result{Items: out, TotalApproved: total, Shown: len(out), Filters: f}
}
