package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/reunite/internal/model"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func item(id, status, title, category, location string, age int) model.Item {
	return model.Item{
		ID:        id,
		Title:     title,
		Category:  category,
		Location:  location,
		Status:    status,
		CreatedAt: base.Add(-time.Duration(age) * time.Hour),
	}
}

func fixture() []model.Item {
	return []model.Item{
		item("a", "approved", "Blue backpack", "Bags", "Main Library", 3),
		item("b", " Approved ", "Black wallet", "Accessories", "Cafeteria", 1),
		item("c", "pending", "Black backpack", "Bags", "Gym", 0),
		item("d", "approved", "iPhone 13", "Electronics", "Library steps", 2),
		item("e", "rejected", "Keys", "Keys", "Parking", 5),
		item("f", "claimed", "Umbrella", "Other", "Entrance", 4),
	}
}

func ids(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestQueryApprovedOnlyNewestFirst(t *testing.T) {
	res := Query(fixture(), Filters{})
	assert.Equal(t, []string{"b", "d", "a"}, ids(res.Items))
	assert.Equal(t, 3, res.TotalApproved)
	assert.Equal(t, 3, res.Shown)
	assert.Equal(t, SortNewest, res.Filters.Sort)
	assert.Equal(t, "Showing most recent approved records.", res.Summary())
	assert.Empty(t, res.Filters.Tags())
}

func TestQueryOldestFirst(t *testing.T) {
	res := Query(fixture(), Filters{Sort: "oldest"})
	assert.Equal(t, []string{"a", "d", "b"}, ids(res.Items))
}

func TestQueryUnknownSortIsNewest(t *testing.T) {
	res := Query(fixture(), Filters{Sort: "alphabetical"})
	assert.Equal(t, []string{"b", "d", "a"}, ids(res.Items))
}

func TestQueryKeywordsAreANDed(t *testing.T) {
	res := Query(fixture(), Filters{Search: "black backpack"})
	// The only black backpack is still pending.
	assert.Empty(t, res.Items)
	assert.Equal(t, 3, res.TotalApproved)

	res = Query(fixture(), Filters{Search: "blue backpak"})
	assert.Equal(t, []string{"a"}, ids(res.Items))
	assert.Equal(t, `Filtered 1 of 3 via keywords "blue, backpak"`, res.Summary())
}

func TestQueryCategoryIsExact(t *testing.T) {
	res := Query(fixture(), Filters{Category: "Bags"})
	assert.Equal(t, []string{"a"}, ids(res.Items))

	res = Query(fixture(), Filters{Category: "bags"})
	assert.Empty(t, res.Items)
}

func TestQueryLocationSubstring(t *testing.T) {
	res := Query(fixture(), Filters{Location: "  LIBRARY "})
	assert.Equal(t, []string{"d", "a"}, ids(res.Items))
	assert.Equal(t, []string{"Location: library"}, res.Filters.Tags())
}

func TestQueryCombinedFilters(t *testing.T) {
	f := Filters{Search: "iphone", Category: "Electronics", Location: "library"}
	res := Query(fixture(), f)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "d", res.Items[0].ID)
	assert.Equal(t, []string{"Keywords: iphone", "Category: Electronics", "Location: library"}, f.Tags())
	assert.Equal(t, `Filtered 1 of 3 via keywords "iphone" + category Electronics + location "library"`, res.Summary())
}

func TestQueryEmptyCatalog(t *testing.T) {
	res := Query(nil, Filters{Search: "keys"})
	assert.NotNil(t, res.Items)
	assert.Zero(t, res.TotalApproved)
	assert.Equal(t, "Awaiting approved inventory.", res.Summary())
}

func TestQueryWhitespaceSearchIsInactive(t *testing.T) {
	res := Query(fixture(), Filters{Search: "   "})
	assert.Equal(t, 3, res.Shown)
	assert.False(t, res.Filters.Active())
}

func TestQueryDoesNotModifyInput(t *testing.T) {
	items := fixture()
	_ = Query(items, Filters{Sort: "oldest"})
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, ids(items))
	assert.Equal(t, " Approved ", items[1].Status)
}
