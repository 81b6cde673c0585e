package listview

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/cases"
)

func TestApply_SearchIsCaseInsensitive(t *testing.T) {
	items := []row{
		{ID: "1", Name: "Bolts", CreatedAt: "2024-01-01"},
		{ID: "2", Name: "anvils", CreatedAt: "2024-03-01"},
	}

	view := DefaultView()
	view.Search = "bolt"
	page := Apply(items, nil, view, rowConfig())

	assert.Equal(t, []string{"1"}, ids(page.Items))
	assert.Equal(t, 1, page.Filtered)
}

func TestApply_SearchUsesLookupFields(t *testing.T) {
	items := []row{
		{ID: "1", Name: "Hex", CategoryID: domain.Ptr("c1")},
		{ID: "2", Name: "Torx", CategoryID: domain.Ptr("c2")},
	}
	lookups := Lookups{"category": NewTable("Unknown Category", map[string]string{"c1": "Fasteners", "c2": "Tools"})}

	view := DefaultView()
	view.Search = "TOOLS"
	page := Apply(items, lookups, view, rowConfig())

	assert.Equal(t, []string{"2"}, ids(page.Items))
}

func TestApply_SearchMatchesWhitespaceLiterally(t *testing.T) {
	items := []row{{ID: "1", Name: "Bolts"}, {ID: "2", Name: "Bolt Kit"}, {ID: "3", Name: "Hex"}}

	view := DefaultView()
	view.Search = "bolt "
	assert.Equal(t, []string{"2"}, ids(Apply(items, nil, view, rowConfig()).Items))
}

func TestApply_EmptySearchMatchesEverything(t *testing.T) {
	page := Apply(rows(5), nil, DefaultView(), rowConfig())
	assert.Len(t, page.Items, 5)
}

func TestApply_Filter(t *testing.T) {
	items := []row{
		{ID: "1", CategoryID: domain.Ptr("c1")},
		{ID: "2", CategoryID: domain.Ptr("c2")},
		{ID: "3"},
		{ID: "4", CategoryID: domain.Ptr("c1")},
	}

	view := DefaultView()
	view.Filter = "c1"
	assert.Equal(t, []string{"1", "4"}, ids(Apply(items, nil, view, rowConfig()).Items))

	view.Filter = FilterAll
	assert.Len(t, Apply(items, nil, view, rowConfig()).Items, 4)
}

func TestApply_SortLocaleAware(t *testing.T) {
	items := []row{{ID: "z", Name: "Zed"}, {ID: "a", Name: "apple"}, {ID: "m", Name: "Mango"}}

	view := DefaultView().ToggleSort("name")
	page := Apply(items, nil, view, rowConfig())

	names := make([]string, len(page.Items))
	for i, item := range page.Items {
		names[i] = item.Name
	}
	assert.Equal(t, []string{"apple", "Mango", "Zed"}, names)

	page = Apply(items, nil, view.ToggleSort("name"), rowConfig())
	assert.Equal(t, []string{"z", "m", "a"}, ids(page.Items))
}

func TestApply_SortTimestamps(t *testing.T) {
	items := []row{
		{ID: "mid", CreatedAt: "2024-02-01T10:00:00Z"},
		{ID: "late", CreatedAt: "2024-03-01T00:00:00.000Z"},
		{ID: "early", CreatedAt: "2024-01-01"},
	}

	view := DefaultView().ToggleSort("createdAt")
	assert.Equal(t, []string{"early", "mid", "late"}, ids(Apply(items, nil, view, rowConfig()).Items))

	view = view.ToggleSort("createdAt")
	assert.Equal(t, []string{"late", "mid", "early"}, ids(Apply(items, nil, view, rowConfig()).Items))
}

func TestApply_SortBooleansWithNullTail(t *testing.T) {
	items := []row{
		{ID: "true", Stock: domain.Ptr(true)},
		{ID: "null"},
		{ID: "false", Stock: domain.Ptr(false)},
	}

	view := DefaultView().ToggleSort("stock")
	assert.Equal(t, []string{"false", "true", "null"}, ids(Apply(items, nil, view, rowConfig()).Items))

	view = view.ToggleSort("stock")
	assert.Equal(t, []string{"true", "false", "null"}, ids(Apply(items, nil, view, rowConfig()).Items))
}

func TestApply_NullsTrailInBothDirections(t *testing.T) {
	items := []row{
		{ID: "n1"},
		{ID: "b", CreatedAt: "2024-02-01"},
		{ID: "n2", CreatedAt: "not a date"},
		{ID: "a", CreatedAt: "2024-01-01"},
		{ID: "n3"},
	}

	for _, dir := range []SortDir{Asc, Desc} {
		view := ViewState{Filter: FilterAll, SortKey: "createdAt", SortDir: dir, Page: 1}
		got := ids(Apply(items, nil, view, rowConfig()).Items)

		assert.ElementsMatch(t, []string{"a", "b"}, got[:2], "dir %s", dir)
		// Nulls are contiguous at the tail and keep their input order.
		assert.Equal(t, []string{"n1", "n2", "n3"}, got[2:], "dir %s", dir)
	}
}

func TestApply_SortIsStable(t *testing.T) {
	items := []row{
		{ID: "1", Name: "Bolt"},
		{ID: "2", Name: "Anvil"},
		{ID: "3", Name: "bolt"},
		{ID: "4", Name: "Anvil"},
		{ID: "5", Name: "Bolt"},
	}

	view := DefaultView().ToggleSort("name")
	got := ids(Apply(items, nil, view, rowConfig()).Items)

	assert.Equal(t, []string{"2", "4"}, got[:2])
	// "Bolt" ties keep input order regardless of direction.
	assert.Less(t, slices.Index(got, "1"), slices.Index(got, "5"))

	got = ids(Apply(items, nil, view.ToggleSort("name"), rowConfig()).Items)
	assert.Less(t, slices.Index(got, "1"), slices.Index(got, "5"))
	assert.Less(t, slices.Index(got, "2"), slices.Index(got, "4"))
}

func TestApply_MixedKindsCompareEqual(t *testing.T) {
	cfg := rowConfig()
	cfg.Sort["mixed"] = func(r row, _ Lookups) Value {
		if r.ID == "s" {
			return String("x")
		}
		return Bool(true)
	}
	items := []row{{ID: "b"}, {ID: "s"}}

	view := DefaultView().ToggleSort("mixed")
	assert.Equal(t, []string{"b", "s"}, ids(Apply(items, nil, view, cfg).Items))
}

func TestApply_UnknownSortKeyKeepsOrder(t *testing.T) {
	items := []row{{ID: "2", Name: "B"}, {ID: "1", Name: "A"}}

	view := DefaultView().ToggleSort("nope")
	page := Apply(items, nil, view, rowConfig())

	assert.Equal(t, []string{"2", "1"}, ids(page.Items))
	assert.Empty(t, page.View.SortKey)
}

func TestApply_Pagination(t *testing.T) {
	items := rows(23)

	page := Apply(items, nil, DefaultView().WithPage(3), rowConfig())
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 21, page.FirstIndex())
	assert.Equal(t, 23, page.LastIndex())
	assert.True(t, page.HasPrev())
	assert.False(t, page.HasNext())
}

func TestApply_PageIsClamped(t *testing.T) {
	items := rows(23)

	page := Apply(items, nil, DefaultView().WithPage(99), rowConfig())
	assert.Equal(t, 3, page.View.Page)
	assert.Len(t, page.Items, 3)

	page = Apply(items, nil, DefaultView().WithPage(-4), rowConfig())
	assert.Equal(t, 1, page.View.Page)
	assert.Len(t, page.Items, 10)
}

func TestApply_EmptyResultHasOnePage(t *testing.T) {
	view := DefaultView().WithPage(5)
	view.Search = "nothing matches"
	page := Apply(rows(4), nil, view, rowConfig())

	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.View.Page)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.FirstIndex())
}

func TestApply_CustomPageSize(t *testing.T) {
	cfg := rowConfig()
	cfg.PageSize = 4

	page := Apply(rows(9), nil, DefaultView(), cfg)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 4)
}

// randomRows builds a deterministic mixed collection for property tests.
func randomRows(n int) []row {
	r := rand.New(rand.NewPCG(7, 11))
	names := []string{"Bolt", "anvil", "Nut", "washer", "Éclair", "zinc", "Bolt"}
	cats := []*string{nil, domain.Ptr("c1"), domain.Ptr("c2")}
	stocks := []*bool{nil, domain.Ptr(true), domain.Ptr(false)}
	dates := []string{"", "2024-01-01", "2023-06-15T08:00:00Z", "2025-02-01", "garbage"}

	out := make([]row, n)
	for i := range out {
		out[i] = row{
			ID:         string(rune('A'+i%26)) + string(rune('a'+i/26)),
			Name:       names[r.IntN(len(names))],
			CreatedAt:  dates[r.IntN(len(dates))],
			Stock:      stocks[r.IntN(len(stocks))],
			CategoryID: cats[r.IntN(len(cats))],
		}
	}
	return out
}

func views() []ViewState {
	var out []ViewState
	for _, search := range []string{"", "bo", "É", "zzz"} {
		for _, filter := range []string{FilterAll, "c1"} {
			for _, key := range []string{"", "name", "createdAt", "stock"} {
				for _, dir := range []SortDir{Asc, Desc} {
					out = append(out, ViewState{Search: search, Filter: filter, SortKey: key, SortDir: dir, Page: 1})
				}
			}
		}
	}
	return out
}

func TestApply_IsReferentiallyStable(t *testing.T) {
	items := randomRows(60)
	before := slices.Clone(items)

	for _, view := range views() {
		first := Apply(items, nil, view, rowConfig())
		second := Apply(items, nil, view, rowConfig())
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("Apply(%+v) not stable (-first +second):\n%s", view, diff)
		}
	}

	if diff := cmp.Diff(before, items); diff != "" {
		t.Fatalf("Apply modified its input (-before +after):\n%s", diff)
	}
}

func TestApply_OutputIsSearchAndFilterMatches(t *testing.T) {
	items := randomRows(60)
	cfg := rowConfig()

	for _, view := range views() {
		got := Arrange(items, nil, view, cfg)

		var want []string
		for _, item := range items {
			matchesSearch := view.Search == "" || containsFold(item.Name, view.Search) ||
				containsFold("Unknown", view.Search)
			matchesFilter := view.Filter == FilterAll || domain.Deref(item.CategoryID) == view.Filter
			if matchesSearch && matchesFilter {
				want = append(want, item.ID)
			}
		}
		assert.ElementsMatch(t, want, ids(got), "view %+v", view)
	}
}

func TestApply_PagesCoverArrangedResult(t *testing.T) {
	items := randomRows(47)
	cfg := rowConfig()

	for _, view := range views() {
		arranged := Arrange(items, nil, view, cfg)
		first := Apply(items, nil, view, cfg)

		var concat []row
		for p := 1; p <= first.TotalPages; p++ {
			concat = append(concat, Apply(items, nil, view.WithPage(p), cfg).Items...)
		}
		if diff := cmp.Diff(arranged, concat); diff != "" {
			t.Fatalf("pages of %+v do not cover the result (-want +got):\n%s", view, diff)
		}
	}
}

func TestApply_NullTailProperty(t *testing.T) {
	items := randomRows(60)

	for _, key := range []string{"createdAt", "stock"} {
		for _, dir := range []SortDir{Asc, Desc} {
			view := ViewState{Filter: FilterAll, SortKey: key, SortDir: dir, Page: 1}
			got := Arrange(items, nil, view, rowConfig())

			extract := rowConfig().Sort[key]
			seenNull := false
			for _, item := range got {
				isNull := extract(item, nil).Kind() == KindNull
				if seenNull {
					require.True(t, isNull, "non-null after null for %s %s", key, dir)
				}
				seenNull = seenNull || isNull
			}
		}
	}
}

func TestPageRange(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, PageRange(2, 3))
	assert.Equal(t, []int{1, 2, -1, 10}, PageRange(1, 10))
	assert.Equal(t, []int{1, -1, 4, 5, 6, -1, 10}, PageRange(5, 10))
	assert.Equal(t, []int{1, -1, 9, 10}, PageRange(10, 10))
}

func containsFold(s, sub string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(sub))
}
