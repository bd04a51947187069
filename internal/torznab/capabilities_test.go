package torznab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilitiesSupportsQueryType(t *testing.T) {
	caps := &Capabilities{
		SearchParams:   []SearchParam{ParamQ},
		TVSearchParams: []SearchParam{ParamQ, ParamSeason, ParamEp},
	}

	assert.True(t, caps.SupportsQueryType(QueryTypeSearch))
	assert.True(t, caps.SupportsQueryType(QueryTypeTV))
	assert.False(t, caps.SupportsQueryType(QueryTypeMovie))
	assert.False(t, caps.SupportsQueryType(QueryTypeMusic))
	assert.False(t, caps.SupportsQueryType(QueryTypeBook))
	assert.True(t, caps.SupportsQueryType(QueryTypeCaps), "caps is always answerable")
}

func TestMapTrackerToTorznab(t *testing.T) {
	caps := &Capabilities{
		Categories: []CategoryMapping{
			{TrackerID: "41", TorznabCat: CategoryMoviesHD},
			{TrackerID: "42", TorznabCat: CategoryMoviesHD},
			{TrackerID: "50", TorznabCat: CategoryTVHD},
		},
	}

	assert.Equal(t, []int{CategoryMoviesHD}, caps.MapTrackerToTorznab([]string{"41", "42"}))
	assert.Equal(t, []int{CategoryTVHD}, caps.MapTrackerToTorznab([]string{"50"}))
	assert.Empty(t, caps.MapTrackerToTorznab([]string{"99"}))
}

func TestMapTorznabToTracker(t *testing.T) {
	caps := &Capabilities{
		Categories: []CategoryMapping{
			{TrackerID: "41", TorznabCat: CategoryMoviesHD},
			{TrackerID: "43", TorznabCat: CategoryMoviesSD},
			{TrackerID: "50", TorznabCat: CategoryTVHD},
		},
	}

	t.Run("exact match", func(t *testing.T) {
		got := caps.MapTorznabToTracker([]int{CategoryMoviesHD})
		assert.Contains(t, got, "41")
		assert.NotContains(t, got, "50")
	})

	t.Run("family match", func(t *testing.T) {
		// Any Movies/* request matches every configured Movies/* mapping.
		got := caps.MapTorznabToTracker([]int{CategoryMovies})
		assert.ElementsMatch(t, []string{"41", "43"}, got)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, caps.MapTorznabToTracker([]int{CategoryBooks}))
	})
}

func TestCategoryHelpers(t *testing.T) {
	assert.Equal(t, "Movies/HD", CategoryName(CategoryMoviesHD))
	assert.Equal(t, "Unknown", CategoryName(1234))

	code, ok := CategoryCode("TV/HD")
	assert.True(t, ok)
	assert.Equal(t, CategoryTVHD, code)

	code, ok = CategoryCode("Nope/Nothing")
	assert.False(t, ok)
	assert.Equal(t, CategoryOther, code)

	assert.Equal(t, 2000, CategoryFamily(2045))
	assert.Equal(t, 5000, CategoryFamily(5090))
}
