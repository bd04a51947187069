package torznab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryTypeFromParam(t *testing.T) {
	tests := []struct {
		param    string
		expected QueryType
		ok       bool
	}{
		{"search", QueryTypeSearch, true},
		{"tvsearch", QueryTypeTV, true},
		{"movie", QueryTypeMovie, true},
		{"movie-search", QueryTypeMovie, true},
		{"music", QueryTypeMusic, true},
		{"book", QueryTypeBook, true},
		{"caps", QueryTypeCaps, true},
		{"details", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			got, ok := QueryTypeFromParam(tt.param)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestQueryCacheKey(t *testing.T) {
	base := Query{
		Type:       QueryTypeTV,
		SearchTerm: "breaking bad",
		Categories: []int{5040, 5030},
		Season:     2,
		Episode:    3,
	}

	t.Run("identical queries produce identical keys", func(t *testing.T) {
		other := base
		assert.Equal(t, base.CacheKey(), other.CacheKey())
	})

	t.Run("key is hex sha256", func(t *testing.T) {
		key := base.CacheKey()
		require.Len(t, key, 64)
	})

	t.Run("category order does not matter", func(t *testing.T) {
		reordered := base
		reordered.Categories = []int{5030, 5040}
		assert.Equal(t, base.CacheKey(), reordered.CacheKey())
	})

	t.Run("nil and empty categories are equivalent", func(t *testing.T) {
		a := Query{Type: QueryTypeSearch, SearchTerm: "ubuntu"}
		b := a
		b.Categories = []int{}
		assert.Equal(t, a.CacheKey(), b.CacheKey())
	})

	t.Run("changing any field changes the key", func(t *testing.T) {
		changed := base
		changed.Episode = 4
		assert.NotEqual(t, base.CacheKey(), changed.CacheKey())

		changed = base
		changed.SearchTerm = "better call saul"
		assert.NotEqual(t, base.CacheKey(), changed.CacheKey())

		changed = base
		changed.Categories = []int{5040}
		assert.NotEqual(t, base.CacheKey(), changed.CacheKey())
	})

	t.Run("cache key does not mutate the query", func(t *testing.T) {
		q := Query{Categories: []int{5040, 5030}}
		q.CacheKey()
		assert.Equal(t, []int{5040, 5030}, q.Categories)
	})
}

func TestQueryHasCategory(t *testing.T) {
	t.Run("empty set matches everything", func(t *testing.T) {
		q := Query{}
		assert.True(t, q.HasCategory(2000))
		assert.True(t, q.HasCategory(5040))
	})

	t.Run("non-empty set matches exact entries only", func(t *testing.T) {
		q := Query{Categories: []int{2000, 2040}}
		assert.True(t, q.HasCategory(2040))
		assert.False(t, q.HasCategory(5000))
	})
}
