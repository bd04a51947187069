package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spindrift-media/spindrift/internal/indexer"
	"github.com/spindrift-media/spindrift/internal/torznab"
)

func TestTorznabInvalidID(t *testing.T) {
	env := newTestServer(t)

	rec := env.request(http.MethodGet, "/torznab/not-a-uuid?t=search", nil)

	assert.Equal(t, http.StatusOK, rec.Code, "torznab errors still ride HTTP 200")
	assert.Equal(t, torznab.ContentTypeXML, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `code="201"`)
	assert.Contains(t, rec.Body.String(), "Invalid indexer ID")
}

func TestTorznabUnknownQueryType(t *testing.T) {
	env := newTestServer(t)
	id, _ := env.addIndexer(t, "Seabird")

	rec := env.request(http.MethodGet, "/torznab/"+id.String()+"?t=frobnicate", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `code="201"`)
	assert.Contains(t, rec.Body.String(), "Unknown query type: frobnicate")
}

func TestTorznabUnknownIndexer(t *testing.T) {
	env := newTestServer(t)

	rec := env.request(http.MethodGet, "/torznab/"+uuid.NewString()+"?t=search", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `code="900"`)
}

func TestTorznabUnsupportedIndexerType(t *testing.T) {
	env := newTestServer(t)

	cfg := indexer.Config{
		ID:      uuid.New(),
		UserID:  env.userID,
		Type:    "rss",
		Name:    "Legacy",
		Enabled: true,
	}
	require.NoError(t, env.store.Create(context.Background(), cfg))

	rec := env.request(http.MethodGet, "/torznab/"+cfg.ID.String()+"?t=search", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `code="201"`)
	assert.Contains(t, rec.Body.String(), "Unsupported indexer type: rss")
}

func TestTorznabCaps(t *testing.T) {
	env := newTestServer(t)
	id, _ := env.addIndexer(t, "Seabird")

	rec := env.request(http.MethodGet, "/torznab/"+id.String()+"/api?t=caps", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, torznab.ContentTypeXML, rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<caps>")
	assert.Contains(t, body, `title="Seabird"`)
	assert.Contains(t, body, `supportedParams="q`)
}

func TestTorznabSearch(t *testing.T) {
	env := newTestServer(t)
	id, fake := env.addIndexer(t, "Seabird")

	rec := env.request(http.MethodGet, "/torznab/"+id.String()+"?t=search&q=ubuntu", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, torznab.ContentTypeRSS, rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "Seabird.Release.1080p")
	assert.Contains(t, body, `xmlns:torznab`)
	assert.EqualValues(t, 1, fake.searchCalls.Load())
}

func TestTorznabSearchIsCached(t *testing.T) {
	env := newTestServer(t)
	id, fake := env.addIndexer(t, "Seabird")

	first := env.request(http.MethodGet, "/torznab/"+id.String()+"?t=search&q=ubuntu", nil)
	second := env.request(http.MethodGet, "/torznab/"+id.String()+"?t=search&q=ubuntu", nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.EqualValues(t, 1, fake.searchCalls.Load(), "second identical query served from cache")
}

func TestTorznabSearchFailure(t *testing.T) {
	env := newTestServer(t)
	id, fake := env.addIndexer(t, "Seabird")
	fake.searchFn = func(ctx context.Context, q *torznab.Query) ([]torznab.ReleaseInfo, error) {
		return nil, errors.New("tracker down")
	}

	rec := env.request(http.MethodGet, "/torznab/"+id.String()+"?t=search&q=ubuntu", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, torznab.ContentTypeXML, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `code="900"`)
	assert.Contains(t, rec.Body.String(), "tracker down")
}

func TestTorznabTVSearchParams(t *testing.T) {
	env := newTestServer(t)
	id, fake := env.addIndexer(t, "Seabird")

	var got *torznab.Query
	fake.searchFn = func(ctx context.Context, q *torznab.Query) ([]torznab.ReleaseInfo, error) {
		got = q
		return nil, nil
	}

	rec := env.request(http.MethodGet,
		"/torznab/"+id.String()+"?t=tvsearch&q=show&season=2&ep=5&cat=5000,5040&imdbid=tt1234567", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, torznab.QueryTypeTV, got.Type)
	assert.Equal(t, "show", got.SearchTerm)
	assert.Equal(t, 2, got.Season)
	assert.Equal(t, 5, got.Episode)
	assert.Equal(t, []int{5000, 5040}, got.Categories)
	assert.Equal(t, "1234567", got.ImdbID, "tt prefix stripped")
	assert.True(t, got.Cache)
}
