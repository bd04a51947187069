package torznab

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeError(t *testing.T) {
	data, err := EncodeError(ErrCodeBadRequest, "Invalid indexer ID")
	require.NoError(t, err)

	body := string(data)
	assert.True(t, strings.HasPrefix(body, "<?xml"))
	assert.Contains(t, body, `code="201"`)
	assert.Contains(t, body, `description="Invalid indexer ID"`)
}

func TestEncodeCaps(t *testing.T) {
	caps := &Capabilities{
		SearchParams:   []SearchParam{ParamQ},
		TVSearchParams: []SearchParam{ParamQ, ParamSeason, ParamEp, ParamImdbID},
		Categories: []CategoryMapping{
			{TrackerID: "41", TorznabCat: CategoryMoviesHD},
			{TrackerID: "42", TorznabCat: CategoryMoviesHD},
			{TrackerID: "50", TorznabCat: CategoryTVHD, Description: "HD Episodes"},
		},
		LimitsDefault: 100,
		LimitsMax:     200,
	}

	data, err := EncodeCaps("Example Indexer", caps)
	require.NoError(t, err)
	body := string(data)

	assert.Contains(t, body, `<server title="Example Indexer"`)
	assert.Contains(t, body, `<limits default="100" max="200"`)
	assert.Contains(t, body, `<tv-search available="yes" supportedParams="q,season,ep,imdbid"`)
	assert.Contains(t, body, `<movie-search available="no"`)
	assert.Contains(t, body, `<category id="2040" name="Movies/HD"`)
	assert.Contains(t, body, `<category id="5040" name="HD Episodes"`)

	// Duplicate Torznab codes collapse into one category element.
	assert.Equal(t, 1, strings.Count(body, `id="2040"`))
}

func TestEncodeResults(t *testing.T) {
	size := int64(1500000000)
	seeders := 10
	peers := 15

	release := NewReleaseInfo(
		"Example.Movie.2024.1080p.WEB-DL",
		"https://tracker.example/details/1",
		time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	)
	release.DownloadURL = "https://tracker.example/dl/1.torrent"
	release.InfoURL = "https://tracker.example/details/1"
	release.Size = &size
	release.Seeders = &seeders
	release.Peers = &peers
	release.Categories = []int{CategoryMovies, CategoryMoviesHD}
	release.DownloadVolumeFactor = 0.0
	release.ImdbID = 133093

	data, err := EncodeResults("Example Indexer", "https://tracker.example", []ReleaseInfo{release})
	require.NoError(t, err)
	body := string(data)

	assert.Contains(t, body, `version="2.0"`)
	assert.Contains(t, body, `xmlns:torznab="http://torznab.com/schemas/2015/feed"`)
	assert.Contains(t, body, "<title>Example.Movie.2024.1080p.WEB-DL</title>")
	assert.Contains(t, body, "<pubDate>Fri, 01 Mar 2024 12:00:00 +0000</pubDate>")
	assert.Contains(t, body, `url="https://tracker.example/dl/1.torrent"`)
	assert.Contains(t, body, `type="application/x-bittorrent"`)
	assert.Contains(t, body, `name="seeders" value="10"`)
	assert.Contains(t, body, `name="peers" value="15"`)
	assert.Contains(t, body, `name="size" value="1500000000"`)
	assert.Contains(t, body, `name="downloadvolumefactor" value="0"`)
	assert.Contains(t, body, `name="uploadvolumefactor" value="1"`)
	assert.Contains(t, body, `name="imdb" value="tt0133093"`)
	assert.Contains(t, body, `name="category" value="2000"`)
	assert.Contains(t, body, `name="category" value="2040"`)
}

func TestEncodeResultsMagnetFallback(t *testing.T) {
	release := NewReleaseInfo("Magnet.Only.Release", "guid-2", time.Now())
	release.MagnetURI = "magnet:?xt=urn:btih:deadbeef"

	data, err := EncodeResults("Example", "https://example.com", []ReleaseInfo{release})
	require.NoError(t, err)
	body := string(data)

	assert.Contains(t, body, "<link>magnet:?xt=urn:btih:deadbeef</link>")
	assert.NotContains(t, body, "<enclosure")
}

func TestParseFeed(t *testing.T) {
	const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:torznab="http://torznab.com/schemas/2015/feed">
  <channel>
    <title>Example Indexer</title>
    <item>
      <title>Example.Show.S01E02.1080p</title>
      <guid>https://tracker.example/details/7</guid>
      <link>https://tracker.example/dl/7.torrent</link>
      <comments>https://tracker.example/details/7</comments>
      <pubDate>Fri, 01 Mar 2024 12:00:00 +0000</pubDate>
      <size>734003200</size>
      <enclosure url="https://tracker.example/dl/7.torrent" length="734003200" type="application/x-bittorrent"/>
      <torznab:attr name="category" value="5000"/>
      <torznab:attr name="category" value="5040"/>
      <torznab:attr name="seeders" value="42"/>
      <torznab:attr name="peers" value="50"/>
      <torznab:attr name="infohash" value="deadbeefcafe"/>
      <torznab:attr name="imdbid" value="tt0903747"/>
      <torznab:attr name="downloadvolumefactor" value="0"/>
      <torznab:attr name="uploadvolumefactor" value="1"/>
    </item>
  </channel>
</rss>`

	feed, err := ParseFeed([]byte(feedXML))
	require.NoError(t, err)
	require.Len(t, feed.Channel.Items, 1)

	release := feed.Channel.Items[0].ReleaseInfo()
	assert.Equal(t, "Example.Show.S01E02.1080p", release.Title)
	assert.Equal(t, "https://tracker.example/details/7", release.GUID)
	assert.Equal(t, "https://tracker.example/dl/7.torrent", release.DownloadURL)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), release.PublishDate.UTC())
	require.NotNil(t, release.Size)
	assert.Equal(t, int64(734003200), *release.Size)
	require.NotNil(t, release.Seeders)
	assert.Equal(t, 42, *release.Seeders)
	require.NotNil(t, release.Peers)
	assert.Equal(t, 50, *release.Peers)
	assert.Equal(t, []int{5000, 5040}, release.Categories)
	assert.Equal(t, "deadbeefcafe", release.InfoHash)
	assert.Equal(t, 903747, release.ImdbID)
	assert.True(t, release.IsFreeleech())
}

func TestParseFeedLeechersFallback(t *testing.T) {
	const feedXML = `<rss version="2.0"><channel><item>
  <title>Old.Style.Feed</title>
  <guid>guid-9</guid>
  <pubDate>Fri, 01 Mar 2024 12:00:00 +0000</pubDate>
  <attr name="seeders" value="10"/>
  <attr name="leechers" value="5"/>
</item></channel></rss>`

	feed, err := ParseFeed([]byte(feedXML))
	require.NoError(t, err)

	release := feed.Channel.Items[0].ReleaseInfo()
	require.NotNil(t, release.Peers)
	assert.Equal(t, 15, *release.Peers)
}

func TestParseFeedErrorDocument(t *testing.T) {
	const errXML = `<?xml version="1.0" encoding="UTF-8"?>
<error code="100" description="Incorrect user credentials"/>`

	_, err := ParseFeed([]byte(errXML))
	require.Error(t, err)

	var protoErr *Error
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, 100, protoErr.Code)
	assert.Equal(t, "Incorrect user credentials", protoErr.Description)
}

func TestParseFeedMagnetLink(t *testing.T) {
	const feedXML = `<rss version="2.0"><channel><item>
  <title>Magnet.Release</title>
  <guid>guid-m</guid>
  <pubDate>Fri, 01 Mar 2024 12:00:00 +0000</pubDate>
  <link>magnet:?xt=urn:btih:deadbeef</link>
</item></channel></rss>`

	feed, err := ParseFeed([]byte(feedXML))
	require.NoError(t, err)

	release := feed.Channel.Items[0].ReleaseInfo()
	assert.Empty(t, release.DownloadURL)
	assert.Equal(t, "magnet:?xt=urn:btih:deadbeef", release.MagnetURI)
}
