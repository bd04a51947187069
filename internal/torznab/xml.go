package torznab

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Torznab error codes. All logical errors ride on HTTP 200 by convention.
const (
	ErrCodeBadRequest = 201 // malformed or unsupported request shape
	ErrCodeServer     = 900 // indexer or internal failure
)

const (
	atomNamespace    = "http://www.w3.org/2005/Atom"
	torznabNamespace = "http://torznab.com/schemas/2015/feed"

	// ContentTypeXML is used for caps and error responses.
	ContentTypeXML = "application/xml"
	// ContentTypeRSS is used for search result feeds.
	ContentTypeRSS = "application/rss+xml"
)

// Error is a Torznab protocol error document.
type Error struct {
	XMLName     xml.Name `xml:"error"`
	Code        int      `xml:"code,attr"`
	Description string   `xml:"description,attr"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("torznab error %d: %s", e.Code, e.Description)
}

// EncodeError renders an error document with the XML declaration.
func EncodeError(code int, description string) ([]byte, error) {
	data, err := xml.Marshal(&Error{Code: code, Description: description})
	if err != nil {
		return nil, fmt.Errorf("failed to encode error document: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// capsDoc is the <caps> capabilities document.
type capsDoc struct {
	XMLName    xml.Name       `xml:"caps"`
	Server     capsServer     `xml:"server"`
	Limits     capsLimits     `xml:"limits"`
	Searching  capsSearching  `xml:"searching"`
	Categories capsCategories `xml:"categories"`
}

type capsServer struct {
	Title string `xml:"title,attr"`
}

type capsLimits struct {
	Default int `xml:"default,attr"`
	Max     int `xml:"max,attr"`
}

type capsSearching struct {
	Search      capsSearchMode `xml:"search"`
	TVSearch    capsSearchMode `xml:"tv-search"`
	MovieSearch capsSearchMode `xml:"movie-search"`
	MusicSearch capsSearchMode `xml:"music-search"`
	BookSearch  capsSearchMode `xml:"book-search"`
}

type capsSearchMode struct {
	Available       string `xml:"available,attr"`
	SupportedParams string `xml:"supportedParams,attr"`
}

type capsCategories struct {
	Categories []capsCategory `xml:"category"`
}

type capsCategory struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

func searchMode(available bool, params []SearchParam) capsSearchMode {
	mode := capsSearchMode{Available: "no", SupportedParams: supportedParams(nil)}
	if available {
		mode.Available = "yes"
		mode.SupportedParams = supportedParams(params)
	}
	return mode
}

// EncodeCaps renders a capabilities document for an indexer. Mode
// availability derives from non-empty parameter lists; category entries are
// deduplicated by Torznab code.
func EncodeCaps(title string, caps *Capabilities) ([]byte, error) {
	doc := capsDoc{
		Server: capsServer{Title: title},
		Limits: capsLimits{Default: caps.LimitsDefault, Max: caps.LimitsMax},
		Searching: capsSearching{
			Search:      searchMode(caps.SupportsSearch(), caps.SearchParams),
			TVSearch:    searchMode(caps.SupportsTVSearch(), caps.TVSearchParams),
			MovieSearch: searchMode(caps.SupportsMovieSearch(), caps.MovieSearchParams),
			MusicSearch: searchMode(caps.SupportsMusicSearch(), caps.MusicSearchParams),
			BookSearch:  searchMode(caps.SupportsBookSearch(), caps.BookSearchParams),
		},
	}

	seen := make(map[int]bool)
	for _, mapping := range caps.Categories {
		if seen[mapping.TorznabCat] {
			continue
		}
		seen[mapping.TorznabCat] = true

		name := mapping.Description
		if name == "" {
			name = CategoryName(mapping.TorznabCat)
		}
		doc.Categories.Categories = append(doc.Categories.Categories, capsCategory{
			ID:   mapping.TorznabCat,
			Name: name,
		})
	}

	data, err := xml.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode caps document: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// rssDoc is the RSS 2.0 result feed with the atom and torznab namespaces.
type rssDoc struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	AtomNS    string     `xml:"xmlns:atom,attr"`
	TorznabNS string     `xml:"xmlns:torznab,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	Link        string    `xml:"link"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	GUID        string        `xml:"guid"`
	Link        string        `xml:"link,omitempty"`
	Comments    string        `xml:"comments,omitempty"`
	PubDate     string        `xml:"pubDate"`
	Size        *int64        `xml:"size,omitempty"`
	Description string        `xml:"description,omitempty"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
	Attrs       []rssAttr     `xml:"torznab:attr"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type rssAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// EncodeResults renders a search result feed for the given channel title.
func EncodeResults(title string, link string, releases []ReleaseInfo) ([]byte, error) {
	doc := rssDoc{
		Version:   "2.0",
		AtomNS:    atomNamespace,
		TorznabNS: torznabNamespace,
		Channel: rssChannel{
			Title:       title,
			Description: title + " search results",
			Link:        link,
			Items:       make([]rssItem, 0, len(releases)),
		},
	}

	for i := range releases {
		doc.Channel.Items = append(doc.Channel.Items, encodeItem(&releases[i]))
	}

	data, err := xml.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result feed: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

func encodeItem(r *ReleaseInfo) rssItem {
	item := rssItem{
		Title:       r.Title,
		GUID:        r.GUID,
		Link:        r.Link(),
		Comments:    r.InfoURL,
		PubDate:     r.PublishDate.Format(time.RFC1123Z),
		Size:        r.Size,
		Description: r.Description,
	}

	if r.DownloadURL != "" {
		var length int64
		if r.Size != nil {
			length = *r.Size
		}
		item.Enclosure = &rssEnclosure{
			URL:    r.DownloadURL,
			Length: length,
			Type:   "application/x-bittorrent",
		}
	}

	item.Attrs = encodeAttrs(r)
	return item
}

func encodeAttrs(r *ReleaseInfo) []rssAttr {
	attrs := make([]rssAttr, 0, len(r.Categories)+8)

	for _, cat := range r.Categories {
		attrs = append(attrs, rssAttr{Name: "category", Value: strconv.Itoa(cat)})
	}
	if r.Seeders != nil {
		attrs = append(attrs, rssAttr{Name: "seeders", Value: strconv.Itoa(*r.Seeders)})
	}
	if r.Peers != nil {
		attrs = append(attrs, rssAttr{Name: "peers", Value: strconv.Itoa(*r.Peers)})
	}
	if r.Size != nil {
		attrs = append(attrs, rssAttr{Name: "size", Value: strconv.FormatInt(*r.Size, 10)})
	}
	if r.Grabs != nil {
		attrs = append(attrs, rssAttr{Name: "grabs", Value: strconv.Itoa(*r.Grabs)})
	}
	if r.ImdbID > 0 {
		imdb := fmt.Sprintf("tt%07d", r.ImdbID)
		attrs = append(attrs,
			rssAttr{Name: "imdb", Value: imdb},
			rssAttr{Name: "imdbid", Value: imdb},
		)
	}
	if r.TvdbID > 0 {
		attrs = append(attrs, rssAttr{Name: "tvdbid", Value: strconv.Itoa(r.TvdbID)})
	}
	if r.TmdbID > 0 {
		attrs = append(attrs, rssAttr{Name: "tmdbid", Value: strconv.Itoa(r.TmdbID)})
	}
	if r.InfoHash != "" {
		attrs = append(attrs, rssAttr{Name: "infohash", Value: r.InfoHash})
	}
	if r.MagnetURI != "" {
		attrs = append(attrs, rssAttr{Name: "magneturl", Value: r.MagnetURI})
	}
	if r.CoverURL != "" {
		attrs = append(attrs, rssAttr{Name: "coverurl", Value: r.CoverURL})
	}

	// Volume factors are always emitted, even at the 1.0 default, so
	// clients can rely on their presence.
	attrs = append(attrs,
		rssAttr{Name: "downloadvolumefactor", Value: formatFloat(r.DownloadVolumeFactor)},
		rssAttr{Name: "uploadvolumefactor", Value: formatFloat(r.UploadVolumeFactor)},
	)

	if r.MinimumRatio > 0 {
		attrs = append(attrs, rssAttr{Name: "minimumratio", Value: formatFloat(r.MinimumRatio)})
	}
	if r.MinimumSeedTime > 0 {
		attrs = append(attrs, rssAttr{Name: "minimumseedtime", Value: strconv.FormatInt(r.MinimumSeedTime, 10)})
	}

	return attrs
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseCaps decodes a capabilities document fetched from an upstream
// indexer. Upstream category IDs double as tracker IDs since the remote
// already speaks Torznab categories.
func ParseCaps(data []byte) (*Capabilities, error) {
	var doc capsDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse caps document: %w", err)
	}

	caps := &Capabilities{
		SearchParams:      parseSupportedParams(doc.Searching.Search),
		TVSearchParams:    parseSupportedParams(doc.Searching.TVSearch),
		MovieSearchParams: parseSupportedParams(doc.Searching.MovieSearch),
		MusicSearchParams: parseSupportedParams(doc.Searching.MusicSearch),
		BookSearchParams:  parseSupportedParams(doc.Searching.BookSearch),
		LimitsDefault:     doc.Limits.Default,
		LimitsMax:         doc.Limits.Max,
	}

	for _, cat := range doc.Categories.Categories {
		caps.Categories = append(caps.Categories, CategoryMapping{
			TrackerID:   strconv.Itoa(cat.ID),
			TorznabCat:  cat.ID,
			Description: cat.Name,
		})
	}
	return caps, nil
}

func parseSupportedParams(mode capsSearchMode) []SearchParam {
	if mode.Available != "yes" {
		return nil
	}

	params := make([]SearchParam, 0)
	for _, name := range strings.Split(mode.SupportedParams, ",") {
		if param, ok := SearchParamFromName(strings.TrimSpace(name)); ok {
			params = append(params, param)
		}
	}
	if len(params) == 0 {
		params = append(params, ParamQ)
	}
	return params
}

// Feed is a decoded Torznab/Newznab result feed, as returned by an
// upstream indexer API.
type Feed struct {
	XMLName xml.Name    `xml:"rss"`
	Channel FeedChannel `xml:"channel"`
}

// FeedChannel is the channel element of a decoded feed.
type FeedChannel struct {
	Title       string     `xml:"title"`
	Description string     `xml:"description"`
	Items       []FeedItem `xml:"item"`
}

// FeedItem is one decoded release entry.
type FeedItem struct {
	Title       string        `xml:"title"`
	GUID        string        `xml:"guid"`
	Link        string        `xml:"link"`
	Comments    string        `xml:"comments"`
	PubDate     string        `xml:"pubDate"`
	Size        int64         `xml:"size"`
	Description string        `xml:"description"`
	Enclosure   FeedEnclosure `xml:"enclosure"`
	Attrs       []FeedAttr    `xml:"attr"`
}

// FeedEnclosure is the enclosure element of a decoded item.
type FeedEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// FeedAttr is one decoded torznab:attr element.
type FeedAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ParseFeed decodes a Torznab response body. A protocol error document is
// returned as a *Error.
func ParseFeed(data []byte) (*Feed, error) {
	var protoErr Error
	if err := xml.Unmarshal(data, &protoErr); err == nil {
		return nil, &protoErr
	}

	var feed Feed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse result feed: %w", err)
	}
	return &feed, nil
}

// Attr returns the value of a torznab attribute by name.
func (item *FeedItem) Attr(name string) string {
	for _, attr := range item.Attrs {
		if attr.Name == name {
			return attr.Value
		}
	}
	return ""
}

func (item *FeedItem) intAttr(name string) (int, bool) {
	val := item.Attr(name)
	if val == "" {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (item *FeedItem) floatAttr(name string, defaultVal float64) float64 {
	val := item.Attr(name)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

// pubDateLayouts covers the date formats seen in the wild.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// ReleaseInfo converts a decoded item into the canonical release model.
func (item *FeedItem) ReleaseInfo() ReleaseInfo {
	release := NewReleaseInfo(item.Title, item.GUID, time.Time{})

	for _, layout := range pubDateLayouts {
		if parsed, err := time.Parse(layout, item.PubDate); err == nil {
			release.PublishDate = parsed
			break
		}
	}

	release.Description = item.Description
	release.InfoURL = item.Comments
	release.DownloadURL = item.Link
	if release.DownloadURL == "" {
		release.DownloadURL = item.Enclosure.URL
	}
	if strings.HasPrefix(release.DownloadURL, "magnet:") {
		release.MagnetURI = release.DownloadURL
		release.DownloadURL = ""
	}
	if magnet := item.Attr("magneturl"); magnet != "" {
		release.MagnetURI = magnet
	}

	size := item.Size
	if size == 0 && item.Enclosure.Length > 0 {
		size = item.Enclosure.Length
	}
	if sizeAttr, ok := item.intAttr("size"); ok && size == 0 {
		size = int64(sizeAttr)
	}
	if size > 0 {
		release.Size = &size
	}

	if seeders, ok := item.intAttr("seeders"); ok {
		release.Seeders = &seeders
		if peers, ok := item.intAttr("peers"); ok {
			release.Peers = &peers
		} else if leechers, ok := item.intAttr("leechers"); ok {
			peers := seeders + leechers
			release.Peers = &peers
		}
	}
	if grabs, ok := item.intAttr("grabs"); ok {
		release.Grabs = &grabs
	}

	for _, attr := range item.Attrs {
		if attr.Name != "category" {
			continue
		}
		if cat, err := strconv.Atoi(attr.Value); err == nil {
			release.Categories = append(release.Categories, cat)
		}
	}

	release.InfoHash = item.Attr("infohash")
	release.CoverURL = item.Attr("coverurl")
	release.DownloadVolumeFactor = item.floatAttr("downloadvolumefactor", 1.0)
	release.UploadVolumeFactor = item.floatAttr("uploadvolumefactor", 1.0)
	release.MinimumRatio = item.floatAttr("minimumratio", 0)
	if seedTime, ok := item.intAttr("minimumseedtime"); ok {
		release.MinimumSeedTime = int64(seedTime)
	}

	release.ImdbID = parseImdbID(item.Attr("imdbid"))
	if release.ImdbID == 0 {
		release.ImdbID = parseImdbID(item.Attr("imdb"))
	}
	if tvdb, ok := item.intAttr("tvdbid"); ok {
		release.TvdbID = tvdb
	}
	if tmdb, ok := item.intAttr("tmdbid"); ok {
		release.TmdbID = tmdb
	}
	if tvmaze, ok := item.intAttr("tvmazeid"); ok {
		release.TvMazeID = tvmaze
	}
	if trakt, ok := item.intAttr("traktid"); ok {
		release.TraktID = trakt
	}
	if douban, ok := item.intAttr("doubanid"); ok {
		release.DoubanID = douban
	}

	return release
}

// parseImdbID accepts both "tt0133093" and bare numeric forms.
func parseImdbID(val string) int {
	val = strings.TrimPrefix(strings.TrimSpace(val), "tt")
	if val == "" {
		return 0
	}
	id, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return id
}
