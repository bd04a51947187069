package torznab

// Standard Newznab categories.
// https://newznab.readthedocs.io/en/latest/misc/api/#predefined-categories
const (
	// Main categories
	CategoryConsole = 1000
	CategoryMovies  = 2000
	CategoryAudio   = 3000
	CategoryPC      = 4000
	CategoryTV      = 5000
	CategoryXXX     = 6000
	CategoryBooks   = 7000
	CategoryOther   = 8000

	// Movies subcategories
	CategoryMoviesForeign = 2010
	CategoryMoviesOther   = 2020
	CategoryMoviesSD      = 2030
	CategoryMoviesHD      = 2040
	CategoryMoviesUHD     = 2045
	CategoryMoviesBluRay  = 2050
	CategoryMovies3D      = 2060
	CategoryMoviesDVD     = 2070
	CategoryMoviesWebDL   = 2080

	// Audio subcategories
	CategoryAudioMP3       = 3010
	CategoryAudioVideo     = 3020
	CategoryAudioAudiobook = 3030
	CategoryAudioLossless  = 3040
	CategoryAudioOther     = 3050
	CategoryAudioForeign   = 3060

	// TV subcategories
	CategoryTVForeign = 5010
	CategoryTVOther   = 5020
	CategoryTVSD      = 5030
	CategoryTVHD      = 5040
	CategoryTVUHD     = 5045
	CategoryTVSport   = 5060
	CategoryTVAnime   = 5070
	CategoryTVDoc     = 5080
	CategoryTVWebDL   = 5090

	// Books subcategories
	CategoryBooksMags    = 7010
	CategoryBooksEbook   = 7020
	CategoryBooksComics  = 7030
	CategoryBooksForeign = 7060

	// Other subcategories
	CategoryOtherMisc   = 8010
	CategoryOtherHashed = 8020
)

// categoryNames maps Torznab category codes to their canonical names.
var categoryNames = map[int]string{
	CategoryConsole:        "Console",
	CategoryMovies:         "Movies",
	CategoryMoviesForeign:  "Movies/Foreign",
	CategoryMoviesOther:    "Movies/Other",
	CategoryMoviesSD:       "Movies/SD",
	CategoryMoviesHD:       "Movies/HD",
	CategoryMoviesUHD:      "Movies/UHD",
	CategoryMoviesBluRay:   "Movies/BluRay",
	CategoryMovies3D:       "Movies/3D",
	CategoryMoviesDVD:      "Movies/DVD",
	CategoryMoviesWebDL:    "Movies/WEB-DL",
	CategoryAudio:          "Audio",
	CategoryAudioMP3:       "Audio/MP3",
	CategoryAudioVideo:     "Audio/Video",
	CategoryAudioAudiobook: "Audio/Audiobook",
	CategoryAudioLossless:  "Audio/Lossless",
	CategoryAudioOther:     "Audio/Other",
	CategoryAudioForeign:   "Audio/Foreign",
	CategoryPC:             "PC",
	CategoryTV:             "TV",
	CategoryTVForeign:      "TV/Foreign",
	CategoryTVOther:        "TV/Other",
	CategoryTVSD:           "TV/SD",
	CategoryTVHD:           "TV/HD",
	CategoryTVUHD:          "TV/UHD",
	CategoryTVSport:        "TV/Sport",
	CategoryTVAnime:        "TV/Anime",
	CategoryTVDoc:          "TV/Documentary",
	CategoryTVWebDL:        "TV/WEB-DL",
	CategoryXXX:            "XXX",
	CategoryBooks:          "Books",
	CategoryBooksMags:      "Books/Mags",
	CategoryBooksEbook:     "Books/EBook",
	CategoryBooksComics:    "Books/Comics",
	CategoryBooksForeign:   "Books/Foreign",
	CategoryOther:          "Other",
	CategoryOtherMisc:      "Other/Misc",
	CategoryOtherHashed:    "Other/Hashed",
}

// categoryCodes is the reverse of categoryNames, built once at init.
var categoryCodes = func() map[string]int {
	codes := make(map[string]int, len(categoryNames))
	for code, name := range categoryNames {
		codes[name] = code
	}
	return codes
}()

// CategoryName returns the canonical name for a category code.
func CategoryName(id int) string {
	if name, ok := categoryNames[id]; ok {
		return name
	}
	return "Unknown"
}

// CategoryCode returns the code for a canonical category name such as
// "Movies/HD". Unknown names fall back to CategoryOther.
func CategoryCode(name string) (int, bool) {
	if code, ok := categoryCodes[name]; ok {
		return code, true
	}
	return CategoryOther, false
}

// CategoryFamily returns the thousands-family of a category code, e.g.
// 2000 for any Movies/* category.
func CategoryFamily(id int) int {
	return (id / 1000) * 1000
}

// MovieCategories returns all movie-related categories.
func MovieCategories() []int {
	return []int{
		CategoryMovies,
		CategoryMoviesForeign,
		CategoryMoviesOther,
		CategoryMoviesSD,
		CategoryMoviesHD,
		CategoryMoviesUHD,
		CategoryMoviesBluRay,
		CategoryMovies3D,
		CategoryMoviesDVD,
		CategoryMoviesWebDL,
	}
}

// TVCategories returns all TV-related categories.
func TVCategories() []int {
	return []int{
		CategoryTV,
		CategoryTVForeign,
		CategoryTVOther,
		CategoryTVSD,
		CategoryTVHD,
		CategoryTVUHD,
		CategoryTVSport,
		CategoryTVAnime,
		CategoryTVDoc,
		CategoryTVWebDL,
	}
}
