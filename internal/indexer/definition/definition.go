// Package definition implements YAML indexer definitions in the Cardigann
// format. A definition describes a tracker site declaratively: its
// identity, category mappings, search modes, user settings, and the login,
// search, and download recipes.
package definition

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spindrift-media/spindrift/internal/torznab"
)

// StringOrArray is a type that can unmarshal from either a string or an
// array of strings. When unmarshaled, it always stores as a single string.
type StringOrArray string

// UnmarshalYAML implements custom YAML unmarshaling for StringOrArray.
func (s *StringOrArray) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = StringOrArray(value.Value)
		return nil
	case yaml.SequenceNode:
		var arr []string
		if err := value.Decode(&arr); err != nil {
			return err
		}
		if len(arr) > 0 {
			*s = StringOrArray(strings.Join(arr, ", "))
		}
		return nil
	default:
		return fmt.Errorf("cannot unmarshal %v into StringOrArray", value.Kind)
	}
}

// Definition represents a parsed YAML definition file describing how to
// interact with one tracker site.
type Definition struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Language     string   `yaml:"language"`
	Type         string   `yaml:"type"`     // public, private, semi-private
	Encoding     string   `yaml:"encoding"` // UTF-8, etc.
	RequestDelay float64  `yaml:"requestDelay"`
	Links        []string `yaml:"links"`
	LegacyLinks  []string `yaml:"legacylinks"`

	Caps     Capabilities   `yaml:"caps"`
	Settings []Setting      `yaml:"settings"`
	Login    *LoginBlock    `yaml:"login"`
	Search   SearchBlock    `yaml:"search"`
	Download *DownloadBlock `yaml:"download"`
}

// Capabilities describes what search modes and categories the site supports.
type Capabilities struct {
	CategoryMappings []CategoryMapping   `yaml:"categorymappings"`
	Modes            map[string][]string `yaml:"modes"` // search, tv-search, movie-search -> supported params
	AllowRawSearch   bool                `yaml:"allowrawsearch"`
}

// CategoryMapping maps a site-specific category ID to a Newznab category
// name such as "Movies/HD".
type CategoryMapping struct {
	ID      string `yaml:"id"`
	Cat     string `yaml:"cat"`
	Desc    string `yaml:"desc"`
	Default bool   `yaml:"default"`
}

// Setting defines a user-configurable option for the indexer.
type Setting struct {
	Name    string            `yaml:"name" json:"name"`
	Type    string            `yaml:"type" json:"type"` // text, password, checkbox, select, info
	Label   string            `yaml:"label" json:"label"`
	Default string            `yaml:"default" json:"default,omitempty"`
	Options map[string]string `yaml:"options" json:"options,omitempty"` // For select type
}

// LoginBlock defines how to authenticate with the site.
type LoginBlock struct {
	Path    string                   `yaml:"path"`
	Method  string                   `yaml:"method"` // post, form, cookie, oneurl
	Form    string                   `yaml:"form"`
	Inputs  map[string]string        `yaml:"inputs"`
	Error   []ErrorSelector          `yaml:"error"`
	Test    TestBlock                `yaml:"test"`
	Cookies []string                 `yaml:"cookies"`
	Headers map[string]StringOrArray `yaml:"headers"`
}

// ErrorSelector defines how to detect and extract error messages.
type ErrorSelector struct {
	Selector string          `yaml:"selector"`
	Message  *TextOrSelector `yaml:"message"`
}

// TextOrSelector can be either static text or a selector definition.
type TextOrSelector struct {
	Text     string `yaml:"text"`
	Selector string `yaml:"selector"`
}

// TestBlock defines how to verify successful authentication.
type TestBlock struct {
	Path     string `yaml:"path"`
	Selector string `yaml:"selector"`
}

// SearchBlock defines how to execute searches and parse results.
type SearchBlock struct {
	Paths           []SearchPath             `yaml:"paths"`
	Inputs          map[string]string        `yaml:"inputs"`
	KeywordsFilters []Filter                 `yaml:"keywordsfilters"`
	Headers         map[string]StringOrArray `yaml:"headers"`
	Rows            RowSelector              `yaml:"rows"`
	Fields          map[string]Field         `yaml:"fields"`
	Error           []ErrorSelector          `yaml:"error"`
}

// SearchPath defines a search endpoint, optionally restricted to certain
// categories.
type SearchPath struct {
	Path           string            `yaml:"path"`
	Categories     []string          `yaml:"categories"`
	Inputs         map[string]string `yaml:"inputs"`
	Method         string            `yaml:"method"`
	FollowRedirect bool              `yaml:"followredirect"`
}

// RowSelector defines how to find result rows in the response.
type RowSelector struct {
	Selector string `yaml:"selector"`
	After    int    `yaml:"after"` // Skip N rows (e.g., header row)
	Remove   string `yaml:"remove"`
	Multiple bool   `yaml:"multiple"`
}

// Field defines how to extract a single piece of data from a result row.
type Field struct {
	Selector  string            `yaml:"selector"`
	Attribute string            `yaml:"attribute"`
	Text      string            `yaml:"text"`
	Optional  bool              `yaml:"optional"`
	Default   string            `yaml:"default"`
	Filters   []Filter          `yaml:"filters"`
	Case      map[string]string `yaml:"case"`
}

// Filter transforms extracted values.
type Filter struct {
	Name string      `yaml:"name"`
	Args interface{} `yaml:"args"` // string, []string, or nil
}

// DownloadBlock defines how to construct download URLs.
type DownloadBlock struct {
	Selectors []DownloadSelector `yaml:"selectors"`
	InfoHash  *InfoHashBlock     `yaml:"infohash"`
	Method    string             `yaml:"method"`
}

// DownloadSelector defines a selector for finding download links.
type DownloadSelector struct {
	Selector  string   `yaml:"selector"`
	Attribute string   `yaml:"attribute"`
	Filters   []Filter `yaml:"filters"`
}

// InfoHashBlock builds magnet links from an info hash instead of a file.
type InfoHashBlock struct {
	Hash  Field `yaml:"hash"`
	Title Field `yaml:"title"`
}

// Parse decodes and validates one YAML definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ParseFile decodes and validates a YAML definition from disk.
func ParseFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Validate checks the fields every usable definition must carry.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("definition is missing an id")
	}
	if d.Name == "" {
		return fmt.Errorf("definition %q is missing a name", d.ID)
	}
	if len(d.Links) == 0 {
		return fmt.Errorf("definition %q has no links", d.ID)
	}
	switch d.Type {
	case "public", "private", "semi-private":
	case "":
		return fmt.Errorf("definition %q is missing a type", d.ID)
	default:
		return fmt.Errorf("definition %q has unknown type %q", d.ID, d.Type)
	}
	if len(d.Caps.Modes) == 0 {
		return fmt.Errorf("definition %q declares no search modes", d.ID)
	}
	return nil
}

// SiteLink returns the primary site URL.
func (d *Definition) SiteLink() string {
	if len(d.Links) == 0 {
		return ""
	}
	return d.Links[0]
}

// RequiredSettings returns the settings a user must fill in before the
// indexer counts as configured: text and password fields without defaults.
func (d *Definition) RequiredSettings() []Setting {
	required := make([]Setting, 0)
	for _, setting := range d.Settings {
		switch setting.Type {
		case "text", "password":
			if setting.Default == "" {
				required = append(required, setting)
			}
		}
	}
	return required
}

// ToCapabilities converts the definition's caps block into the canonical
// capability model. Category names that are not standard Newznab names
// fall back to the Other category.
func (d *Definition) ToCapabilities() *torznab.Capabilities {
	caps := &torznab.Capabilities{
		SearchParams:      modeParams(d.Caps.Modes, "search"),
		TVSearchParams:    modeParams(d.Caps.Modes, "tv-search"),
		MovieSearchParams: modeParams(d.Caps.Modes, "movie-search"),
		MusicSearchParams: modeParams(d.Caps.Modes, "music-search"),
		BookSearchParams:  modeParams(d.Caps.Modes, "book-search"),
		LimitsDefault:     100,
		LimitsMax:         100,
	}

	for _, mapping := range d.Caps.CategoryMappings {
		code, _ := torznab.CategoryCode(mapping.Cat)
		desc := mapping.Desc
		if desc == "" {
			desc = mapping.Cat
		}
		caps.Categories = append(caps.Categories, torznab.CategoryMapping{
			TrackerID:   mapping.ID,
			TorznabCat:  code,
			Description: desc,
		})
	}
	return caps
}

func modeParams(modes map[string][]string, mode string) []torznab.SearchParam {
	names, ok := modes[mode]
	if !ok {
		return nil
	}

	params := make([]torznab.SearchParam, 0, len(names))
	for _, name := range names {
		if param, ok := torznab.SearchParamFromName(name); ok {
			params = append(params, param)
		}
	}
	if len(params) == 0 {
		params = append(params, torznab.ParamQ)
	}
	return params
}
