package definition

import (
	"context"

	"github.com/google/uuid"

	"github.com/spindrift-media/spindrift/internal/indexer"
	"github.com/spindrift-media/spindrift/internal/torznab"
)

// Indexer is a definition-backed indexer instance: one YAML definition
// bound to a user's settings and credentials. It exposes the site's
// identity and capabilities; the selector-driven search engine is not
// wired yet, so Search, Test, and Download report not-implemented.
type Indexer struct {
	cfg  indexer.Config
	def  *Definition
	caps *torznab.Capabilities
}

// NewIndexer binds a definition to a stored config.
func NewIndexer(cfg indexer.Config, def *Definition) (*Indexer, error) {
	if def == nil {
		return nil, indexer.NewConfigError(cfg.ID, cfg.Name, "definition is required")
	}
	return &Indexer{
		cfg:  cfg,
		def:  def,
		caps: def.ToCapabilities(),
	}, nil
}

// Definition returns the underlying parsed definition.
func (d *Indexer) Definition() *Definition { return d.def }

func (d *Indexer) ID() uuid.UUID { return d.cfg.ID }

func (d *Indexer) Name() string {
	if d.cfg.Name != "" {
		return d.cfg.Name
	}
	return d.def.Name
}

func (d *Indexer) Description() string { return d.def.Description }

func (d *Indexer) SiteLink() string {
	if d.cfg.BaseURL != "" {
		return d.cfg.BaseURL
	}
	return d.def.SiteLink()
}

func (d *Indexer) Language() string {
	if d.def.Language != "" {
		return d.def.Language
	}
	return "en-US"
}

func (d *Indexer) TrackerType() indexer.TrackerType {
	switch d.def.Type {
	case "private":
		return indexer.TrackerPrivate
	case "semi-private":
		return indexer.TrackerSemiPrivate
	default:
		return indexer.TrackerPublic
	}
}

func (d *Indexer) Capabilities() *torznab.Capabilities { return d.caps }

// IsConfigured reports whether every required setting has a value, either
// as a plain setting or as a credential.
func (d *Indexer) IsConfigured() bool {
	for _, setting := range d.def.RequiredSettings() {
		if d.settingValue(setting) == "" {
			return false
		}
	}
	return true
}

func (d *Indexer) settingValue(setting Setting) string {
	if setting.Type == "password" {
		if value, ok := d.cfg.Credentials[setting.Name]; ok {
			return value
		}
	}
	return d.cfg.Settings[setting.Name]
}

// CanHandleQuery checks the query type against the definition's modes and
// requires a category overlap when the query names categories.
func (d *Indexer) CanHandleQuery(q *torznab.Query) bool {
	if !d.caps.SupportsQueryType(q.Type) {
		return false
	}
	if len(q.Categories) == 0 {
		return true
	}
	return len(d.caps.MapTorznabToTracker(q.Categories)) > 0
}

func (d *Indexer) SupportsPagination() bool { return false }

// TODO: execute the definition's login and search paths once the selector
// engine lands; until then these surface a typed not-implemented error.

func (d *Indexer) Test(ctx context.Context) error {
	return indexer.NewNotImplementedError(d.cfg.ID, d.Name(), "connection test")
}

func (d *Indexer) Search(ctx context.Context, q *torznab.Query) ([]torznab.ReleaseInfo, error) {
	return nil, indexer.NewNotImplementedError(d.cfg.ID, d.Name(), "definition search")
}

func (d *Indexer) Download(ctx context.Context, link string) ([]byte, error) {
	return nil, indexer.NewNotImplementedError(d.cfg.ID, d.Name(), "definition download")
}
