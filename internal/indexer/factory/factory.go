// Package factory builds indexer backends from stored configs.
package factory

import (
	"github.com/rs/zerolog"

	"github.com/spindrift-media/spindrift/internal/indexer"
	"github.com/spindrift-media/spindrift/internal/indexer/definition"
	"github.com/spindrift-media/spindrift/internal/indexer/newznab"
)

// Factory dispatches on an indexer config's implementation type.
type Factory struct {
	defs   *definition.Repository
	logger zerolog.Logger
}

// New creates a factory. defs may be nil when no definition directory is
// configured; cardigann configs then fail to build.
func New(defs *definition.Repository, logger zerolog.Logger) *Factory {
	return &Factory{defs: defs, logger: logger}
}

// Build creates a backend for the config. Unknown types and unknown
// definition IDs yield configuration errors.
func (f *Factory) Build(cfg indexer.Config) (indexer.Indexer, error) {
	switch cfg.Type {
	case indexer.TypeNewznab:
		return newznab.New(cfg, f.logger)

	case indexer.TypeCardigann:
		if f.defs == nil {
			return nil, indexer.NewConfigError(cfg.ID, cfg.Name, "no definition repository configured")
		}
		def, ok := f.defs.Get(cfg.DefinitionID)
		if !ok {
			return nil, indexer.NewConfigError(cfg.ID, cfg.Name, "unknown definition: "+cfg.DefinitionID)
		}
		return definition.NewIndexer(cfg, def)

	default:
		return nil, indexer.NewConfigError(cfg.ID, cfg.Name, "unknown indexer type: "+cfg.Type)
	}
}
