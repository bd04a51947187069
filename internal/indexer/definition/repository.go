package definition

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Repository holds the parsed definitions from a directory of YAML files.
// Load may be called again at runtime to pick up added or changed files;
// readers always see a complete snapshot.
type Repository struct {
	dir    string
	logger zerolog.Logger

	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRepository creates a repository over a definitions directory.
func NewRepository(dir string, logger zerolog.Logger) *Repository {
	return &Repository{
		dir:    dir,
		logger: logger.With().Str("component", "definitions").Logger(),
		defs:   make(map[string]*Definition),
	}
}

// Load parses every .yml/.yaml file in the directory. Files that fail to
// parse are logged and skipped; the rest load normally.
func (r *Repository) Load() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("failed to read definitions directory %s: %w", r.dir, err)
	}

	defs := make(map[string]*Definition)
	skipped := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}

		def, err := ParseFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			r.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping invalid definition")
			skipped++
			continue
		}

		if _, dup := defs[def.ID]; dup {
			r.logger.Warn().Str("id", def.ID).Str("file", entry.Name()).Msg("Duplicate definition id, keeping the first")
			continue
		}
		defs[def.ID] = def
	}

	r.mu.Lock()
	r.defs = defs
	r.mu.Unlock()

	r.logger.Info().
		Int("loaded", len(defs)).
		Int("skipped", skipped).
		Msg("Loaded indexer definitions")
	return nil
}

// Get returns a definition by ID.
func (r *Repository) Get(id string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	return def, ok
}

// List returns all definitions sorted by ID.
func (r *Repository) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Count returns the number of loaded definitions.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
