package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spindrift-media/spindrift/internal/crypto"
	"github.com/spindrift-media/spindrift/internal/indexer/ratelimit"
	"github.com/spindrift-media/spindrift/internal/torznab"
)

// SearchResult is the outcome of one indexer's part of a search. Exactly
// one result is produced per dispatched indexer, success or not.
type SearchResult struct {
	IndexerID   uuid.UUID               `json:"indexerId"`
	IndexerName string                  `json:"indexerName"`
	Releases    []torznab.ReleaseInfo   `json:"releases"`
	Err         error                   `json:"-"`
	FromCache   bool                    `json:"fromCache"`
	Elapsed     time.Duration           `json:"elapsed"`
}

// Manager owns the set of loaded indexer backends and fans searches out
// across them. Each loaded indexer gets its own concurrency limiter; a
// shared cache short-circuits repeated queries.
type Manager struct {
	store   Store
	factory Factory
	events  EventPublisher
	cache   *ResultCache
	rates   *ratelimit.Limiter
	logger  zerolog.Logger

	mu       sync.RWMutex
	backends map[uuid.UUID]Indexer
	limiters map[uuid.UUID]*concurrencyLimiter
	owners   map[uuid.UUID]int64
}

// NewManager creates an indexer manager. events may be nil when no client
// push channel is wired.
func NewManager(store Store, factory Factory, events EventPublisher, logger zerolog.Logger) *Manager {
	return &Manager{
		store:    store,
		factory:  factory,
		events:   events,
		cache:    NewResultCache(ResultCacheTTL),
		rates:    ratelimit.NewLimiter(ratelimit.DefaultConfig(), logger),
		logger:   logger.With().Str("component", "indexer-manager").Logger(),
		backends: make(map[uuid.UUID]Indexer),
		limiters: make(map[uuid.UUID]*concurrencyLimiter),
		owners:   make(map[uuid.UUID]int64),
	}
}

// LoadUserIndexers loads every enabled, configured indexer belonging to a
// user. Indexers that fail to build are logged and skipped; the rest load
// normally. Returns the number of indexers loaded.
func (m *Manager) LoadUserIndexers(ctx context.Context, userID int64) (int, error) {
	configs, err := m.store.ListEnabled(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list indexers for user %d: %w", userID, err)
	}

	secrets, err := m.userSecrets(ctx, userID)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, cfg := range configs {
		m.decryptCredentials(&cfg, secrets)

		if err := m.LoadIndexer(ctx, cfg); err != nil {
			m.logger.Warn().
				Err(err).
				Str("indexerId", cfg.ID.String()).
				Str("name", cfg.Name).
				Msg("Skipping indexer that failed to load")
			continue
		}
		loaded++
	}

	m.logger.Info().
		Int64("userId", userID).
		Int("loaded", loaded).
		Int("total", len(configs)).
		Msg("Loaded user indexers")
	return loaded, nil
}

// LoadIndexer builds a backend for the config and registers it, replacing
// any previously loaded instance with the same ID. Credentials must
// already be decrypted.
func (m *Manager) LoadIndexer(ctx context.Context, cfg Config) error {
	backend, err := m.factory.Build(cfg)
	if err != nil {
		return fmt.Errorf("failed to build indexer %s: %w", cfg.Name, err)
	}

	if !backend.IsConfigured() {
		return NewConfigError(cfg.ID, cfg.Name, "indexer is missing required settings")
	}

	m.mu.Lock()
	m.backends[cfg.ID] = backend
	m.limiters[cfg.ID] = newConcurrencyLimiter()
	m.owners[cfg.ID] = cfg.UserID
	m.mu.Unlock()

	m.logger.Debug().
		Str("indexerId", cfg.ID.String()).
		Str("name", cfg.Name).
		Str("type", cfg.Type).
		Msg("Indexer loaded")
	return nil
}

// EnsureLoaded returns the loaded backend for an ID, loading it from the
// store on demand. Credentials are decrypted with the owning user's key
// before the backend is built.
func (m *Manager) EnsureLoaded(ctx context.Context, id uuid.UUID) (Indexer, error) {
	if backend, ok := m.Loaded(id); ok {
		return backend, nil
	}

	cfg, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load indexer config %s: %w", id, err)
	}

	secrets, err := m.userSecrets(ctx, cfg.UserID)
	if err != nil {
		return nil, err
	}
	m.decryptCredentials(cfg, secrets)

	if err := m.LoadIndexer(ctx, *cfg); err != nil {
		return nil, err
	}

	backend, _ := m.Loaded(id)
	return backend, nil
}

// UnloadIndexer removes a loaded indexer and its limiter state. Unloading
// an unknown ID is a no-op. The result cache is purged: unloads happen on
// reconfiguration, and cached results may reflect the old configuration.
func (m *Manager) UnloadIndexer(id uuid.UUID) {
	m.mu.Lock()
	delete(m.backends, id)
	delete(m.limiters, id)
	delete(m.owners, id)
	m.mu.Unlock()

	m.rates.Reset(id)
	m.cache.Purge()
	m.logger.Debug().Str("indexerId", id.String()).Msg("Indexer unloaded")
}

// SetCacheTTL replaces the result cache with one using the given TTL.
// Non-positive values keep the default. Call before serving traffic.
func (m *Manager) SetCacheTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.cache = NewResultCache(ttl)
}

// RateLimits reports the current hourly query/grab budget usage for an
// indexer.
func (m *Manager) RateLimits(id uuid.UUID) *ratelimit.LimitStatus {
	return m.rates.GetLimits(id)
}

// Loaded returns a loaded backend by ID.
func (m *Manager) Loaded(id uuid.UUID) (Indexer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	backend, ok := m.backends[id]
	return backend, ok
}

// LoadedIDs returns the IDs of all loaded indexers.
func (m *Manager) LoadedIDs() []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(m.backends))
	for id := range m.backends {
		ids = append(ids, id)
	}
	return ids
}

// SearchAll fans a query out to every loaded indexer of a user that can
// handle it. One SearchResult comes back per dispatched indexer; a failing
// indexer yields a result carrying its error, never poisoning the others.
func (m *Manager) SearchAll(ctx context.Context, userID int64, q *torznab.Query) []SearchResult {
	m.mu.RLock()
	targets := make([]Indexer, 0, len(m.backends))
	for id, backend := range m.backends {
		if m.owners[id] != userID {
			continue
		}
		if !backend.CanHandleQuery(q) {
			continue
		}
		targets = append(targets, backend)
	}
	m.mu.RUnlock()

	return m.searchMany(ctx, targets, q)
}

// SearchIndexers fans a query out to an explicit set of indexers. IDs that
// are not loaded produce a result with a not-loaded error; loaded backends
// that cannot handle the query are filtered out before dispatch, as in
// SearchAll.
func (m *Manager) SearchIndexers(ctx context.Context, ids []uuid.UUID, q *torznab.Query) []SearchResult {
	targets := make([]Indexer, 0, len(ids))
	missing := make([]SearchResult, 0)

	m.mu.RLock()
	for _, id := range ids {
		backend, ok := m.backends[id]
		if !ok {
			missing = append(missing, SearchResult{IndexerID: id, Err: NewNotLoadedError(id)})
			continue
		}
		if !backend.CanHandleQuery(q) {
			continue
		}
		targets = append(targets, backend)
	}
	m.mu.RUnlock()

	results := m.searchMany(ctx, targets, q)
	return append(results, missing...)
}

// SearchSingle runs a query against one loaded indexer.
func (m *Manager) SearchSingle(ctx context.Context, id uuid.UUID, q *torznab.Query) SearchResult {
	backend, ok := m.Loaded(id)
	if !ok {
		return SearchResult{IndexerID: id, Err: NewNotLoadedError(id)}
	}
	return m.searchOne(ctx, backend, q)
}

// searchMany runs one goroutine per target indexer and collects exactly
// one result from each. A panicking backend is converted into an error
// result so the invariant of one result per indexer holds.
func (m *Manager) searchMany(ctx context.Context, targets []Indexer, q *torznab.Query) []SearchResult {
	if len(targets) == 0 {
		return nil
	}

	started := time.Now()
	m.publish(EventSearchStarted, SearchStartedPayload{
		Query: q.SearchTerm,
		Type:  string(q.Type),
	})

	resultCh := make(chan SearchResult, len(targets))
	var wg sync.WaitGroup

	for _, backend := range targets {
		wg.Add(1)
		go func(ix Indexer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error().
						Str("indexer", ix.Name()).
						Interface("panic", r).
						Msg("Indexer search panicked")
					resultCh <- SearchResult{
						IndexerID:   ix.ID(),
						IndexerName: ix.Name(),
						Err:         NewPanicError(ix.ID(), ix.Name(), r),
					}
				}
			}()
			resultCh <- m.searchOne(ctx, ix, q)
		}(backend)
	}

	wg.Wait()
	close(resultCh)

	results := make([]SearchResult, 0, len(targets))
	total := 0
	used := 0
	var errs []string
	for result := range resultCh {
		if result.Err != nil {
			errs = append(errs, result.Err.Error())
		} else {
			used++
			total += len(result.Releases)
		}
		results = append(results, result)
	}

	m.publish(EventSearchCompleted, SearchCompletedPayload{
		Query:        q.SearchTerm,
		Type:         string(q.Type),
		TotalResults: total,
		IndexersUsed: used,
		Errors:       errs,
		ElapsedMs:    time.Since(started).Milliseconds(),
	})
	return results
}

// searchOne runs a query against one backend, going through the cache,
// the hourly rate budget, and the per-indexer concurrency limiter.
func (m *Manager) searchOne(ctx context.Context, ix Indexer, q *torznab.Query) SearchResult {
	result := SearchResult{IndexerID: ix.ID(), IndexerName: ix.Name()}
	started := time.Now()

	if !ix.CanHandleQuery(q) {
		result.Err = NewUnsupportedQueryError(ix.ID(), ix.Name())
		return result
	}

	if q.Cache {
		if releases, ok := m.cache.Get(ix.ID(), q); ok {
			result.Releases = releases
			result.FromCache = true
			result.Elapsed = time.Since(started)
			return result
		}
	}

	if m.rates.CheckQueryLimit(ix.ID()) {
		result.Err = NewRateLimitError(ix.ID(), ix.Name())
		return result
	}

	limiter := m.limiterFor(ix.ID())
	if err := limiter.acquire(ctx); err != nil {
		result.Err = fmt.Errorf("search cancelled waiting for slot: %w", err)
		return result
	}
	defer limiter.release()

	releases, err := ix.Search(ctx, q)
	result.Elapsed = time.Since(started)
	m.rates.RecordQuery(ix.ID())

	if err != nil {
		m.logger.Warn().
			Err(err).
			Str("indexer", ix.Name()).
			Dur("elapsed", result.Elapsed).
			Msg("Indexer search failed")
		m.recordError(ix.ID(), ix.Name(), err)
		result.Err = NewSearchError(ix.ID(), ix.Name(), err)
		return result
	}

	for i := range releases {
		releases[i].IndexerID = ix.ID()
		releases[i].IndexerName = ix.Name()
	}

	if q.Cache {
		m.cache.Set(ix.ID(), q, releases)
	}
	m.recordSuccess(ix.ID(), ix.Name())

	m.logger.Debug().
		Str("indexer", ix.Name()).
		Int("results", len(releases)).
		Dur("elapsed", result.Elapsed).
		Msg("Indexer search completed")

	result.Releases = releases
	return result
}

// DownloadRelease fetches the torrent file behind a result link from a
// loaded indexer. No network call is made for an unloaded indexer.
func (m *Manager) DownloadRelease(ctx context.Context, id uuid.UUID, link string) ([]byte, error) {
	backend, ok := m.Loaded(id)
	if !ok {
		return nil, NewNotLoadedError(id)
	}

	if m.rates.CheckGrabLimit(id) {
		return nil, NewRateLimitError(id, backend.Name())
	}

	m.publish(EventGrabStarted, GrabStartedPayload{IndexerID: id, Link: link})

	data, err := backend.Download(ctx, link)
	m.rates.RecordGrab(id)
	if err != nil {
		m.recordError(id, backend.Name(), err)
		m.publish(EventGrabCompleted, GrabCompletedPayload{IndexerID: id, Error: err.Error()})
		return nil, NewDownloadError(id, backend.Name(), err)
	}

	m.recordSuccess(id, backend.Name())
	m.publish(EventGrabCompleted, GrabCompletedPayload{IndexerID: id, Success: true, Size: len(data)})
	return data, nil
}

// TestIndexer verifies connectivity for a loaded indexer and records the
// outcome.
func (m *Manager) TestIndexer(ctx context.Context, id uuid.UUID) error {
	backend, ok := m.Loaded(id)
	if !ok {
		return NewNotLoadedError(id)
	}

	if err := backend.Test(ctx); err != nil {
		m.recordError(id, backend.Name(), err)
		return err
	}
	m.recordSuccess(id, backend.Name())
	return nil
}

// userSecrets builds a credential decryptor from the user's stored key.
// A user without a key gets a nil store; values then pass through as-is.
func (m *Manager) userSecrets(ctx context.Context, userID int64) (*crypto.SecretStore, error) {
	key, err := m.store.EncryptionKey(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key for user %d: %w", userID, err)
	}
	if key == "" {
		return nil, nil
	}

	secrets, err := crypto.NewFromBase64Key(key)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key for user %d: %w", userID, err)
	}
	return secrets, nil
}

// decryptCredentials decrypts a config's credential values in place.
// Values that fail to decrypt are dropped rather than passed through
// corrupted; the backend then reports itself unconfigured.
func (m *Manager) decryptCredentials(cfg *Config, secrets *crypto.SecretStore) {
	if secrets == nil || len(cfg.Credentials) == 0 {
		return
	}

	for name, value := range cfg.Credentials {
		plain, err := secrets.Decrypt(value)
		if err != nil {
			m.logger.Warn().
				Str("indexerId", cfg.ID.String()).
				Str("credential", name).
				Msg("Failed to decrypt credential, dropping it")
			delete(cfg.Credentials, name)
			continue
		}
		cfg.Credentials[name] = plain
	}
}

func (m *Manager) limiterFor(id uuid.UUID) *concurrencyLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, ok := m.limiters[id]
	if !ok {
		limiter = newConcurrencyLimiter()
		m.limiters[id] = limiter
	}
	return limiter
}

func (m *Manager) recordSuccess(id uuid.UUID, name string) {
	if err := m.store.RecordSuccess(context.Background(), id); err != nil {
		m.logger.Warn().Err(err).Str("indexerId", id.String()).Msg("Failed to record success")
	}
	m.publish(EventIndexerStatus, IndexerStatusPayload{
		IndexerID:   id,
		IndexerName: name,
		Status:      "healthy",
	})
}

func (m *Manager) recordError(id uuid.UUID, name string, cause error) {
	if err := m.store.RecordError(context.Background(), id, cause.Error()); err != nil {
		m.logger.Warn().Err(err).Str("indexerId", id.String()).Msg("Failed to record error")
	}
	m.publish(EventIndexerStatus, IndexerStatusPayload{
		IndexerID:   id,
		IndexerName: name,
		Status:      "warning",
		Message:     cause.Error(),
	})
}

func (m *Manager) publish(event string, payload any) {
	if m.events == nil {
		return
	}
	m.events.Publish(event, payload)
}
