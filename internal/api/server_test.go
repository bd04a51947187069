package api

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/spindrift-media/spindrift/internal/config"
	"github.com/spindrift-media/spindrift/internal/database"
	"github.com/spindrift-media/spindrift/internal/indexer"
	"github.com/spindrift-media/spindrift/internal/indexer/definition"
	"github.com/spindrift-media/spindrift/internal/indexer/store"
	"github.com/spindrift-media/spindrift/internal/torznab"
	"github.com/spindrift-media/spindrift/internal/websocket"
)

type fakeIndexer struct {
	id          uuid.UUID
	name        string
	searchFn    func(ctx context.Context, q *torznab.Query) ([]torznab.ReleaseInfo, error)
	downloadFn  func(ctx context.Context, link string) ([]byte, error)
	testErr     error
	searchCalls atomic.Int64
}

func (f *fakeIndexer) ID() uuid.UUID                        { return f.id }
func (f *fakeIndexer) Name() string                         { return f.name }
func (f *fakeIndexer) Description() string                  { return "fake" }
func (f *fakeIndexer) SiteLink() string                     { return "https://example.com" }
func (f *fakeIndexer) Language() string                     { return "en-US" }
func (f *fakeIndexer) TrackerType() indexer.TrackerType     { return indexer.TrackerPublic }
func (f *fakeIndexer) Capabilities() *torznab.Capabilities  { return torznab.DefaultCapabilities() }
func (f *fakeIndexer) IsConfigured() bool                   { return true }
func (f *fakeIndexer) CanHandleQuery(q *torznab.Query) bool { return true }
func (f *fakeIndexer) SupportsPagination() bool             { return false }
func (f *fakeIndexer) Test(ctx context.Context) error       { return f.testErr }

func (f *fakeIndexer) Search(ctx context.Context, q *torznab.Query) ([]torznab.ReleaseInfo, error) {
	f.searchCalls.Add(1)
	if f.searchFn != nil {
		return f.searchFn(ctx, q)
	}
	return []torznab.ReleaseInfo{
		torznab.NewReleaseInfo(f.name+".Release.1080p", f.name+"-guid-1", time.Now()),
	}, nil
}

func (f *fakeIndexer) Download(ctx context.Context, link string) ([]byte, error) {
	if f.downloadFn != nil {
		return f.downloadFn(ctx, link)
	}
	return []byte("torrent-bytes"), nil
}

// fakeFactory builds pre-registered fakes by config ID.
type fakeFactory struct {
	backends map[uuid.UUID]indexer.Indexer
}

func (f *fakeFactory) Build(cfg indexer.Config) (indexer.Indexer, error) {
	backend, ok := f.backends[cfg.ID]
	if !ok {
		return nil, indexer.NewConfigError(cfg.ID, cfg.Name, "no backend registered")
	}
	return backend, nil
}

type testEnv struct {
	server  *Server
	store   *store.Store
	manager *indexer.Manager
	factory *fakeFactory
	userID  int64
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	st := store.New(db.Conn(), zerolog.Nop())
	userID, err := st.CreateUser(context.Background(), "alice")
	require.NoError(t, err)

	factory := &fakeFactory{backends: make(map[uuid.UUID]indexer.Indexer)}
	hub := websocket.NewHub(zerolog.Nop())
	manager := indexer.NewManager(st, factory, hub, zerolog.Nop())
	defs := definition.NewRepository(t.TempDir(), zerolog.Nop())

	server := NewServer(Deps{
		Config:  &config.Config{},
		Store:   st,
		Manager: manager,
		Factory: factory,
		Defs:    defs,
		Hub:     hub,
		UserID:  userID,
	}, zerolog.Nop())

	return &testEnv{
		server:  server,
		store:   st,
		manager: manager,
		factory: factory,
		userID:  userID,
	}
}

// addIndexer stores an enabled config and registers a fake backend for it.
func (e *testEnv) addIndexer(t *testing.T, name string) (uuid.UUID, *fakeIndexer) {
	t.Helper()

	cfg := indexer.Config{
		ID:      uuid.New(),
		UserID:  e.userID,
		Type:    indexer.TypeNewznab,
		Name:    name,
		Enabled: true,
		BaseURL: "https://upstream.example",
	}
	require.NoError(t, e.store.Create(context.Background(), cfg))

	fake := &fakeIndexer{id: cfg.ID, name: name}
	e.factory.backends[cfg.ID] = fake
	return cfg.ID, fake
}

func (e *testEnv) request(method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.server.echo.ServeHTTP(rec, req)
	return rec
}
