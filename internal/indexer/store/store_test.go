package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spindrift-media/spindrift/internal/database"
	"github.com/spindrift-media/spindrift/internal/indexer"
)

func newTestStore(t *testing.T) (*Store, int64) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	store := New(db.Conn(), zerolog.Nop())
	userID, err := store.CreateUser(context.Background(), "alice")
	require.NoError(t, err)
	return store, userID
}

func sampleConfig(userID int64) indexer.Config {
	return indexer.Config{
		ID:           uuid.New(),
		UserID:       userID,
		Type:         indexer.TypeNewznab,
		Name:         "Upstream",
		Enabled:      true,
		BaseURL:      "https://upstream.example",
		Priority:     10,
		Settings:     map[string]string{"language": "en-US"},
		Credentials:  map[string]string{"apikey": "enc:v1:abcdef"},
		DefinitionID: "",
	}
}

func TestCreateAndGet(t *testing.T) {
	store, userID := newTestStore(t)
	ctx := context.Background()

	cfg := sampleConfig(userID)
	require.NoError(t, store.Create(ctx, cfg))

	got, err := store.Get(ctx, cfg.ID)
	require.NoError(t, err)

	assert.Equal(t, cfg.ID, got.ID)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "Upstream", got.Name)
	assert.True(t, got.Enabled)
	assert.Equal(t, map[string]string{"language": "en-US"}, got.Settings)
	assert.Equal(t, map[string]string{"apikey": "enc:v1:abcdef"}, got.Credentials)
}

func TestGetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEnabledFiltersDisabled(t *testing.T) {
	store, userID := newTestStore(t)
	ctx := context.Background()

	enabled := sampleConfig(userID)
	disabled := sampleConfig(userID)
	disabled.Name = "Disabled"
	disabled.Enabled = false

	require.NoError(t, store.Create(ctx, enabled))
	require.NoError(t, store.Create(ctx, disabled))

	all, err := store.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := store.ListEnabled(ctx, userID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, enabled.ID, active[0].ID)
}

func TestUpdate(t *testing.T) {
	store, userID := newTestStore(t)
	ctx := context.Background()

	cfg := sampleConfig(userID)
	require.NoError(t, store.Create(ctx, cfg))

	cfg.Name = "Renamed"
	cfg.Settings = map[string]string{"language": "de-DE"}
	cfg.Credentials = map[string]string{"apikey": "enc:v1:zzz"}
	require.NoError(t, store.Update(ctx, cfg))

	got, err := store.Get(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "de-DE", got.Settings["language"])
	assert.Equal(t, "enc:v1:zzz", got.Credentials["apikey"])

	missing := sampleConfig(userID)
	assert.ErrorIs(t, store.Update(ctx, missing), ErrNotFound)
}

func TestDeleteCascades(t *testing.T) {
	store, userID := newTestStore(t)
	ctx := context.Background()

	cfg := sampleConfig(userID)
	require.NoError(t, store.Create(ctx, cfg))
	require.NoError(t, store.RecordError(ctx, cfg.ID, "boom"))

	require.NoError(t, store.Delete(ctx, cfg.ID))
	_, err := store.Get(ctx, cfg.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	status, err := store.GetStatus(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Empty(t, status.LastError)

	assert.ErrorIs(t, store.Delete(ctx, cfg.ID), ErrNotFound)
}

func TestSetEnabled(t *testing.T) {
	store, userID := newTestStore(t)
	ctx := context.Background()

	cfg := sampleConfig(userID)
	require.NoError(t, store.Create(ctx, cfg))
	require.NoError(t, store.SetEnabled(ctx, cfg.ID, false))

	active, err := store.ListEnabled(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestEncryptionKey(t *testing.T) {
	store, userID := newTestStore(t)
	ctx := context.Background()

	key, err := store.EncryptionKey(ctx, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, key, "users get a key at creation")

	_, err = store.EncryptionKey(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordSuccessClearsError(t *testing.T) {
	store, userID := newTestStore(t)
	ctx := context.Background()

	cfg := sampleConfig(userID)
	require.NoError(t, store.Create(ctx, cfg))

	require.NoError(t, store.RecordError(ctx, cfg.ID, "connection refused"))
	status, err := store.GetStatus(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "connection refused", status.LastError)
	assert.NotNil(t, status.LastErrorAt)

	require.NoError(t, store.RecordSuccess(ctx, cfg.ID))
	status, err = store.GetStatus(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Empty(t, status.LastError)
	assert.Nil(t, status.LastErrorAt)
	assert.NotNil(t, status.LastSuccessAt)
}
