package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailstone/osgraph/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store := newTestStore(t)
	assert.NotEmpty(t, store.Path())
}

func TestCredentialStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	creds := store.CredentialStore()
	ctx := context.Background()

	err := creds.Save(ctx, "grid", &domain.SessionCredential{
		AccessToken:  "tok-1",
		RefreshToken: "ref-1",
		Expiry:       time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	})
	require.NoError(t, err)

	cred, err := creds.Load(ctx, "grid")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "tok-1", cred.AccessToken)
	assert.Equal(t, "ref-1", cred.RefreshToken)
}

func TestCredentialStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	cred, err := store.CredentialStore().Load(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestCredentialStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	creds := store.CredentialStore()
	ctx := context.Background()

	require.NoError(t, creds.Save(ctx, "grid", &domain.SessionCredential{AccessToken: "old"}))
	require.NoError(t, creds.Save(ctx, "grid", &domain.SessionCredential{AccessToken: "new"}))

	cred, err := creds.Load(ctx, "grid")
	require.NoError(t, err)
	assert.Equal(t, "new", cred.AccessToken)
}

func TestCredentialStore_CorruptPayloadIsNil(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO credentials (source, payload, updated_at)
		VALUES ('grid', 'not json', ?)
	`, time.Now().UTC())
	require.NoError(t, err)

	cred, err := store.CredentialStore().Load(ctx, "grid")
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.CredentialStore().Save(context.Background(), "grid",
		&domain.SessionCredential{AccessToken: "tok"}))
	require.NoError(t, first.Close())

	// Reopening runs migrate again and must keep existing rows.
	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	cred, err := second.CredentialStore().Load(context.Background(), "grid")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "tok", cred.AccessToken)
}
