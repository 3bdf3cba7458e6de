package vault

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/glueauth/internal/client/client"
	"github.com/dmitrijs2005/glueauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIterations = 1000

func newVault(t *testing.T) *Vault {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, testIterations)
}

func TestDeviceID_CreatedOnceAndStable(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()

	a, err := v.DeviceID(ctx)
	require.NoError(t, err)
	require.Len(t, a, 36)

	b, err := v.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSecureRetrieve_RoundTrip(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	secret := []byte("0123456789abcdef0123456789abcdef")

	require.NoError(t, v.Secure(ctx, "fp", "base", secret))

	ok, err := v.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := v.Retrieve(ctx, "fp", "base")
	require.NoError(t, err)
	assert.Equal(t, secret, got)
}

func TestSecure_DoesNotStorePlaintext(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	secret := []byte("0123456789abcdef0123456789abcdef")

	require.NoError(t, v.Secure(ctx, "fp", "base", secret))

	all, err := metadata.NewSQLiteRepository(v.db).List(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, secret, all[keyPrivateKey])
	assert.Len(t, all[keySalt], 32)
	assert.Len(t, all[keyNonce], 12)
}

func TestRetrieve_WrongInputsFailAuthentication(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()
	require.NoError(t, v.Secure(ctx, "fp", "base", []byte("secret")))

	_, err := v.Retrieve(ctx, "other-fp", "base")
	assert.ErrorIs(t, err, common.ErrAuthentication)

	_, err = v.Retrieve(ctx, "fp", "other-base")
	assert.ErrorIs(t, err, common.ErrAuthentication)
}

func TestRetrieve_Empty(t *testing.T) {
	v := newVault(t)

	_, err := v.Retrieve(context.Background(), "fp", "base")
	assert.ErrorIs(t, err, ErrLocalDataNotAvailable)

	ok, err := v.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClear_KeepsDeviceID(t *testing.T) {
	v := newVault(t)
	ctx := context.Background()

	id, err := v.DeviceID(ctx)
	require.NoError(t, err)
	require.NoError(t, v.Secure(ctx, "fp", "base", []byte("secret")))
	require.NoError(t, v.Clear(ctx))

	ok, err := v.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := v.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestNew_DefaultIterations(t *testing.T) {
	v := New(nil, 0)
	assert.Equal(t, 1<<19, v.iterations)
}
