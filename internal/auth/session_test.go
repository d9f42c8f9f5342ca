package auth

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	require.NoError(t, Init(time.Hour))
	id := uuid.New()

	token, err := CreateSessionToken(id)
	require.NoError(t, err)

	got, err := AuthenticateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestSessionTokenRejectsForeignKey(t *testing.T) {
	require.NoError(t, Init(0))
	token, err := CreateSessionToken(uuid.New())
	require.NoError(t, err)

	// Rotating keys invalidates tokens signed with the old pair.
	require.NoError(t, Init(0))
	_, err = AuthenticateSessionToken(token)
	assert.Error(t, err)

	_, err = AuthenticateSessionToken("not.a.token")
	assert.Error(t, err)
}

func TestSessionTokenExpires(t *testing.T) {
	require.NoError(t, Init(-time.Minute))
	token, err := CreateSessionToken(uuid.New())
	require.NoError(t, err)

	_, err = AuthenticateSessionToken(token)
	assert.Error(t, err)
}

func TestInitFromPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "key")
	pubPath := filepath.Join(dir, "key.pub")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o644))

	require.NoError(t, InitFromPath(privPath, pubPath, 0))
	id := uuid.New()
	token, err := CreateSessionToken(id)
	require.NoError(t, err)
	got, err := AuthenticateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	assert.Error(t, InitFromPath(filepath.Join(dir, "missing"), pubPath, 0))
}
