package credentials

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/petdesk/internal/kv"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix(), "sub": "admin"})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestStore_SetGetClearPersists(t *testing.T) {
	backing := kv.NewMemoryStore()
	s, err := NewStore(backing)
	require.NoError(t, err)

	_, ok := s.Get()
	assert.False(t, ok)

	require.NoError(t, s.Set(Credential{AccessToken: "T1", RefreshToken: "R1"}))
	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, "T1", got.AccessToken)
	assert.Equal(t, "R1", got.RefreshToken)

	v, _ := backing.Get(AccessTokenKey)
	assert.Equal(t, "T1", v)
	v, _ = backing.Get(RefreshTokenKey)
	assert.Equal(t, "R1", v)

	require.NoError(t, s.Clear())
	_, ok = s.Get()
	assert.False(t, ok)
	v, _ = backing.Get(AccessTokenKey)
	assert.Empty(t, v)
	v, _ = backing.Get(RefreshTokenKey)
	assert.Empty(t, v)
}

func TestNewStore_RestoresPersistedPair(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	access := signedToken(t, exp)

	backing := kv.NewMemoryStore()
	require.NoError(t, backing.Set(AccessTokenKey, access))
	require.NoError(t, backing.Set(RefreshTokenKey, "R1"))

	s, err := NewStore(backing)
	require.NoError(t, err)
	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, access, got.AccessToken)
	assert.Equal(t, "R1", got.RefreshToken)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.ExpiresAt.Equal(exp))
}

func TestNewStore_RequiresBacking(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

type failingKV struct{ kv.Store }

func (failingKV) Set(string, string) error { return errors.New("disk full") }

func TestStore_SetKeepsMemoryWhenPersistenceFails(t *testing.T) {
	s, err := NewStore(failingKV{kv.NewMemoryStore()})
	require.NoError(t, err)

	err = s.Set(Credential{AccessToken: "T1", RefreshToken: "R1"})
	assert.Error(t, err)
	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, "T1", got.AccessToken)
}

func TestExpiryFromToken(t *testing.T) {
	assert.Nil(t, ExpiryFromToken(""))
	assert.Nil(t, ExpiryFromToken("opaque-token"))

	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	got := ExpiryFromToken(signedToken(t, exp))
	require.NotNil(t, got)
	assert.True(t, got.Equal(exp))
}
