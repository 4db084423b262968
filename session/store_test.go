// session/store_test.go
package session_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvmsuite/console/apiclient"
	"github.com/tvmsuite/console/httpclient"
	logger "github.com/tvmsuite/console/logging"
	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/session"
	"github.com/tvmsuite/console/testserver"
)

func newStore(t *testing.T, baseURL string) (*session.Store, *session.TokenStore) {
	t.Helper()
	tokens := session.NewTokenStore(filepath.Join(t.TempDir(), "token"))
	store := session.NewStore(tokens)
	client := httpclient.New(baseURL, 5*time.Second, store, store.Invalidate)
	store.AttachAPI(apiclient.NewAuthClient(client))
	return store, tokens
}

func TestLoginPersistsSession(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	store, tokens := newStore(t, ts.URL())

	var observed []*model.Session
	store.Subscribe(func(s *model.Session) { observed = append(observed, s) })

	result := store.Login(context.Background(), "admin@tvms.local", "admin123")
	require.True(t, result.OK)

	current := store.Current()
	require.NotNil(t, current)
	assert.Equal(t, "u1", current.UserID)
	assert.Equal(t, model.RoleAdmin, current.Role)
	assert.Equal(t, testserver.ValidToken, current.Token)

	// The token survives a restart through the token file.
	assert.Equal(t, testserver.ValidToken, tokens.Load())

	require.Len(t, observed, 1)
	assert.NotNil(t, observed[0])
}

func TestLoginFailureIsAResultNotAnError(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	store, tokens := newStore(t, ts.URL())

	result := store.Login(context.Background(), "admin@tvms.local", "wrong")
	assert.False(t, result.OK)
	assert.Equal(t, "invalid email or password", result.Message)
	assert.Nil(t, store.Current())
	assert.Empty(t, tokens.Load())
}

func TestCheckAuthRestoresSessionFromToken(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	store, tokens := newStore(t, ts.URL())
	require.NoError(t, tokens.Save(testserver.ValidToken))

	assert.True(t, store.CheckAuth(context.Background()))
	current := store.Current()
	require.NotNil(t, current)
	assert.Equal(t, "System Admin", current.DisplayName)
}

func TestCheckAuthWithoutTokenFails(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	store, _ := newStore(t, ts.URL())

	assert.False(t, store.CheckAuth(context.Background()))
	assert.Nil(t, store.Current())
}

func TestCheckAuthClearsRejectedToken(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	ts.RejectAuth = true

	store, tokens := newStore(t, ts.URL())
	require.NoError(t, tokens.Save(testserver.ValidToken))

	assert.False(t, store.CheckAuth(context.Background()))
	assert.Nil(t, store.Current())
	assert.Empty(t, tokens.Load())
}

func TestCheckAuthSkipsRoundTripForExpiredJWT(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	store, tokens := newStore(t, ts.URL())

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	require.NoError(t, tokens.Save(signed))

	assert.False(t, store.CheckAuth(context.Background()))
	assert.Empty(t, tokens.Load())
	assert.Zero(t, ts.RequestCount("GET /auth/me"))
}

func TestLogoutClearsStateEvenWhenServerUnreachable(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	store, tokens := newStore(t, ts.URL())
	result := store.Login(context.Background(), "admin@tvms.local", "admin123")
	require.True(t, result.OK)
	ts.Close()

	store.Logout(context.Background())
	assert.Nil(t, store.Current())
	assert.Empty(t, tokens.Load())
}

func TestChangePassword(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	ts := testserver.New()
	defer ts.Close()
	store, _ := newStore(t, ts.URL())
	require.True(t, store.Login(context.Background(), "admin@tvms.local", "admin123").OK)

	result := store.ChangePassword(context.Background(), "wrong", "newpassword1")
	assert.False(t, result.OK)
	assert.Equal(t, "current password is incorrect", result.Message)

	result = store.ChangePassword(context.Background(), "admin123", "short")
	assert.False(t, result.OK)
	assert.Equal(t, "password must be at least 8 characters", result.Message)

	result = store.ChangePassword(context.Background(), "admin123", "newpassword1")
	assert.True(t, result.OK)
}
