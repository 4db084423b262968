// session/store.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	consoleerrors "github.com/tvmsuite/console/errors"
	logger "github.com/tvmsuite/console/logging"
	"github.com/tvmsuite/console/model"
)

// AuthAPI is the slice of the auth facade the store depends on.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*model.AuthPayload, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*model.User, error)
	ChangePassword(ctx context.Context, current, newPassword string) error
}

// Result is the tagged outcome of an auth operation. Auth failures
// are data, not errors: nothing here throws past the store, and a
// failed login degrades to "no session".
type Result struct {
	OK      bool
	Message string
}

// Store owns the authenticated session. It implements
// httpclient.TokenSource, mirrors the token into the durable token
// file, and notifies subscribers on every state transition so views
// and the HTTP pipeline observe changes without ambient globals.
type Store struct {
	mu      sync.RWMutex
	current *model.Session
	tokens  *TokenStore
	api     AuthAPI
	subs    []func(*model.Session)
}

func NewStore(tokens *TokenStore) *Store {
	return &Store{tokens: tokens}
}

// AttachAPI wires the auth facade. The facade needs the store as its
// token source, so the two are connected after construction.
func (s *Store) AttachAPI(api AuthAPI) {
	s.api = api
}

// Token implements httpclient.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current != nil {
		return s.current.Token
	}
	return s.tokens.Load()
}

// Current returns the active session, or nil when signed out.
func (s *Store) Current() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers a callback invoked with the new session state
// (nil on sign-out) after every transition.
func (s *Store) Subscribe(fn func(*model.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Login authenticates against the backend and persists the token.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	payload, err := s.api.Login(ctx, email, password)
	if err != nil {
		return Result{OK: false, Message: loginFailureMessage(err)}
	}

	if err := s.tokens.Save(payload.Token); err != nil {
		// The session still works for this run; it just won't survive
		// a restart.
		logger.Warn("Failed to persist token", zap.Error(err))
	}

	s.set(&model.Session{
		UserID:      payload.User.ID,
		Role:        payload.User.Role,
		DisplayName: payload.User.DisplayName,
		Token:       payload.Token,
	})
	logger.Info("Logged in",
		zap.String("userID", payload.User.ID),
		zap.String("role", payload.User.Role))
	return Result{OK: true}
}

// Logout best-effort notifies the backend, then clears local state
// regardless of that call's outcome.
func (s *Store) Logout(ctx context.Context) {
	if s.api != nil {
		if err := s.api.Logout(ctx); err != nil {
			logger.Warn("Logout call failed, clearing session anyway", zap.Error(err))
		}
	}
	s.Invalidate()
}

// Invalidate drops the session and the stored token. Also called by
// the HTTP pipeline when any request answers 401.
func (s *Store) Invalidate() {
	if err := s.tokens.Clear(); err != nil {
		logger.Warn("Failed to clear token file", zap.Error(err))
	}
	s.set(nil)
}

// CheckAuth restores the session from the durable token at startup.
// Any failure, an expired token, an invalid token, or an unreachable
// backend, degrades to "no session" so the console falls back to the
// login prompt. It gates the initial console state.
func (s *Store) CheckAuth(ctx context.Context) bool {
	token := s.tokens.Load()
	if token == "" {
		return false
	}

	if expired, exp := tokenExpired(token, time.Now()); expired {
		logger.Info("Stored token is expired, skipping profile fetch", zap.Time("expiry", exp))
		s.Invalidate()
		return false
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		logger.Warn("Session restore failed", zap.Error(err))
		s.Invalidate()
		return false
	}

	s.set(&model.Session{
		UserID:      user.ID,
		Role:        user.Role,
		DisplayName: user.DisplayName,
		Token:       token,
	})
	logger.Info("Session restored", zap.String("userID", user.ID))
	return true
}

// ChangePassword delegates to the backend and reports a tagged result.
func (s *Store) ChangePassword(ctx context.Context, current, newPassword string) Result {
	if s.Current() == nil {
		return Result{OK: false, Message: "not signed in"}
	}
	if err := s.api.ChangePassword(ctx, current, newPassword); err != nil {
		if details := consoleerrors.ValidationDetails(err); len(details) > 0 {
			return Result{OK: false, Message: details[0].Msg}
		}
		if consoleerrors.IsNetworkError(err) {
			return Result{OK: false, Message: "could not reach the server, try again"}
		}
		return Result{OK: false, Message: "current password is incorrect"}
	}
	return Result{OK: true}
}

func (s *Store) set(next *model.Session) {
	s.mu.Lock()
	s.current = next
	subs := make([]func(*model.Session), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

func loginFailureMessage(err error) string {
	if consoleerrors.IsNetworkError(err) {
		return "could not reach the server, try again"
	}
	if consoleerrors.IsAuthError(err) {
		return "invalid email or password"
	}
	if details := consoleerrors.ValidationDetails(err); len(details) > 0 {
		return details[0].Msg
	}
	return "login failed"
}

// tokenExpired peeks at the JWT exp claim without verifying the
// signature; verification is the backend's job, this only avoids a
// doomed round trip for a token that is already stale.
func tokenExpired(token string, now time.Time) (bool, time.Time) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Opaque (non-JWT) tokens are allowed; let the backend decide.
		return false, time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, time.Time{}
	}
	return exp.Time.Before(now), exp.Time
}
