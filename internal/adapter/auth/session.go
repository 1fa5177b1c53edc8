// Package auth implements the session capability over HMAC-signed JWT
// bearer tokens carrying a user_id claim.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/carhive/marketplace/internal/listing/domain"
)

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// WithSession attaches a request-scoped session to the context. The HTTP
// middleware uses it so CurrentSession resolves per request instead of
// from the process-wide session.
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, session)
}

func FromContext(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(ctxKey{}).(*domain.Session)
	return session, ok
}

// SessionManager holds the current session and fans out every change to
// its subscribers.
type SessionManager struct {
	secret []byte
	logger *zap.Logger

	mu      sync.Mutex
	current *domain.Session
	subs    map[int]func(*domain.Session)
	nextSub int
}

func NewSessionManager(secret string, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		logger: logger,
		subs:   make(map[int]func(*domain.Session)),
	}
}

// Parse validates a bearer token and returns the session it describes.
func (m *SessionManager) Parse(tokenString string) (*domain.Session, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: token is empty", domain.ErrUnauthenticated)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token has expired", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token is not valid", domain.ErrUnauthenticated)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: user_id claim is missing", domain.ErrUnauthenticated)
	}
	return &domain.Session{UserID: claims.UserID, Email: claims.Email}, nil
}

// SignIn installs the session described by the token and notifies
// subscribers.
func (m *SessionManager) SignIn(tokenString string) (*domain.Session, error) {
	session, err := m.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	m.setSession(session)
	m.logger.Info("session established", zap.String("user_id", session.UserID))
	return session, nil
}

// CurrentSession returns the request-scoped session when the context
// carries one, otherwise the process-wide session. Nil means signed out.
func (m *SessionManager) CurrentSession(ctx context.Context) (*domain.Session, error) {
	if session, ok := FromContext(ctx); ok {
		return session, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

// OnSessionChange registers a callback invoked with the new session (nil
// on sign-out) on every change. The returned handle unsubscribes it.
func (m *SessionManager) OnSessionChange(fn func(*domain.Session)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *SessionManager) SignOut(ctx context.Context) error {
	m.setSession(nil)
	m.logger.Info("signed out")
	return nil
}

func (m *SessionManager) setSession(session *domain.Session) {
	m.mu.Lock()
	m.current = session
	subs := make([]func(*domain.Session), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
}
