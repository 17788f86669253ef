package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/port"
)

var _ port.SessionManager = (*CookieSessionManager)(nil)

const CookieName = "admin_session"

type SessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// CookieSessionManager issues HS512-signed session cookies. Logged-out
// session ids are kept in an in-process cache until their token expires.
type CookieSessionManager struct {
	admins        port.AdminRepository
	key           []byte
	ttl           time.Duration
	secureCookie  bool
	signingMethod jwt.SigningMethod
	revoked       *cache.Cache
	now           func() time.Time
}

func NewCookieSessionManager(admins port.AdminRepository, secret string, ttl time.Duration, secureCookie bool) *CookieSessionManager {
	return &CookieSessionManager{
		admins:        admins,
		key:           []byte(secret),
		ttl:           ttl,
		secureCookie:  secureCookie,
		signingMethod: jwt.SigningMethodHS512,
		revoked:       cache.New(ttl, 10*time.Minute),
		now:           time.Now,
	}
}

// Authenticate verifies the session cookie and requires the admin role.
func (m *CookieSessionManager) Authenticate(r *http.Request) (domain.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return domain.Session{}, fmt.Errorf("%w: missing session cookie", domain.ErrUnauthorized)
	}

	session, err := m.Parse(cookie.Value)
	if err != nil {
		return domain.Session{}, err
	}
	if session.Role != domain.RoleAdmin {
		return domain.Session{}, fmt.Errorf("%w: role %q may not manage media", domain.ErrForbidden, session.Role)
	}
	return session, nil
}

func (m *CookieSessionManager) Parse(token string) (domain.Session, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{m.signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.ID == "" {
		return domain.Session{}, fmt.Errorf("%w: token has no session id", domain.ErrUnauthorized)
	}
	if _, found := m.revoked.Get(revokedKey(claims.ID)); found {
		return domain.Session{}, fmt.Errorf("%w: session has been logged out", domain.ErrUnauthorized)
	}

	return domain.Session{
		ID:        claims.ID,
		Username:  claims.Username,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Login checks credentials and sets the session cookie.
func (m *CookieSessionManager) Login(ctx context.Context, w http.ResponseWriter, username, password string) (domain.Session, error) {
	role, err := m.admins.VerifyCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
		return domain.Session{}, err
	}

	session, token, err := m.Issue(username, role)
	if err != nil {
		return domain.Session{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

// Issue signs a new session token.
func (m *CookieSessionManager) Issue(username, role string) (domain.Session, string, error) {
	now := m.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		Username:  username,
		Role:      role,
		ExpiresAt: now.Add(m.ttl),
	}
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		Username: username,
		Role:     role,
	}
	token, err := jwt.NewWithClaims(m.signingMethod, claims).SignedString(m.key)
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("failed to sign session: %w", err)
	}
	return session, token, nil
}

// Logout revokes the session id and clears the cookie.
func (m *CookieSessionManager) Logout(w http.ResponseWriter, session domain.Session) {
	if session.ID != "" {
		m.revoked.Set(revokedKey(session.ID), struct{}{}, time.Until(session.ExpiresAt)+time.Minute)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func revokedKey(ssid string) string {
	return fmt.Sprintf("sessions:revoked:%s", ssid)
}
