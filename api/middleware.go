package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fixitnow/fixitnow-api/config"
	"github.com/fixitnow/fixitnow-api/models"
)

// tokenCacheTTL bounds how long a verified token is served from the
// go-guardian cache before its signature and expiry are checked again.
const tokenCacheTTL = 5 * time.Minute

type principalKey struct{}

// Principal is the authenticated caller of a request
type Principal struct {
	ID   primitive.ObjectID
	Name string
	Role models.Role
}

// IsAdmin reports whether the caller holds the admin role
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Claims are the fields carried in a FixItNow bearer token
type Claims struct {
	Name string      `json:"name"`
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies bearer tokens
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	guard  auth.Authenticator

	// Now is used for token timestamps, overridable in tests
	Now func() time.Time
}

// NewAuthenticator sets up go-guardian with a cached bearer strategy that
// verifies HS256 tokens signed with secret.
func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	a := &Authenticator{
		secret: []byte(secret),
		ttl:    ttl,
		Now:    time.Now,
	}
	cache := store.NewFIFO(context.Background(), tokenCacheTTL)
	a.guard = auth.New()
	a.guard.EnableStrategy(bearer.CachedStrategyKey, bearer.New(a.verify, cache))
	return a
}

// IssueToken signs a token for the given user
func (a *Authenticator) IssueToken(u models.User) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	now := a.Now()
	claims := Claims{
		Name: u.Name,
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken verifies a signed token and returns its claims
func (a *Authenticator) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.Now))
	if err != nil {
		return nil, err
	}
	if _, err := primitive.ObjectIDFromHex(claims.Subject); err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	return claims, nil
}

func (a *Authenticator) verify(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	claims, err := a.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(claims.Name, claims.Subject, []string{string(models.ParseRole(string(claims.Role)))}, nil), nil
}

// Middleware rejects requests without a valid bearer token and stores the
// caller on the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := a.guard.Authenticate(r)
		if err != nil {
			config.ErrorStatus("not authorized, token failed", http.StatusUnauthorized, w, err)
			return
		}
		id, err := primitive.ObjectIDFromHex(info.ID())
		if err != nil {
			config.ErrorStatus("not authorized, token failed", http.StatusUnauthorized, w, err)
			return
		}
		p := Principal{ID: id, Name: info.UserName(), Role: models.RoleCitizen}
		if groups := info.Groups(); len(groups) > 0 {
			p.Role = models.ParseRole(groups[0])
		}
		zap.S().Debugw("authenticated", "user", p.ID.Hex(), "role", p.Role, "request_id", RequestIDFrom(r.Context()))
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireAdmin only lets callers with the admin role through. It must run
// after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			config.ErrorStatus("not authorized, no token", http.StatusUnauthorized, w, nil)
			return
		}
		if !p.IsAdmin() {
			config.ErrorStatus("not authorized as an admin", http.StatusForbidden, w, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by Middleware
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
