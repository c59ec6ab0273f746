package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jaam8/voting_booth/internal/models"
	"go.uber.org/zap"
)

const tokenIssuer = "voting_booth"

type userKey struct{}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey{}).(*models.User)
	return user, ok && user != nil
}

// IssueAdminToken signs a bearer token for an admin user.
func IssueAdminToken(secret []byte, subject string, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("api: empty jwt secret")
	}
	if subject == "" {
		return "", errors.New("api: empty token subject")
	}
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Authenticator attaches the user named by a valid bearer token to the
// request context. Requests without a valid token pass through anonymously;
// handlers decide whether that is acceptable.
type Authenticator struct {
	secret []byte
	l      *zap.Logger
}

func NewAuthenticator(secret []byte, l *zap.Logger) *Authenticator {
	return &Authenticator{secret: secret, l: l}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := a.parse(raw)
		if err != nil {
			a.l.Debug("rejected bearer token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (a *Authenticator) parse(raw string) (*models.User, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.Issuer != tokenIssuer || claims.Subject == "" {
		return nil, models.ErrUnauthorized
	}
	return &models.User{ID: claims.Subject}, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
