package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/worldcup/models"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const userContextKey contextKey = "user"

var ErrMissingToken = errors.New("missing bearer token")

// JWTAuth issues and verifies HS256 bearer tokens.
type JWTAuth struct {
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewJWTAuth(secret string, ttl time.Duration, logger *slog.Logger) *JWTAuth {
	if logger == nil {
		logger = slog.Default()
	}
	return &JWTAuth{secret: []byte(secret), ttl: ttl, logger: logger, now: time.Now}
}

func (a *JWTAuth) Issue(user *models.User) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		jwtClaimUserID: user.ID,
		"name":         user.Nickname,
		"exp":          now.Add(a.ttl).Unix(),
		"iat":          now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (a *JWTAuth) parse(r *http.Request) (jwt.MapClaims, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(strings.TrimSpace(raw), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Authenticate rejects requests without a valid bearer token.
func (a *JWTAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.parse(r)
		if err != nil {
			a.logger.Debug("authentication failed", slog.String("path", r.URL.Path), slog.Any("error", err))
			a.unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// OptionalAuth attaches the caller's claims when a valid token is present and
// lets anonymous requests through otherwise.
func (a *JWTAuth) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.parse(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// unauthorized writes the same {"error": ...} envelope the handlers use.
func (a *JWTAuth) unauthorized(w http.ResponseWriter, r *http.Request) {
	js, err := json.Marshal(map[string]string{"error": "authentication required"})
	if err != nil {
		a.logger.ErrorContext(r.Context(), "failed to encode unauthorized response", slog.Any("error", err))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	js = append(js, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if _, err := w.Write(js); err != nil {
		a.logger.WarnContext(r.Context(), "failed to write unauthorized response", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}
