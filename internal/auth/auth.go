package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"interventoria/models"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const claimsKey ctxKey = "claims"

var ErrInvalidToken = errors.New("invalid token")

// Claims — пользователь из токена внешнего бэкенда
type Claims struct {
	UserID string
	Role   models.Role
}

// tokenClaims — полезная нагрузка JWT; роль хранится в app_metadata
type tokenClaims struct {
	jwt.RegisteredClaims
	AppMetadata struct {
		Role models.Role `json:"role"`
	} `json:"app_metadata"`
}

// ParseToken проверяет подпись HS256 и срок действия, возвращает Claims
func ParseToken(secret, raw string) (Claims, error) {
	var tc tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &tc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	if tc.Subject == "" {
		return Claims{}, errors.New("no subject")
	}
	return Claims{UserID: tc.Subject, Role: tc.AppMetadata.Role}, nil
}

// Middleware извлекает и проверяет Bearer токен, кладет Claims в контекст
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := ParseToken(secret, strings.TrimPrefix(authz, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// FromContext возвращает Claims; ok == false, если запрос не прошел Middleware
func FromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}
