package testutils

import (
	"context"
	"net/http"

	"interventoria/internal/auth"
	"interventoria/models"

	"github.com/go-chi/chi/v5"
)

// WithChiURLParams подставляет параметры пути в контекст chi запроса для тестов.
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for k, v := range params {
		chiCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

// AsUser кладет в контекст запроса пользователя, как это делает auth.Middleware.
func AsUser(req *http.Request, userID string, role models.Role) *http.Request {
	return req.WithContext(auth.WithClaims(req.Context(), auth.Claims{UserID: userID, Role: role}))
}
