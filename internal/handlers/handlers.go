package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"interventoria/internal/auth"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// maxBodyBytes ограничивает размер тела запроса
const maxBodyBytes = 1 << 20

// Handler оборачивает хранилище и сервис отчетов
type Handler struct {
	Store   StorageInterface
	Reports ReportService
	Can     auth.PermissionFunc
	Log     *zap.Logger
}

// NewHandler создает новый Handler
func NewHandler(store StorageInterface, reports ReportService, can auth.PermissionFunc, logger *zap.Logger) *Handler {
	if can == nil {
		can = auth.DefaultPermissions
	}
	return &Handler{Store: store, Reports: reports, Can: can, Log: logger}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// authorize проверяет, что пользователь из токена имеет право perm
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, perm auth.Permission) (auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return claims, false
	}
	if !h.Can(claims.Role, perm) {
		h.Log.Warn("permission denied",
			zap.String("user_id", claims.UserID),
			zap.String("role", string(claims.Role)),
			zap.String("permission", string(perm)),
		)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return claims, false
	}
	return claims, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RequestLogger пишет в zap по строке на каждый запрос
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
