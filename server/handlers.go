package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"VizFM/config"
	"VizFM/core/auth"
	"VizFM/core/session"
	"VizFM/logger"
	"VizFM/repository"
)

type contextKey string

// userIDKey 认证中间件写入请求上下文的用户 ID 键
const userIDKey contextKey = "userID"

// APIHandler 汇集全部 HTTP 处理器的依赖
type APIHandler struct {
	cfg         *config.Config
	sessions    *session.Manager
	userRepo    repository.UserRepository
	presetRepo  repository.PresetRepository
	captureRepo repository.CaptureRepository
}

// NewAPIHandler 创建 API 处理器
func NewAPIHandler(cfg *config.Config, sessions *session.Manager,
	userRepo repository.UserRepository,
	presetRepo repository.PresetRepository,
	captureRepo repository.CaptureRepository) *APIHandler {
	return &APIHandler{
		cfg:         cfg,
		sessions:    sessions,
		userRepo:    userRepo,
		presetRepo:  presetRepo,
		captureRepo: captureRepo,
	}
}

// respondJSON 输出 JSON 响应
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("编码响应失败", logger.ErrorField(err))
		}
	}
}

// respondError 输出统一的错误响应
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// AuthMiddleware 校验 Bearer 令牌并把用户 ID 写入上下文
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := auth.ParseToken(h.cfg.JWTSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := withUserID(r.Context(), claims.UserID)
		next(w, r.WithContext(ctx))
	}
}

func withUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// userIDFromContext 读取认证中间件写入的用户 ID；未经认证返回 0
func userIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(userIDKey).(int64); ok {
		return id
	}
	return 0
}
