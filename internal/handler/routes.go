package handler

import (
	"net/http"

	"github.com/contactbox/backend/pkg/auth"
)

// AdminRealm is the Basic auth realm announced on 401 responses.
const AdminRealm = "admin"

// RouteConfig carries everything Routes wires together.
type RouteConfig struct {
	Base     *Handler
	Messages *MessageHandler
	Auth     auth.Authenticator
	// SubmitLimiter throttles the public submission endpoints. Nil disables it.
	SubmitLimiter *RateLimiter
	// AllowPurge registers DELETE /api/messages/{id}/purge.
	AllowPurge bool
}

// Routes builds the full HTTP handler: the route table wrapped in CORS,
// security headers, panic recovery and request logging.
func Routes(cfg RouteConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", cfg.Base.Root)
	mux.HandleFunc("GET /api/health", cfg.Base.Health)

	// 公開エンドポイント（レート制限あり）
	var submit http.Handler = http.HandlerFunc(cfg.Messages.Submit)
	if cfg.SubmitLimiter != nil {
		submit = cfg.SubmitLimiter.Middleware(submit)
	}
	mux.Handle("POST /api/contact", submit)
	mux.Handle("POST /api/messages", submit)

	// 管理者エンドポイント（Basic 認証必須）
	admin := auth.RequireBasicAuth(cfg.Auth, AdminRealm)
	mux.Handle("GET /api/messages", admin(http.HandlerFunc(cfg.Messages.List)))
	mux.Handle("GET /api/messages/deleted", admin(http.HandlerFunc(cfg.Messages.ListDeleted)))
	mux.Handle("GET /api/messages/{id}", admin(http.HandlerFunc(cfg.Messages.Get)))
	mux.Handle("DELETE /api/messages/{id}", admin(http.HandlerFunc(cfg.Messages.Delete)))
	mux.Handle("POST /api/messages/{id}/restore", admin(http.HandlerFunc(cfg.Messages.Restore)))
	if cfg.AllowPurge {
		mux.Handle("DELETE /api/messages/{id}/purge", admin(http.HandlerFunc(cfg.Messages.Purge)))
	}

	return RequestLogger(Recover(SecurityHeaders(cfg.Base.CORS(mux))))
}
