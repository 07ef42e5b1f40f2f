package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

type contextKey string

const adminKey contextKey = "admin_username"

// ErrInvalidCredentials is returned by an Authenticator when the username is
// unknown or the password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator は Basic 認証の資格情報を検証する
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) error
}

// AdminFromContext は context から管理者のユーザー名を取得する
func AdminFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(adminKey).(string)
	return v, ok
}

// WithAdmin は context に管理者のユーザー名をセットする
func WithAdmin(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, adminKey, username)
}

// RequireBasicAuth は HTTP Basic 認証必須ミドルウェア。
// 失敗時は WWW-Authenticate チャレンジ付きで 401 を返す
func RequireBasicAuth(a Authenticator, realm string) func(http.Handler) http.Handler {
	challenge := fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, realm)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok || username == "" {
				unauthorized(w, challenge)
				return
			}

			if err := a.Authenticate(r.Context(), username, password); err != nil {
				if errors.Is(err, ErrInvalidCredentials) {
					slog.Warn("admin authentication failed", "username", username, "remote_addr", r.RemoteAddr)
					unauthorized(w, challenge)
					return
				}
				slog.Error("admin authentication error", "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "server_error"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), username)))
		})
	}
}

func unauthorized(w http.ResponseWriter, challenge string) {
	w.Header().Set("WWW-Authenticate", challenge)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
