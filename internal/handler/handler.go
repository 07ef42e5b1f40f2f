package handler

import (
	"net/http"

	"github.com/contactbox/backend/internal/repository"
)

// CORSConfig holds the Access-Control-* values sent on every response.
type CORSConfig struct {
	Origin  string
	Methods string
	Headers string
}

type Handler struct {
	db   repository.DB
	cors CORSConfig
}

func New(db repository.DB, cors CORSConfig) *Handler {
	if cors.Origin == "" {
		cors.Origin = "*"
	}
	if cors.Methods == "" {
		cors.Methods = "GET, POST, DELETE, OPTIONS"
	}
	if cors.Headers == "" {
		cors.Headers = "Content-Type, Authorization"
	}
	return &Handler{db: db, cors: cors}
}

func (h *Handler) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.cors.Origin)
		w.Header().Set("Access-Control-Allow-Methods", h.cors.Methods)
		w.Header().Set("Access-Control-Allow-Headers", h.cors.Headers)
		// ワイルドカードでは credentials を許可できない
		if h.cors.Origin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type rootResponse struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg"`
}

// Root handles GET / as a liveness banner. It never touches the database.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{OK: true, Msg: "Contact backend running"})
}
