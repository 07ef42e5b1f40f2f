package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/contactbox/backend/internal/model"
	"github.com/contactbox/backend/internal/service"
	"github.com/contactbox/backend/pkg/auth"
)

// maxBodyBytes bounds a submission body; a 5000-rune message fits with room to spare.
const maxBodyBytes = 64 << 10

// MessageHandler handles the contact form and the admin inbox.
type MessageHandler struct {
	svc service.MessageService
}

// NewMessageHandler creates a MessageHandler with the given service.
func NewMessageHandler(svc service.MessageService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// submitRequest is the expected JSON body for POST /api/contact.
type submitRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type submitResponse struct {
	Success bool           `json:"success"`
	Message *model.Message `json:"message"`
}

type mutationResponse struct {
	OK      bool           `json:"ok"`
	Message *model.Message `json:"message,omitempty"`
}

// Submit handles POST /api/contact and POST /api/messages (public).
func (h *MessageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	msg, err := h.svc.Submit(r.Context(), &model.Message{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		h.fail(w, r, "submit message", err)
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{Success: true, Message: msg})
}

// List handles GET /api/messages (admin). ?deleted=true returns the trash.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, strings.EqualFold(r.URL.Query().Get("deleted"), "true"))
}

// ListDeleted handles GET /api/messages/deleted (admin).
func (h *MessageHandler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *MessageHandler) list(w http.ResponseWriter, r *http.Request, deleted bool) {
	var (
		messages []*model.Message
		err      error
	)
	if deleted {
		messages, err = h.svc.ListDeleted(r.Context())
	} else {
		messages, err = h.svc.ListActive(r.Context())
	}
	if err != nil {
		h.fail(w, r, "list messages", err)
		return
	}

	// Return [] not null for empty lists
	if messages == nil {
		messages = []*model.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// Get handles GET /api/messages/{id} (admin).
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	msg, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "get message", err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// Delete handles DELETE /api/messages/{id} (admin). It only moves the
// message to the trash.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	msg, err := h.svc.SoftDelete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "soft delete message", err)
		return
	}
	h.audit(r, "message deleted", msg.ID)
	writeJSON(w, http.StatusOK, mutationResponse{OK: true, Message: msg})
}

// Restore handles POST /api/messages/{id}/restore (admin).
func (h *MessageHandler) Restore(w http.ResponseWriter, r *http.Request) {
	msg, err := h.svc.Restore(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "restore message", err)
		return
	}
	h.audit(r, "message restored", msg.ID)
	writeJSON(w, http.StatusOK, mutationResponse{OK: true, Message: msg})
}

// Purge handles DELETE /api/messages/{id}/purge (admin, opt-in).
func (h *MessageHandler) Purge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.Purge(r.Context(), id); err != nil {
		h.fail(w, r, "purge message", err)
		return
	}
	h.audit(r, "message purged", id)
	writeJSON(w, http.StatusOK, mutationResponse{OK: true})
}

func (h *MessageHandler) audit(r *http.Request, msg, id string) {
	admin, _ := auth.AdminFromContext(r.Context())
	slog.Info(msg,
		"message_id", id,
		"admin", admin,
		"request_id", RequestIDFromContext(r.Context()),
	)
}

// fail maps service errors onto status codes and snake_case bodies.
func (h *MessageHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Code)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		slog.Error(op+" failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
