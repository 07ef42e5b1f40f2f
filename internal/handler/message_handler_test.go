package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/contactbox/backend/internal/model"
	"github.com/contactbox/backend/internal/service"
	"github.com/contactbox/backend/pkg/auth"
)

// ---------------------------------------------------------------------------
// Mock MessageService
// ---------------------------------------------------------------------------

type mockMessageService struct {
	submitFunc      func(ctx context.Context, msg *model.Message) (*model.Message, error)
	getFunc         func(ctx context.Context, id string) (*model.Message, error)
	listActiveFunc  func(ctx context.Context) ([]*model.Message, error)
	listDeletedFunc func(ctx context.Context) ([]*model.Message, error)
	softDeleteFunc  func(ctx context.Context, id string) (*model.Message, error)
	restoreFunc     func(ctx context.Context, id string) (*model.Message, error)
	purgeFunc       func(ctx context.Context, id string) error
}

func (m *mockMessageService) Submit(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, msg)
	}
	msg.ID = testID
	msg.CreatedAt = testTime
	return msg, nil
}

func (m *mockMessageService) Get(ctx context.Context, id string) (*model.Message, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, service.ErrNotFound
}

func (m *mockMessageService) ListActive(ctx context.Context) ([]*model.Message, error) {
	if m.listActiveFunc != nil {
		return m.listActiveFunc(ctx)
	}
	return nil, nil
}

func (m *mockMessageService) ListDeleted(ctx context.Context) ([]*model.Message, error) {
	if m.listDeletedFunc != nil {
		return m.listDeletedFunc(ctx)
	}
	return nil, nil
}

func (m *mockMessageService) SoftDelete(ctx context.Context, id string) (*model.Message, error) {
	if m.softDeleteFunc != nil {
		return m.softDeleteFunc(ctx, id)
	}
	return nil, service.ErrNotFound
}

func (m *mockMessageService) Restore(ctx context.Context, id string) (*model.Message, error) {
	if m.restoreFunc != nil {
		return m.restoreFunc(ctx, id)
	}
	return nil, service.ErrNotFound
}

func (m *mockMessageService) Purge(ctx context.Context, id string) error {
	if m.purgeFunc != nil {
		return m.purgeFunc(ctx, id)
	}
	return service.ErrNotFound
}

const testID = "3f1c2a9e-6a59-4c8e-9a55-6a0c1b2d3e4f"

var testTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp["error"]
}

func withID(r *http.Request, id string) *http.Request {
	r.SetPathValue("id", id)
	return r
}

// ---------------------------------------------------------------------------
// POST /api/contact
// ---------------------------------------------------------------------------

func TestMessageHandler_Submit_Success(t *testing.T) {
	var captured *model.Message
	mock := &mockMessageService{
		submitFunc: func(ctx context.Context, msg *model.Message) (*model.Message, error) {
			captured = msg
			msg.ID = testID
			msg.CreatedAt = testTime
			return msg, nil
		},
	}
	h := NewMessageHandler(mock)

	body := `{"name":"Alice","phone":"090-1234-5678","email":"a@example.com","subject":"Hi","message":"Hello!"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured == nil {
		t.Fatal("expected Submit to be called")
	}
	if captured.Name != "Alice" || captured.Phone != "090-1234-5678" || captured.Email != "a@example.com" ||
		captured.Subject != "Hi" || captured.Message != "Hello!" {
		t.Errorf("unexpected message passed to service: %+v", captured)
	}

	var resp struct {
		Success bool           `json:"success"`
		Message map[string]any `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Message["id"] != testID {
		t.Errorf("expected id %s, got %v", testID, resp.Message["id"])
	}
	if resp.Message["createdAt"] != "2026-03-01T09:30:00Z" {
		t.Errorf("expected createdAt in RFC 3339, got %v", resp.Message["createdAt"])
	}
	if resp.Message["deleted"] != false {
		t.Errorf("expected deleted=false, got %v", resp.Message["deleted"])
	}
	if _, ok := resp.Message["deletedAt"]; ok {
		t.Error("deletedAt must be omitted for an active message")
	}
}

func TestMessageHandler_Submit_ValidationError(t *testing.T) {
	for _, code := range []string{"name_required", "message_required", "phone_required", "message_too_long"} {
		mock := &mockMessageService{
			submitFunc: func(ctx context.Context, msg *model.Message) (*model.Message, error) {
				return nil, &service.ValidationError{Field: "x", Code: code}
			},
		}
		h := NewMessageHandler(mock)

		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"name":"","message":""}`))
		rec := httptest.NewRecorder()
		h.Submit(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", code, rec.Code)
		}
		if got := decodeError(t, rec); got != code {
			t.Errorf("expected error=%s, got %q", code, got)
		}
	}
}

func TestMessageHandler_Submit_InvalidJSON(t *testing.T) {
	called := false
	mock := &mockMessageService{
		submitFunc: func(ctx context.Context, msg *model.Message) (*model.Message, error) {
			called = true
			return msg, nil
		},
	}
	h := NewMessageHandler(mock)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("{bad json"))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "invalid_json" {
		t.Errorf("expected error=invalid_json, got %q", got)
	}
	if called {
		t.Error("service must not be called for malformed JSON")
	}
}

func TestMessageHandler_Submit_BodyTooLarge(t *testing.T) {
	h := NewMessageHandler(&mockMessageService{})

	body, _ := json.Marshal(map[string]string{
		"name":    "Alice",
		"message": strings.Repeat("a", maxBodyBytes+1),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestMessageHandler_Submit_ServiceError(t *testing.T) {
	mock := &mockMessageService{
		submitFunc: func(ctx context.Context, msg *model.Message) (*model.Message, error) {
			return nil, &service.PersistenceError{Op: "save message", Err: errors.New("pq: password authentication failed")}
		},
	}
	h := NewMessageHandler(mock)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"name":"A","message":"B"}`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("driver error leaked to client: %s", rec.Body.String())
	}
	if got := decodeError(t, rec); got != "server_error" {
		t.Errorf("expected error=server_error, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// GET /api/messages
// ---------------------------------------------------------------------------

func TestMessageHandler_List_Active(t *testing.T) {
	deletedCalled := false
	mock := &mockMessageService{
		listActiveFunc: func(ctx context.Context) ([]*model.Message, error) {
			return []*model.Message{
				{ID: "b", Name: "B", Message: "second", CreatedAt: testTime.Add(time.Minute)},
				{ID: "a", Name: "A", Message: "first", CreatedAt: testTime},
			}, nil
		},
		listDeletedFunc: func(ctx context.Context) ([]*model.Message, error) {
			deletedCalled = true
			return nil, nil
		},
	}
	h := NewMessageHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deletedCalled {
		t.Error("expected active listing")
	}
	var got []model.Message
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("expected service order to be preserved, got %+v", got)
	}
}

func TestMessageHandler_List_DeletedQuery(t *testing.T) {
	for _, q := range []string{"true", "TRUE", "True"} {
		called := false
		mock := &mockMessageService{
			listDeletedFunc: func(ctx context.Context) ([]*model.Message, error) {
				called = true
				return nil, nil
			},
		}
		h := NewMessageHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "/api/messages?deleted="+q, nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)

		if !called {
			t.Errorf("deleted=%s: expected ListDeleted to be called", q)
		}
	}
}

func TestMessageHandler_List_DeletedQueryOtherValuesListActive(t *testing.T) {
	for _, q := range []string{"false", "1", "yes", ""} {
		activeCalled := false
		mock := &mockMessageService{
			listActiveFunc: func(ctx context.Context) ([]*model.Message, error) {
				activeCalled = true
				return nil, nil
			},
		}
		h := NewMessageHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "/api/messages?deleted="+q, nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)

		if !activeCalled {
			t.Errorf("deleted=%q: expected ListActive to be called", q)
		}
	}
}

func TestMessageHandler_List_EmptyReturnsArray(t *testing.T) {
	h := NewMessageHandler(&mockMessageService{})

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected [] for empty list, got %s", body)
	}
}

func TestMessageHandler_ListDeleted(t *testing.T) {
	deletedAt := testTime.Add(time.Hour)
	mock := &mockMessageService{
		listDeletedFunc: func(ctx context.Context) ([]*model.Message, error) {
			return []*model.Message{{ID: "a", Name: "A", Message: "m", CreatedAt: testTime, Deleted: true, DeletedAt: &deletedAt}}, nil
		},
	}
	h := NewMessageHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/messages/deleted", nil)
	rec := httptest.NewRecorder()
	h.ListDeleted(rec, req)

	var got []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0]["deleted"] != true || got[0]["deletedAt"] != "2026-03-01T10:30:00Z" {
		t.Errorf("unexpected deleted listing: %v", got)
	}
}

func TestMessageHandler_List_ServiceError(t *testing.T) {
	mock := &mockMessageService{
		listActiveFunc: func(ctx context.Context) ([]*model.Message, error) {
			return nil, &service.PersistenceError{Op: "list messages", Err: errors.New("timeout")}
		},
	}
	h := NewMessageHandler(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// GET/DELETE /api/messages/{id}, restore, purge
// ---------------------------------------------------------------------------

func TestMessageHandler_Get(t *testing.T) {
	mock := &mockMessageService{
		getFunc: func(ctx context.Context, id string) (*model.Message, error) {
			if id != testID {
				return nil, service.ErrNotFound
			}
			return &model.Message{ID: id, Name: "A", Message: "m", CreatedAt: testTime}, nil
		},
	}
	h := NewMessageHandler(mock)

	rec := httptest.NewRecorder()
	h.Get(rec, withID(httptest.NewRequest(http.MethodGet, "/api/messages/"+testID, nil), testID))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, withID(httptest.NewRequest(http.MethodGet, "/api/messages/nope", nil), "nope"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "not_found" {
		t.Errorf("expected error=not_found, got %q", got)
	}
}

func TestMessageHandler_Delete(t *testing.T) {
	deletedAt := testTime.Add(time.Hour)
	var gotID string
	mock := &mockMessageService{
		softDeleteFunc: func(ctx context.Context, id string) (*model.Message, error) {
			gotID = id
			return &model.Message{ID: id, Name: "A", Message: "m", CreatedAt: testTime, Deleted: true, DeletedAt: &deletedAt}, nil
		},
	}
	h := NewMessageHandler(mock)

	req := withID(httptest.NewRequest(http.MethodDelete, "/api/messages/"+testID, nil), testID)
	req = req.WithContext(auth.WithAdmin(req.Context(), "admin"))
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotID != testID {
		t.Errorf("expected id %s, got %s", testID, gotID)
	}
	var resp struct {
		OK      bool           `json:"ok"`
		Message *model.Message `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.Message == nil || !resp.Message.Deleted {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestMessageHandler_Delete_NotFound(t *testing.T) {
	h := NewMessageHandler(&mockMessageService{})

	rec := httptest.NewRecorder()
	h.Delete(rec, withID(httptest.NewRequest(http.MethodDelete, "/api/messages/x", nil), "x"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestMessageHandler_Restore(t *testing.T) {
	mock := &mockMessageService{
		restoreFunc: func(ctx context.Context, id string) (*model.Message, error) {
			return &model.Message{ID: id, Name: "A", Message: "m", CreatedAt: testTime}, nil
		},
	}
	h := NewMessageHandler(mock)

	rec := httptest.NewRecorder()
	h.Restore(rec, withID(httptest.NewRequest(http.MethodPost, "/api/messages/"+testID+"/restore", nil), testID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "deletedAt") {
		t.Errorf("restored message must not carry deletedAt: %s", rec.Body.String())
	}
}

func TestMessageHandler_Restore_NotFound(t *testing.T) {
	h := NewMessageHandler(&mockMessageService{})

	rec := httptest.NewRecorder()
	h.Restore(rec, withID(httptest.NewRequest(http.MethodPost, "/api/messages/x/restore", nil), "x"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestMessageHandler_Purge(t *testing.T) {
	purged := ""
	mock := &mockMessageService{
		purgeFunc: func(ctx context.Context, id string) error {
			purged = id
			return nil
		},
	}
	h := NewMessageHandler(mock)

	rec := httptest.NewRecorder()
	h.Purge(rec, withID(httptest.NewRequest(http.MethodDelete, "/api/messages/"+testID+"/purge", nil), testID))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if purged != testID {
		t.Errorf("expected purge of %s, got %q", testID, purged)
	}
}
