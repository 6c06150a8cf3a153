package websocket

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"nenegana-backend/internal/logger"
)

type stubAuth struct {
	id  uuid.UUID
	err error
}

func (s stubAuth) ParsePlayerID(token string) (uuid.UUID, error) {
	return s.id, s.err
}

func TestHandleWebSocket_RejectsUnauthenticated(t *testing.T) {
	tests := []struct {
		name   string
		target string
		auth   stubAuth
	}{
		{"missing token", "/api/v1/ws", stubAuth{id: uuid.New()}},
		{"invalid token", "/api/v1/ws?token=bad", stubAuth{err: errors.New("invalid")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHub(nil, tc.auth, "http://localhost:5173", logger.NewNop())

			rr := httptest.NewRecorder()
			h.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, tc.target, nil))

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rr.Code)
			}
		})
	}
}

func TestCheckOrigin(t *testing.T) {
	h := NewHub(nil, stubAuth{}, "http://localhost:5173", logger.NewNop())

	tests := map[string]bool{
		"":                      true,
		"http://localhost:5173": true,
		"http://evil.example":   false,
	}
	for origin, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		if got := h.upgrader.CheckOrigin(req); got != want {
			t.Errorf("CheckOrigin(%q) = %v, want %v", origin, got, want)
		}
	}
}
