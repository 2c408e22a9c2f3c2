package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	for name, keys := range map[string][]string{"nil": nil, "empty strings": {"", ""}} {
		t.Run(name, func(t *testing.T) {
			handler := BearerAuthMiddleware(keys)(okHandler())

			req := httptest.NewRequest(http.MethodPost, "/api/search", http.NoBody)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/api/search", "", http.StatusUnauthorized},
		{"basic scheme", "/api/search", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"wrong key", "/api/search", "Bearer wrong-key", http.StatusUnauthorized},
		{"first key", "/api/search", "Bearer key1", http.StatusOK},
		{"second key", "/api/bylaws", "Bearer key2", http.StatusOK},
		{"trailing space", "/api/bylaws", "Bearer key1 ", http.StatusOK},
		{"health exempt", "/health", "", http.StatusOK},
		{"metrics exempt", "/metrics", "", http.StatusOK},
	}

	handler := BearerAuthMiddleware([]string{"key1", "key2"})(okHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddleware_ErrorBody(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/bylaws", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Success {
		t.Error("success = true, want false")
	}
	if resp.Code != codeUnauthorized {
		t.Errorf("code = %q, want %q", resp.Code, codeUnauthorized)
	}
	if resp.Error != "missing authorization header" {
		t.Errorf("error = %q", resp.Error)
	}
}
