package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hfi/secure-mask/internal/config"
	"github.com/hfi/secure-mask/internal/masking"
	"github.com/hfi/secure-mask/internal/service"
	"github.com/hfi/secure-mask/internal/storage"
)

func newTestAPI(t *testing.T, store storage.ResultStore) *API {
	t.Helper()

	engine, err := masking.New(masking.Options{})
	if err != nil {
		t.Fatalf("masking.New() error: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Server.MaxBodyBytes = 1024

	svc := service.New(engine, service.WithStore(store))
	return NewAPI(svc, *cfg, nil, zerolog.Nop())
}

func postMask(t *testing.T, api *API, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/mask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAPI_Mask(t *testing.T) {
	api := newTestAPI(t, storage.NopStore{})

	rec := postMask(t, api, `{"source":"@GetMapping(\"/users\")","language":"Java"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp MaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if resp.Masked != `@GetMapping("/getmapping1")` {
		t.Errorf("masked = %q, want %q", resp.Masked, `@GetMapping("/getmapping1")`)
	}
	if resp.Language != "Java" {
		t.Errorf("language = %q, want 'Java'", resp.Language)
	}
	if resp.RequestID == "" {
		t.Error("request_id should not be empty")
	}
	if rec.Header().Get(RequestIDHeader) != resp.RequestID {
		t.Errorf("%s header = %q, want %q", RequestIDHeader, rec.Header().Get(RequestIDHeader), resp.RequestID)
	}
}

func TestAPI_Mask_DefaultLanguage(t *testing.T) {
	api := newTestAPI(t, storage.NopStore{})

	rec := postMask(t, api, `{"source":"class Foo {"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp MaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.Masked != "class Class1 {" {
		t.Errorf("masked = %q, want 'class Class1 {'", resp.Masked)
	}
}

func TestAPI_Mask_Cached(t *testing.T) {
	store := storage.NewMemoryStore(time.Hour)
	defer store.Close()
	api := newTestAPI(t, store)

	body := `{"source":"class Foo {","language":"Java"}`
	postMask(t, api, body)
	rec := postMask(t, api, body)

	var resp MaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !resp.Cached {
		t.Error("second identical request should be served from cache")
	}
}

func TestAPI_Mask_Errors(t *testing.T) {
	api := newTestAPI(t, storage.NopStore{})

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"empty source", `{"source":"   ","language":"Java"}`, http.StatusBadRequest, "⚠️ error: input code is empty"},
		{"unsupported language", `{"source":"class Foo {","language":"Kotlin"}`, http.StatusBadRequest, "⚠️ error: Kotlin not supported"},
		{"malformed json", `{"source":`, http.StatusBadRequest, "⚠️ error: invalid request body"},
		{"too large", `{"source":"` + strings.Repeat("a", 2048) + `"}`, http.StatusRequestEntityTooLarge, "⚠️ error: request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postMask(t, api, tt.body)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}
			if resp.Error != tt.wantErr {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantErr)
			}
		})
	}
}

func TestAPI_Mask_KeepsRequestID(t *testing.T) {
	api := newTestAPI(t, storage.NopStore{})

	req := httptest.NewRequest("POST", "/api/v1/mask", bytes.NewBufferString(`{"source":"class Foo {"}`))
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	var resp MaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.RequestID != "req-42" {
		t.Errorf("request_id = %q, want 'req-42'", resp.RequestID)
	}
}

func TestAPI_Mask_MethodNotAllowed(t *testing.T) {
	api := newTestAPI(t, storage.NopStore{})

	req := httptest.NewRequest("GET", "/api/v1/mask", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestAPI_Languages(t *testing.T) {
	api := newTestAPI(t, storage.NopStore{})

	req := httptest.NewRequest("GET", "/api/v1/languages", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp LanguagesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(resp.Languages) != 1 || resp.Languages[0] != "Java" {
		t.Errorf("languages = %v, want [Java]", resp.Languages)
	}
	if resp.Default != "Java" {
		t.Errorf("default = %q, want 'Java'", resp.Default)
	}
}

func TestAPI_Addr(t *testing.T) {
	api := newTestAPI(t, storage.NopStore{})

	if api.Addr() != ":8080" {
		t.Errorf("Addr() = %q, want ':8080'", api.Addr())
	}
}
