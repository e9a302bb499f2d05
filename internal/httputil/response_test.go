package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		name        string
		accept      string
		contentType string
		xhr         bool
		want        bool
	}{
		{
			name:   "explicit json accept",
			accept: "application/json",
			want:   true,
		},
		{
			name:        "browser form post",
			accept:      "text/html,application/xhtml+xml",
			contentType: "application/x-www-form-urlencoded",
			want:        false,
		},
		{
			name:   "browser navigation without body",
			accept: "text/html,application/xhtml+xml",
			want:   false,
		},
		{
			name:        "ajax from a browser",
			accept:      "text/html",
			contentType: "application/x-www-form-urlencoded",
			xhr:         true,
			want:        true,
		},
		{
			name:        "json body wins over html accept",
			accept:      "text/html",
			contentType: "application/json",
			want:        true,
		},
		{
			name: "no headers defaults to json",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/reactions", nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			if tt.xhr {
				r.Header.Set("X-Requested-With", "XMLHttpRequest")
			}

			if got := WantsJSON(r); got != tt.want {
				t.Errorf("WantsJSON = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteMutationResult_JSONClient(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/reactions", nil)
	r.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()

	WriteMutationResult(w, r, http.StatusOK, map[string]string{"status": "ok"}, "Saved")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestWriteMutationResult_FormClient(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/reactions", nil)
	r.Header.Set("Accept", "text/html,application/xhtml+xml")
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Referer", "/posts/5")
	w := httptest.NewRecorder()

	WriteMutationResult(w, r, http.StatusOK, nil, "Reaction saved")

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/posts/5" {
		t.Errorf("Location = %q, want the referer", loc)
	}

	var flash *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == FlashSuccessCookie {
			flash = c
		}
	}
	if flash == nil {
		t.Fatal("flash cookie not set")
	}
	if !strings.Contains(flash.Value, "Reaction") {
		t.Errorf("flash value = %q", flash.Value)
	}
}

func TestWriteMutationError_FormClientRedirectsWithErrorFlash(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/comments", nil)
	r.Header.Set("Accept", "text/html")
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	WriteMutationError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Comment content is required")

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 for form clients even on errors", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want fallback /", loc)
	}

	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == FlashErrorCookie {
			found = true
		}
	}
	if !found {
		t.Error("error flash cookie not set")
	}
}

func TestWriteError_Envelope(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, http.StatusNotFound, ErrCodeNotFound, "Target not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != ErrCodeNotFound || body.Error.Message != "Target not found" {
		t.Errorf("body = %+v", body)
	}
}
