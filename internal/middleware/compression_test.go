package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveWith(contentType string, status int, body []byte) http.Handler {
	return Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
}

func gzipRequest() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/intake/history", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	return req
}

func TestCompressionMiddleware(t *testing.T) {
	large := []byte(`{"events":[` + strings.Repeat(`{"origin":"api"},`, 200) + `{}]}`)

	tests := []struct {
		name         string
		contentType  string
		body         []byte
		acceptGzip   bool
		wantEncoding string
	}{
		{"large json compressed", "application/json", large, true, "gzip"},
		{"json with charset compressed", "application/json; charset=utf-8", large, true, "gzip"},
		{"small json passes", "application/json", []byte(`{"status":"ok"}`), true, ""},
		{"jpeg passes", "image/jpeg", bytes.Repeat([]byte{0xff}, 4096), true, ""},
		{"client without gzip", "application/json", large, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := gzipRequest()
			if !tt.acceptGzip {
				req.Header.Del("Accept-Encoding")
			}
			w := httptest.NewRecorder()
			serveWith(tt.contentType, http.StatusOK, tt.body).ServeHTTP(w, req)

			if got := w.Header().Get("Content-Encoding"); got != tt.wantEncoding {
				t.Fatalf("Content-Encoding = %q, want %q", got, tt.wantEncoding)
			}

			body := w.Body.Bytes()
			if tt.wantEncoding == "gzip" {
				zr, err := gzip.NewReader(w.Body)
				if err != nil {
					t.Fatalf("gzip.NewReader: %v", err)
				}
				body, err = io.ReadAll(zr)
				if err != nil {
					t.Fatalf("reading gzip body: %v", err)
				}
			}
			if !bytes.Equal(body, tt.body) {
				t.Errorf("body mismatch: got %d bytes, want %d", len(body), len(tt.body))
			}
		})
	}
}

func TestCompressionPreservesStatus(t *testing.T) {
	large := []byte(strings.Repeat("x", 4096))
	w := httptest.NewRecorder()
	serveWith("text/plain", http.StatusServiceUnavailable, large).ServeHTTP(w, gzipRequest())

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Error("Expected text/plain body to be compressed")
	}
}

func TestCompressionMultipleWrites(t *testing.T) {
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		for i := 0; i < 100; i++ {
			_, _ = w.Write([]byte(`{"kind":"size_too_large"},`))
		}
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, gzipRequest())

	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	body, _ := io.ReadAll(zr)
	if want := strings.Repeat(`{"kind":"size_too_large"},`, 100); string(body) != want {
		t.Errorf("decompressed body has %d bytes, want %d", len(body), len(want))
	}
}
