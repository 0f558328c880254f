package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"

	"media-intake/internal/decode"
	"media-intake/internal/intake"
	"media-intake/internal/memory"
	"media-intake/internal/preview"
	"media-intake/internal/store"
)

type testEnv struct {
	h      *Handlers
	store  *store.Store
	engine *intake.Engine
}

type envOption func(*Deps)

func withMaxUpload(n int64) envOption {
	return func(d *Deps) { d.MaxUploadSize = n }
}

func withMonitor(m *memory.Monitor) envOption {
	return func(d *Deps) { d.Monitor = m }
}

func withPreview(cfg preview.Config) envOption {
	return func(d *Deps) { d.PreviewConfig = cfg }
}

// setupTestEnv wires the handlers to a real ledger in a temp dir and a
// pure Go decode service.
func setupTestEnv(t *testing.T, policy intake.PolicyConfig, opts ...envOption) *testEnv {
	t.Helper()

	st, err := store.New(context.Background(), filepath.Join(t.TempDir(), "intake.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	dec, err := decode.NewService(decode.Config{Workers: 2})
	if err != nil {
		t.Fatalf("Failed to start decoder: %v", err)
	}
	t.Cleanup(func() { _ = dec.Close() })

	p, err := intake.NewPolicy(policy)
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	engine := intake.NewEngine(nil, p, intake.Callbacks{})
	t.Cleanup(engine.Close)

	deps := Deps{
		Engine:        engine,
		Decoder:       dec,
		Store:         st,
		PreviewConfig: preview.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	deps.Sizer, err = preview.NewSizer(deps.PreviewConfig)
	if err != nil {
		t.Fatalf("NewSizer() error = %v", err)
	}

	return &testEnv{h: New(deps), store: st, engine: engine}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

type upload struct {
	name        string
	contentType string
	content     []byte
}

// multipartRequest builds a POST with every upload under field.
func multipartRequest(t *testing.T, target, field string, uploads ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, u := range uploads {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+u.name+`"`)
		ct := u.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		hdr.Set("Content-Type", ct)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write(u.content); err != nil {
			t.Fatalf("writing part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
