package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"media-intake/internal/intake"
	"media-intake/internal/logging"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temporary files.
const multipartMemory = 32 << 20

var errNoFiles = errors.New("no files in request")

// writeJSON encodes v as JSON. Encoding errors are only logged since the
// status line has already been sent.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

func writeJSONStatus(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes {"error": message} with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatus(w, statusCode, map[string]string{"error": message})
}

// admit answers 503 and returns false while the heap is under critical
// pressure.
func (h *Handlers) admit(w http.ResponseWriter) bool {
	if err := h.monitor.Admit(); err != nil {
		w.Header().Set("Retry-After", "5")
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return false
	}
	return true
}

// readUploads reads every part named field into memory. The whole body is
// bounded by the configured upload size.
func (h *Handlers) readUploads(w http.ResponseWriter, r *http.Request, field string) ([]intake.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Warn("failed to remove multipart temp files: %v", err)
		}
	}()

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, errNoFiles
	}

	files := make([]intake.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) (intake.File, error) {
	part, err := fh.Open()
	if err != nil {
		return intake.File{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer part.Close()

	content, err := io.ReadAll(part)
	if err != nil {
		return intake.File{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return intake.DetectFile(fh.Filename, fh.Header.Get("Content-Type"), content), nil
}

// uploadErrorStatus maps a readUploads error to a response status.
func uploadErrorStatus(err error) int {
	var maxErr *http.MaxBytesError
	// mime/multipart does not always wrap the reader error
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// queryFloat parses a non-negative float query parameter. Missing values
// yield def.
func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}
