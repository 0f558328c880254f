package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"media-intake/internal/decode"
	"media-intake/internal/intake"
	"media-intake/internal/logging"
	"media-intake/internal/preview"
	"media-intake/internal/workerchan"
)

// RenderPreview returns a JPEG preview of the single uploaded "file".
// A height query parameter is bounded like a computed height (upscale
// policy and [minHeight, maxHeight]); without one the height comes from
// the preview options and the width query parameter. The file must pass the intake policy.
func (h *Handlers) RenderPreview(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w) {
		return
	}

	width, err := queryFloat(r, "width", 0)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	height, err := queryFloat(r, "height", 0)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files, err := h.readUploads(w, r, "file")
	if err != nil {
		writeJSONError(w, err.Error(), uploadErrorStatus(err))
		return
	}
	if len(files) != 1 {
		writeJSONError(w, "exactly one file expected", http.StatusBadRequest)
		return
	}
	f := files[0]

	if res := intake.Partition(files, h.engine.Policy()); len(res.Errors) > 0 {
		writeJSONStatus(w, http.StatusUnprocessableEntity, map[string]any{"errors": res.Errors})
		return
	}
	if reason := h.sizer.Eligibility.Reason(f); reason != "" {
		writeJSONError(w, reason, http.StatusUnprocessableEntity)
		return
	}

	natural := preview.Resolve(r.Context(), h.decoder, f)
	if natural.State == preview.NaturalNone {
		writeDecodeError(w, natural.Err)
		return
	}

	var target int
	if height > 0 {
		bounded := math.Round(h.sizer.Options.Bound(height, natural))
		target = int(math.Min(math.Max(bounded, 1), math.MaxInt32))
	} else {
		geom, ok := h.sizer.Compute(f, natural, width)
		if !ok || geom.Height <= 0 {
			writeJSONError(w, "preview height not computable, pass width or height", http.StatusBadRequest)
			return
		}
		target = geom.Height
	}

	p, err := h.decoder.Render(r.Context(), f, target)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(p.JPEG)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Preview-Width", strconv.Itoa(p.Width))
	w.Header().Set("X-Preview-Height", strconv.Itoa(p.Height))
	w.Header().Set("X-Natural-Width", strconv.Itoa(p.Natural.Width))
	w.Header().Set("X-Natural-Height", strconv.Itoa(p.Natural.Height))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(p.JPEG); err != nil {
		logging.Debug("preview write failed: %v", err)
	}
}

func writeDecodeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, decode.ErrNotImage):
		writeJSONError(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, decode.ErrDecodeFailure):
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, workerchan.ErrTerminated):
		writeJSONError(w, "decoder is shutting down", http.StatusServiceUnavailable)
	default:
		logging.Error("preview failed: %v", err)
		writeJSONError(w, "Failed to render preview", http.StatusInternalServerError)
	}
}

// GeometryRequest describes an image by its metadata only.
type GeometryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	// Width and Height are the natural dimensions; zero means not yet known.
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	ContainerWidth float64 `json:"containerWidth"`
}

// GeometryResponse is the computed geometry plus why it may be absent.
type GeometryResponse struct {
	preview.Geometry
	Computed bool   `json:"computed"`
	Reason   string `json:"reason,omitempty"`
}

// ComputeGeometry sizes a preview from dimensions the client already
// knows, without uploading the image.
func (h *Handlers) ComputeGeometry(w http.ResponseWriter, r *http.Request) {
	var req GeometryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Width < 0 || req.Height < 0 || req.Size < 0 || req.ContainerWidth < 0 {
		writeJSONError(w, "dimensions must not be negative", http.StatusBadRequest)
		return
	}
	if (req.Width == 0) != (req.Height == 0) {
		writeJSONError(w, "width and height must be given together", http.StatusBadRequest)
		return
	}

	f := intake.File{Name: req.Name, Type: req.Type, Size: req.Size}
	if f.Type == "" {
		f.Type = intake.NewFile(req.Name, "", nil).Type
	}

	natural := preview.Pending()
	if req.Width > 0 {
		natural = preview.Known(decode.ImageDimensions{Width: req.Width, Height: req.Height})
	}

	var resp GeometryResponse
	resp.Geometry, resp.Computed = h.sizer.Compute(f, natural, req.ContainerWidth)
	resp.Reason = h.sizer.Eligibility.Reason(f)
	writeJSONStatus(w, http.StatusOK, resp)
}
