package handlers

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"media-intake/internal/decode"
	"media-intake/internal/intake"
	"media-intake/internal/logging"
	"media-intake/internal/preview"
	"media-intake/internal/workers"
)

// IntakeResponse is the partition of an uploaded batch.
type IntakeResponse struct {
	EventID  string                   `json:"eventId,omitempty"`
	Files    []intake.File            `json:"files"`
	Accepted []intake.File            `json:"accepted"`
	Rejected []intake.File            `json:"rejected"`
	Errors   []intake.ValidationError `json:"errors"`
	Previews []PreviewInfo            `json:"previews"`
}

// PreviewInfo is the preview geometry of one accepted file.
type PreviewInfo struct {
	Name     string                  `json:"name"`
	Natural  *decode.ImageDimensions `json:"natural,omitempty"`
	Geometry preview.Geometry        `json:"geometry"`
	// Computed is false while the height depends on a container width the
	// client has not sent.
	Computed bool   `json:"computed"`
	Reason   string `json:"reason,omitempty"`
}

// SubmitIntake validates the multipart "files" of a request against the
// active policy, records the event and returns preview geometry for the
// accepted files. The optional width query parameter is the container
// width previews are laid out in.
func (h *Handlers) SubmitIntake(w http.ResponseWriter, r *http.Request) {
	if !h.admit(w) {
		return
	}

	width, err := queryFloat(r, "width", 0)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files, err := h.readUploads(w, r, "files")
	if err != nil {
		logging.Debug("intake upload rejected: %v", err)
		writeJSONError(w, err.Error(), uploadErrorStatus(err))
		return
	}

	policy := h.engine.Policy()
	res := h.engine.Submit(intake.Batch{Origin: intake.OriginAPI, Files: files})

	resp := IntakeResponse{
		Files:    files,
		Accepted: res.Accepted,
		Rejected: res.Rejected,
		Errors:   res.Errors,
	}

	ev, err := h.store.RecordEvent(r.Context(), intake.OriginAPI, policy.String(), files, res)
	if err != nil {
		logging.Warn("failed to record intake event: %v", err)
	} else {
		resp.EventID = ev.ID
	}

	resp.Previews, err = h.previews(r.Context(), res.Accepted, width)
	if err != nil {
		logging.Error("preview geometry failed: %v", err)
		writeJSONError(w, "Failed to compute previews", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, http.StatusOK, resp)
}

// previews resolves natural sizes for the accepted files concurrently and
// computes their geometry. Results keep the order of accepted.
func (h *Handlers) previews(ctx context.Context, accepted []intake.File, width float64) ([]PreviewInfo, error) {
	out := make([]PreviewInfo, len(accepted))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers.ForRender(len(accepted)))
	for i, f := range accepted {
		i, f := i, f
		g.Go(func() error {
			out[i] = h.previewInfo(ctx, f, width)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *Handlers) previewInfo(ctx context.Context, f intake.File, width float64) PreviewInfo {
	info := PreviewInfo{Name: f.Name}
	if reason := h.sizer.Eligibility.Reason(f); reason != "" {
		info.Computed = true
		info.Reason = reason
		return info
	}

	natural := preview.Resolve(ctx, h.decoder, f)
	switch natural.State {
	case preview.NaturalKnown:
		dims := natural.Dimensions
		info.Natural = &dims
	case preview.NaturalNone:
		if natural.Err != nil {
			info.Reason = natural.Err.Error()
		}
	}

	info.Geometry, info.Computed = h.sizer.Compute(f, natural, width)
	return info
}
