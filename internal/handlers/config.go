package handlers

import (
	"net/http"

	"media-intake/internal/intake"
	"media-intake/internal/preview"
	"media-intake/internal/sizes"
)

// ConfigResponse is the active intake and preview configuration.
type ConfigResponse struct {
	Intake        intake.PolicyConfig `json:"intake"`
	Policy        string              `json:"policy"`
	Preview       preview.Config      `json:"preview"`
	MaxUploadSize string              `json:"maxUploadSize"`
}

// GetConfig returns the policy uploads are validated against.
func (h *Handlers) GetConfig(w http.ResponseWriter, _ *http.Request) {
	policy := h.engine.Policy()

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, ConfigResponse{
		Intake:        policy.Config(),
		Policy:        policy.String(),
		Preview:       h.previewConfig,
		MaxUploadSize: sizes.Format(h.maxUploadSize),
	})
}
