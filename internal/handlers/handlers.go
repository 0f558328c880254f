package handlers

import (
	"time"

	"media-intake/internal/decode"
	"media-intake/internal/intake"
	"media-intake/internal/memory"
	"media-intake/internal/preview"
	"media-intake/internal/store"
)

// defaultMaxUploadSize caps multipart bodies when Deps leaves it unset.
const defaultMaxUploadSize = 256 << 20

// Deps are the collaborators the handlers serve.
type Deps struct {
	Engine  *intake.Engine
	Decoder *decode.Service
	Store   *store.Store
	// Monitor may be nil, in which case uploads are never refused.
	Monitor *memory.Monitor

	Sizer         preview.Sizer
	PreviewConfig preview.Config
	MaxUploadSize int64
}

type Handlers struct {
	engine        *intake.Engine
	decoder       *decode.Service
	store         *store.Store
	monitor       *memory.Monitor
	sizer         preview.Sizer
	previewConfig preview.Config
	maxUploadSize int64
	startTime     time.Time
}

func New(deps Deps) *Handlers {
	maxUpload := deps.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadSize
	}
	return &Handlers{
		engine:        deps.Engine,
		decoder:       deps.Decoder,
		store:         deps.Store,
		monitor:       deps.Monitor,
		sizer:         deps.Sizer,
		previewConfig: deps.PreviewConfig,
		maxUploadSize: maxUpload,
		startTime:     time.Now(),
	}
}
