package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"media-intake/internal/decode"
	"media-intake/internal/dropfolder"
	"media-intake/internal/handlers"
	"media-intake/internal/intake"
	"media-intake/internal/logging"
	"media-intake/internal/memory"
	"media-intake/internal/metrics"
	"media-intake/internal/middleware"
	"media-intake/internal/startup"
	"media-intake/internal/store"
	"media-intake/internal/workerchan"
	"media-intake/internal/workers"
)

const (
	shutdownTimeout = 30 * time.Second
	statsInterval   = time.Minute
	recordTimeout   = 10 * time.Second
)

// components are the long-running parts stopped on shutdown, in order.
type components struct {
	server        *http.Server
	metricsServer *http.Server
	collector     *metrics.Collector
	monitor       *memory.Monitor
	dropFolder    *dropfolder.Watcher
	engine        *intake.Engine
	decoder       *decode.Service
	ledger        *store.Store

	done chan struct{}
}

func main() {
	startTime := time.Now()

	startup.LogMemoryConfig(memory.ConfigureFromEnv())

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)
	workerchan.SetObserver(metrics.NewWorkerObserver())

	// Decoder
	decodeWorkers := workers.ForDecode(config.DecodeWorkers)
	decoder, err := decode.NewService(decode.Config{
		Workers: decodeWorkers,
		Limits: decode.Limits{
			MaxDimension: decode.MaxImageDimension,
			MaxPixels:    decode.MaxImagePixels,
			UseVips:      config.DecodeVips,
		},
	})
	if err != nil {
		startup.LogFatal("Failed to start decoder: %v", err)
	}
	startup.LogDecoderInit(decodeWorkers, config.DecodeVips, decode.IsVipsAvailable())

	// Ledger
	ledgerStart := time.Now()
	ledger, err := store.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize intake ledger: %v", err)
	}
	startup.LogLedgerInit(time.Since(ledgerStart))

	engine := intake.NewEngine(nil, config.Policy, intake.Callbacks{
		OnRejected: func(rejected []intake.File, errs []intake.ValidationError) {
			for _, ve := range errs {
				logging.Debug("rejected %s: %s (%s)", ve.File.Name, ve.Kind, ve.Detail)
			}
		},
		OnComplete: func(files []intake.File, res intake.Result) {
			logging.Info("intake: %d files, %d accepted, %d rejected",
				len(files), len(res.Accepted), len(res.Rejected))
		},
	})

	collector := metrics.NewCollector(ledger, statsInterval)
	collector.Start()

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	h := handlers.New(handlers.Deps{
		Engine:        engine,
		Decoder:       decoder,
		Store:         ledger,
		Monitor:       monitor,
		Sizer:         config.Sizer,
		PreviewConfig: config.Preview,
		MaxUploadSize: config.MaxUploadSize,
	})

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	c := &components{
		server: &http.Server{
			Addr:              ":" + config.Port,
			Handler:           wrapMiddleware(router, config),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       5 * time.Minute,
			WriteTimeout:      5 * time.Minute,
			IdleTimeout:       60 * time.Second,
		},
		collector: collector,
		monitor:   monitor,
		engine:    engine,
		decoder:   decoder,
		ledger:    ledger,
		done:      make(chan struct{}),
	}

	if config.DropDir != "" {
		c.dropFolder, err = dropfolder.New(dropfolder.Config{Dir: config.DropDir, Settle: config.DropSettle})
		if err != nil {
			startup.LogFatal("Failed to watch drop directory: %v", err)
		}
		c.dropFolder.Subscribe(submitDrop(engine, ledger))
	}

	if config.MetricsEnabled {
		c.metricsServer = newMetricsServer(h, config.MetricsPort)
		go func() {
			if err := c.metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(c)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		DropDir:         config.DropDir,
		StartupDuration: time.Since(startTime),
	})
	if err := c.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-c.done
}

// submitDrop partitions a drop folder batch and records it in the ledger.
func submitDrop(engine *intake.Engine, ledger *store.Store) func(intake.Batch) {
	return func(b intake.Batch) {
		res := engine.Submit(b)

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if _, err := ledger.RecordEvent(ctx, b.Origin, engine.Policy().String(), b.Files, res); err != nil {
			logging.Warn("Failed to record drop batch: %v", err)
		}
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Probes and build info
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/intake", h.SubmitIntake).Methods("POST").Name("intake")
	api.HandleFunc("/intake/history", h.ListHistory).Methods("GET")
	api.HandleFunc("/intake/history/{id}", h.GetHistoryEvent).Methods("GET")
	api.HandleFunc("/preview", h.RenderPreview).Methods("POST").Name("preview")
	api.HandleFunc("/geometry", h.ComputeGeometry).Methods("POST")
	api.HandleFunc("/config", h.GetConfig).Methods("GET")

	return r
}

// wrapMiddleware applies, from the outside in: logging, metrics and
// compression.
func wrapMiddleware(router http.Handler, config *startup.Config) http.Handler {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	handler := middleware.Compression(middleware.DefaultCompressionConfig())(router)
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	return middleware.Logger(loggingConfig)(handler)
}

func newMetricsServer(h *handlers.Handlers, port string) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	r.HandleFunc("/health", h.LivenessCheck).Methods("GET", "HEAD")

	return &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func handleShutdown(c *components) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())
	shutdown(c)
	close(c.done)
}

// shutdown stops accepting requests first, then drains the decoder and
// closes the ledger last so in-flight requests can still record events.
func shutdown(c *components) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := c.server.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if c.metricsServer != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping metrics collector")
	c.collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	c.monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	if c.dropFolder != nil {
		startup.LogShutdownStep("Stopping drop folder watcher")
		if err := c.dropFolder.Close(); err != nil {
			logging.Warn("Drop folder watcher close error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Drop folder watcher stopped")
		}
	}

	c.engine.Close()

	startup.LogShutdownStep("Stopping decoder")
	if n := c.decoder.Outstanding(); n > 0 {
		logging.Warn("Abandoning %d outstanding decodes", n)
	}
	if err := c.decoder.Close(); err != nil {
		logging.Warn("Decoder shutdown error: %v", err)
	}
	decode.ShutdownVips()
	startup.LogShutdownStepComplete("Decoder stopped")

	startup.LogShutdownStep("Closing intake ledger")
	if err := c.ledger.Close(); err != nil {
		logging.Warn("Ledger close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Intake ledger closed")
	}

	startup.LogShutdownComplete()
}
