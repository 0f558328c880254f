package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"media-intake/internal/intake"
	"media-intake/internal/logging"
	"media-intake/internal/preview"
	"media-intake/internal/sizes"
)

// Config holds all application configuration
type Config struct {
	DatabaseDir     string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool

	// DecodeWorkers is 0 when the count is derived from GOMAXPROCS.
	DecodeWorkers int
	DecodeVips    bool
	MaxUploadSize int64

	// DropDir is watched for new files when set; DropSettle is how long a
	// file must stay unchanged before it is submitted.
	DropDir    string
	DropSettle time.Duration

	PolicyFile string
	Intake     intake.PolicyConfig
	Preview    preview.Config

	// Derived
	DatabasePath string
	Policy       *intake.Policy
	Sizer        preview.Sizer
}

// PolicyFile is the YAML document named by POLICY_FILE. Keys that are
// absent keep the values taken from the environment.
type PolicyFile struct {
	Intake  intake.PolicyConfig `yaml:"intake"`
	Preview preview.Config      `yaml:"preview"`
}

// LoadConfig loads and validates configuration from a .env file (when
// present), the environment and POLICY_FILE. Malformed size, ratio and
// layout strings are returned as errors.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	if cfg.PolicyFile != "" {
		if err := applyPolicyFile(cfg, cfg.PolicyFile); err != nil {
			return nil, err
		}
		logging.Info("  POLICY_FILE:         %s", cfg.PolicyFile)
	}

	if err := cfg.parse(); err != nil {
		return nil, err
	}
	cfg.log()

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	cfg.DatabaseDir, err = filepath.Abs(cfg.DatabaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", cfg.DatabaseDir)
	cfg.DatabasePath = filepath.Join(cfg.DatabaseDir, "intake.db")

	if err := ensureDirectory(cfg.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(cfg.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for the ledger): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	if cfg.DropDir != "" {
		cfg.DropDir, err = filepath.Abs(cfg.DropDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve drop directory path: %w", err)
		}
		logging.Info("  Drop directory (absolute): %s", cfg.DropDir)
		if err := ensureDirectory(cfg.DropDir, "drop"); err != nil {
			return nil, fmt.Errorf("drop directory error: %w", err)
		}
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	switch {
	case err == nil:
		logging.Info("  Loaded environment from %s", path)
		return nil
	case errors.Is(err, fs.ErrNotExist):
		logging.Debug("  No %s file, using process environment only", path)
		return nil
	default:
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
}

// configFromEnv reads every variable without validating the textual
// settings; parse does that once the policy file has been applied.
func configFromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseDir:     getEnv("DATABASE_DIR", "./data"),
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),
		DecodeVips:      getEnvBool("DECODE_VIPS", true),
		DecodeWorkers:   getEnvInt("DECODE_WORKERS", 0),
		DropDir:         os.Getenv("DROP_DIR"),
		DropSettle:      getEnvDuration("DROP_SETTLE", 2*time.Second),
		PolicyFile:      os.Getenv("POLICY_FILE"),
		Intake: intake.PolicyConfig{
			Accept:           os.Getenv("ACCEPT"),
			MinFileSize:      os.Getenv("MIN_FILE_SIZE"),
			MaxFileSize:      os.Getenv("MAX_FILE_SIZE"),
			MaxTotalFileSize: os.Getenv("MAX_TOTAL_FILE_SIZE"),
			AllowMultiple:    getEnvBool("ALLOW_MULTIPLE", true),
		},
	}

	defaults := preview.DefaultConfig()
	cfg.Preview = preview.Config{
		AllowImagePreview: getEnvBool("ALLOW_IMAGE_PREVIEW", defaults.AllowImagePreview),
		MaxFileSize:       os.Getenv("IMAGE_PREVIEW_MAX_FILE_SIZE"),
		Height:            getEnvInt("IMAGE_PREVIEW_HEIGHT", 0),
		MinHeight:         getEnvInt("IMAGE_PREVIEW_MIN_HEIGHT", defaults.MinHeight),
		MaxHeight:         getEnvInt("IMAGE_PREVIEW_MAX_HEIGHT", defaults.MaxHeight),
		Zoom:              getEnvFloat("IMAGE_PREVIEW_ZOOM", defaults.Zoom),
		Upscale:           getEnvBool("IMAGE_PREVIEW_UPSCALE", defaults.Upscale),
		AspectRatio:       os.Getenv("PANEL_ASPECT_RATIO"),
		Layout:            getEnv("PANEL_LAYOUT", defaults.Layout),
	}

	maxUpload, err := sizes.Parse(getEnv("MAX_UPLOAD_SIZE", "256MB"))
	if err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_SIZE: %w", err)
	}
	cfg.MaxUploadSize = maxUpload
	return cfg, nil
}

// applyPolicyFile overlays the YAML policy file onto cfg.
func applyPolicyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read policy file: %w", err)
	}
	doc := PolicyFile{Intake: cfg.Intake, Preview: cfg.Preview}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	cfg.Intake = doc.Intake
	cfg.Preview = doc.Preview
	return nil
}

func (c *Config) parse() error {
	policy, err := intake.NewPolicy(c.Intake)
	if err != nil {
		return fmt.Errorf("intake policy: %w", err)
	}
	sizer, err := preview.NewSizer(c.Preview)
	if err != nil {
		return fmt.Errorf("preview settings: %w", err)
	}
	c.Policy = policy
	c.Sizer = sizer
	return nil
}

func (c *Config) log() {
	logging.Info("  DATABASE_DIR:        %s", c.DatabaseDir)
	logging.Info("  PORT:                %s", c.Port)
	logging.Info("  METRICS_PORT:        %s", c.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", c.MetricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", c.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
	logging.Info("  MAX_UPLOAD_SIZE:     %s", sizes.Format(c.MaxUploadSize))
	if c.DecodeWorkers > 0 {
		logging.Info("  DECODE_WORKERS:      %d", c.DecodeWorkers)
	} else {
		logging.Info("  DECODE_WORKERS:      auto")
	}
	logging.Info("  DECODE_VIPS:         %v", c.DecodeVips)
	if c.DropDir != "" {
		logging.Info("  DROP_DIR:            %s (settle %v)", c.DropDir, c.DropSettle)
	}
	logging.Info("")
	logging.Info("  Intake policy:       %s", c.Policy)
	logging.Info("  Preview:             allow=%v max=%s height=%d min=%d max=%d zoom=%.2f upscale=%v",
		c.Preview.AllowImagePreview, c.Sizer.Eligibility.MaxFileSize, c.Preview.Height,
		c.Preview.MinHeight, c.Preview.MaxHeight, c.Preview.Zoom, c.Preview.Upscale)
	logging.Info("  Panel:               layout=%s ratio=%q", c.Sizer.Options.Layout, c.Preview.AspectRatio)
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
