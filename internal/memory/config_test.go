package memory

import (
	"runtime/debug"
	"testing"
)

// restoreMemoryLimit resets the runtime limit changed by ConfigureFromEnv.
func restoreMemoryLimit(t *testing.T) {
	t.Helper()
	original := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(original) })
}

func TestConfigureFromEnv(t *testing.T) {
	var gib int64 = 1 << 30

	tests := []struct {
		name       string
		env        map[string]string
		wantSource string
		wantLimit  int64
		wantRatio  float64
	}{
		{
			name:       "nothing set",
			env:        map[string]string{},
			wantSource: "none",
		},
		{
			name:       "raw bytes with default ratio",
			env:        map[string]string{"MEMORY_LIMIT": "1073741824"},
			wantSource: "MEMORY_LIMIT",
			wantLimit:  int64(float64(gib) * DefaultMemoryRatio),
			wantRatio:  DefaultMemoryRatio,
		},
		{
			name:       "size string with custom ratio",
			env:        map[string]string{"MEMORY_LIMIT": "512MB", "MEMORY_RATIO": "0.5"},
			wantSource: "MEMORY_LIMIT",
			wantLimit:  256 * 1024 * 1024,
			wantRatio:  0.5,
		},
		{
			name:       "ratio out of range",
			env:        map[string]string{"MEMORY_LIMIT": "1GB", "MEMORY_RATIO": "1.5"},
			wantSource: "MEMORY_LIMIT",
			wantLimit:  int64(float64(gib) * DefaultMemoryRatio),
			wantRatio:  DefaultMemoryRatio,
		},
		{
			name:       "ratio unparsable",
			env:        map[string]string{"MEMORY_LIMIT": "1GB", "MEMORY_RATIO": "most"},
			wantSource: "MEMORY_LIMIT",
			wantLimit:  int64(float64(gib) * DefaultMemoryRatio),
			wantRatio:  DefaultMemoryRatio,
		},
		{
			name:       "invalid limit",
			env:        map[string]string{"MEMORY_LIMIT": "lots"},
			wantSource: "none",
		},
		{
			name:       "negative limit",
			env:        map[string]string{"MEMORY_LIMIT": "-100"},
			wantSource: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreMemoryLimit(t)
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", "")
			t.Setenv("MEMORY_RATIO", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got := ConfigureFromEnv()
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
			if got.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, tt.wantLimit)
			}
			if got.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", got.Ratio, tt.wantRatio)
			}
			if got.Configured != (tt.wantLimit > 0) {
				t.Errorf("Configured = %v", got.Configured)
			}
			if got.Configured && debug.SetMemoryLimit(-1) != tt.wantLimit {
				t.Errorf("runtime limit = %d, want %d", debug.SetMemoryLimit(-1), tt.wantLimit)
			}
		})
	}
}

func TestConfigureFromEnvGOMEMLIMITWins(t *testing.T) {
	restoreMemoryLimit(t)
	t.Setenv("GOMEMLIMIT", "400MiB")
	t.Setenv("MEMORY_LIMIT", "1GB")

	got := ConfigureFromEnv()
	if got.Source != "GOMEMLIMIT" {
		t.Errorf("Source = %q, want GOMEMLIMIT", got.Source)
	}
	if got.ContainerLimit != 0 {
		t.Errorf("MEMORY_LIMIT should not be read, ContainerLimit = %d", got.ContainerLimit)
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"2KB", 2048, false},
		{"1GB", 1 << 30, false},
		{"0", 0, true},
		{"0MB", 0, true},
		{"1 GB", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLimit(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLimit(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLimit(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
