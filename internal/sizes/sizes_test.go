package sizes

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "Bytes", input: "512B", want: 512},
		{name: "Kilobytes", input: "1KB", want: 1024},
		{name: "Megabytes", input: "5MB", want: 5 * 1024 * 1024},
		{name: "Gigabytes", input: "2GB", want: 2 * 1024 * 1024 * 1024},
		{name: "Fractional", input: "1.5KB", want: 1536},
		{name: "Fraction truncated", input: "0.5B", want: 0},
		{name: "Zero", input: "0MB", want: 0},
		{name: "Unknown unit", input: "5XB", wantErr: true},
		{name: "Lowercase unit", input: "5mb", wantErr: true},
		{name: "Missing unit", input: "500", wantErr: true},
		{name: "Missing number", input: "MB", wantErr: true},
		{name: "Inner space", input: "5 MB", wantErr: true},
		{name: "Negative", input: "-5MB", wantErr: true},
		{name: "Trailing dot", input: "5.MB", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
		{name: "Terabytes unsupported", input: "1TB", wantErr: true},
		{name: "Largest whole gigabytes", input: "8589934591GB", want: 8589934591 * GB},
		{name: "Overflowing gigabytes", input: "9000000000GB", wantErr: true},
		{name: "Overflowing bytes", input: "99999999999999999999B", wantErr: true},
		{name: "Exactly 2^63 bytes", input: "8589934592GB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFormat) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalidFormat", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse should panic on invalid input")
		}
	}()
	MustParse("lots")
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{5 * MB, "5.0 MiB"},
		{-2048, "-2.0 KiB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Format(tt.in); got != tt.want {
				t.Errorf("Format(%d) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLimit(t *testing.T) {
	if NoLimit.IsSet() {
		t.Error("NoLimit should be unset")
	}
	var zero Limit
	if zero.IsSet() {
		t.Error("zero Limit should be unset")
	}
	if got := zero.String(); got != "unlimited" {
		t.Errorf("String() = %q, want unlimited", got)
	}

	l, err := ParseLimit("10MB")
	if err != nil {
		t.Fatalf("ParseLimit: %v", err)
	}
	if n, ok := l.Bytes(); !ok || n != 10*MB {
		t.Errorf("Bytes() = (%d, %v), want (%d, true)", n, ok, 10*MB)
	}

	empty, err := ParseLimit("")
	if err != nil || empty.IsSet() {
		t.Errorf("ParseLimit(\"\") = (%v, %v), want unset", empty, err)
	}

	if _, err := ParseLimit("ten"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("ParseLimit(\"ten\") error = %v, want ErrInvalidFormat", err)
	}
}

func TestLimitText(t *testing.T) {
	var l Limit
	if err := l.UnmarshalText([]byte("2KB")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	text, err := l.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "2048B" {
		t.Errorf("MarshalText() = %q, want 2048B", text)
	}

	if err := l.UnmarshalText([]byte("")); err != nil || l.IsSet() {
		t.Errorf("UnmarshalText(\"\") should reset to unset, got %v, %v", l, err)
	}
	if err := l.UnmarshalText([]byte("2kb")); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("UnmarshalText(\"2kb\") error = %v, want ErrInvalidFormat", err)
	}
}
