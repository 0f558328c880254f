package intake

import (
	"fmt"
	"strings"

	"media-intake/internal/accept"
	"media-intake/internal/sizes"
)

// PolicyConfig is the textual form of a Policy as it appears in environment
// variables, YAML policy files and API payloads.
type PolicyConfig struct {
	Accept           string `yaml:"accept" json:"accept"`
	MinFileSize      string `yaml:"minFileSize" json:"minFileSize"`
	MaxFileSize      string `yaml:"maxFileSize" json:"maxFileSize"`
	MaxTotalFileSize string `yaml:"maxTotalFileSize" json:"maxTotalFileSize"`
	AllowMultiple    bool   `yaml:"allowMultiple" json:"allowMultiple"`
}

// Policy is a parsed, ready-to-use set of intake rules. Size strings are
// parsed once here so that a bad configuration fails before any file is seen.
type Policy struct {
	Accept        accept.Spec
	MinSize       sizes.Limit
	MaxSize       sizes.Limit
	MaxTotalSize  sizes.Limit
	AllowMultiple bool
}

// NewPolicy parses cfg. It returns an error wrapping sizes.ErrInvalidFormat
// naming the offending field, or an error when min exceeds max.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	p := &Policy{
		Accept:        accept.Parse(cfg.Accept),
		AllowMultiple: cfg.AllowMultiple,
	}

	bounds := []struct {
		field string
		value string
		dst   *sizes.Limit
	}{
		{"minFileSize", cfg.MinFileSize, &p.MinSize},
		{"maxFileSize", cfg.MaxFileSize, &p.MaxSize},
		{"maxTotalFileSize", cfg.MaxTotalFileSize, &p.MaxTotalSize},
	}
	for _, b := range bounds {
		limit, err := sizes.ParseLimit(strings.TrimSpace(b.value))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.field, err)
		}
		*b.dst = limit
	}

	minBytes, minSet := p.MinSize.Bytes()
	maxBytes, maxSet := p.MaxSize.Bytes()
	if minSet && maxSet && minBytes > maxBytes {
		return nil, fmt.Errorf("minFileSize %s is larger than maxFileSize %s", p.MinSize, p.MaxSize)
	}

	return p, nil
}

// AllowAll returns a policy that accepts any number of files of any type and size.
func AllowAll() *Policy {
	return &Policy{AllowMultiple: true}
}

// Config returns the textual form of the policy.
func (p *Policy) Config() PolicyConfig {
	return PolicyConfig{
		Accept:           p.Accept.String(),
		MinFileSize:      limitText(p.MinSize),
		MaxFileSize:      limitText(p.MaxSize),
		MaxTotalFileSize: limitText(p.MaxTotalSize),
		AllowMultiple:    p.AllowMultiple,
	}
}

func limitText(l sizes.Limit) string {
	text, _ := l.MarshalText()
	return string(text)
}

func (p *Policy) String() string {
	accepts := p.Accept.String()
	if accepts == "" {
		accepts = "*"
	}
	return fmt.Sprintf("accept=%s min=%s max=%s total=%s multiple=%v",
		accepts, p.MinSize, p.MaxSize, p.MaxTotalSize, p.AllowMultiple)
}
