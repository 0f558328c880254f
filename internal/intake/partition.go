package intake

import (
	"fmt"
	"strings"

	"media-intake/internal/accept"
	"media-intake/internal/sizes"
)

// Partition splits files into accepted and rejected sets according to p.
// It is pure: files is not modified and no I/O happens. A nil policy
// accepts everything.
func Partition(files []File, p *Policy) Result {
	if p == nil {
		p = AllowAll()
	}

	failures := make([]*ValidationError, len(files))
	reject := func(i int, kind ErrorKind, detail string) {
		failures[i] = &ValidationError{File: files[i], Kind: kind, Detail: detail}
	}

	// Per-file rules
	minBytes, hasMin := p.MinSize.Bytes()
	maxBytes, hasMax := p.MaxSize.Bytes()
	for i, f := range files {
		switch {
		case !p.Accept.Matches(f.Name, f.Type):
			reject(i, TypeRejected, typeDetail(f, p))
		case hasMin && f.Size < minBytes:
			reject(i, SizeTooSmall, fmt.Sprintf("file is %s, minimum is %s", sizes.Format(f.Size), sizes.Format(minBytes)))
		case hasMax && f.Size > maxBytes:
			reject(i, SizeTooLarge, fmt.Sprintf("file is %s, maximum is %s", sizes.Format(f.Size), sizes.Format(maxBytes)))
		}
	}

	// Cardinality: only the first valid file survives
	if !p.AllowMultiple {
		seen := false
		for i := range files {
			if failures[i] != nil {
				continue
			}
			if seen {
				reject(i, MultipleNotAllowed, "only one file may be submitted")
				continue
			}
			seen = true
		}
	}

	// Aggregate: first file to overflow the running total, and everything after it
	if totalBytes, ok := p.MaxTotalSize.Bytes(); ok {
		var running int64
		overflowed := false
		for i, f := range files {
			if failures[i] != nil {
				continue
			}
			if !overflowed && running+f.Size > totalBytes {
				overflowed = true
			}
			if overflowed {
				reject(i, TotalSizeExceeded, fmt.Sprintf("total would be %s, maximum is %s",
					sizes.Format(running+f.Size), sizes.Format(totalBytes)))
				continue
			}
			running += f.Size
		}
	}

	res := Result{
		Accepted: make([]File, 0, len(files)),
		Rejected: []File{},
		Errors:   []ValidationError{},
	}
	for i, f := range files {
		if failures[i] == nil {
			res.Accepted = append(res.Accepted, f)
			continue
		}
		res.Rejected = append(res.Rejected, f)
		res.Errors = append(res.Errors, *failures[i])
	}
	return res
}

func typeDetail(f File, p *Policy) string {
	declared := f.Type
	if declared == "" {
		declared = "unknown type"
	}
	accepted := make([]string, 0)
	for _, tok := range p.Accept.Tokens() {
		if tok.Kind == accept.TokenCategory {
			accepted = append(accepted, tok.Value+"/*")
			continue
		}
		accepted = append(accepted, tok.Value)
	}
	return fmt.Sprintf("%s is not accepted (allowed: %s)", declared, strings.Join(accepted, ", "))
}
