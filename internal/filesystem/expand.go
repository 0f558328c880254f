package filesystem

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Expand resolves paths into the regular files they name. Plain files are
// returned as given; directories contribute every non-hidden regular file
// beneath them in lexical order. Argument order is preserved.
func Expand(paths []string, config RetryConfig) ([]string, error) {
	var files []string

	for _, p := range paths {
		info, err := Stat(p, config)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if !info.Mode().IsRegular() {
				return nil, fmt.Errorf("%s: not a regular file", p)
			}
			files = append(files, p)
			continue
		}

		found, err := walk(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	return files, nil
}

func walk(root string) ([]string, error) {
	var found []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(found)
	return found, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
