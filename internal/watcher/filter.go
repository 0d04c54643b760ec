package watcher

import (
	"path/filepath"
	"strings"
)

// extFilter matches file extensions case-insensitively, with or without the dot.
// An empty filter matches every file.
type extFilter map[string]struct{}

func newExtFilter(extensions []string) extFilter {
	f := make(extFilter, len(extensions))
	for _, e := range extensions {
		if e = normExt(e); e != "" {
			f[e] = struct{}{}
		}
	}
	return f
}

func (f extFilter) match(path string) bool {
	if len(f) == 0 {
		return true
	}
	_, ok := f[normExt(filepath.Ext(path))]
	return ok
}

func normExt(e string) string {
	return strings.TrimPrefix(strings.ToLower(e), ".")
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
