package pipeline

import (
	"os"
	"path/filepath"
	"strings"
)

// artifactExtensions are the extensions the exporter appends itself. A user
// supplied path carrying one of them is treated as a base name so requesting
// "out.svg" never produces "out.svg.svg".
var artifactExtensions = map[string]bool{
	".dot": true,
	".svg": true,
	".png": true,
}

// ResolveBase turns the user's output path into the base path that artifact
// extensions are appended to.
//
// The rules, in order:
//   - empty path: fallback name in the current directory
//   - existing directory: fallback name inside that directory
//   - path with a known artifact extension: the path without the extension
//   - anything else: the path as given
//
// The fallback name is sanitized so a contract name with path separators
// can never escape the target directory.
func ResolveBase(output, fallback string) (string, error) {
	name := sanitizeName(fallback)

	if output == "" {
		return name, nil
	}

	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, name), nil
	}

	if ext := filepath.Ext(output); artifactExtensions[strings.ToLower(ext)] {
		return strings.TrimSuffix(output, ext), nil
	}

	return output, nil
}

// sanitizeName reduces a fallback name to something safe as a file name.
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return DefaultName
	}
	return name
}
