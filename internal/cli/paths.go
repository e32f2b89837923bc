package cli

import (
	"os"
	"path/filepath"
	"strings"
)

// cacheDir returns the per-user cache directory for explorer responses,
// e.g. ~/.cache/solgraph on Linux.
func cacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "solgraph"), nil
}

// isSolidityPath reports whether arg names local Solidity source: a .sol
// file or a directory. Anything else is treated as a contract address.
func isSolidityPath(arg string) bool {
	if strings.HasSuffix(strings.ToLower(arg), ".sol") {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && info.IsDir()
}

// collectSolidityFiles expands file and directory arguments into the list of
// .sol files to parse. Directories are walked recursively; file order is
// deterministic (walk order is lexical within each argument).
func collectSolidityFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.Walk(arg, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && strings.HasSuffix(strings.ToLower(path), ".sol") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
