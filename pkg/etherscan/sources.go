package etherscan

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/solgraph/solgraph/pkg/errors"
)

// parseSourceCode splits the SourceCode field into individual files.
//
// Explorers return one of three shapes:
//   - plain Solidity text (single-file verification)
//   - a JSON object of path → {content} (legacy multi-file verification)
//   - a standard-json input wrapped in doubled braces: {{"language": ...,
//     "sources": {path: {content}, ...}}}
//
// File order is preserved exactly as returned; the diagram's folder grouping
// and entity IDs depend on it.
func parseSourceCode(raw, contractName, address string) ([]SourceFile, error) {
	trimmed := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}"):
		// Doubled braces guard the standard-json form; strip one layer.
		inner := trimmed[1 : len(trimmed)-1]
		return parseBundle([]byte(inner), address)

	case strings.HasPrefix(trimmed, "{"):
		return parseBundle([]byte(trimmed), address)

	default:
		name := contractName
		if name == "" {
			name = "Contract"
		}
		return []SourceFile{{Filename: name + ".sol", Code: raw}}, nil
	}
}

// parseBundle handles both the standard-json form (files under a "sources"
// key) and the bare path → {content} map.
func parseBundle(data []byte, address string) ([]SourceFile, error) {
	var probe struct {
		Sources json.RawMessage `json:"sources"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err,
			"malformed source bundle for %s: %s", address, truncate(string(data), 200))
	}
	if probe.Sources != nil {
		return parseFiles(probe.Sources, address)
	}
	return parseFiles(data, address)
}

// parseFiles decodes an object of path → {content}, preserving key order.
// encoding/json map decoding would lose it, so the object is walked with a
// token decoder instead.
func parseFiles(data []byte, address string) ([]SourceFile, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, errors.New(errors.ErrCodeInvalidSource,
			"source bundle for %s is not an object: %s", address, truncate(string(data), 200))
	}

	var files []SourceFile
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSource, err,
				"read source bundle for %s", address)
		}
		name, _ := keyTok.(string)

		var entry struct {
			Content string `json:"content"`
		}
		if err := dec.Decode(&entry); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSource, err,
				"decode source file %q for %s", name, address)
		}
		files = append(files, SourceFile{Filename: name, Code: entry.Content})
	}

	if len(files) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSource,
			"source bundle for %s contains no files", address)
	}
	return files, nil
}
