package webexport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSeed reads and parses a YAML seed file.
func LoadSeed(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}

	return seed.Bookmarks, nil
}

// LoadFile parses an export file, dispatching on the extension:
// .html/.htm is treated as a browser export, anything else as YAML.
func LoadFile(path string) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read export file: %w", err)
		}
		return ParseNetscape(bytes.NewReader(data))
	default:
		return LoadSeed(path)
	}
}
