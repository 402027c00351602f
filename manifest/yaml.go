package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes and validates a single manifest payload.
func ParseYAML(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, fmt.Errorf("manifest: payload is empty")
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("manifest: decode: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc.Normalized(), nil
}

// LoadFile reads a YAML manifest from disk.
func LoadFile(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("manifest: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("manifest: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	doc, err := ParseYAML(data)
	if err != nil {
		return Document{}, fmt.Errorf("manifest: %s: %w", path, err)
	}
	doc.Path = filepath.Clean(path)
	return doc, nil
}

// LoadDir scans a directory for manifest files and returns the parsed
// documents sorted by path. Both YAML and HCL manifests are picked up.
// A missing directory is treated as "no manifests" to simplify startup.
func LoadDir(dir string) ([]Document, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("manifest: read %s: %w", trimmed, err)
	}
	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(trimmed, name)
		switch {
		case isYAMLFile(name):
			doc, err := LoadFile(path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		case isHCLFile(name):
			doc, err := LoadHCLFile(path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return nil, nil
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

func isHCLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".hcl")
}
