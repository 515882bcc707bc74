package policy

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// DefaultMimeType is served when a file's extension has no table entry.
const DefaultMimeType = "application/octet-stream"

// Registry holds the file policy for generated sites: the set of blocked
// server-executable extensions and the extension to MIME table used by the
// preview server. Loaded once from the embedded YAML; read-only afterwards.
type Registry struct {
	blocked   map[string]struct{}
	mimeTypes map[string]string
}

type policyFile struct {
	BlockedExtensions []string          `yaml:"blocked_extensions"`
	MimeTypes         map[string]string `yaml:"mime_types"`
}

// NewRegistry loads the embedded file policy
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/files.yaml")
	if err != nil {
		return nil, fmt.Errorf("read file policy: %w", err)
	}

	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("unmarshal file policy: %w", err)
	}

	if len(pf.BlockedExtensions) == 0 {
		return nil, fmt.Errorf("file policy has no blocked extensions")
	}

	r := &Registry{
		blocked:   make(map[string]struct{}, len(pf.BlockedExtensions)),
		mimeTypes: make(map[string]string, len(pf.MimeTypes)),
	}
	for _, ext := range pf.BlockedExtensions {
		r.blocked[strings.ToLower(ext)] = struct{}{}
	}
	for ext, mime := range pf.MimeTypes {
		r.mimeTypes[strings.ToLower(ext)] = mime
	}

	return r, nil
}

// IsBlockedExtension reports whether the extension (without dot, any case)
// denotes a server-executable file type.
func (r *Registry) IsBlockedExtension(ext string) bool {
	_, ok := r.blocked[strings.ToLower(ext)]
	return ok
}

// MimeType returns the Content-Type for an extension, falling back to
// DefaultMimeType.
func (r *Registry) MimeType(ext string) string {
	if mime, ok := r.mimeTypes[strings.ToLower(ext)]; ok {
		return mime
	}
	return DefaultMimeType
}
