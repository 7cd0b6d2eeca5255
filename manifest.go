package capreg

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest keys read by the registry and the standard modules.
const (
	ManifestVerifiedKey = "isVerified"
	ManifestIDKey       = "id"
	ManifestNameKey     = "name"
	ManifestSDKKey      = "sdkVersion"
)

// Manifest is the document describing a task. Its structure belongs to the
// modules consuming it; the registry only reads the verification flag.
type Manifest map[string]any

// IsVerified reports whether the manifest has passed verification. Only a
// boolean true or the string "true" (any case) counts; everything else,
// including a missing flag, reads as unverified.
func (m Manifest) IsVerified() bool {
	v, ok := m[ManifestVerifiedKey]
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}

// GetString returns the value under key when it is a string.
func (m Manifest) GetString(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// ID returns the manifest id, or "" when absent.
func (m Manifest) ID() string {
	id, _ := m.GetString(ManifestIDKey)
	return id
}

// ParseManifest decodes a JSON or YAML manifest document.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if m == nil {
		return nil, ErrManifestEmpty
	}
	return m, nil
}

// LoadManifest reads and decodes a manifest file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}
