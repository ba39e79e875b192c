// Package manifest records what went into a build and what came out of it.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Build statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// BuildManifest is a complete record of a build's inputs, plugins and outputs.
type BuildManifest struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Inputs    Inputs          `json:"inputs"`
	Plugins   []PluginVersion `json:"plugins"`
	Outputs   Outputs         `json:"outputs"`
	Status    string          `json:"status"`
	Duration  int64           `json:"duration_ms"`
}

// Inputs captures all inputs to the build.
type Inputs struct {
	Articles   []ArticleInput `json:"articles"`
	ConfigHash string         `json:"config_hash"`
}

// ArticleInput is one source article.
type ArticleInput struct {
	Path        string `json:"path"`
	URL         string `json:"url"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// PluginVersion represents a versioned plugin used during a build.
type PluginVersion struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Priority int    `json:"priority"`
}

// Outputs captures the written files, keyed by slash-separated path
// relative to the output directory.
type Outputs struct {
	ArtifactHashes map[string]string `json:"artifact_hashes,omitempty"`
}

// AddArtifact records the SHA-256 of a written file.
func (o *Outputs) AddArtifact(path string, data []byte) {
	if o.ArtifactHashes == nil {
		o.ArtifactHashes = make(map[string]string)
	}
	o.ArtifactHashes[path] = HashBytes(data)
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash of the manifest's inputs and plugins.
// Two builds with the same hash render the same site.
func (m *BuildManifest) Hash() (string, error) {
	articles := slices.Clone(m.Inputs.Articles)
	slices.SortFunc(articles, func(a, b ArticleInput) int { return strings.Compare(a.Path, b.Path) })
	plugins := slices.Clone(m.Plugins)
	slices.SortFunc(plugins, func(a, b PluginVersion) int { return strings.Compare(a.Name, b.Name) })

	hashInput := struct {
		Articles   []ArticleInput  `json:"articles"`
		ConfigHash string          `json:"config_hash"`
		Plugins    []PluginVersion `json:"plugins"`
	}{articles, m.Inputs.ConfigHash, plugins}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	return HashBytes(data), nil
}

// HashJSON hashes the JSON encoding of v.
func HashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	return HashBytes(data), nil
}

// HashBytes returns the hex SHA-256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}
