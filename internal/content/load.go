package content

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decode reads a JSON request body.
func Decode(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(io.LimitReader(r, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

const maxRequestBytes = 4 << 20

// LoadFile reads a request document from YAML or JSON. Relative local paths
// inside the document resolve against the document's directory.
func LoadFile(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("read request file: %w", err)
	}

	// YAML is decoded generically and re-encoded as JSON so both formats
	// share the field aliases handled by UnmarshalJSON.
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Request{}, fmt.Errorf("parse request file %s: %w", path, err)
	}
	if doc == nil {
		return Request{}, fmt.Errorf("request file %s is empty", path)
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return Request{}, fmt.Errorf("normalize request file %s: %w", path, err)
	}
	var req Request
	if err := json.Unmarshal(encoded, &req); err != nil {
		return Request{}, fmt.Errorf("decode request file %s: %w", path, err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return Request{}, fmt.Errorf("resolve request directory: %w", err)
	}
	req.resolveLocal(base)
	return req, nil
}

func (r *Request) resolveLocal(base string) {
	resolve := func(source string) string {
		if source == "" || !IsLocal(source) {
			return source
		}
		path := strings.TrimPrefix(source, "file://")
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		return path
	}
	r.LogoURL = resolve(r.LogoURL)
	r.BackgroundMusicURL = resolve(r.BackgroundMusicURL)
	for i := range r.Items {
		r.Items[i].URL = resolve(r.Items[i].URL)
		r.Items[i].OverlayURL = resolve(r.Items[i].OverlayURL)
	}
}

// LocalPath returns the filesystem path for a local source.
func LocalPath(source string) string {
	return strings.TrimPrefix(strings.TrimSpace(source), "file://")
}
