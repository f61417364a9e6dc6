// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"flatpak-bundler/pkg/cueutil"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// FormatJSON is a JSON manifest (.json).
	FormatJSON Format = "json"
	// FormatCUE is a CUE manifest (.cue).
	FormatCUE Format = "cue"
	// FormatYAML is a YAML manifest (.yaml, .yml).
	FormatYAML Format = "yaml"
	// FormatTOML is a TOML manifest (.toml).
	FormatTOML Format = "toml"
)

// ErrUnsupportedFormat is returned for manifest files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported manifest format")

//go:embed manifest_schema.cue
var schema []byte

// Format is a manifest file encoding.
type Format string

// document is the schema-validated shape of a manifest file.
type document struct {
	ID                      string     `json:"id"`
	Branch                  string     `json:"branch"`
	Runtime                 string     `json:"runtime"`
	RuntimeVersion          string     `json:"runtime-version"`
	SDK                     string     `json:"sdk"`
	Base                    string     `json:"base"`
	BaseVersion             string     `json:"base-version"`
	RuntimeFlatpakref       string     `json:"runtime-flatpakref"`
	SDKFlatpakref           string     `json:"sdk-flatpakref"`
	BaseFlatpakref          string     `json:"base-flatpakref"`
	Command                 string     `json:"command"`
	Files                   [][]string `json:"files"`
	Symlinks                [][]string `json:"symlinks"`
	FinishArgs              []string   `json:"finish-args"`
	ExtraBuildInitArgs      []string   `json:"extra-build-init-args"`
	ExtraFlatpakBuilderArgs []string   `json:"extra-flatpak-builder-args"`
	ExtraFinishArgs         []string   `json:"extra-finish-args"`
	ExtraExportArgs         []string   `json:"extra-export-args"`
	ExtraBundleArgs         []string   `json:"extra-bundle-args"`
}

// knownKeys are consumed into typed fields; every other key lands in Manifest.Extra.
var knownKeys = map[string]bool{
	"id": true, "branch": true, "runtime": true, "runtime-version": true, "sdk": true,
	"base": true, "base-version": true, "runtime-flatpakref": true, "sdk-flatpakref": true,
	"base-flatpakref": true, "command": true, "files": true, "symlinks": true, "modules": true,
	"finish-args": true, "extra-build-init-args": true, "extra-flatpak-builder-args": true,
	"extra-finish-args": true, "extra-export-args": true, "extra-bundle-args": true,
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s (use .json, .cue, .yaml, .yml or .toml)", ErrUnsupportedFormat, path)
	}
}

// Load reads a manifest file. Relative file sources are resolved against the
// directory containing the manifest.
func Load(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data, format, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve manifest directory: %w", err)
	}
	for i, f := range m.Files {
		if !filepath.IsAbs(f.Source) {
			m.Files[i].Source = filepath.Join(base, f.Source)
		}
	}
	return m, nil
}

// Parse decodes a manifest in the given format. name is used in error messages.
// It does not check required fields; call Validate for that.
func Parse(data []byte, format Format, name string) (*Manifest, error) {
	raw, err := decodeRaw(data, format, name)
	if err != nil {
		return nil, err
	}
	raw = CanonicalizeKeys(raw)

	// Every format is validated as JSON so the schema sees one representation.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	doc, err := cueutil.ParseAndDecode[document](schema, normalized, "#Manifest", cueutil.WithFilename(name))
	if err != nil {
		return nil, err
	}
	return fromDocument(doc, raw), nil
}

func decodeRaw(data []byte, format Format, name string) (map[string]any, error) {
	var raw map[string]any
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &raw)
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	case FormatCUE:
		return cueutil.DecodeMap(data, name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func fromDocument(doc *document, raw map[string]any) *Manifest {
	m := &Manifest{
		ID:                      doc.ID,
		Branch:                  doc.Branch,
		Runtime:                 doc.Runtime,
		RuntimeVersion:          doc.RuntimeVersion,
		SDK:                     doc.SDK,
		Base:                    doc.Base,
		BaseVersion:             doc.BaseVersion,
		RuntimeFlatpakref:       doc.RuntimeFlatpakref,
		SDKFlatpakref:           doc.SDKFlatpakref,
		BaseFlatpakref:          doc.BaseFlatpakref,
		Command:                 doc.Command,
		FinishArgs:              doc.FinishArgs,
		ExtraBuildInitArgs:      doc.ExtraBuildInitArgs,
		ExtraFlatpakBuilderArgs: doc.ExtraFlatpakBuilderArgs,
		ExtraFinishArgs:         doc.ExtraFinishArgs,
		ExtraExportArgs:         doc.ExtraExportArgs,
		ExtraBundleArgs:         doc.ExtraBundleArgs,
	}

	// An explicit empty list is a valid manifest; a missing key is not.
	if _, ok := raw["files"]; ok {
		m.Files = make([]FileMapping, 0, len(doc.Files))
		for _, pair := range doc.Files {
			m.Files = append(m.Files, FileMapping{Source: pair[0], Dest: pair[1]})
		}
	}
	for _, pair := range doc.Symlinks {
		m.Symlinks = append(m.Symlinks, Symlink{Target: pair[0], Link: pair[1]})
	}
	if modules, ok := raw["modules"].([]any); ok {
		m.Modules = modules
	}

	for k, v := range raw {
		if !knownKeys[k] {
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[k] = v
		}
	}
	return m
}
