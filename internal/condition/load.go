package condition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Import decodes a JSON configuration document and normalizes it.
func Import(data []byte) (Spec, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Spec{}, malformed("invalid JSON: %v", err)
	}
	return Normalize(doc)
}

// ImportTOML decodes a TOML configuration document and normalizes it.
func ImportTOML(data []byte) (Spec, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Spec{}, malformed("invalid TOML: %v", err)
	}
	return Normalize(doc)
}

// Export serializes the spec as indented JSON.
func Export(spec Spec) ([]byte, error) {
	return json.MarshalIndent(spec, "", "  ")
}

// ExportTOML serializes the spec as TOML.
func ExportTOML(spec Spec) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(spec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isTOML(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".toml")
}

// LoadFile reads a .json or .toml configuration file.
func LoadFile(filename string) (Spec, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Spec{}, fmt.Errorf("failed to read config: %w", err)
	}
	if isTOML(filename) {
		return ImportTOML(data)
	}
	return Import(data)
}

// SaveFile writes spec to filename, as TOML when the extension says so and JSON otherwise.
func SaveFile(filename string, spec Spec) error {
	export := Export
	if isTOML(filename) {
		export = ExportTOML
	}
	data, err := export(spec)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(filename, data, 0644)
}
