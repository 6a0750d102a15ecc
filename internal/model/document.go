package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

// Supported document encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension. Unknown
// extensions are read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// DecodeMap parses a document into a generic map, the shape the schema
// validator works on.
func DecodeMap(data []byte, format Format) (map[string]any, error) {
	var raw map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("error parsing yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("error parsing json: %w", err)
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("document is empty")
	}
	return raw, nil
}

// FromMap converts a generic document map into a typed value.
func FromMap(raw map[string]any, v any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("error encoding document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("error decoding document: %w", err)
	}
	return nil
}

// DecodeAssessment parses an assessment document.
func DecodeAssessment(data []byte, format Format) (*Assessment, error) {
	raw, err := DecodeMap(data, format)
	if err != nil {
		return nil, err
	}
	var a Assessment
	if err := FromMap(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DecodeTemplate parses a template document.
func DecodeTemplate(data []byte, format Format) (*Template, error) {
	raw, err := DecodeMap(data, format)
	if err != nil {
		return nil, err
	}
	var t Template
	if err := FromMap(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadAssessment reads an assessment from disk.
func LoadAssessment(path string) (*Assessment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assessment: %w", err)
	}
	a, err := DecodeAssessment(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// LoadTemplate reads a template from disk.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	t, err := DecodeTemplate(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// EncodeAssessment serializes an assessment.
func EncodeAssessment(a *Assessment, format Format) ([]byte, error) {
	return encode(a, format)
}

// EncodeTemplate serializes a template.
func EncodeTemplate(t *Template, format Format) ([]byte, error) {
	return encode(t, format)
}

func encode(v any, format Format) ([]byte, error) {
	if format == FormatYAML {
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("error marshaling yaml: %w", err)
		}
		return data, nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error marshaling json: %w", err)
	}
	return data, nil
}

// SaveAssessment writes an assessment to disk, creating parent directories.
func SaveAssessment(a *Assessment, path string) error {
	data, err := EncodeAssessment(a, FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing assessment: %w", err)
	}
	return nil
}
