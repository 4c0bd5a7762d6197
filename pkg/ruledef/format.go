package ruledef

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mnohosten/ptstem/pkg/compression"
)

// Format is a rule document encoding
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatXML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	default:
		return "unknown"
	}
}

// Extension returns the file extension used for the format
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatXML:
		return ".xml"
	default:
		return ".yaml"
	}
}

// ParseFormat parses a format name
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	default:
		return 0, fmt.Errorf("unsupported rule format: %s", name)
	}
}

// FormatFromPath detects the document format and compression of path. The
// compression extension, if any, must be the outer one.
func FormatFromPath(path string) (Format, compression.Algorithm, error) {
	alg, inner := compression.FromPath(path)
	ext := strings.TrimPrefix(filepath.Ext(inner), ".")
	if ext == "" {
		return 0, alg, fmt.Errorf("cannot detect rule format of %s", path)
	}
	format, err := ParseFormat(ext)
	if err != nil {
		return 0, alg, fmt.Errorf("cannot detect rule format of %s: %w", path, err)
	}
	return format, alg, nil
}

// AlgorithmName derives the algorithm name from a rule file name:
// "rules/Orengo.yaml.zst" -> "orengo".
func AlgorithmName(path string) string {
	_, inner := compression.FromPath(filepath.Base(path))
	return strings.ToLower(strings.TrimSuffix(inner, filepath.Ext(inner)))
}

// Decode parses a document in the given format. Unknown fields are rejected.
func Decode(data []byte, format Format) (*Document, error) {
	var doc Document

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &SchemaError{Reason: "empty document"}
			}
			return nil, &SchemaError{Reason: "invalid yaml", Err: err}
		}

	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &SchemaError{Reason: "empty document"}
			}
			return nil, &SchemaError{Reason: "invalid json", Err: err}
		}

	case FormatXML:
		if err := xml.Unmarshal(data, &doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &SchemaError{Reason: "empty document"}
			}
			return nil, &SchemaError{Reason: "invalid xml", Err: err}
		}

	default:
		return nil, fmt.Errorf("unsupported rule format: %v", format)
	}

	if len(doc.Steps) == 0 {
		return nil, &SchemaError{Path: "steps", Reason: "document defines no steps"}
	}
	return &doc, nil
}

// Encode serializes a document in the given format
func Encode(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		return buf.Bytes(), nil

	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode json: %w", err)
		}
		return append(data, '\n'), nil

	case FormatXML:
		data, err := xml.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode xml: %w", err)
		}
		return append([]byte(xml.Header), append(data, '\n')...), nil

	default:
		return nil, fmt.Errorf("unsupported rule format: %v", format)
	}
}

// Parse decodes raw (possibly compressed) file contents named by path
func Parse(path string, data []byte) (*Document, error) {
	format, alg, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	plain, err := compression.Decompress(alg, data)
	if err != nil {
		return nil, &SchemaError{Source: path, Reason: "cannot decompress " + alg.String() + " data", Err: err}
	}

	doc, err := Decode(plain, format)
	if err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.Source = path
		}
		return nil, err
	}
	return doc, nil
}
