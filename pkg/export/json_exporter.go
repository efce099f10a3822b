package export

import (
	"encoding/json"
	"fmt"
)

// JSONExporter renders collections into pretty-printed JSON documents.
type JSONExporter struct{}

// NewJSONExporter builds a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Render marshals the value with two-space indentation. Time fields marshal as
// ISO-8601 (RFC 3339) strings, which keeps exported documents re-importable.
func (e *JSONExporter) Render(value interface{}) ([]byte, error) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return append(payload, '\n'), nil
}
