package variants

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// tableFile is the on-disk shape of a variant table.
type tableFile struct {
	Mode     Mode      `json:"mode"`
	Default  string    `json:"default"`
	Variants []Variant `json:"variants"`
}

// LoadTable reads a variant table from a JSON file.
//
//	{"mode": "flat", "default": "rabbit", "variants": [{"id": "rabbit", ...}]}
func LoadTable(path string) (*Table, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("variant table must have .json extension, got %q", ext)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read variant table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes a variant table from JSON.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse variant table: %w", err)
	}
	if f.Default == "" && len(f.Variants) > 0 {
		f.Default = f.Variants[0].ID
	}
	return NewTable(f.Mode, f.Default, f.Variants...)
}
