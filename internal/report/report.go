package report

import (
	"encoding/json"
	"os"

	"example.com/tigate/internal/rules"
)

// Validation bundles an acceptance verdict with the identity of the capture
// it was computed from.
type Validation struct {
	Source     string                 `json:"source"`
	SourceHash string                 `json:"sourceHash,omitempty"`
	SourceSize int64                  `json:"sourceSize,omitempty"`
	Frames     int                    `json:"frames"`
	Report     rules.AcceptanceReport `json:"report"`
}

func SaveValidationJSON(v Validation, out string) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadValidationJSON(path string) (Validation, error) {
	var v Validation
	b, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	err = json.Unmarshal(b, &v)
	return v, err
}
