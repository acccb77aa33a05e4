package stubserver

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed suggestions.yaml
var suggestionsYAML []byte

// rejection reasons used as keys in suggestions.yaml
const (
	reasonNoFace        = "no_face"
	reasonLowConfidence = "low_confidence"
	reasonNoMatch       = "no_match"
	reasonLiveness      = "liveness"
)

// loadSuggestions parses the embedded retry guidance.
func loadSuggestions() (map[string][]string, error) {
	suggestions := make(map[string][]string)
	if err := yaml.Unmarshal(suggestionsYAML, &suggestions); err != nil {
		return nil, fmt.Errorf("parsing embedded suggestions: %w", err)
	}
	return suggestions, nil
}
