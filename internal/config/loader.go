package config

import (
	"fmt"
	"os"

	"onboarding_bot/internal/catalog"

	"gopkg.in/yaml.v3"
)

// YAMLCatalog represents the structure of a questionnaire file:
//
//	questions:
//	  - "1. What do you hope to gain?"
//	  - "2. ..."
type YAMLCatalog struct {
	Questions []string `yaml:"questions"`
}

// LoadCatalog reads a questionnaire file. An empty path selects the built-in catalog.
func LoadCatalog(filepath string) (*catalog.Catalog, error) {
	if filepath == "" {
		return catalog.Default(), nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from YAML bytes
func ParseCatalog(data []byte) (*catalog.Catalog, error) {
	var file YAMLCatalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	c, err := catalog.New(file.Questions)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog file: %w", err)
	}
	return c, nil
}
