package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SecretConfig holds credentials kept out of the main config file.
type SecretConfig struct {
	Moralis struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"moralis"`
}

// LoadSecretConfig loads the API key from a separate yaml file.
// Returns an error if the file is missing (fail fast).
func LoadSecretConfig(path string) (*SecretConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret config: %w", err)
	}

	var cfg SecretConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse secret config: %w", err)
	}

	return &cfg, nil
}
