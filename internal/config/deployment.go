package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"rollout.sh/internal/rolloutmodel"
)

// LoadDeploymentConfig reads a DeploymentConfig from a YAML file at path,
// filling in DefaultDeploymentConfig for any field the file omits.
// Mirrors the teacher's dual-format config loading, narrowed to YAML
// since the CLI's document formats (spec §6) are YAML/JSON by extension
// and a deployment config file is always YAML.
func LoadDeploymentConfig(path string) (rolloutmodel.DeploymentConfig, error) {
	cfg := rolloutmodel.DefaultDeploymentConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read deployment config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse deployment config %s: %w", path, err)
	}

	return cfg, nil
}
