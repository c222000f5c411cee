package config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
)

// ToYaml formats the configuration into YAML and returns the bytes.
func ToYaml(c Config) ([]byte, error) {
	return yaml.Marshal(c)
}

// ToYamlFile writes the configuration to a YAML file.
func ToYamlFile(c Config, path string) error {
	b, err := ToYaml(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// Parse parses a YAML doc into conf. Environment variables in path
// settings ($HOME, ${CAMPAIGN}) are expanded.
func Parse(raw []byte, conf *Config) error {
	if err := yaml.Unmarshal(raw, conf); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	conf.expandPaths()
	return nil
}

// ParseFile parses the YAML config file at path into conf.
// An empty path leaves conf untouched.
func ParseFile(path string, conf *Config) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := Parse(raw, conf); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Config) expandPaths() {
	for _, p := range []*string{
		&c.Ensemble.CampaignDir,
		&c.Journal.Path,
		&c.Metrics.TextfilePath,
		&c.Logger.OutputFile,
	} {
		*p = os.ExpandEnv(*p)
	}
}
