package config

import "gopkg.in/yaml.v3"

func yamlMarshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
