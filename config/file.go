package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// yamlFile and tomlFile mirror the JSON top-level shape.
type defFile struct {
	Hydras []Definition `yaml:"hydras" toml:"hydras"`
}

// LoadYAML parses hydra definitions from YAML.
func LoadYAML(data []byte) ([]Definition, error) {
	var f defFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDefinition, err)
	}
	return f.Hydras, nil
}

// LoadTOML parses hydra definitions from TOML.
func LoadTOML(data []byte) ([]Definition, error) {
	var f defFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDefinition, err)
	}
	return f.Hydras, nil
}

// LoadFile reads a definition file, dispatching on extension. JSON,
// YAML (.yaml/.yml) and TOML are supported.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(data)
	case ".yaml", ".yml":
		return LoadYAML(data)
	case ".toml":
		return LoadTOML(data)
	default:
		return nil, fmt.Errorf("%w: unsupported definition format %q", ErrBadDefinition, filepath.Ext(path))
	}
}
