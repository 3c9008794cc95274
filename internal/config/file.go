// file.go loads the optional connection-settings file (JSON or YAML by
// extension).

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// fileConfig is the lowest-precedence source of connection settings.
type fileConfig struct {
	URL       string `json:"url" yaml:"url"`
	APIKey    string `json:"api_key" yaml:"api_key"`
	APISecret string `json:"api_secret" yaml:"api_secret"`
}

func (o *Options) loadFileConfig(env *viper.Viper) (fileConfig, error) {
	path := strings.TrimSpace(o.ConfigFile)
	if path == "" {
		path = strings.TrimSpace(env.GetString(EnvConfigFile))
	}
	if path == "" {
		return fileConfig{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	return parseConfigByExt(path, raw)
}

func parseConfigByExt(name string, raw []byte) (fileConfig, error) {
	raw = []byte(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return fileConfig{}, nil
	}
	var cfg fileConfig
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return fileConfig{}, fmt.Errorf("parse config json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return fileConfig{}, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	return cfg, nil
}
