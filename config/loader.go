package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// LoadConfig loads configuration from multiple sources with strict priority:
// 1. Environment variables (highest priority)
// 2. Config file (owslog.yaml or owslog.json in the working directory)
// 3. Defaults (lowest priority)
func LoadConfig() (Config, error) {
	return LoadConfigFromFile("")
}

// LoadConfigFromFile is LoadConfig with an explicit config file path. An
// empty path falls back to the default file probe.
func LoadConfigFromFile(configFilePath string) (Config, error) {
	k := koanf.New(".")

	defaultCfg := DefaultConfig()
	if err := k.Load(structs.Provider(defaultCfg, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load default config: %w", err)
	}

	if configFilePath != "" {
		if _, err := os.Stat(configFilePath); err != nil {
			return Config{}, fmt.Errorf("specified config file %s not found: %w", configFilePath, err)
		}
		if err := k.Load(file.Provider(configFilePath), parserFor(configFilePath)); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", configFilePath, err)
		}
	} else {
		for _, configFile := range []string{"owslog.yaml", "owslog.yml", "owslog.json"} {
			if _, err := os.Stat(configFile); err != nil {
				continue
			}
			if err := k.Load(file.Provider(configFile), parserFor(configFile)); err != nil {
				return Config{}, fmt.Errorf("failed to load config file %s: %w", configFile, err)
			}
			break
		}
	}

	// Environment variables with OWSLOG_ prefix. Double underscore nests:
	// OWSLOG_LOGGER_NAME -> logger_name, OWSLOG_DELIVERY__TIMEOUT ->
	// delivery.timeout.
	if err := k.Load(env.Provider("OWSLOG_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "OWSLOG_")), "__", ".", -1)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func parserFor(path string) koanf.Parser {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return yaml.Parser()
	}
	return json.Parser()
}
