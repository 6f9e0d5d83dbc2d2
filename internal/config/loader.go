package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir

const (
	userConfigDir      = ".config/wst"
	workspaceConfigDir = ".wst"
	configFileName     = "config.yaml"
)

// Load builds the effective configuration by layering default, user, and
// workspace settings. workspaceRoot may be empty when running outside a
// workspace; the workspace layer is then skipped.
func Load(workspaceRoot string) (Config, error) {
	// 1. Start with the default configuration
	cfg := DefaultConfig()

	// 2. User-specific configuration
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional; keep going with defaults.
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userCfg, err := loadConfigFromFile(userConfigPath)
			if err != nil {
				return Config{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			cfg = mergeConfigs(cfg, userCfg)
		}
	}

	// 3. Workspace-specific configuration
	if workspaceRoot != "" {
		workspaceConfigPath := filepath.Join(workspaceRoot, workspaceConfigDir, configFileName)
		if _, err := os.Stat(workspaceConfigPath); !os.IsNotExist(err) {
			wsCfg, err := loadConfigFromFile(workspaceConfigPath)
			if err != nil {
				return Config{}, fmt.Errorf("error loading workspace config from %s: %w", workspaceConfigPath, err)
			}
			cfg = mergeConfigs(cfg, wsCfg)
		}
	}

	return cfg, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// loadConfigFromFile loads a Config from a YAML file.
func loadConfigFromFile(filePath string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeConfigs merges 'overlay' config into 'base' config.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	if len(overlay.Test.EditableProductDependencies) > 0 {
		merged.Test.EditableProductDependencies = overlay.Test.EditableProductDependencies
	}

	if len(overlay.ProductGroups) > 0 {
		if merged.ProductGroups == nil {
			merged.ProductGroups = make(map[string][]string)
		}
		for name, products := range overlay.ProductGroups {
			merged.ProductGroups[name] = products
		}
	}

	return merged
}

// GetUserConfigDir returns the user configuration directory path.
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
