package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ConfigCache loads and caches per-community registry files. Curators edit
// the YAML on disk; the ingestion service reads overrides through here at
// sync time.
type ConfigCache struct {
	communitiesDir string
	cache          map[string]*Config
	mu             sync.RWMutex
}

func NewConfigCache(communitiesDir string) *ConfigCache {
	return &ConfigCache{
		communitiesDir: communitiesDir,
		cache:          make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.communitiesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.communitiesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		communityName := strings.TrimSuffix(fileName, ".yml")

		config, err := cc.LoadConfig(communityName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Community configuration loaded", "community", communityName,
			"enabled", config.Enabled, "sync_interval", config.Settings.SyncInterval,
			"has_overrides", !config.Overrides.IsEmpty())
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(communityName string) (*Config, error) {
	configFile := cc.getConfigFilePath(communityName)
	config, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Community names are lowercase everywhere in the engine
	config.Name = strings.ToLower(communityName)

	if err := cc.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = config

	return config, nil
}

func (cc *ConfigCache) GetConfig(communityName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[strings.ToLower(communityName)]
	if !ok {
		return nil, fmt.Errorf("community config with name '%s' not found", communityName)
	}
	return config, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Settings.SyncInterval == 0 {
		config.Settings.SyncInterval = 21600
	}

	return &config, nil
}

func (cc *ConfigCache) validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if config.Name == "" {
		return fmt.Errorf("community name is required")
	}

	if config.Settings.SyncInterval < 0 {
		return fmt.Errorf("sync interval must be non-negative")
	}

	if o := config.Overrides; o != nil {
		if o.LinkPolicy != nil && !o.LinkPolicy.Valid() {
			return fmt.Errorf("invalid link policy override: %s", *o.LinkPolicy)
		}

		for _, pattern := range o.TitleRegexes {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("invalid title regex override %q: %w", pattern, err)
			}
		}
		for _, pattern := range o.BodyRegexes {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("invalid body regex override %q: %w", pattern, err)
			}
		}
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(communityName string) string {
	return filepath.Join(cc.communitiesDir, communityName+".yml")
}
