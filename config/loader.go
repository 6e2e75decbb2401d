package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Loader configuration loader (supporting multiple data sources)
type Loader struct {
	sources      []ConfigSource
	mergedConfig map[string]interface{} // flat, dot-separated keys
	v            *viper.Viper
	loadedFiles  []string
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{
		sources:      make([]ConfigSource, 0),
		mergedConfig: make(map[string]interface{}),
		v:            viper.New(),
		loadedFiles:  make([]string, 0),
	}
}

// AddSource add configuration data source
func (l *Loader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load loads and merges all sources, higher priority overriding lower
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	l.mergedConfig = make(map[string]interface{})
	l.loadedFiles = l.loadedFiles[:0]
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return fmt.Errorf("加载数据源 %s 失败: %w", source.Name(), err)
		}

		if fileSource, ok := source.(*FileSource); ok && len(data) > 0 {
			l.loadedFiles = append(l.loadedFiles, fileSource.path)
		}

		for key, value := range data {
			l.mergedConfig[key] = value
		}
	}

	l.syncToViper()
	return nil
}

// syncToViper rebuilds the viper instance from the merged flat map
func (l *Loader) syncToViper() {
	nested := make(map[string]interface{})
	for key, value := range l.mergedConfig {
		setNestedValue(nested, key, value)
	}

	l.v = viper.New()
	for key, value := range nested {
		l.v.Set(key, value)
	}
}

// setNestedValue {"event.pool_size": 10} -> {"event": {"pool_size": 10}}
func setNestedValue(m map[string]interface{}, key string, value interface{}) {
	keys := splitKey(key)
	if len(keys) == 0 {
		return
	}

	current := m
	for _, k := range keys[:len(keys)-1] {
		nested, ok := current[k].(map[string]interface{})
		if !ok {
			// a scalar at an intermediate key is overridden
			nested = make(map[string]interface{})
			current[k] = nested
		}
		current = nested
	}

	current[keys[len(keys)-1]] = value
}

func splitKey(key string) []string {
	parts := strings.Split(key, ".")
	result := parts[:0]
	for _, p := range parts {
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Unmarshal decodes the section under key into v (mapstructure tags).
// An empty key decodes the whole configuration.
func (l *Loader) Unmarshal(key string, v interface{}) error {
	if key == "" {
		return l.v.Unmarshal(v)
	}
	if !l.v.IsSet(key) {
		return fmt.Errorf("配置项 %s 不存在", key)
	}
	return l.v.UnmarshalKey(key, v)
}

// Get configuration value
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// GetString Get string configuration
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// GetInt Get integer configuration
func (l *Loader) GetInt(key string) int {
	return l.v.GetInt(key)
}

// GetBool Get boolean configuration
func (l *Loader) GetBool(key string) bool {
	return l.v.GetBool(key)
}

// IsSet Check if the configuration item exists
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// AllSettings returns the nested configuration
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}

// GetLoadedFiles lists the files that contributed values
func (l *Loader) GetLoadedFiles() []string {
	return l.loadedFiles
}

// GetViper获取底层Viper实例
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// Reload reload configuration
func (l *Loader) Reload() error {
	return l.Load()
}
