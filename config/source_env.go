package config

import (
	"os"
	"strings"
)

// EnvSource 环境变量数据源
type EnvSource struct {
	prefix   string // 环境变量前缀，如 "YOGAN"
	priority int
	bindings map[string]string // 显式映射，如 "event.pool_size" -> "EVENT_POOL_SIZE"
}

// NewEnvSource 创建环境变量数据源
func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{
		prefix:   prefix,
		priority: priority,
		bindings: make(map[string]string),
	}
}

// AddBinding maps a config key to an environment variable.
// Needed for keys containing "_", which the prefix scan turns into ".".
func (s *EnvSource) AddBinding(key, envKey string) {
	s.bindings[key] = envKey
}

// Name 数据源名称
func (s *EnvSource) Name() string {
	return "env:" + s.prefix
}

// Priority 优先级
func (s *EnvSource) Priority() int {
	return s.priority
}

// Load reads bound variables, or scans PREFIX_* when there are no bindings
func (s *EnvSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})

	if len(s.bindings) > 0 {
		for key, envKey := range s.bindings {
			fullEnvKey := envKey
			if s.prefix != "" && !strings.HasPrefix(envKey, s.prefix+"_") {
				fullEnvKey = s.prefix + "_" + envKey
			}
			if value, ok := os.LookupEnv(fullEnvKey); ok && value != "" {
				result[key] = value
			}
		}
		return result, nil
	}

	if s.prefix == "" {
		return result, nil
	}

	prefix := s.prefix + "_"
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		// YOGAN_EVENT_ENABLED -> event.enabled
		configKey := strings.ToLower(strings.TrimPrefix(key, prefix))
		configKey = strings.ReplaceAll(configKey, "_", ".")
		result[configKey] = value
	}

	return result, nil
}
