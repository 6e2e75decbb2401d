package config

// ConfigSource a configuration data source (file, environment, ...)
type ConfigSource interface {
	// Name data source name (for logs and debugging)
	Name() string

	// Priority higher values override lower ones.
	// Suggested: config.yaml 10, <env>.yaml 20, environment variables 50
	Priority() int

	// Load returns a flat map with dot-separated keys, such as "event.pool_size"
	Load() (map[string]interface{}, error)
}
