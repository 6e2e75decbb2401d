package config

import (
	"os"
	"path/filepath"
)

// LoaderBuilder configuration loader builder
type LoaderBuilder struct {
	configPath string
	envPrefix  string
	env        string
	bindings   map[string]string
}

// NewLoaderBuilder creates a loader builder
func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{bindings: make(map[string]string)}
}

// WithConfigPath sets the directory holding config.yaml and <env>.yaml
func (b *LoaderBuilder) WithConfigPath(path string) *LoaderBuilder {
	b.configPath = path
	return b
}

// WithEnvPrefix enables environment variables with the given prefix
func (b *LoaderBuilder) WithEnvPrefix(prefix string) *LoaderBuilder {
	b.envPrefix = prefix
	return b
}

// WithEnv overrides the environment name (default from GetEnv)
func (b *LoaderBuilder) WithEnv(env string) *LoaderBuilder {
	b.env = env
	return b
}

// WithEnvBinding maps a key to an environment variable (see EnvSource.AddBinding)
func (b *LoaderBuilder) WithEnvBinding(key, envKey string) *LoaderBuilder {
	b.bindings[key] = envKey
	return b
}

// Build loader
func (b *LoaderBuilder) Build() (*Loader, error) {
	loader := NewLoader()

	if b.configPath != "" {
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, "config.yaml"), 10))

		env := b.env
		if env == "" {
			env = GetEnv()
		}
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, env+".yaml"), 20))
	}

	if b.envPrefix != "" {
		envSource := NewEnvSource(b.envPrefix, 50)
		for key, envKey := range b.bindings {
			envSource.AddBinding(key, envKey)
		}
		loader.AddSource(envSource)
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}

	return loader, nil
}

// GetEnv APP_ENV > ENV > "dev"
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
