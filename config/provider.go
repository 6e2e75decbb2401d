package config

import (
	"fmt"

	"github.com/samber/do/v2"
)

// ProvideLoaderOptions 创建 Loader 的选项
type ProvideLoaderOptions struct {
	ConfigPath   string // 配置目录路径
	ConfigPrefix string // 环境变量前缀
	Env          string // 环境名（默认 GetEnv()）
}

// ProvideLoader Config Loader Provider; config has no dependencies
//
//	do.Provide(injector, config.ProvideLoader(config.ProvideLoaderOptions{
//	    ConfigPath:   "./configs",
//	    ConfigPrefix: "YOGAN",
//	}))
//	loader := do.MustInvoke[*config.Loader](injector)
func ProvideLoader(opts ProvideLoaderOptions) func(do.Injector) (*Loader, error) {
	return func(i do.Injector) (*Loader, error) {
		if opts.ConfigPath == "" {
			opts.ConfigPath = "./configs"
		}

		loader, err := NewLoaderBuilder().
			WithConfigPath(opts.ConfigPath).
			WithEnvPrefix(opts.ConfigPrefix).
			WithEnv(opts.Env).
			Build()
		if err != nil {
			return nil, fmt.Errorf("config loader build failed: %w", err)
		}

		return loader, nil
	}
}

// ProvideLoaderValue registers an already built Loader (tests, special cases)
func ProvideLoaderValue(loader *Loader) func(do.Injector) (*Loader, error) {
	return func(i do.Injector) (*Loader, error) {
		return loader, nil
	}
}
