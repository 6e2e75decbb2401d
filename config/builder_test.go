package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderBuilder_EnvFileOverridesBase(t *testing.T) {
	loader, err := NewLoaderBuilder().
		WithConfigPath("testdata").
		WithEnv("dev").
		Build()
	require.NoError(t, err)

	assert.Equal(t, 10, loader.GetInt("event.pool_size"))
	assert.Equal(t, "debug", loader.GetString("logger.level"))
	// untouched by dev.yaml
	assert.True(t, loader.GetBool("event.metrics.enabled"))
	assert.Len(t, loader.GetLoadedFiles(), 2)
}

func TestLoaderBuilder_ProdEnv(t *testing.T) {
	loader, err := NewLoaderBuilder().
		WithConfigPath("testdata").
		WithEnv("prod").
		Build()
	require.NoError(t, err)

	assert.Equal(t, 200, loader.GetInt("event.pool_size"))
	assert.False(t, loader.GetBool("event.tracing.enabled"))
}

func TestLoaderBuilder_EnvVarsWin(t *testing.T) {
	t.Setenv("YOGANBT_EVENT_ENABLED", "false")
	t.Setenv("YOGANBT_EVENT_POOL_SIZE", "7")

	loader, err := NewLoaderBuilder().
		WithConfigPath("testdata").
		WithEnv("dev").
		WithEnvPrefix("YOGANBT").
		WithEnvBinding("event.enabled", "EVENT_ENABLED").
		WithEnvBinding("event.pool_size", "EVENT_POOL_SIZE").
		Build()
	require.NoError(t, err)

	assert.False(t, loader.GetBool("event.enabled"))
	assert.Equal(t, 7, loader.GetInt("event.pool_size"))
}

func TestLoaderBuilder_MissingDir(t *testing.T) {
	loader, err := NewLoaderBuilder().WithConfigPath(t.TempDir()).Build()
	require.NoError(t, err)
	assert.False(t, loader.IsSet("event"))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	assert.Equal(t, "dev", GetEnv())

	t.Setenv("ENV", "test")
	assert.Equal(t, "test", GetEnv())

	t.Setenv("APP_ENV", "prod")
	assert.Equal(t, "prod", GetEnv())
}
