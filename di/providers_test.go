package di

import (
	"context"
	"os"
	"testing"

	"github.com/KOMKZ/go-yogan-event/config"
	"github.com/KOMKZ/go-yogan-event/event"
	"github.com/KOMKZ/go-yogan-event/health"
	"github.com/KOMKZ/go-yogan-event/logger"
	"github.com/KOMKZ/go-yogan-event/telemetry"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInjector(t *testing.T, configPath string) *do.RootScope {
	t.Helper()
	injector := do.New()
	t.Cleanup(func() { _ = injector.Shutdown() })

	do.Provide(injector, ProvideConfigLoader(ConfigOptions{ConfigPath: configPath, Env: "test"}))
	do.Provide(injector, ProvideLoggerManager)
	RegisterEventProviders(injector)
	return injector
}

func TestProvideConfigLoader(t *testing.T) {
	injector := newInjector(t, "./testdata")

	loader, err := do.Invoke[*config.Loader](injector)
	require.NoError(t, err)
	assert.True(t, loader.GetBool("event.enabled"))
}

func TestProvideLoggerManager(t *testing.T) {
	t.Run("from config", func(t *testing.T) {
		injector := newInjector(t, "./testdata")

		mgr, err := do.Invoke[*logger.Manager](injector)
		require.NoError(t, err)
		assert.Equal(t, "debug", mgr.Config().Level)
		assert.False(t, mgr.Config().EnableConsole)
	})

	t.Run("without config loader", func(t *testing.T) {
		injector := do.New()
		do.Provide(injector, ProvideLoggerManager)

		mgr, err := do.Invoke[*logger.Manager](injector)
		require.NoError(t, err)
		assert.Equal(t, logger.DefaultManagerConfig().Level, mgr.Config().Level)
	})

	t.Run("invalid config", func(t *testing.T) {
		loader := config.NewLoader()
		loader.AddSource(config.NewFileSource(writeConfig(t, "logger:\n  level: loud\n"), 10))
		require.NoError(t, loader.Load())

		injector := do.New()
		do.Provide(injector, config.ProvideLoaderValue(loader))
		do.Provide(injector, ProvideLoggerManager)

		_, err := do.Invoke[*logger.Manager](injector)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger validation failed")
	})
}

func TestProvideCtxLogger(t *testing.T) {
	injector := newInjector(t, "./testdata")
	do.Provide(injector, ProvideCtxLogger("orders"))

	log, err := do.Invoke[*logger.CtxZapLogger](injector)
	require.NoError(t, err)
	assert.Equal(t, "orders", log.Module())
}

func TestProvideEventDispatcher(t *testing.T) {
	injector := newInjector(t, "./testdata")

	comp, err := do.Invoke[*event.Component](injector)
	require.NoError(t, err)
	assert.True(t, comp.IsEnabled())
	assert.Equal(t, 8, comp.Config().PoolSize)

	d, err := do.Invoke[event.Dispatcher](injector)
	require.NoError(t, err)
	require.NoError(t, d.Attach("ping", event.ListenerFunc(func(ctx context.Context, ev *event.Event) (any, error) {
		return "pong", nil
	})))

	ev, err := d.NotifyUntil(context.Background(), "ping", event.NewEvent(nil))
	require.NoError(t, err)
	assert.True(t, ev.IsProcessed())

	mgr, err := do.Invoke[*event.Manager](injector)
	require.NoError(t, err)
	assert.Same(t, d, mgr.Dispatcher())
}

func TestProvideEventDispatcher_Disabled(t *testing.T) {
	injector := newInjector(t, "./testdata/disabled")

	_, err := do.Invoke[event.Dispatcher](injector)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event (disabled)")
}

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := t.TempDir() + "/config.yaml"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func TestProvideTelemetryComponent(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		injector := newInjector(t, "./testdata")

		tel, err := do.Invoke[*telemetry.Component](injector)
		require.NoError(t, err)
		assert.False(t, tel.IsEnabled())
	})

	t.Run("event metrics go through the registry", func(t *testing.T) {
		injector := newInjector(t, "./testdata/telemetry")

		comp, err := do.Invoke[*event.Component](injector)
		require.NoError(t, err)
		require.NotNil(t, comp.GetMetrics())
		assert.True(t, comp.GetMetrics().IsRegistered())

		tel, err := do.Invoke[*telemetry.Component](injector)
		require.NoError(t, err)
		assert.True(t, tel.IsEnabled())
		assert.Equal(t, []string{"event"}, tel.MetricsRegistry().Names())
	})
}

func TestProvideHealthComponent(t *testing.T) {
	injector := newInjector(t, "./testdata/telemetry")
	do.Provide(injector, ProvideHealthComponent)

	hc, err := do.Invoke[*health.Component](injector)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"event", "telemetry"}, hc.GetAggregator().Names())

	response := hc.Check(context.Background())
	assert.True(t, response.IsHealthy())
	assert.Len(t, response.Checks, 2)
}
