package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()

	shutdown, err := Setup(context.Background(), Config{}, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_EnabledWithoutEndpoint(t *testing.T) {
	t.Parallel()

	shutdown, err := Setup(context.Background(), Config{Enabled: true}, quietLogger())
	require.Error(t, err)
	require.NotNil(t, shutdown)
}

// Not parallel: installs global providers.
func TestSetup_InstallsGlobalProviders(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{
		Enabled:  true,
		Endpoint: "127.0.0.1:4317",
		Insecure: true,
		Version:  "test",
	}, quietLogger())
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok, "global tracer provider should be the SDK provider")

	// Nothing is listening; only make sure shutdown returns.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}

func TestNewResource(t *testing.T) {
	t.Parallel()

	res, err := newResource(Config{ServiceName: "kwt-worker", Version: "1.2.3"})
	require.NoError(t, err)

	attrs := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "kwt-worker", attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
}

func TestServiceName_Default(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "keyword-tracker", serviceName(Config{}))
}
