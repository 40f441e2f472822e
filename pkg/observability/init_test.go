package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/ordtree/pkg/observability"
)

func TestInit_NoopWhenNoEndpoint(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)
	assert.NotNil(t, providers.Shutdown)

	err = providers.Shutdown(context.Background())
	assert.NoError(t, err)
}

func TestInit_NoopSpanIsValid(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	ctx, span := providers.Tracer.Start(context.Background(), "test-op")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
}

func TestInit_WithResourceAttributes(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = "1.2.3"
	cfg.Environment = "test"
	cfg.Mode = observability.ModeServe

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
}

func TestInitWithWriter_LoggerHasTracingHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true
	cfg.Environment = "dev"

	providers, err := observability.InitWithWriter(cfg, &buf)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	providers.Logger.InfoContext(context.Background(), "init test")

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "init test", record["msg"])
	assert.Equal(t, "ordtree", record["service"])
	assert.Equal(t, "dev", record["env"])
	assert.Equal(t, "cli", record["mode"])
}

func TestInitWithWriter_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogLevel = slog.LevelWarn

	providers, err := observability.InitWithWriter(cfg, &buf)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	providers.Logger.Info("dropped")
	providers.Logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestInit_ShutdownIdempotent(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	require.NoError(t, providers.Shutdown(context.Background()))
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", nil},
		{"single", "key=value", map[string]string{"key": "value"}},
		{"multiple", "k1=v1,k2=v2", map[string]string{"k1": "v1", "k2": "v2"}},
		{"spaces", " k1 = v1 , k2 = v2 ", map[string]string{"k1": "v1", "k2": "v2"}},
		{"no_equals", "invalid", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := observability.ParseOTLPHeaders(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func resourceValues(t *testing.T, cfg observability.Config) map[attribute.Key]attribute.Value {
	t.Helper()

	res, err := observability.BuildResource(cfg)
	require.NoError(t, err)

	values := make(map[attribute.Key]attribute.Value)
	for _, kv := range res.Attributes() {
		values[kv.Key] = kv.Value
	}

	return values
}

func TestBuildResource_IncludesAppMode(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Mode = observability.ModeServe

	values := resourceValues(t, cfg)

	require.Contains(t, values, observability.AttrAppMode)
	assert.Equal(t, "serve", values[observability.AttrAppMode].AsString())
}

func TestBuildResource_DescribesStorage(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Storage = observability.StorageInfo{Path: "/var/lib/ordtree/tree.bin", Compress: true, MaxNodes: 1000}

	values := resourceValues(t, cfg)

	assert.Equal(t, "/var/lib/ordtree/tree.bin", values[observability.AttrStoragePath].AsString())
	assert.True(t, values[observability.AttrStorageCompress].AsBool())
	assert.Equal(t, int64(1000), values[observability.AttrStorageMaxNodes].AsInt64())
}

func TestBuildResource_OmitsUnsetStorage(t *testing.T) {
	t.Parallel()

	values := resourceValues(t, observability.DefaultConfig())

	assert.NotContains(t, values, observability.AttrStoragePath)
	assert.NotContains(t, values, observability.AttrStorageCompress)
	assert.NotContains(t, values, observability.AttrStorageMaxNodes)
	assert.Equal(t, "ordtree", values["service.name"].AsString())
}

func TestSampler_FromEnvironment(t *testing.T) {
	tests := []struct {
		sampler string
		arg     string
		sampled bool
	}{
		{sampler: "always_on", sampled: true},
		{sampler: "always_off", sampled: false},
		{sampler: "traceidratio", arg: "1.0", sampled: true},
		{sampler: "parentbased_always_off", sampled: false},
	}

	for _, tt := range tests {
		t.Run(tt.sampler, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_SAMPLER", tt.sampler)
			t.Setenv("OTEL_TRACES_SAMPLER_ARG", tt.arg)

			assert.Equal(t, tt.sampled, observability.SampledRootSpan(observability.DefaultConfig()))
		})
	}
}

func TestSampler_RatioOverridesEnvironment(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER", "always_off")

	cfg := observability.DefaultConfig()
	cfg.SampleRatio = 1.0

	assert.True(t, observability.SampledRootSpan(cfg))
}

func TestSampler_DefaultSamples(t *testing.T) {
	t.Parallel()

	assert.True(t, observability.SampledRootSpan(observability.DefaultConfig()))
}
