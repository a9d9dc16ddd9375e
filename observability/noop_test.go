package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNoopProvider(t *testing.T) {
	provider := newNoopProvider()

	_, ok := provider.TracerProvider().(tracenoop.TracerProvider)
	assert.True(t, ok, "expected noop.TracerProvider")
	assert.NotNil(t, provider.MeterProvider().Meter("sherpa"))

	assert.NoError(t, provider.ForceFlush(context.Background()))
	assert.NoError(t, provider.Shutdown(context.Background()))
	assert.NoError(t, provider.Shutdown(context.Background()))
}
