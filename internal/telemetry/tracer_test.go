package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/tuanvumaihuynh/inventory-sale/internal/config"
)

func TestInitTracer(t *testing.T) {
	t.Run("Should install propagator without collector", func(t *testing.T) {
		cleanup, err := InitTracer(context.Background(), config.Otel{})
		require.NoError(t, err)
		require.NotNil(t, cleanup)

		assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
		assert.NoError(t, cleanup(context.Background()))
	})
}

func TestResourceAttributes(t *testing.T) {
	t.Run("Should default service name", func(t *testing.T) {
		attrs := resourceAttributes(config.Otel{})
		assert.Equal(t, semconv.ServiceName(defaultServiceName), attrs[0])
		assert.Len(t, attrs, 1)
	})

	t.Run("Should include kubernetes attributes", func(t *testing.T) {
		attrs := resourceAttributes(config.Otel{
			ServiceName:  "sale",
			K8sPodName:   "sale-0",
			K8sNamespace: "shop",
		})
		assert.Contains(t, attrs, semconv.ServiceName("sale"))
		assert.Contains(t, attrs, semconv.K8SPodName("sale-0"))
		assert.Contains(t, attrs, semconv.K8SNamespaceName("shop"))
	})
}
