package outbox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/inventory-sale/pkg/correlationid"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/outbox"
)

func TestHeaders(t *testing.T) {
	t.Run("Should carry correlation id through headers", func(t *testing.T) {
		ctx := correlationid.NewContext(context.Background(), "corr-123")

		headers := outbox.BuildHeaders(ctx)
		assert.Equal(t, "corr-123", headers[correlationid.Header])

		got, ok := correlationid.FromContext(outbox.ExtractContextFromHeaders(context.Background(), headers))
		require.True(t, ok)
		assert.Equal(t, "corr-123", got)
	})

	t.Run("Should build empty headers without correlation id", func(t *testing.T) {
		headers := outbox.BuildHeaders(context.Background())
		assert.NotContains(t, headers, correlationid.Header)

		_, ok := correlationid.FromContext(outbox.ExtractContextFromHeaders(context.Background(), headers))
		assert.False(t, ok)
	})
}
