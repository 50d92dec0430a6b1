package apicontract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apicontract "github.com/tuanvumaihuynh/inventory-sale/api-contract"
)

func TestLoad(t *testing.T) {
	doc, err := apicontract.Load(context.Background())
	require.NoError(t, err)

	for _, path := range []string{
		"/healthz",
		"/categories",
		"/products",
		"/products/{productId}",
		"/products/{productId}/stock",
		"/sales",
		"/sales/{saleId}",
		"/sales/checkout",
		"/sales/quick",
		"/reports/stock-by-category",
		"/reports/revenue",
		"/reports/summary",
	} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}

	checkout := doc.Paths.Find("/sales/checkout").Post
	require.NotNil(t, checkout)
	assert.NotNil(t, checkout.Responses.Status(422))
	assert.NotNil(t, checkout.Responses.Status(409))
}
