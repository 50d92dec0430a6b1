package swagger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	apicontract "github.com/tuanvumaihuynh/inventory-sale/api-contract"
)

const (
	DocsPath = "/docs"
	SpecPath = "/docs/openapi.yml"

	swaggerUIVersion = "5.29.3"
)

// Register serves Swagger UI at DocsPath and the embedded contract at SpecPath.
func Register(r chi.Router) {
	page := []byte(uiPage("Inventory Sale API", SpecPath))
	spec := apicontract.GetSpecBytes()
	sum := sha256.Sum256(spec)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`

	r.Get(DocsPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		//nolint:errcheck
		w.Write(page)
	})

	r.Get(SpecPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", "application/yaml")
		//nolint:errcheck
		w.Write(spec)
	})
}

func uiPage(title, specURL string) string {
	const cdn = "https://unpkg.com/swagger-ui-dist@" + swaggerUIVersion

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>%[1]s</title>
  <link rel="stylesheet" href="%[2]s/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="%[2]s/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '%[3]s',
      dom_id: '#swagger-ui',
      deepLinking: true,
      displayRequestDuration: true,
      tryItOutEnabled: true,
    });
  };
</script>
</body>
</html>
`, title, cdn, specURL)
}
