package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/tuanvumaihuynh/inventory-sale/internal/apperr"
	"github.com/tuanvumaihuynh/inventory-sale/internal/http/apierr"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/cache"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"

	maxIdempotencyKeyLength = 255
)

// Idempotency rejects a request whose Idempotency-Key was already used. The key is
// released again when the request fails, so the client can retry it. A sale whose
// outcome could not be confirmed may have committed, so its key is kept until it
// expires. Requests without the header pass through.
func Idempotency(guard cache.IdempotencyGuard, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if len(key) > maxIdempotencyKeyLength {
				//nolint:errcheck
				apierr.Write(w, apierr.New(apperr.ValidationErr.WithMsg("idempotency key is too long")))
				return
			}

			key = r.Method + " " + r.URL.Path + " " + key

			acquired, err := guard.Acquire(r.Context(), key)
			if err != nil {
				log.WarnContext(r.Context(), "idempotency guard unavailable", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			if !acquired {
				//nolint:errcheck
				apierr.Write(w, apierr.New(apperr.DuplicateRequestErr))
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if ww.Status() >= 400 && ww.Header().Get(apierr.CodeHeader) != apperr.SaleOutcomeUnknownCode {
				if err := guard.Release(context.WithoutCancel(r.Context()), key); err != nil {
					log.WarnContext(r.Context(), "release idempotency key", slog.Any("error", err))
				}
			}
		})
	}
}
