package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tuanvumaihuynh/inventory-sale/internal/apperr"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/validator"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body into dst and validates it.
func decodeBody(v validator.Validator, w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.ValidationErr.WithMsg("request body is required")
		}
		return apperr.ValidationErr.WithMsg(fmt.Sprintf("invalid request body: %v", err)).WrapParent(err)
	}

	if err := v.Validate(dst); err != nil {
		return fmt.Errorf("validate request: %w", err)
	}

	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id uuid.UUID
	if err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	}); err != nil {
		return uuid.Nil, apperr.ValidationErr.
			WithMsg(fmt.Sprintf("invalid format for parameter %s", name)).
			WithDetail("parameter", name).
			WrapParent(err)
	}

	return id, nil
}

// queryInt reads an optional integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return 0, apperr.ValidationErr.
			WithMsg(fmt.Sprintf("invalid format for parameter %s", name)).
			WithDetail("parameter", name).
			WrapParent(err)
	}

	if v == nil {
		return def, nil
	}
	if *v < lo || *v > hi {
		return 0, apperr.ValidationErr.
			WithMsg(fmt.Sprintf("parameter %s must be between %d and %d", name, lo, hi)).
			WithDetail("parameter", name)
	}

	return *v, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
