package apihttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"power-assets/internal/auth"
	importer "power-assets/internal/importer/domain"
	"power-assets/internal/importer/infrastructure/xlsx"
	inventory "power-assets/internal/inventory/domain"
	lifecycleapp "power-assets/internal/lifecycle/application"
	lifecycle "power-assets/internal/lifecycle/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// errBadRequest marks request decoding and validation failures.
var errBadRequest = errors.New("bad request")

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json", errBadRequest)
	}
	if err := validate.Struct(dst); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			msgs := make([]string, 0, len(fields))
			for _, f := range fields {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", f.Field(), f.Tag()))
			}
			return fmt.Errorf("%w: %s", errBadRequest, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func statusFor(err error) int {
	var batchErr *importer.BatchError
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, inventory.ErrDeviceNotFound),
		errors.Is(err, inventory.ErrConnectionNotFound),
		errors.Is(err, lifecycle.ErrRuleNotFound):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrAssetIDTaken),
		errors.Is(err, lifecycle.ErrRuleExists):
		return http.StatusConflict
	case errors.As(err, &batchErr):
		return http.StatusInternalServerError
	case errors.Is(err, errBadRequest),
		errors.Is(err, inventory.ErrInvalidDevice),
		errors.Is(err, inventory.ErrInvalidConnection),
		errors.Is(err, lifecycle.ErrInvalidRule),
		errors.Is(err, lifecycleapp.ErrInvalidStatusFilter),
		errors.Is(err, importer.ErrMissingColumns),
		errors.Is(err, importer.ErrTooManyRows),
		errors.Is(err, xlsx.ErrEmptyWorkbook):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
