package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/pricing"
)

// ParseFormDecimal reads a quantity from the form or query string. A blank
// value yields defaultVal. Values outside pricing.QuantityInRange, such as
// "1e9999", are rejected before any arithmetic touches them.
func ParseFormDecimal(r *http.Request, key string, defaultVal decimal.Decimal) (decimal.Decimal, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "must be a number").WithDetails(map[string]any{"field": key})
	}
	if !pricing.QuantityInRange(value) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range").
			WithDetails(map[string]any{"field": key, "max": pricing.MaxQuantity.String()})
	}
	return value, nil
}

// ParseFormInt reads an integer form value and checks it against [min, max].
func ParseFormInt(r *http.Request, key string, min, max int) (int, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "is required").WithDetails(map[string]any{"field": key})
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// URLParamUUID parses a chi route parameter as a uuid.
func URLParamUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name).WithDetails(map[string]any{"field": name})
	}
	return id, nil
}
