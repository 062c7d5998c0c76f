package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
)

// ParseQueryInt reads a whole-number query parameter such as ?limit=20 for
// order history paging. Blank means defaultVal.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	details := map[string]any{"field": key, "min": min, "max": max}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be a whole number", key)).WithDetails(details)
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be between %d and %d", key, min, max)).WithDetails(details)
	}
	return value, nil
}

// ParseQueryFlag reads catalogue toggles such as ?oos=1 or ?fav=on.
func ParseQueryFlag(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
