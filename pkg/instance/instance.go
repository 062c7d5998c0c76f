package instance

import (
	"os"

	"github.com/angelmondragon/farmstore-backend/pkg/env"
)

// GetID returns the process instance identifier used in log context.
// DYNO wins when set, then FARMSTORE_INSTANCE_ID, then the hostname.
func GetID() string {
	if id := env.First("DYNO", "FARMSTORE_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
