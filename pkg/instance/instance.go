// Package instance names the running worker process in logs.
package instance

import (
	"os"
	"strings"
)

// EnvWorkerID overrides the derived worker name.
const EnvWorkerID = "DAISYDAYS_WORKER_ID"

// GetID returns the configured worker id, then the hostname, then "worker-0".
func GetID() string {
	if id := strings.TrimSpace(os.Getenv(EnvWorkerID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
