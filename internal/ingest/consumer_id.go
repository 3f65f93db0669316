package ingest

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// consumerID returns a stable-enough consumer name for this process.
// Hostname keeps pending-entry ownership readable in XPENDING output;
// the uuid suffix disambiguates multiple workers on one host.
func consumerID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "worker"
	}
	return fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])
}
