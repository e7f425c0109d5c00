package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewJobID generates a unique publish job ID.
// Format: job_<unix-nanos>_<uuid> - the embedded timestamp keeps IDs unique
// and sortable even when two jobs are created in the same millisecond.
func NewJobID() string {
	return fmt.Sprintf("job_%d_%s", time.Now().UnixNano(), uuid.New().String())
}

// NewRequestID generates a caller-correlation ID when the caller omits one
func NewRequestID() string {
	return "req_" + uuid.New().String()
}
