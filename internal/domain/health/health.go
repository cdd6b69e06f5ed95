package health

import "time"

// Status is the outcome of a health check
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Response is returned by both the liveness and readiness checks.
// Timestamp is the time the check ran.
type Response struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// IsHealthy returns true if the check passed
func (r Response) IsHealthy() bool {
	return r.Status == StatusHealthy
}
