package health

import "context"

// CachePinger checks answer cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Checker checks an external dependency (inference server, index tool).
type Checker interface {
	HealthCheck(ctx context.Context) error
}
