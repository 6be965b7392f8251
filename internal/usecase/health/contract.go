package health

import "context"

// StorePinger checks vector store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an embedding or generation provider.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// Counter reports the number of indexed vectors.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}
