package health

import "context"

// DBPinger checks audit store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether an index snapshot has been published.
type IndexChecker interface {
	Published() bool
}
