package unitofwork

import "context"

// RepositoryFactory hands out units of work. Services take the factory so
// each operation runs against its own transaction boundary.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
