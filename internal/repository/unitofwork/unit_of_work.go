package unitofwork

import (
	"context"

	"ai-examprep-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SourceMaterialRepository() contract.SourceMaterialRepository
}
