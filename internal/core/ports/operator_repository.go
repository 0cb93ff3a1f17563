package ports

import (
	"context"

	"github.com/placebadges/acquisition/internal/core/domain"
)

// OperatorRepository looks up operator accounts.
type OperatorRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Operator, error)
}
