// Package credentials holds the operator accounts configured for the process.
package credentials

import (
	"context"

	"github.com/placebadges/acquisition/internal/core/domain"
)

// StaticOperatorRepository serves operator accounts fixed at startup.
type StaticOperatorRepository struct {
	operators map[string]domain.Operator
}

// NewStaticOperatorRepository registers a single operator. An empty password
// hash leaves the repository empty, so every login fails.
func NewStaticOperatorRepository(username, passwordHash string) *StaticOperatorRepository {
	r := &StaticOperatorRepository{operators: make(map[string]domain.Operator)}
	if username != "" && passwordHash != "" {
		r.operators[username] = domain.Operator{
			Username:     username,
			PasswordHash: passwordHash,
			Role:         domain.RoleOperator,
		}
	}
	return r
}

func (r *StaticOperatorRepository) FindByUsername(_ context.Context, username string) (*domain.Operator, error) {
	op, ok := r.operators[username]
	if !ok {
		return nil, domain.ErrOperatorNotFound
	}
	return &op, nil
}
