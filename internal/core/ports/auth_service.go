package ports

import (
	"context"

	"github.com/placebadges/acquisition/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.Operator, error)
	IssueDeviceToken(ctx context.Context, deviceID string) (string, error)
}
