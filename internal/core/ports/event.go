package ports

import (
	"context"
)

type IdentityRegisteredEvent struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	AuthorityName string `json:"authority_name,omitempty"`
}

type IdentityEventPublisher interface {
	PublishIdentityRegistered(ctx context.Context, evt IdentityRegisteredEvent) error
}
