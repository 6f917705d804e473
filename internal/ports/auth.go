package ports

import "context"

type AuthClaims struct {
	UserID   string
	Username string
	Role     string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (AuthClaims, error)
}
