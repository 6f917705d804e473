package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/crewhub/membership-service/internal/domain"
	"github.com/crewhub/membership-service/internal/ports"
)

func (s *Service) VerifyToken(ctx context.Context, raw string) (ports.AuthClaims, error) {
	claims, err := s.tokens.Verify(ctx, raw)
	if err != nil {
		return ports.AuthClaims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return claims, nil
}

type caller struct {
	userID uuid.UUID
	super  bool
}

func callerFromClaims(claims ports.AuthClaims) (caller, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return caller{}, fmt.Errorf("%w: malformed caller id", domain.ErrUnauthorized)
	}
	return caller{userID: userID, super: claims.Role == domain.RoleSuperUser}, nil
}

// resolveUserRef accepts either a user id or a username. Resolution happens
// once at the workflow boundary; everything downstream works with the id.
func (s *Service) resolveUserRef(ctx context.Context, ref string) (domain.User, error) {
	if parsed, err := uuid.Parse(ref); err == nil {
		user, err := s.users.GetByID(ctx, parsed)
		if err != nil {
			return domain.User{}, err
		}
		return user, nil
	}
	user, err := s.users.GetByUsername(ctx, ref)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}
