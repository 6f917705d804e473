package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/crewhub/membership-service/internal/domain"
)

func registeredPayload(eventID string, userID uuid.UUID, username, role string) []byte {
	return []byte(fmt.Sprintf(
		`{"event_id":%q,"data":{"user_id":%q,"username":%q,"role":%q}}`,
		eventID, userID.String(), username, role,
	))
}

func TestHandleUserRegistered(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	userID := uuid.New()

	err := f.svc.HandleUserRegistered(context.Background(), registeredPayload("evt-1", userID, "Dana", ""))
	require.NoError(t, err)

	user, err := f.users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, "dana", user.Username)
	require.Equal(t, domain.RoleMember, user.Role)

	current, err := f.statuses.GetByUserAndState(context.Background(), userID, domain.StatusStateCurrent)
	require.NoError(t, err)
	require.NotNil(t, current)
	require.Equal(t, domain.UserStatusOnboarding, current.Status)
}

func TestHandleUserRegistered_DuplicateDelivery(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	userID := uuid.New()
	payload := registeredPayload("evt-1", userID, "dana", "")

	require.NoError(t, f.svc.HandleUserRegistered(context.Background(), payload))
	require.NoError(t, f.svc.HandleUserRegistered(context.Background(), payload))
	require.Len(t, f.users.byID, 1)
}

func TestHandleUserRegistered_SuperUserRole(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	userID := uuid.New()

	err := f.svc.HandleUserRegistered(context.Background(), registeredPayload("evt-2", userID, "root", "superuser"))
	require.NoError(t, err)

	user, err := f.users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, user.IsSuperUser())
}

func TestHandleUserRegistered_BadPayload(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	err := f.svc.HandleUserRegistered(context.Background(), []byte("not json"))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
