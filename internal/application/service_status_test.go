package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crewhub/membership-service/internal/domain"
)

func TestSetUserStatus_TodayBecomesCurrent(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	member := f.addUser("dana", domain.RoleMember)

	end := testNow.Add(24 * time.Hour)
	result, err := f.svc.SetUserStatus(context.Background(), claimsFor(member), member.UserID.String(), SetUserStatusRequest{
		Status:    "OOO",
		AppliedOn: testNow,
		EndsOn:    &end,
	}, "")
	require.NoError(t, err)
	require.True(t, result.Created)
	require.Equal(t, "User Status created", result.Message)
	require.Equal(t, string(domain.StatusStateCurrent), result.Status.State)
	require.Equal(t, domain.StartOfUTCDay(testNow), result.Status.AppliedOn)
	require.Equal(t, domain.EndOfUTCDay(end), *result.Status.EndsOn)
}

func TestSetUserStatus_FutureBecomesUpcoming(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	member := f.addUser("dana", domain.RoleMember)

	applied := testNow.Add(48 * time.Hour)
	result, err := f.svc.SetUserStatus(context.Background(), claimsFor(member), member.UserID.String(), SetUserStatusRequest{
		Status:    "ONBOARDING",
		AppliedOn: applied,
	}, "")
	require.NoError(t, err)
	require.False(t, result.Created)
	require.Equal(t, "Future Status of user updated", result.Message)
	require.Equal(t, string(domain.StatusStateUpcoming), result.Status.State)
}

func TestSetUserStatus_CurrentWriteClearsUpcoming(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	member := f.addUser("dana", domain.RoleMember)

	_, err := f.svc.SetUserStatus(context.Background(), claimsFor(member), member.UserID.String(), SetUserStatusRequest{
		Status: "ONBOARDING", AppliedOn: testNow.Add(48 * time.Hour),
	}, "")
	require.NoError(t, err)

	end := testNow.Add(24 * time.Hour)
	_, err = f.svc.SetUserStatus(context.Background(), claimsFor(member), member.UserID.String(), SetUserStatusRequest{
		Status: "OOO", AppliedOn: testNow, EndsOn: &end,
	}, "")
	require.NoError(t, err)

	upcoming, err := f.statuses.GetByUserAndState(context.Background(), member.UserID, domain.StatusStateUpcoming)
	require.NoError(t, err)
	require.Nil(t, upcoming)
}

func TestSetUserStatus_Rejections(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	member := f.addUser("dana", domain.RoleMember)
	other := f.addUser("lee", domain.RoleMember)

	_, err := f.svc.SetUserStatus(context.Background(), claimsFor(member), "self", SetUserStatusRequest{Status: "OOO", AppliedOn: testNow}, "")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.SetUserStatus(context.Background(), claimsFor(member), other.UserID.String(), SetUserStatusRequest{Status: "OOO", AppliedOn: testNow}, "")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.SetUserStatus(context.Background(), claimsFor(member), member.UserID.String(), SetUserStatusRequest{Status: "ACTIVE", AppliedOn: testNow}, "")
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.SetUserStatus(context.Background(), claimsFor(member), member.UserID.String(), SetUserStatusRequest{Status: "OOO", AppliedOn: testNow.Add(-48 * time.Hour)}, "")
	require.ErrorIs(t, err, domain.ErrPastDate)
}

func TestSetUserStatus_AuditFailureIsLoggedNotFatal(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	member := f.addUser("dana", domain.RoleMember)

	var logBuf bytes.Buffer
	f.svc.logger = slog.New(slog.NewJSONHandler(&logBuf, nil))
	f.audits.failErr = errors.New("audit store down")

	result, err := f.svc.SetUserStatus(context.Background(), claimsFor(member), member.UserID.String(), SetUserStatusRequest{
		Status: "ONBOARDING", AppliedOn: testNow,
	}, "")
	require.NoError(t, err)
	require.True(t, result.Created)
	require.Contains(t, logBuf.String(), "status audit append failed")
	require.Contains(t, logBuf.String(), "audit store down")
}

func TestGetUserStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	member := f.addUser("dana", domain.RoleMember)

	_, err := f.svc.GetUserStatus(context.Background(), member.UserID.String())
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.GetUserStatus(context.Background(), "self")
	require.ErrorIs(t, err, domain.ErrNotFound)

	end := testNow.Add(24 * time.Hour)
	_, err = f.svc.SetUserStatus(context.Background(), claimsFor(member), member.UserID.String(), SetUserStatusRequest{
		Status: "OOO", AppliedOn: testNow, EndsOn: &end, Message: "out",
	}, "")
	require.NoError(t, err)

	resp, err := f.svc.GetUserStatus(context.Background(), member.UserID.String())
	require.NoError(t, err)
	require.Equal(t, "OOO", resp.Status)

	// second read is served from cache
	f.statuses.slots = map[statusKey]domain.UserStatus{}
	cached, err := f.svc.GetUserStatus(context.Background(), member.UserID.String())
	require.NoError(t, err)
	require.Equal(t, resp, cached)
}

func TestSweepUserStatuses(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	promoteMe := f.addUser("dana", domain.RoleMember)
	expireMe := f.addUser("lee", domain.RoleMember)
	futureOnly := f.addUser("sam", domain.RoleMember)

	// due UPCOMING for dana
	f.statuses.slots[statusKey{promoteMe.UserID, domain.StatusStateUpcoming}] = domain.UserStatus{
		UserID: promoteMe.UserID, Status: domain.UserStatusOnboarding, State: domain.StatusStateUpcoming,
		AppliedOn: domain.StartOfUTCDay(testNow), UpdatedAt: testNow,
	}
	// expired CURRENT OOO for lee
	expiredEnd := testNow.Add(-time.Hour)
	f.statuses.slots[statusKey{expireMe.UserID, domain.StatusStateCurrent}] = domain.UserStatus{
		UserID: expireMe.UserID, Status: domain.UserStatusOOO, State: domain.StatusStateCurrent,
		AppliedOn: domain.StartOfUTCDay(testNow.Add(-72 * time.Hour)), EndsOn: &expiredEnd, UpdatedAt: testNow,
	}
	// not-yet-due UPCOMING for sam
	f.statuses.slots[statusKey{futureOnly.UserID, domain.StatusStateUpcoming}] = domain.UserStatus{
		UserID: futureOnly.UserID, Status: domain.UserStatusOnboarding, State: domain.StatusStateUpcoming,
		AppliedOn: domain.StartOfUTCDay(testNow.Add(72 * time.Hour)), UpdatedAt: testNow,
	}

	resp, err := f.svc.SweepUserStatuses(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, resp.NoOfUserStatusUpdated)
	require.Equal(t, 1, resp.NonOooUsersAltered)
	require.Equal(t, 1, resp.OooUsersAltered)
	require.Equal(t, int64(1), resp.FutureStatusLeft)

	promoted := f.statuses.slots[statusKey{promoteMe.UserID, domain.StatusStateCurrent}]
	require.Equal(t, domain.UserStatusOnboarding, promoted.Status)
	reverted := f.statuses.slots[statusKey{expireMe.UserID, domain.StatusStateCurrent}]
	require.Equal(t, domain.UserStatusActive, reverted.Status)
	require.Nil(t, reverted.EndsOn)

	// idempotent: a second run with the same clock changes nothing
	again, err := f.svc.SweepUserStatuses(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, again.NoOfUserStatusUpdated)
	require.Equal(t, int64(1), again.FutureStatusLeft)
}

func TestSweepWritesAuditEntries(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	member := f.addUser("dana", domain.RoleMember)
	f.statuses.slots[statusKey{member.UserID, domain.StatusStateUpcoming}] = domain.UserStatus{
		UserID: member.UserID, Status: domain.UserStatusOnboarding, State: domain.StatusStateUpcoming,
		AppliedOn: domain.StartOfUTCDay(testNow), UpdatedAt: testNow,
	}

	_, err := f.svc.SweepUserStatuses(context.Background())
	require.NoError(t, err)

	entries, err := f.svc.ListAuditLogs(context.Background(), domain.AuditTypeUserStatus, map[string]string{
		"userId": member.UserID.String(),
		"action": "promote",
	}, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
