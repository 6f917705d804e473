package domain

import (
	"errors"
	"testing"
	"time"
)

func TestEtaFloor(t *testing.T) {
	t.Parallel()

	if got := EtaFloor(nil, 1000); got != 1000 {
		t.Fatalf("expected floor 1000 with no prior request, got %d", got)
	}

	approved := &ExtensionRequest{Status: ExtensionStatusApproved, NewEndsOn: 2000}
	if got := EtaFloor(approved, 1000); got != 2000 {
		t.Fatalf("expected approved request to raise floor to 2000, got %d", got)
	}

	denied := &ExtensionRequest{Status: ExtensionStatusDenied, NewEndsOn: 3000}
	if got := EtaFloor(denied, 1000); got != 1000 {
		t.Fatalf("expected denied request to leave floor at 1000, got %d", got)
	}
}

func TestValidateNewEta(t *testing.T) {
	t.Parallel()

	if err := ValidateNewEta(2001, 2000); err != nil {
		t.Fatalf("expected newEndsOn above floor to pass, got %v", err)
	}
	if err := ValidateNewEta(2000, 2000); !errors.Is(err, ErrInvalidEta) {
		t.Fatalf("expected ErrInvalidEta for newEndsOn equal to floor, got %v", err)
	}
	if err := ValidateNewEta(1999, 2000); !errors.Is(err, ErrInvalidEta) {
		t.Fatalf("expected ErrInvalidEta for newEndsOn below floor, got %v", err)
	}
}

func TestValidateManualStatus(t *testing.T) {
	t.Parallel()

	for _, kind := range []UserStatusKind{UserStatusOOO, UserStatusOnboarding} {
		if err := ValidateManualStatus(kind); err != nil {
			t.Fatalf("expected %s to be settable manually, got %v", kind, err)
		}
	}
	for _, kind := range []UserStatusKind{UserStatusActive, UserStatusIdle, UserStatusKind("VACATION")} {
		if err := ValidateManualStatus(kind); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("expected ErrInvalidStatus for %s, got %v", kind, err)
		}
	}
}

func TestValidateStatusWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	today := StartOfUTCDay(now)

	if err := ValidateStatusWindow(UserStatusOnboarding, today, nil, "", now); err != nil {
		t.Fatalf("expected today's appliedOn to pass, got %v", err)
	}

	yesterday := today.Add(-24 * time.Hour)
	if err := ValidateStatusWindow(UserStatusOnboarding, yesterday, nil, "", now); !errors.Is(err, ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}

	badEnd := EndOfUTCDay(today.Add(-24 * time.Hour))
	if err := ValidateStatusWindow(UserStatusOOO, today, &badEnd, "", now); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for endsOn before appliedOn, got %v", err)
	}

	longEnd := EndOfUTCDay(today.Add(5 * 24 * time.Hour))
	if err := ValidateStatusWindow(UserStatusOOO, today, &longEnd, "", now); !errors.Is(err, ErrMessageRequired) {
		t.Fatalf("expected ErrMessageRequired for long OOO without message, got %v", err)
	}
	if err := ValidateStatusWindow(UserStatusOOO, today, &longEnd, "conference travel", now); err != nil {
		t.Fatalf("expected long OOO with message to pass, got %v", err)
	}

	shortEnd := EndOfUTCDay(today.Add(2 * 24 * time.Hour))
	if err := ValidateStatusWindow(UserStatusOOO, today, &shortEnd, "", now); err != nil {
		t.Fatalf("expected short OOO without message to pass, got %v", err)
	}
}

func TestValidateExtensionFields(t *testing.T) {
	t.Parallel()

	if err := ValidateExtensionTitle("Need two more days"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateExtensionTitle("   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank title, got %v", err)
	}
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateExtensionTitle(string(long)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for long title, got %v", err)
	}
	if err := ValidateExtensionReason(""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty reason, got %v", err)
	}
}

func TestUTCDayHelpers(t *testing.T) {
	t.Parallel()

	est := time.FixedZone("EST", -5*3600)
	late := time.Date(2026, 3, 10, 23, 30, 0, 0, est)

	start := StartOfUTCDay(late)
	if start.Hour() != 0 || start.Day() != 11 {
		t.Fatalf("expected start of UTC day 2026-03-11T00:00:00Z, got %s", start)
	}
	end := EndOfUTCDay(late)
	if end.Sub(start) != 24*time.Hour-time.Second {
		t.Fatalf("expected end of day at 23:59:59, got %s", end)
	}
	if !SameUTCDay(start, end) {
		t.Fatalf("start and end of the same UTC day should match")
	}
	if SameUTCDay(start, start.Add(24*time.Hour)) {
		t.Fatalf("consecutive days should not match")
	}
}
