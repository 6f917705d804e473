package domain

import (
	"fmt"
	"strings"
	"time"
)

// OOOMessageThreshold is the OOO duration above which a message is mandatory.
const OOOMessageThreshold = 3 * 24 * time.Hour

// EtaFloor computes the minimum acceptable NewEndsOn for a task given the most
// recent request on record. A PENDING latest never reaches here (creation is
// rejected first); an APPROVED latest raises the floor to its NewEndsOn, a
// DENIED or absent latest leaves the floor at the requested OldEndsOn.
func EtaFloor(latest *ExtensionRequest, oldEndsOn int64) int64 {
	if latest != nil && latest.Status == ExtensionStatusApproved {
		return latest.NewEndsOn
	}
	return oldEndsOn
}

func ValidateNewEta(newEndsOn, floor int64) error {
	if newEndsOn <= floor {
		return fmt.Errorf("%w: newEndsOn %d must be greater than %d", ErrInvalidEta, newEndsOn, floor)
	}
	return nil
}

func ValidateExtensionTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" || len(trimmed) > 100 {
		return fmt.Errorf("%w: title must be 1-100 chars", ErrInvalidInput)
	}
	return nil
}

func ValidateExtensionReason(reason string) error {
	if strings.TrimSpace(reason) == "" || len(reason) > 500 {
		return fmt.Errorf("%w: reason must be 1-500 chars", ErrInvalidInput)
	}
	return nil
}

// ValidateManualStatus restricts what users may set directly. ACTIVE and IDLE
// are reached indirectly: the sweep reverts expired OOO to ACTIVE and
// provisioning seeds ONBOARDING.
func ValidateManualStatus(kind UserStatusKind) error {
	switch kind {
	case UserStatusOOO, UserStatusOnboarding:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, string(kind))
	}
}

// ValidateStatusWindow checks the day-boundary rules for a status update.
// appliedOn and endsOn are expected pre-normalized (StartOfUTCDay/EndOfUTCDay).
func ValidateStatusWindow(kind UserStatusKind, appliedOn time.Time, endsOn *time.Time, message string, now time.Time) error {
	if appliedOn.Before(StartOfUTCDay(now)) {
		return fmt.Errorf("%w: appliedOn %s", ErrPastDate, appliedOn.Format("2006-01-02"))
	}
	if endsOn != nil {
		if endsOn.Before(appliedOn) {
			return fmt.Errorf("%w: endsOn %s before appliedOn %s", ErrInvalidRange,
				endsOn.Format("2006-01-02"), appliedOn.Format("2006-01-02"))
		}
		if kind == UserStatusOOO && endsOn.Sub(appliedOn) > OOOMessageThreshold && strings.TrimSpace(message) == "" {
			return fmt.Errorf("%w: OOO period longer than 3 days", ErrMessageRequired)
		}
	}
	return nil
}
