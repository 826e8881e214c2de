package enums

import "fmt"

// SupportMessageStatus tracks back-office handling of customer messages.
type SupportMessageStatus string

const (
	SupportMessageOpen    SupportMessageStatus = "open"
	SupportMessageHandled SupportMessageStatus = "handled"
)

func (s SupportMessageStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SupportMessageStatus.
func (s SupportMessageStatus) IsValid() bool {
	return s == SupportMessageOpen || s == SupportMessageHandled
}

// ParseSupportMessageStatus converts raw input into a SupportMessageStatus.
func ParseSupportMessageStatus(value string) (SupportMessageStatus, error) {
	switch SupportMessageStatus(value) {
	case SupportMessageOpen:
		return SupportMessageOpen, nil
	case SupportMessageHandled:
		return SupportMessageHandled, nil
	default:
		return "", fmt.Errorf("invalid support message status %q", value)
	}
}
