package enums

import "fmt"

// CourierProvider names a third-party delivery integration.
type CourierProvider string

const (
	CourierAlwaseet CourierProvider = "alwaseet"
	CourierBarq     CourierProvider = "barq"
)

var validCourierProviders = []CourierProvider{
	CourierAlwaseet,
	CourierBarq,
}

func (c CourierProvider) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CourierProvider.
func (c CourierProvider) IsValid() bool {
	for _, candidate := range validCourierProviders {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCourierProvider converts raw input into a CourierProvider.
func ParseCourierProvider(value string) (CourierProvider, error) {
	for _, candidate := range validCourierProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid courier provider %q", value)
}
