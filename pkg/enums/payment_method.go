package enums

import "fmt"

// PaymentMethod identifies how a customer settles an order.
type PaymentMethod string

const (
	PaymentMethodCOD           PaymentMethod = "cod"
	PaymentMethodWallet        PaymentMethod = "wallet"
	PaymentMethodWalletPartial PaymentMethod = "wallet_partial"
	PaymentMethodGateway       PaymentMethod = "gateway"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCOD,
	PaymentMethodWallet,
	PaymentMethodWalletPartial,
	PaymentMethodGateway,
}

func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// UsesWallet reports whether the method draws on the customer wallet.
func (p PaymentMethod) UsesWallet() bool {
	return p == PaymentMethodWallet || p == PaymentMethodWalletPartial
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
