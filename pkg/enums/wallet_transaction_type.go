package enums

import "fmt"

// WalletTransactionType classifies ledger entries on a customer wallet.
type WalletTransactionType string

const (
	WalletTransactionPayment     WalletTransactionType = "payment"
	WalletTransactionRefund      WalletTransactionType = "refund"
	WalletTransactionCashback    WalletTransactionType = "cashback"
	WalletTransactionAdminCredit WalletTransactionType = "admin_credit"
	WalletTransactionAdminDebit  WalletTransactionType = "admin_debit"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionPayment,
	WalletTransactionRefund,
	WalletTransactionCashback,
	WalletTransactionAdminCredit,
	WalletTransactionAdminDebit,
}

func (w WalletTransactionType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WalletTransactionType.
func (w WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// IsCredit reports whether the entry increases the wallet balance.
func (w WalletTransactionType) IsCredit() bool {
	switch w {
	case WalletTransactionRefund, WalletTransactionCashback, WalletTransactionAdminCredit:
		return true
	default:
		return false
	}
}

// ParseWalletTransactionType converts raw input into a WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}
