package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service counters so they can be injected instead of
// reached through package globals.
type Metrics struct {
	OrdersCreated           prometheus.Counter
	OrdersCancelled         prometheus.Counter
	CashbackAwarded         prometheus.Counter
	CourierDispatchFailures *prometheus.CounterVec
	EmailsSent              *prometheus.CounterVec
	WalletTransactions      *prometheus.CounterVec
}

// New registers the storefront counters on the provided registerer. Passing nil
// uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		OrdersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "tijara_orders_created_total",
			Help: "Orders persisted through checkout.",
		}),
		OrdersCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "tijara_orders_cancelled_total",
			Help: "Orders moved to the cancelled state.",
		}),
		CashbackAwarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "tijara_cashback_awarded_total",
			Help: "Cashback settlements credited to customer wallets.",
		}),
		CourierDispatchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tijara_courier_dispatch_failures_total",
			Help: "Failed shipment creations per courier provider.",
		}, []string{"provider"}),
		EmailsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tijara_emails_sent_total",
			Help: "Transactional emails by outcome.",
		}, []string{"outcome"}),
		WalletTransactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tijara_wallet_transactions_total",
			Help: "Wallet ledger entries by type.",
		}, []string{"type"}),
	}
}

// NewForTest returns metrics bound to a throwaway registry.
func NewForTest() *Metrics {
	return New(prometheus.NewRegistry())
}
