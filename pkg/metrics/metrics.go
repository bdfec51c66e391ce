// Package metrics holds the prometheus collectors exported in server mode.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RPCAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evmwallet",
		Name:      "rpc_attempts_total",
		Help:      "RPC attempts per operation, endpoint and result.",
	}, []string{"op", "endpoint", "result"})

	RPCRotations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "evmwallet",
		Name:      "rpc_rotations_total",
		Help:      "Endpoint pool rotations after a failed attempt.",
	})

	RPCExhausted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evmwallet",
		Name:      "rpc_exhausted_total",
		Help:      "Operations that failed on every endpoint.",
	}, []string{"op"})

	TransactionsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "evmwallet",
		Name:      "transactions_submitted_total",
		Help:      "Transfers accepted by an RPC node.",
	})

	TransactionStatus = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evmwallet",
		Name:      "transaction_status_total",
		Help:      "Ledger status transitions observed by reconciliation.",
	}, []string{"status"})
)

// Registry holds every wallet collector.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		RPCAttempts,
		RPCRotations,
		RPCExhausted,
		TransactionsSubmitted,
		TransactionStatus,
	)
}
