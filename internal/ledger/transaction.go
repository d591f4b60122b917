package ledger

import "time"

// Transaction is a single credit/debit instruction. From == "" denotes a
// mint / account-creation transaction (no debit side). Transactions are
// immutable once created.
type Transaction struct {
	From   string
	To     string
	Amount int64

	// Fee and Nonce are optional metadata, unused by the FIFO mempool the
	// ledger runs by default; they exist so PriorityMempool (see mempool.go)
	// has something to order by without inventing a second Transaction type.
	Fee   int64
	Nonce uint64

	Timestamp time.Time
}

// IsMint reports whether this transaction creates balance out of nothing
// (no sender to debit).
func (t Transaction) IsMint() bool {
	return t.From == ""
}
