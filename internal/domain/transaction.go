package domain

import "time"

// TxKind represents the kind of an on-chain transaction.
type TxKind int

const (
	TxDeposit TxKind = iota
	TxWithdrawal
	TxTrade
)

// kind string constants to avoid magic strings
const (
	kindStringDeposit    = "deposit"
	kindStringWithdrawal = "withdrawal"
	kindStringTrade      = "trade"
)

// String returns the string representation of the kind.
func (k TxKind) String() string {
	switch k {
	case TxDeposit:
		return kindStringDeposit
	case TxWithdrawal:
		return kindStringWithdrawal
	case TxTrade:
		return kindStringTrade
	default:
		return "unknown"
	}
}

// Transaction is one on-chain transaction with its transfer legs.
// Transactions are fetched read-only and must be processed in ascending
// timestamp order: the ledger's running totals are order-sensitive.
type Transaction struct {
	ID        string     `json:"id"`
	Kind      TxKind     `json:"kind"`
	Timestamp time.Time  `json:"timestamp"`
	Transfers []Transfer `json:"transfers"`
}

// Involves reports whether any transfer leg references the asset.
func (t Transaction) Involves(asset Asset) bool {
	for _, tr := range t.Transfers {
		if tr.Asset == asset {
			return true
		}
	}
	return false
}
