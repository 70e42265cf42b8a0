package domain

import "github.com/shopspring/decimal"

// Direction represents the side of a transfer within a transaction.
type Direction int

const (
	// DirectionSent is a transfer leaving the user's wallet.
	DirectionSent Direction = iota
	// DirectionReceived is a transfer entering the user's wallet.
	DirectionReceived
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionSent:
		return "sent"
	case DirectionReceived:
		return "received"
	default:
		return "unknown"
	}
}

// Transfer is one leg of a transaction. Amount is always positive;
// the sign is carried by Direction. Transfers are immutable once fetched:
// the engine only ever produces derived copies, never mutates a source leg.
type Transfer struct {
	Asset     Asset           `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	Direction Direction       `json:"direction"`
	// FiatAmountCents is the leg's fiat value at transaction time, in cents.
	// Meaningful only when HasFiatAmount is true.
	FiatAmountCents decimal.Decimal `json:"fiat_amount_cents"`
	HasFiatAmount   bool            `json:"has_fiat_amount"`
}

// WithFiatAmountCents returns a copy of the transfer with a computed fiat value.
func (t Transfer) WithFiatAmountCents(cents decimal.Decimal) Transfer {
	t.FiatAmountCents = cents
	t.HasFiatAmount = true
	return t
}

// FiatOrZero returns the resolved fiat value, or zero when unresolved.
func (t Transfer) FiatOrZero() decimal.Decimal {
	if !t.HasFiatAmount {
		return decimal.Zero
	}
	return t.FiatAmountCents
}
