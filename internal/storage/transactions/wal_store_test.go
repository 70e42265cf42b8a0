package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/chainfolio/internal/domain"
)

var (
	asset      = domain.Asset{ChainProvider: "ethereum", ContractAddress: "0xaaa"}
	otherAsset = domain.Asset{ChainProvider: "ethereum", ContractAddress: "0xbbb"}
)

func depositAt(ts time.Time, a domain.Asset) domain.Transaction {
	return domain.Transaction{
		Kind:      domain.TxDeposit,
		Timestamp: ts,
		Transfers: []domain.Transfer{{
			Asset:     a,
			Amount:    decimal.NewFromInt(10),
			Direction: domain.DirectionReceived,
		}},
	}
}

func newStore(t *testing.T) *WALStore {
	t.Helper()
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestWALStore_SaveAndFind(t *testing.T) {
	store := newStore(t)
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save("user1", depositAt(ts, asset)))

	txs, err := store.FindTransactions(context.Background(), "user1", asset)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.NotEmpty(t, txs[0].ID, "store mints an id when absent")
	require.True(t, txs[0].Timestamp.Equal(ts))
}

func TestWALStore_FindSortsAscendingByTimestamp(t *testing.T) {
	store := newStore(t)
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	// saved newest-first, must come back oldest-first
	require.NoError(t, store.Save("user1", depositAt(ts.Add(2*time.Hour), asset)))
	require.NoError(t, store.Save("user1", depositAt(ts, asset)))
	require.NoError(t, store.Save("user1", depositAt(ts.Add(time.Hour), asset)))

	txs, err := store.FindTransactions(context.Background(), "user1", asset)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	require.True(t, txs[0].Timestamp.Equal(ts))
	require.True(t, txs[1].Timestamp.Equal(ts.Add(time.Hour)))
	require.True(t, txs[2].Timestamp.Equal(ts.Add(2*time.Hour)))
}

func TestWALStore_FiltersByUserAndAsset(t *testing.T) {
	store := newStore(t)
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save("user1", depositAt(ts, asset)))
	require.NoError(t, store.Save("user1", depositAt(ts, otherAsset)))
	require.NoError(t, store.Save("user2", depositAt(ts, asset)))

	txs, err := store.FindTransactions(context.Background(), "user1", asset)
	require.NoError(t, err)
	require.Len(t, txs, 1)
}

func TestWALStore_UserPrefixCollisionDoesNotLeak(t *testing.T) {
	store := newStore(t)
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	// "user1" is an underscore-prefix of "user1_a": the key prefix scan
	// alone would match both, ownership must come from the record.
	require.NoError(t, store.Save("user1_a", depositAt(ts, asset)))
	require.NoError(t, store.Save("user1", depositAt(ts.Add(time.Hour), asset)))

	txs, err := store.FindTransactions(context.Background(), "user1", asset)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.True(t, txs[0].Timestamp.Equal(ts.Add(time.Hour)))

	txs, err = store.FindTransactions(context.Background(), "user1_a", asset)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.True(t, txs[0].Timestamp.Equal(ts))
}

func TestWALStore_TradeFoundByEitherLegAsset(t *testing.T) {
	store := newStore(t)
	trade := domain.Transaction{
		Kind:      domain.TxTrade,
		Timestamp: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Transfers: []domain.Transfer{
			{Asset: asset, Amount: decimal.NewFromInt(5), Direction: domain.DirectionSent},
			{Asset: otherAsset, Amount: decimal.NewFromInt(3), Direction: domain.DirectionReceived},
		},
	}
	require.NoError(t, store.Save("user1", trade))

	bySent, err := store.FindTransactions(context.Background(), "user1", asset)
	require.NoError(t, err)
	require.Len(t, bySent, 1)

	byReceived, err := store.FindTransactions(context.Background(), "user1", otherAsset)
	require.NoError(t, err)
	require.Len(t, byReceived, 1)
}

func TestWALStore_RoundTripPreservesDecimals(t *testing.T) {
	store := newStore(t)
	tx := domain.Transaction{
		Kind:      domain.TxDeposit,
		Timestamp: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Transfers: []domain.Transfer{{
			Asset:           asset,
			Amount:          decimal.RequireFromString("0.000000000000000001"),
			Direction:       domain.DirectionReceived,
			FiatAmountCents: decimal.RequireFromString("0.0042"),
			HasFiatAmount:   true,
		}},
	}
	require.NoError(t, store.Save("user1", tx))

	txs, err := store.FindTransactions(context.Background(), "user1", asset)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.True(t, txs[0].Transfers[0].Amount.Equal(tx.Transfers[0].Amount))
	require.True(t, txs[0].Transfers[0].FiatAmountCents.Equal(tx.Transfers[0].FiatAmountCents))
}

func TestWALStore_SaveValidation(t *testing.T) {
	store := newStore(t)

	require.Error(t, store.Save("", depositAt(time.Now(), asset)))
	require.Error(t, store.Save("user1", domain.Transaction{Kind: domain.TxDeposit}))
}
