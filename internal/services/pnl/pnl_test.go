package pnl

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/chainfolio/internal/domain"
)

var (
	testAsset = domain.Asset{ChainProvider: "ethereum", ContractAddress: "0xaaa"}
	gasAsset  = domain.Asset{ChainProvider: "ethereum", ContractAddress: ""}
)

type fakeCostBasis struct {
	result domain.CostBasis
	err    error
}

func (f *fakeCostBasis) GetCostBasis(_ context.Context, _ string, _ domain.Asset) (domain.CostBasis, error) {
	return f.result, f.err
}

type fakePositions struct {
	position domain.Position
	err      error
}

func (f *fakePositions) GetPosition(_ context.Context, _ string, _ domain.Asset) (domain.Position, error) {
	return f.position, f.err
}

type fakeSwapChecker struct {
	pending bool
	err     error
}

func (f *fakeSwapChecker) HasPendingSwap(_ context.Context, _ string) (bool, error) {
	return f.pending, f.err
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func basisWith(balance, costCents, avgCents string) domain.CostBasis {
	return domain.CostBasis{
		Balance:               decPtr(balance),
		CostBasisCents:        decPtr(costCents),
		AvgPurchasePriceCents: decPtr(avgCents),
	}
}

func newCalculator(t *testing.T, basis *fakeCostBasis, positions *fakePositions, swaps PendingSwapChecker) *Calculator {
	t.Helper()
	calc, err := NewCalculator(zap.NewNop(), basis, positions, swaps, domain.NewRegistry(gasAsset))
	require.NoError(t, err)
	return calc
}

func TestGetPnL_TotalReturn(t *testing.T) {
	basis := &fakeCostBasis{result: basisWith("100", "5000", "50")}
	positions := &fakePositions{position: domain.Position{
		Asset:          testAsset,
		Amount:         dec("100"),
		FiatValueCents: dec("7500"),
	}}
	calc := newCalculator(t, basis, positions, nil)

	result, err := calc.GetPnL(context.Background(), "user1", "0xwallet", testAsset)
	require.NoError(t, err)

	require.NotNil(t, result.TotalReturnCents)
	require.True(t, result.TotalReturnCents.Equal(dec("2500")))
	require.NotNil(t, result.TotalReturnPercent)
	require.True(t, result.TotalReturnPercent.Equal(dec("50")), "got %s", result.TotalReturnPercent)
	require.False(t, result.SuppressBasisDisplay)
}

func TestGetPnL_PercentRoundedToTwoPlaces(t *testing.T) {
	basis := &fakeCostBasis{result: basisWith("100", "3000", "30")}
	positions := &fakePositions{position: domain.Position{
		Asset:          testAsset,
		FiatValueCents: dec("4000"),
	}}
	calc := newCalculator(t, basis, positions, nil)

	result, err := calc.GetPnL(context.Background(), "user1", "0xwallet", testAsset)
	require.NoError(t, err)

	// 1000/3000 * 100 = 33.333... -> 33.33
	require.True(t, result.TotalReturnPercent.Equal(dec("33.33")), "got %s", result.TotalReturnPercent)
}

func TestGetPnL_NoBasisSuppressesReturnAndDisplay(t *testing.T) {
	basis := &fakeCostBasis{result: domain.CostBasis{Balance: decPtr("90")}}
	positions := &fakePositions{position: domain.Position{Asset: testAsset, FiatValueCents: dec("1000")}}
	calc := newCalculator(t, basis, positions, nil)

	result, err := calc.GetPnL(context.Background(), "user1", "0xwallet", testAsset)
	require.NoError(t, err)

	require.Nil(t, result.TotalReturnCents)
	require.Nil(t, result.TotalReturnPercent)
	require.True(t, result.SuppressBasisDisplay)
}

func TestGetPnL_ZeroBasisHasNoPercent(t *testing.T) {
	basis := &fakeCostBasis{result: basisWith("10", "0", "0")}
	positions := &fakePositions{position: domain.Position{Asset: testAsset, FiatValueCents: dec("1000")}}
	calc := newCalculator(t, basis, positions, nil)

	result, err := calc.GetPnL(context.Background(), "user1", "0xwallet", testAsset)
	require.NoError(t, err)

	require.NotNil(t, result.TotalReturnCents)
	require.True(t, result.TotalReturnCents.Equal(dec("1000")))
	require.Nil(t, result.TotalReturnPercent, "division by zero basis must yield no percent")
}

func TestGetPnL_StableAssetSuppressed(t *testing.T) {
	result := basisWith("100", "10000", "100")
	result.IsStableAsset = true
	basis := &fakeCostBasis{result: result}
	positions := &fakePositions{position: domain.Position{Asset: testAsset, FiatValueCents: dec("10000")}}
	calc := newCalculator(t, basis, positions, nil)

	out, err := calc.GetPnL(context.Background(), "user1", "0xwallet", testAsset)
	require.NoError(t, err)

	require.True(t, out.SuppressBasisDisplay)
}

func TestGetPnL_HighLiquidityAssetSuppressed(t *testing.T) {
	basis := &fakeCostBasis{result: basisWith("2", "600000", "300000")}
	positions := &fakePositions{position: domain.Position{Asset: gasAsset, FiatValueCents: dec("700000")}}
	calc := newCalculator(t, basis, positions, nil)

	out, err := calc.GetPnL(context.Background(), "user1", "0xwallet", gasAsset)
	require.NoError(t, err)

	require.True(t, out.SuppressBasisDisplay, "gas token is fee float, not a position")
	require.NotNil(t, out.TotalReturnCents)
}

func TestGetPnL_PendingSwapOnlyWhenBalancesDiverge(t *testing.T) {
	positions := &fakePositions{position: domain.Position{Asset: testAsset, Amount: dec("100"), FiatValueCents: dec("5000")}}

	t.Run("flagged and balances diverge", func(t *testing.T) {
		basis := &fakeCostBasis{result: basisWith("140", "7000", "50")}
		calc := newCalculator(t, basis, positions, &fakeSwapChecker{pending: true})

		out, err := calc.GetPnL(context.Background(), "user1", "0xwallet", testAsset)
		require.NoError(t, err)
		require.True(t, out.HasPendingSwaps)
	})

	t.Run("flagged but balances match", func(t *testing.T) {
		basis := &fakeCostBasis{result: basisWith("100", "5000", "50")}
		calc := newCalculator(t, basis, positions, &fakeSwapChecker{pending: true})

		out, err := calc.GetPnL(context.Background(), "user1", "0xwallet", testAsset)
		require.NoError(t, err)
		require.False(t, out.HasPendingSwaps)
	})

	t.Run("not flagged", func(t *testing.T) {
		basis := &fakeCostBasis{result: basisWith("140", "7000", "50")}
		calc := newCalculator(t, basis, positions, &fakeSwapChecker{pending: false})

		out, err := calc.GetPnL(context.Background(), "user1", "0xwallet", testAsset)
		require.NoError(t, err)
		require.False(t, out.HasPendingSwaps)
	})

	t.Run("checker failure degrades to false", func(t *testing.T) {
		basis := &fakeCostBasis{result: basisWith("140", "7000", "50")}
		calc := newCalculator(t, basis, positions, &fakeSwapChecker{err: errors.New("flag store down")})

		out, err := calc.GetPnL(context.Background(), "user1", "0xwallet", testAsset)
		require.NoError(t, err)
		require.False(t, out.HasPendingSwaps)
	})
}

func TestGetPnL_PositionFetchErrorSurfaces(t *testing.T) {
	basis := &fakeCostBasis{result: basisWith("100", "5000", "50")}
	positions := &fakePositions{err: errors.New("node unavailable")}
	calc := newCalculator(t, basis, positions, nil)

	_, err := calc.GetPnL(context.Background(), "user1", "0xwallet", testAsset)

	require.Error(t, err)
	require.Contains(t, err.Error(), "node unavailable")
}

func TestGetPnL_CostBasisErrorSurfaces(t *testing.T) {
	basis := &fakeCostBasis{err: errors.New("store down")}
	positions := &fakePositions{position: domain.Position{Asset: testAsset}}
	calc := newCalculator(t, basis, positions, nil)

	_, err := calc.GetPnL(context.Background(), "user1", "0xwallet", testAsset)

	require.Error(t, err)
}
