package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"EarnPilot/internal/domain/models"
	domrepo "EarnPilot/internal/domain/repository"
)

type fakeMarket struct {
	closes []float64
	err    error
	calls  int
}

func (f *fakeMarket) Klines(context.Context, string, string, int) ([]models.Kline, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Kline, len(f.closes))
	for i, c := range f.closes {
		out[i] = models.Kline{Close: c}
	}
	return out, nil
}

func (f *fakeMarket) Ticker24h(context.Context) ([]models.Ticker, error)        { return nil, nil }
func (f *fakeMarket) AccountBalances(context.Context) ([]models.Balance, error) { return nil, nil }
func (f *fakeMarket) ProductCatalog(context.Context, domrepo.ProductKind) (any, error) {
	return nil, nil
}

func linearCloses(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestPredictTrendUptrend(t *testing.T) {
	market := &fakeMarket{closes: linearCloses(100, 1, 50)}
	p := NewMarketPredictor(market)

	pred, err := p.PredictTrend(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, models.DirectionUp, pred.Direction)
	require.InDelta(t, 149.0, pred.Price, 1e-9)
	require.Positive(t, pred.PredictedChangePercent)
	// pure-gain series pins RSI at 100, which costs the overbought penalty
	require.InDelta(t, 0.5, pred.Confidence, 1e-9)
}

func TestPredictTrendDowntrend(t *testing.T) {
	market := &fakeMarket{closes: linearCloses(200, -1, 50)}
	p := NewMarketPredictor(market)

	pred, err := p.PredictTrend(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	require.Equal(t, models.DirectionDown, pred.Direction)
	require.Negative(t, pred.PredictedChangePercent)
}

func TestPredictTrendFlatIsNeutral(t *testing.T) {
	market := &fakeMarket{closes: linearCloses(1000, 0.1, 50)}
	p := NewMarketPredictor(market)

	pred, err := p.PredictTrend(context.Background(), "BNBUSDT")
	require.NoError(t, err)
	require.Equal(t, models.DirectionNeutral, pred.Direction)
	require.InDelta(t, 0.5, pred.Confidence, 1e-9)
}

func TestPredictTrendShortHistoryDegradesToNeutral(t *testing.T) {
	market := &fakeMarket{closes: linearCloses(100, 1, 10)}
	p := NewMarketPredictor(market)

	pred, err := p.PredictTrend(context.Background(), "NEWUSDT")
	require.NoError(t, err)
	require.Equal(t, models.DirectionNeutral, pred.Direction)
	require.Zero(t, pred.Confidence)
	require.Zero(t, pred.Price)
}

func TestPredictTrendFetchErrorPropagates(t *testing.T) {
	market := &fakeMarket{err: errors.New("rate limited")}
	p := NewMarketPredictor(market)

	_, err := p.PredictTrend(context.Background(), "BTCUSDT")
	require.Error(t, err)
}

func TestPredictTrendMemoizesPerSymbol(t *testing.T) {
	market := &fakeMarket{closes: linearCloses(100, 1, 50)}
	p := NewMarketPredictor(market)

	first, err := p.PredictTrend(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	second, err := p.PredictTrend(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	require.Equal(t, 1, market.calls)
	require.Equal(t, first, second)
}
