package binance

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"EarnPilot/internal/domain/models"
	domrepo "EarnPilot/internal/domain/repository"
	pkgcache "EarnPilot/pkg/cache"
	applogger "EarnPilot/pkg/logger"
)

const klineCacheTTL = 5 * time.Minute

// MarketService implements the exchange read boundary over the REST client.
// Kline history is cached briefly so repeated trend fits within a cycle or
// across close-together requests do not refetch identical daily bars.
type MarketService struct {
	client *Client
	cache  pkgcache.Service
	log    *applogger.Logger
}

func NewMarketService(client *Client, cache pkgcache.Service, log *applogger.Logger) *MarketService {
	return &MarketService{client: client, cache: cache, log: log}
}

type tickerRow struct {
	Symbol             string `json:"symbol"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
}

func (s *MarketService) Ticker24h(ctx context.Context) ([]models.Ticker, error) {
	var rows []tickerRow
	if err := s.client.get(ctx, "/api/v3/ticker/24hr", nil, false, &rows); err != nil {
		return nil, err
	}
	out := make([]models.Ticker, 0, len(rows))
	for _, r := range rows {
		change, _ := strconv.ParseFloat(r.PriceChangePercent, 64)
		last, _ := strconv.ParseFloat(r.LastPrice, 64)
		out = append(out, models.Ticker{Symbol: r.Symbol, ChangePercent: change, LastPrice: last})
	}
	return out, nil
}

// Klines returns OHLCV bars, oldest first. The exchange encodes each bar as a
// positional array of mixed numbers and decimal strings.
func (s *MarketService) Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Kline, error) {
	key := pkgcache.GenerateKeyWithParams("earnpilot:klines", symbol, interval, limit)
	var cached any
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		if bars, ok := cached.([]models.Kline); ok && len(bars) > 0 {
			return bars, nil
		}
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	var rows [][]any
	if err := s.client.get(ctx, "/api/v3/klines", q, false, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Kline, 0, len(rows))
	for _, r := range rows {
		if len(r) < 7 {
			continue
		}
		k := models.Kline{
			OpenTime:  int64(num(r[0])),
			Open:      num(r[1]),
			High:      num(r[2]),
			Low:       num(r[3]),
			Close:     num(r[4]),
			Volume:    num(r[5]),
			CloseTime: int64(num(r[6])),
		}
		if k.Close <= 0 {
			continue
		}
		out = append(out, k)
	}

	if err := s.cache.Set(ctx, key, out, klineCacheTTL); err != nil {
		s.log.Debug("kline cache write failed", applogger.Error(err))
	}
	return out, nil
}

type accountResponse struct {
	Balances []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

func (s *MarketService) AccountBalances(ctx context.Context) ([]models.Balance, error) {
	var resp accountResponse
	if err := s.client.get(ctx, "/api/v3/account", nil, true, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Balance, 0, len(resp.Balances))
	for _, b := range resp.Balances {
		free, _ := strconv.ParseFloat(b.Free, 64)
		locked, _ := strconv.ParseFloat(b.Locked, 64)
		if free+locked <= 0 {
			continue
		}
		out = append(out, models.Balance{Asset: b.Asset, Free: free, Locked: locked, Total: free + locked})
	}
	return out, nil
}

// ProductCatalog returns the raw decoded catalog payload. Field names drift
// between product generations, so normalization happens in one place
// downstream rather than in per-endpoint response structs.
func (s *MarketService) ProductCatalog(ctx context.Context, kind domrepo.ProductKind) (any, error) {
	q := url.Values{}
	q.Set("size", "100")

	var path string
	switch kind {
	case domrepo.ProductFlexible:
		path = "/sapi/v1/simple-earn/flexible/list"
	case domrepo.ProductLocked:
		path = "/sapi/v1/simple-earn/locked/list"
	case domrepo.ProductDual:
		path = "/sapi/v1/dci/product/list"
		q.Set("optionType", "PUT")
		q.Set("pageSize", "100")
	default:
		return nil, fmt.Errorf("binance: unknown product catalog %q", kind)
	}

	var raw any
	if err := s.client.get(ctx, path, q, true, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func num(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return 0
	}
}

var _ domrepo.MarketData = (*MarketService)(nil)
