package binance

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"EarnPilot/internal/domain/models"
	domrepo "EarnPilot/internal/domain/repository"
	icache "EarnPilot/internal/service/cache"
	applogger "EarnPilot/pkg/logger"
)

const (
	miniTickerStream = "/!miniTicker@arr"
	snapshotTTL      = 30 * time.Second
	reconnectDelay   = 5 * time.Second
	pingInterval     = 30 * time.Second
)

// Stream consumes the all-market miniTicker WebSocket feed and keeps a
// short-lived last-price snapshot. Decision cycles always use the REST
// snapshot; the stream only serves the live ticker endpoint and price gauges.
type Stream struct {
	wsBaseURL string
	watch     map[string]bool
	snapshot  *icache.TTLCache
	metrics   domrepo.Metrics
	log       *applogger.Logger

	conn *websocket.Conn
}

func NewStream(cfg Config, watchSymbols []string, metrics domrepo.Metrics, log *applogger.Logger) *Stream {
	cfg.withDefaults()
	watch := make(map[string]bool, len(watchSymbols))
	for _, s := range watchSymbols {
		watch[s] = true
	}
	return &Stream{
		wsBaseURL: cfg.WSBaseURL,
		watch:     watch,
		snapshot:  icache.NewTTLCache(),
		metrics:   metrics,
		log:       log,
	}
}

type miniTicker struct {
	Symbol    string `json:"s"`
	Close     string `json:"c"`
	Open      string `json:"o"`
	EventTime int64  `json:"E"`
}

// Run connects and consumes frames until ctx is canceled, reconnecting with a
// fixed delay on any transport error.
func (s *Stream) Run(ctx context.Context) {
	for {
		if err := s.connect(ctx); err != nil {
			s.log.Warn("ticker stream connect failed", applogger.Error(err))
		} else {
			s.consume(ctx)
		}
		s.close()

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *Stream) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsBaseURL+miniTickerStream, nil)
	if err != nil {
		return err
	}
	s.conn = conn
	s.log.Info("ticker stream connected")
	return nil
}

func (s *Stream) consume(ctx context.Context) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				_ = s.conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		_, b, err := s.conn.ReadMessage()
		if err != nil {
			s.log.Warn("ticker stream read failed", applogger.Error(err))
			return
		}

		var frame []miniTicker
		if err := json.Unmarshal(b, &frame); err != nil {
			continue
		}
		for _, t := range frame {
			if len(s.watch) > 0 && !s.watch[t.Symbol] {
				continue
			}
			last, _ := strconv.ParseFloat(t.Close, 64)
			open, _ := strconv.ParseFloat(t.Open, 64)
			if last <= 0 {
				continue
			}
			change := 0.0
			if open > 0 {
				change = (last - open) / open * 100
			}
			s.snapshot.Set("ticker:"+t.Symbol, models.Ticker{
				Symbol:        t.Symbol,
				ChangePercent: change,
				LastPrice:     last,
			}, snapshotTTL)
			s.metrics.RecordLastPrice(t.Symbol, last)
		}
	}
}

// Ticker returns the latest streamed quote for symbol, if fresh.
func (s *Stream) Ticker(symbol string) (models.Ticker, bool) {
	v, ok := s.snapshot.Get("ticker:" + symbol)
	if !ok {
		return models.Ticker{}, false
	}
	t, ok := v.(models.Ticker)
	return t, ok
}

func (s *Stream) close() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}
