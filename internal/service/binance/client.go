package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"EarnPilot/internal/service/ratelimit"
	pkghttp "EarnPilot/pkg/http"
	applogger "EarnPilot/pkg/logger"
)

// Config holds the REST endpoint and credentials. Public market data works
// without keys; account and Simple Earn endpoints require them.
type Config struct {
	BaseURL           string
	WSBaseURL         string
	APIKey            string
	SecretKey         string
	RecvWindowMS      int64
	RequestsPerSecond float64
	Burst             float64
	Timeout           time.Duration
}

func (c *Config) withDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.binance.com"
	}
	if c.WSBaseURL == "" {
		c.WSBaseURL = "wss://stream.binance.com:9443/ws"
	}
	if c.RecvWindowMS <= 0 {
		c.RecvWindowMS = 5000
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 10
	}
	if c.Burst <= 0 {
		c.Burst = 20
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
}

// Client is a thin REST client. Every call passes through a token bucket so
// bursts stay inside the exchange request-weight limits.
type Client struct {
	cfg     Config
	http    *pkghttp.Client
	limiter *ratelimit.Limiter
	log     *applogger.Logger
}

func NewClient(cfg Config, log *applogger.Logger) *Client {
	cfg.withDefaults()
	return &Client{
		cfg:     cfg,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout)),
		limiter: ratelimit.New(),
		log:     log,
	}
}

func (c *Client) wait(ctx context.Context) error {
	for !c.limiter.Allow("rest", c.cfg.Burst, c.cfg.RequestsPerSecond) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

// get performs a GET against path. Signed requests get a timestamp,
// recvWindow and an HMAC-SHA256 signature over the encoded query, plus the
// API key header.
func (c *Client) get(ctx context.Context, path string, q url.Values, signed bool, dest any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	if q == nil {
		q = url.Values{}
	}

	opts := &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.cfg.BaseURL + path,
	}
	if signed {
		if c.cfg.APIKey == "" || c.cfg.SecretKey == "" {
			return fmt.Errorf("binance: %s requires API credentials", path)
		}
		q.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		q.Set("recvWindow", strconv.FormatInt(c.cfg.RecvWindowMS, 10))
		// the signature covers the exact payload sent, so it is appended
		// to the encoded query instead of re-encoded among the params
		payload := q.Encode()
		opts.URL += "?" + payload + "&signature=" + c.sign(payload)
		opts.Headers = map[string]string{"X-MBX-APIKEY": c.cfg.APIKey}
	} else {
		opts.QueryParams = q
	}
	if err := c.http.SendAndParse(ctx, opts, dest); err != nil {
		return fmt.Errorf("binance %s: %w", path, err)
	}
	return nil
}

// sign computes the hex HMAC-SHA256 of the encoded query. url.Values.Encode
// sorts keys, so the signature input is deterministic.
func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}
