// Package dataservice is the HTTP client for the market data service, which
// fronts the historical price, share-count, corporate-action and statement
// datasets. It implements the domain provider interfaces consumed by the
// backtest engine.
package dataservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Soham1117/StockApp/internal/domain"
	"github.com/Soham1117/StockApp/internal/modules/benchmarks"
)

// Batch sizes. Statement queries return many rows per symbol, so they use a
// smaller chunk than price and event queries.
const (
	priceChunkSize     = 400
	statementChunkSize = 200
)

// Retry policy for 429 responses.
const (
	maxAttempts  = 5
	maxBackoff   = 30 * time.Second
	requestRate  = 10 // requests per second
	requestBurst = 5
)

// Cache stores serialized responses with a TTL. Implemented by the clientdata
// repository; a nil cache disables caching.
type Cache interface {
	Get(key string, out any) bool
	Set(key string, value any, ttl time.Duration)
}

// Cache TTLs. Historical data is immutable, but a bounded TTL keeps the cache
// from pinning stale rows after an upstream backfill.
const (
	statementsTTL = 24 * time.Hour
	minDateTTL    = 24 * time.Hour
)

// Client is a market data service client.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cache   Cache
	log     zerolog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new data service client. cache may be nil.
func NewClient(baseURL string, cache Cache, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestRate), requestBurst),
		cache:   cache,
		log:     log.With().Str("client", "dataservice").Logger(),
		sleep:   sleepCtx,
	}
}

// LatestPrices returns the most recent close <= asOf per symbol.
func (c *Client) LatestPrices(ctx context.Context, symbols []string, asOf time.Time) (map[string]domain.PricePoint, error) {
	out := make(map[string]domain.PricePoint, len(symbols))
	for _, chunk := range chunkSymbols(symbols, priceChunkSize) {
		var resp pricesResponse
		req := symbolsRequest{Symbols: chunk, AsOf: formatDate(asOf)}
		if err := c.post(ctx, "/api/prices/latest", req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Prices {
			date, err := parseDate(p.PriceDate)
			if err != nil {
				continue
			}
			out[p.Symbol] = domain.PricePoint{Close: p.Close, PriceDate: date}
		}
	}
	return out, nil
}

// LatestShares returns the most recent shares-outstanding figure <= asOf per
// symbol.
func (c *Client) LatestShares(ctx context.Context, symbols []string, asOf time.Time) (map[string]domain.SharesPoint, error) {
	out := make(map[string]domain.SharesPoint, len(symbols))
	for _, chunk := range chunkSymbols(symbols, priceChunkSize) {
		var resp sharesResponse
		req := symbolsRequest{Symbols: chunk, AsOf: formatDate(asOf)}
		if err := c.post(ctx, "/api/shares/latest", req, &resp); err != nil {
			return nil, err
		}
		for _, s := range resp.Shares {
			date, err := parseDate(s.SharesDate)
			if err != nil {
				continue
			}
			out[s.Symbol] = domain.SharesPoint{Shares: s.Shares, SharesDate: date}
		}
	}
	return out, nil
}

// SplitEvents returns split events per symbol in (start, end], sorted by the
// service. Malformed split ratios are dropped, not guessed at.
func (c *Client) SplitEvents(ctx context.Context, symbols []string, start, end time.Time) (map[string][]domain.SplitEvent, error) {
	out := make(map[string][]domain.SplitEvent, len(symbols))
	for _, symbol := range symbols {
		out[symbol] = []domain.SplitEvent{}
	}
	for _, chunk := range chunkSymbols(symbols, priceChunkSize) {
		var resp splitsResponse
		req := symbolsRequest{Symbols: chunk, Start: formatDate(start), End: formatDate(end)}
		if err := c.post(ctx, "/api/events/splits", req, &resp); err != nil {
			return nil, err
		}
		for _, s := range resp.Splits {
			date, err := parseDate(s.Date)
			if err != nil {
				continue
			}
			factor, ok := ParseSplitFactor(s.Ratio)
			if !ok {
				c.log.Warn().Str("symbol", s.Symbol).Str("ratio", s.Ratio).Msg("Dropping malformed split ratio")
				continue
			}
			out[s.Symbol] = append(out[s.Symbol], domain.SplitEvent{Date: date, Factor: factor})
		}
	}
	return out, nil
}

// DividendEvents returns dividend events per symbol in (start, end].
func (c *Client) DividendEvents(ctx context.Context, symbols []string, start, end time.Time) (map[string][]domain.DividendEvent, error) {
	out := make(map[string][]domain.DividendEvent, len(symbols))
	for _, symbol := range symbols {
		out[symbol] = []domain.DividendEvent{}
	}
	for _, chunk := range chunkSymbols(symbols, priceChunkSize) {
		var resp dividendsResponse
		req := symbolsRequest{Symbols: chunk, Start: formatDate(start), End: formatDate(end)}
		if err := c.post(ctx, "/api/events/dividends", req, &resp); err != nil {
			return nil, err
		}
		for _, d := range resp.Dividends {
			date, err := parseDate(d.Date)
			if err != nil {
				continue
			}
			out[d.Symbol] = append(out[d.Symbol], domain.DividendEvent{Date: date, Amount: d.Amount})
		}
	}
	return out, nil
}

// AnnualStatements returns annual statement rows <= cutoff, restricted to the
// requested item names. Responses are cached per chunk: statement queries
// dominate backtest latency and identical chunks recur across rebalance
// points.
func (c *Client) AnnualStatements(ctx context.Context, symbols []string, cutoff time.Time, incomeItems, balanceItems []string) ([]domain.StatementRow, error) {
	var rows []domain.StatementRow
	for _, chunk := range chunkSymbols(symbols, statementChunkSize) {
		req := statementsRequest{
			Symbols:      chunk,
			Cutoff:       formatDate(cutoff),
			Period:       "annual",
			IncomeItems:  incomeItems,
			BalanceItems: balanceItems,
		}

		var resp statementsResponse
		cacheKey := statementsCacheKey(req)
		if c.cache == nil || !c.cache.Get(cacheKey, &resp) {
			if err := c.post(ctx, "/api/statements/annual", req, &resp); err != nil {
				return nil, err
			}
			if c.cache != nil {
				c.cache.Set(cacheKey, resp, statementsTTL)
			}
		}

		for _, row := range resp.Rows {
			date, err := parseDate(row.ReportDate)
			if err != nil {
				continue
			}
			rows = append(rows, domain.StatementRow{
				Symbol:      row.Symbol,
				ReportDate:  date,
				FinanceType: row.FinanceType,
				ItemName:    row.ItemName,
				Value:       row.Value,
			})
		}
	}
	return rows, nil
}

// MinAnnualStatementDate returns the earliest annual report date in the
// dataset, or nil for an empty dataset.
func (c *Client) MinAnnualStatementDate(ctx context.Context) (*time.Time, error) {
	var resp minDateResponse
	cacheKey := "statements:min-date"
	if c.cache == nil || !c.cache.Get(cacheKey, &resp) {
		if err := c.get(ctx, "/api/statements/min-date", &resp); err != nil {
			return nil, err
		}
		if c.cache != nil {
			c.cache.Set(cacheKey, resp, minDateTTL)
		}
	}
	if resp.MinDate == nil {
		return nil, nil
	}
	date, err := parseDate(*resp.MinDate)
	if err != nil {
		return nil, fmt.Errorf("invalid min statement date %q: %w", *resp.MinDate, err)
	}
	return &date, nil
}

// AdjustedCloses returns the adjusted close series for one symbol over
// [start, end]. Used by the benchmark sync job.
func (c *Client) AdjustedCloses(ctx context.Context, symbol string, start, end time.Time) ([]benchmarks.AdjClose, error) {
	req := symbolsRequest{Symbols: []string{symbol}, Start: formatDate(start), End: formatDate(end)}
	var resp adjClosesResponse
	if err := c.post(ctx, "/api/prices/adjusted", req, &resp); err != nil {
		return nil, err
	}

	out := make([]benchmarks.AdjClose, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		date, err := parseDate(p.Date)
		if err != nil {
			continue
		}
		out = append(out, benchmarks.AdjClose{Date: date, AdjClose: p.AdjClose})
	}
	return out, nil
}

// ParseSplitFactor parses a split ratio into a multiplier. Accepts "new:old"
// ("2:1" -> 2.0, "1398:1000" -> 1.398) and plain decimals ("0.25"). Returns
// false for zero, negative, or non-numeric input.
func ParseSplitFactor(ratio string) (float64, bool) {
	ratio = strings.TrimSpace(ratio)
	if ratio == "" {
		return 0, false
	}

	if num, den, found := strings.Cut(ratio, ":"); found {
		n, errN := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, errD := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if errN != nil || errD != nil || n <= 0 || d <= 0 {
			return 0, false
		}
		return n / d, true
	}

	f, err := strconv.ParseFloat(ratio, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

// post sends a JSON request with rate limiting and 429 retry. After the
// retry budget is exhausted the error wraps domain.ErrRateLimited so the
// handler layer can surface a 429 of its own.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("data service request failed: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if attempt == maxAttempts {
				return fmt.Errorf("%w: %s after %d attempts", domain.ErrRateLimited, path, maxAttempts)
			}
			backoff := backoffDelay(attempt)
			c.log.Warn().
				Str("path", path).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Rate limited by data service, backing off")
			if err := c.sleep(ctx, backoff); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("data service returned %d for %s: %s", resp.StatusCode, path, strings.TrimSpace(string(msg)))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrRateLimited, path)
}

// backoffDelay is exponential with jitter, capped at maxBackoff.
func backoffDelay(attempt int) time.Duration {
	base := time.Duration(1<<(attempt-1)) * time.Second
	jitter := time.Duration(rand.Float64() * 500 * float64(time.Millisecond))
	d := base + jitter
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func chunkSymbols(symbols []string, size int) [][]string {
	if len(symbols) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(symbols)+size-1)/size)
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		chunks = append(chunks, symbols[start:end])
	}
	return chunks
}

func statementsCacheKey(req statementsRequest) string {
	return fmt.Sprintf("statements:annual:%s:%d:%s", req.Cutoff, len(req.Symbols), strings.Join(req.Symbols, ","))
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
