package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/borsetrader/rotation-backend/internal/httputil"
	"github.com/borsetrader/rotation-backend/internal/models"
)

const defaultQuoteBoxURL = "https://api.boerse-frankfurt.de/v1/data/quote_box/single"

// BoerseClient fetches quote-box snapshots from the Börse Frankfurt public
// API. Requests are spaced by a rate limiter, retried with backoff, and
// guarded by a circuit breaker so a dead upstream trips open instead of
// being hammered every cycle.
type BoerseClient struct {
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

func NewBoerseClient(baseURL string, requestDelay, timeout time.Duration) *BoerseClient {
	if baseURL == "" {
		baseURL = defaultQuoteBoxURL
	}
	if requestDelay <= 0 {
		requestDelay = 300 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	settings := gobreaker.Settings{Name: "boerse-frankfurt"}
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 5
	}
	settings.Timeout = 2 * time.Minute

	return &BoerseClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(requestDelay), 1),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// FetchQuote retrieves the latest quote for one ISIN.
func (c *BoerseClient) FetchQuote(ctx context.Context, isin string) (*models.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, isin)
	})
	if err != nil {
		return nil, fmt.Errorf("quote fetch %s: %w", isin, err)
	}
	return out.(*models.Quote), nil
}

func (c *BoerseClient) fetch(ctx context.Context, isin string) (*models.Quote, error) {
	reqURL := c.baseURL + "?isin=" + url.QueryEscape(isin)

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote box returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return ParseQuoteBox(body)
}

type quoteBoxResponse struct {
	LastPrice                *float64        `json:"lastPrice"`
	ChangeToPrevDayAbsolute  *float64        `json:"changeToPrevDayAbsolute"`
	ChangeToPrevDayInPercent *float64        `json:"changeToPrevDayInPercent"`
	Open                     *float64        `json:"open"`
	TimestampLastPrice       json.RawMessage `json:"timestampLastPrice"`
	Timestamp                json.RawMessage `json:"timestamp"`
	TradingStatus            string          `json:"tradingStatus"`
	InstrumentStatus         string          `json:"instrumentStatus"`
	TurnoverInPieces         *float64        `json:"turnoverInPieces"`
	Bid                      *float64        `json:"bid"`
	Ask                      *float64        `json:"ask"`
}

// ParseQuoteBox maps a quote-box payload to a Quote. A missing lastPrice
// makes the whole snapshot unusable; every other field defaults to nil
// when absent.
func ParseQuoteBox(data []byte) (*models.Quote, error) {
	var raw quoteBoxResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode quote box: %w", err)
	}
	if raw.LastPrice == nil {
		return nil, fmt.Errorf("lastPrice missing from quote box response")
	}

	q := &models.Quote{
		Price:            raw.LastPrice,
		Change:           raw.ChangeToPrevDayAbsolute,
		ChangePercent:    raw.ChangeToPrevDayInPercent,
		OpenPrice:        raw.Open,
		TradingStatus:    raw.TradingStatus,
		InstrumentStatus: raw.InstrumentStatus,
		Volume:           raw.TurnoverInPieces,
		Bid:              raw.Bid,
		Ask:              raw.Ask,
		FetchedAt:        time.Now(),
	}

	if ts := rawString(raw.TimestampLastPrice); ts != "" {
		q.Timestamp = ts
	} else {
		q.Timestamp = rawString(raw.Timestamp)
	}
	return q, nil
}

// rawString renders a JSON value that may be a string or a number.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprintf("%.0f", n)
	}
	return ""
}
