package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// YahooClient fetches quotes and monthly history from the Yahoo v8 chart API.
type YahooClient struct {
	http  *http.Client
	hosts []string
	log   zerolog.Logger
}

func NewYahooClient(log zerolog.Logger) *YahooClient {
	return &YahooClient{
		http:  &http.Client{Timeout: 15 * time.Second},
		hosts: []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"},
		log:   log.With().Str("component", "yahoo").Logger(),
	}
}

// GetCurrentPrice returns the latest price and quote currency from chart meta.
func (c *YahooClient) GetCurrentPrice(ctx context.Context, ticker string) (Quote, error) {
	yc, err := c.fetchChart(ctx, ticker, "1d", "1d")
	if err != nil {
		return Quote{}, err
	}
	meta := yc.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 || meta.Currency == "" {
		return Quote{}, fmt.Errorf("%w: no quote for %s", ErrTickerNotFound, ticker)
	}
	return Quote{Price: meta.RegularMarketPrice, Currency: meta.Currency}, nil
}

// GetMonthlyHistory returns the trailing monthly close series, oldest first.
// Samples with missing or non-positive closes are dropped.
func (c *YahooClient) GetMonthlyHistory(ctx context.Context, ticker string, lookbackMonths int) ([]PricePoint, error) {
	rangeParam := "1y"
	switch {
	case lookbackMonths <= 0 || lookbackMonths == 12:
		rangeParam = "1y"
	case lookbackMonths <= 6:
		rangeParam = "6mo"
	case lookbackMonths <= 12:
		rangeParam = "1y"
	case lookbackMonths <= 24:
		rangeParam = "2y"
	default:
		rangeParam = "5y"
	}

	yc, err := c.fetchChart(ctx, ticker, "1mo", rangeParam)
	if err != nil {
		return nil, err
	}
	res := yc.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: no history for %s", ErrTickerNotFound, ticker)
	}
	ts := res.Timestamp
	cl := res.Indicators.Quote[0].Close
	if len(cl) < len(ts) {
		ts = ts[:len(cl)]
	}
	points := make([]PricePoint, 0, len(ts))
	for i := range ts {
		if cl[i] <= 0 {
			continue
		}
		points = append(points, PricePoint{Date: time.Unix(ts[i], 0).UTC(), Close: cl[i]})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("empty monthly series for %s", ticker)
	}
	return points, nil
}

// fetchChart queries the v8 chart endpoint, rotating hosts with backoff on transient failures.
func (c *YahooClient) fetchChart(ctx context.Context, ticker, interval, rangeParam string) (*yahooChartResp, error) {
	backoffs := []time.Duration{200 * time.Millisecond, 500 * time.Millisecond}

	var yc yahooChartResp
	var lastErr error
	for attempt := 0; attempt < len(backoffs)+1; attempt++ {
		for _, host := range c.hosts {
			url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s&events=div,splits",
				host, ticker, rangeParam, interval)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15")
			req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")

			resp, err := c.http.Do(req)
			if err != nil {
				lastErr = err
				continue
			}
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("failed to read yahoo response: %w", readErr)
				continue
			}
			if resp.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
			}
			if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
				lastErr = fmt.Errorf("yahoo %s returned 429", host)
				continue
			}
			if resp.StatusCode != http.StatusOK {
				preview := string(body)
				if len(preview) > 120 {
					preview = preview[:120]
				}
				lastErr = fmt.Errorf("yahoo %s returned %d: %s", host, resp.StatusCode, preview)
				continue
			}
			if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
				lastErr = errors.New("yahoo returned non-json body")
				continue
			}
			if err := json.Unmarshal(body, &yc); err != nil {
				lastErr = fmt.Errorf("failed to parse yahoo json: %w", err)
				continue
			}
			lastErr = nil
			break
		}
		if lastErr == nil {
			break
		}
		if attempt < len(backoffs) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffs[attempt]):
			}
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	if yc.Chart.Error != nil {
		if yc.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
		}
		return nil, fmt.Errorf("yahoo error for %s: %s", ticker, yc.Chart.Error.Description)
	}
	if len(yc.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}
	return &yc, nil
}
