package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// latestResp mirrors the Frankfurter /latest response (trimmed to needed fields)
type latestResp struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// rangeResp mirrors the Frankfurter date-range response (trimmed)
type rangeResp struct {
	Base      string                        `json:"base"`
	StartDate string                        `json:"start_date"`
	EndDate   string                        `json:"end_date"`
	Rates     map[string]map[string]float64 `json:"rates"`
}

// FrankfurterClient fetches exchange rates from the Frankfurter API.
// Latest-rate responses are cached per base currency for a short TTL so one
// computation never issues more than a single latest-rates call.
type FrankfurterClient struct {
	http  *http.Client
	host  string
	log   zerolog.Logger
	cache *rateCache
}

func NewFrankfurterClient(log zerolog.Logger) *FrankfurterClient {
	return &FrankfurterClient{
		http:  &http.Client{Timeout: 15 * time.Second},
		host:  "https://api.frankfurter.app",
		log:   log.With().Str("component", "frankfurter").Logger(),
		cache: newRateCache(),
	}
}

// GetLatestRates returns the most recent rate table relative to base.
func (c *FrankfurterClient) GetLatestRates(ctx context.Context, base string) (RateTable, error) {
	if rates, ok := c.cache.get(base); ok {
		return rates, nil
	}
	url := fmt.Sprintf("%s/latest?from=%s", c.host, base)
	var out latestResp
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	if len(out.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty rate table for %s", ErrRateProviderUnavailable, base)
	}
	c.cache.set(base, out.Rates)
	return out.Rates, nil
}

// GetRatesForRange returns rate tables for every working day in [start, end],
// both formatted as 2006-01-02.
func (c *FrankfurterClient) GetRatesForRange(ctx context.Context, base, start, end string) (RateTableByDate, error) {
	url := fmt.Sprintf("%s/%s..%s?from=%s", c.host, start, end, base)
	var out rangeResp
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	if len(out.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty range %s..%s for %s", ErrRateProviderUnavailable, start, end, base)
	}
	byDate := make(RateTableByDate, len(out.Rates))
	for date, rates := range out.Rates {
		byDate[date] = rates
	}
	return byDate, nil
}

func (c *FrankfurterClient) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRateProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrRateProviderUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		preview := string(body)
		if len(preview) > 120 {
			preview = preview[:120]
		}
		return fmt.Errorf("%w: status %d: %s", ErrRateProviderUnavailable, resp.StatusCode, preview)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: parse json: %v", ErrRateProviderUnavailable, err)
	}
	return nil
}
