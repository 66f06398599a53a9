package gold

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/GC=F?range=1d&interval=1m"

// OunceProvider yields the live global gold ounce price
type OunceProvider interface {
	// OuncePrice fetches the current price per troy ounce, in USD
	OuncePrice(context.Context) (float64, error)
}

// yahooChartResponse is the response from the Yahoo Finance chart API
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// YahooProvider fetches the gold futures (GC=F) price from the
// Yahoo Finance chart API
type YahooProvider struct {
	client *http.Client
	url    string
}

// NewYahooProvider creates a new instance of the Yahoo Finance provider
func NewYahooProvider(timeout time.Duration) *YahooProvider {
	return &YahooProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		url: yahooChartURL,
	}
}

func (p *YahooProvider) OuncePrice(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("unable to create GET request: %w", err)
	}

	// Yahoo rejects the default Go client agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	var chart yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return 0, fmt.Errorf("unable to decode response: %w", err)
	}

	if len(chart.Chart.Result) == 0 {
		return 0, fmt.Errorf("empty chart result")
	}

	price := chart.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, ErrInvalidOunce
	}

	return price, nil
}
