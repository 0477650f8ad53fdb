package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"paperledger/internal/domain"
)

// QuoteClient implements QuoteSource against the market-data feed's HTTP
// quote endpoint. Every lookup is bounded by the client timeout so one
// unresponsive symbol cannot stall a whole valuation.
type QuoteClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewQuoteClient creates a new QuoteClient
func NewQuoteClient(baseURL, token string, timeout time.Duration) *QuoteClient {
	return &QuoteClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// quoteEntry is one element of the feed's quote response array
type quoteEntry struct {
	Symbol string       `json:"symbol"`
	Price  *json.Number `json:"price"`
}

// GetPrice fetches the current price for a single symbol. It returns
// ErrNoQuote when the feed has no usable positive price; transport and
// decode failures are returned as-is for the caller to degrade on.
func (qc *QuoteClient) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/quotes?symbols=%s", qc.baseURL, url.QueryEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create quote request: %w", err)
	}
	if token := qc.currentToken(); token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := qc.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decimal.Zero, fmt.Errorf("quote feed error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var entries []quoteEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode quote response: %w", err)
	}

	if len(entries) == 0 || entries[0].Price == nil {
		return decimal.Zero, domain.ErrNoQuote
	}

	price, err := decimal.NewFromString(entries[0].Price.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse quote price %q: %w", entries[0].Price.String(), err)
	}
	if !price.IsPositive() {
		return decimal.Zero, domain.ErrNoQuote
	}

	return price, nil
}

// Reload swaps the upstream access token at runtime. Existing in-flight
// requests keep the token they started with.
func (qc *QuoteClient) Reload(token string) {
	qc.mu.Lock()
	qc.token = token
	qc.mu.Unlock()
}

func (qc *QuoteClient) currentToken() string {
	qc.mu.RLock()
	defer qc.mu.RUnlock()
	return qc.token
}
