package source

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"marketsync/internal/domain"
)

// Compile-time interface check.
var _ Client = (*AlpacaClient)(nil)

// AlpacaClient fetches daily bars via the Alpaca market-data API.
type AlpacaClient struct {
	client *marketdata.Client
}

// NewAlpacaClient creates an AlpacaClient with the given credentials. dataURL
// may be empty to use the SDK default.
func NewAlpacaClient(apiKey, apiSecret, dataURL string) *AlpacaClient {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaClient{client: marketdata.NewClient(opts)}
}

// FetchRange returns daily bars for symbol in [start, end]. Failures are
// wrapped in *Error with a retry classification.
func (c *AlpacaClient) FetchRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alpacaBars, err := c.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		// The request end is exclusive of partial days; daily bars for the
		// end date itself are included when End covers the full day.
		End:  end.AddDate(0, 0, 1),
		Feed: "sip",
	})
	if err != nil {
		return nil, &Error{Kind: classify(err), Symbol: symbol, Err: err}
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Symbol: symbol,
			Date:   domain.Midnight(ab.Timestamp),
			Open:   ab.Open,
			High:   ab.High,
			Low:    ab.Low,
			Close:  ab.Close,
			Volume: int64(ab.Volume),
		})
	}
	return bars, nil
}

// classify maps an Alpaca SDK error to a retry classification. HTTP status
// drives the decision when available; anything else (DNS, resets, timeouts)
// is transient.
func classify(err error) ErrorKind {
	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return RateLimited
		case apiErr.StatusCode >= 500:
			return Transient
		case apiErr.StatusCode >= 400:
			return Permanent
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient
	}

	return Transient
}
