package source

import (
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"

	"marketsync/internal/domain"
)

// LatestFinishedTradingDay returns the most recent trading day whose session
// has ended, using the Alpaca trading calendar. "Ended" means after 20:05 ET,
// leaving time for extended-hours data to settle before collection starts.
// The result is a UTC-midnight date suitable as a collection end bound.
func LatestFinishedTradingDay(apiKey, apiSecret, baseURL string) (time.Time, error) {
	client := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})

	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.Time{}, fmt.Errorf("loading ET timezone: %w", err)
	}

	now := time.Now().In(et)
	calendar, err := client.GetCalendar(alpaca.GetCalendarRequest{
		Start: now.AddDate(0, 0, -7),
		End:   now,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("GetCalendar: %w", err)
	}
	if len(calendar) == 0 {
		return time.Time{}, fmt.Errorf("no trading days returned from calendar")
	}

	today := now.Format(domain.DateFormat)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 20, 5, 0, 0, et)

	for i := len(calendar) - 1; i >= 0; i-- {
		day := calendar[i]
		t, err := time.Parse(domain.DateFormat, day.Date)
		if err != nil {
			continue
		}
		if day.Date == today {
			if now.After(cutoff) {
				return domain.Midnight(t), nil
			}
			continue
		}
		if t.Before(now) {
			return domain.Midnight(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("could not determine latest finished trading day")
}
