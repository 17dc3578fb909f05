package collector

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"Yahoo2FNU/internal/apperr"
	"Yahoo2FNU/internal/logger"
	"Yahoo2FNU/internal/model"
)

// DefaultDownloadURL is the history download endpoint; the symbol is appended
// as the last path segment.
const DefaultDownloadURL = "https://query1.finance.yahoo.com/v7/finance/download"

// YahooFetcher implements Fetcher against the Yahoo Finance CSV download endpoint.
type YahooFetcher struct {
	Client      *Client
	DownloadURL string
	Log         *zap.Logger
}

// NewYahooFetcher creates a fetcher. A blank downloadURL selects DefaultDownloadURL.
func NewYahooFetcher(client *Client, downloadURL string, log *zap.Logger) *YahooFetcher {
	if downloadURL == "" {
		downloadURL = DefaultDownloadURL
	}
	return &YahooFetcher{
		Client:      client,
		DownloadURL: downloadURL,
		Log:         logger.OrNop(log).Named("history"),
	}
}

// BuildURL returns the download URL for symbol with the range, interval and
// crumb query parameters.
func (f *YahooFetcher) BuildURL(symbol string, crumb string, r model.DateRange, iv model.Interval) (string, error) {
	u, err := url.Parse(strings.TrimRight(f.DownloadURL, "/") + "/" + url.PathEscape(symbol))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInvalidInput, err, "failed to parse url")
	}
	q := u.Query()
	q.Set("period1", strconv.FormatInt(r.Period1(), 10))
	q.Set("period2", strconv.FormatInt(r.Period2(), 10))
	q.Set("interval", iv.Param())
	q.Set("events", "history")
	q.Set("crumb", crumb)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch downloads the history CSV. Any status other than 200 is returned as
// KindUnexpectedStatusCode; a stale crumb shows up this way.
func (f *YahooFetcher) Fetch(ctx context.Context, symbol string, token model.SessionToken, r model.DateRange, iv model.Interval) (string, error) {
	f.Log.Info("fetching CSV",
		zap.String("symbol", symbol),
		zap.String("interval", iv.Param()),
		zap.Int64("period1", r.Period1()),
		zap.Int64("period2", r.Period2()),
	)

	endpoint, err := f.BuildURL(symbol, token.Crumb, r, iv)
	if err != nil {
		return "", err
	}

	header := http.Header{}
	header.Set("Cookie", token.Cookie)
	resp, err := f.Client.Get(ctx, endpoint, header)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Status(resp.StatusCode, resp.Status)
	}

	f.Log.Debug("CSV received", zap.Int("bytes", len(resp.Body)))
	return string(resp.Body), nil
}
