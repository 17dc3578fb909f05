package session

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"Yahoo2FNU/internal/apperr"
	"Yahoo2FNU/internal/collector"
	"Yahoo2FNU/internal/logger"
	"Yahoo2FNU/internal/model"
)

// DefaultQuoteURL is the quote page of a reference index. Any quote page
// carries a crumb.
const DefaultQuoteURL = "https://finance.yahoo.com/quote/%5EGSPC"

const sessionCookiePrefix = "B="

// Acquirer returns a usable session, from the store when possible.
type Acquirer struct {
	Store    Store
	Client   *collector.Client
	QuoteURL string
	Log      *zap.Logger
}

// NewAcquirer creates an Acquirer. A blank quoteURL selects DefaultQuoteURL.
func NewAcquirer(store Store, client *collector.Client, quoteURL string, log *zap.Logger) *Acquirer {
	if quoteURL == "" {
		quoteURL = DefaultQuoteURL
	}
	return &Acquirer{
		Store:    store,
		Client:   client,
		QuoteURL: quoteURL,
		Log:      logger.OrNop(log).Named("session"),
	}
}

// Acquire returns the cached token, or scrapes and caches a fresh one when the
// cache is empty or corrupt.
func (a *Acquirer) Acquire(ctx context.Context) (model.SessionToken, model.SessionSource, error) {
	token, err := a.Store.Load()
	switch {
	case err == nil:
		a.Log.Info("using cached session")
		return token, model.SessionCached, nil
	case apperr.IsKind(err, apperr.KindCorruptCache):
		// Save below replaces the file even if removing it failed.
		a.Log.Warn("discarded corrupt session cache", zap.Error(err))
	case apperr.IsKind(err, apperr.KindNotFound):
	default:
		return model.SessionToken{}, "", err
	}

	token, err = a.fetch(ctx)
	if err != nil {
		return model.SessionToken{}, "", err
	}
	if err := a.Store.Save(token); err != nil {
		return model.SessionToken{}, "", err
	}
	a.Log.Info("saved session")
	return token, model.SessionFresh, nil
}

func (a *Acquirer) fetch(ctx context.Context) (model.SessionToken, error) {
	a.Log.Info("fetching session cookie", zap.String("url", a.QuoteURL))

	resp, err := a.Client.Get(ctx, a.QuoteURL, nil)
	if err != nil {
		return model.SessionToken{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return model.SessionToken{}, apperr.Status(resp.StatusCode, resp.Status)
	}

	cookie, err := SessionCookie(resp.Header)
	if err != nil {
		return model.SessionToken{}, err
	}
	crumb, err := ScrapeCrumb(string(resp.Body))
	if err != nil {
		return model.SessionToken{}, err
	}
	return model.SessionToken{Cookie: cookie, Crumb: crumb}, nil
}

// SessionCookie returns the name=value pair of the first Set-Cookie header
// whose value starts with "B=". Cookie attributes are dropped.
func SessionCookie(h http.Header) (string, error) {
	values := h.Values("Set-Cookie")
	if len(values) == 0 {
		return "", apperr.New(apperr.KindMissingCookie, "set-cookie header is missing")
	}
	for _, v := range values {
		if !strings.HasPrefix(v, sessionCookiePrefix) {
			continue
		}
		pair, _, _ := strings.Cut(v, ";")
		pair = strings.TrimSpace(pair)
		if pair == sessionCookiePrefix {
			break
		}
		return pair, nil
	}
	return "", apperr.New(apperr.KindMissingCookie, "failed to parse set-cookie header: no %q cookie", sessionCookiePrefix)
}
