package model

import "Yahoo2FNU/internal/apperr"

// SessionToken is a session cookie and the crumb issued alongside it.
// A crumb is only accepted together with the cookie that produced it.
type SessionToken struct {
	Cookie string
	Crumb  string
}

// Validate checks that both halves are present.
func (t SessionToken) Validate() error {
	if t.Cookie == "" || t.Crumb == "" {
		return apperr.New(apperr.KindCorruptCache, "session token has an empty field")
	}
	return nil
}

// SessionSource tells whether a token came from the cache or a fresh scrape.
type SessionSource string

const (
	SessionCached SessionSource = "cached"
	SessionFresh  SessionSource = "fresh"
)
