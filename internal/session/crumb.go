package session

import (
	"encoding/json"
	"strings"

	"Yahoo2FNU/internal/apperr"
)

const (
	crumbStoreMarker = `"CrumbStore"`
	crumbMarker      = `"crumb"`
)

// ScrapeCrumb extracts the crumb from a quote page. The page embeds it in
// script data as "CrumbStore":{"crumb":"..."}; the value is a JSON string and
// may contain escapes such as \u002F. Any change to that shape is a
// KindParseCrumb failure.
func ScrapeCrumb(html string) (string, error) {
	i := strings.Index(html, crumbStoreMarker)
	if i < 0 {
		return "", apperr.New(apperr.KindParseCrumb, "unable to parse crumb: %s not found", crumbStoreMarker)
	}
	rest := html[i+len(crumbStoreMarker):]

	i = strings.Index(rest, crumbMarker)
	if i < 0 {
		return "", apperr.New(apperr.KindParseCrumb, "unable to parse crumb: %s not found", crumbMarker)
	}
	rest = rest[i+len(crumbMarker):]

	open := strings.IndexByte(rest, '"')
	if open < 0 {
		return "", apperr.New(apperr.KindParseCrumb, "unable to parse crumb: missing opening quote")
	}
	rest = rest[open:]

	end := closingQuote(rest)
	if end < 0 {
		return "", apperr.New(apperr.KindParseCrumb, "unable to parse crumb: missing closing quote")
	}

	var crumb string
	if err := json.Unmarshal([]byte(rest[:end+1]), &crumb); err != nil {
		return "", apperr.Wrap(apperr.KindParseCrumb, err, "unable to parse crumb")
	}
	if crumb == "" {
		return "", apperr.New(apperr.KindParseCrumb, "unable to parse crumb: empty value")
	}
	return crumb, nil
}

// closingQuote returns the index of the quote closing the JSON string that
// starts at s[0], skipping escaped characters.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
