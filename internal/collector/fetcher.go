package collector

import (
	"context"

	"Yahoo2FNU/internal/model"
)

// Fetcher retrieves raw history CSV for a symbol using an authorized session.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, token model.SessionToken, r model.DateRange, iv model.Interval) (string, error)
}
