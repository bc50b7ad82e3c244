package feed

import "context"

// Fetcher supplies the latest market price for the configured symbol.
// Implementations must return an error for unavailable or non-positive
// prices; the loop skips that cycle rather than trading on bad data.
type Fetcher interface {
	LatestPrice(ctx context.Context) (float64, error)
	Name() string
}
