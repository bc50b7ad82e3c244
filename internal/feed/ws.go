package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSFetcher maintains a websocket subscription to a ticker stream and
// serves the most recent price to the loop. Read failures trigger a
// reconnect with backoff; until the first tick arrives LatestPrice errors.
type WSFetcher struct {
	URL    string
	Symbol string

	mu        sync.RWMutex
	lastPrice float64
	lastSeen  time.Time

	staleAfter time.Duration
}

// NewWSFetcher creates the fetcher. Start must be called before use.
func NewWSFetcher(wsURL, symbol string) *WSFetcher {
	return &WSFetcher{
		URL:        wsURL,
		Symbol:     symbol,
		staleAfter: 30 * time.Second,
	}
}

func (f *WSFetcher) Name() string { return "ws" }

// Start runs the read loop until ctx is cancelled, reconnecting on failure.
func (f *WSFetcher) Start(ctx context.Context) {
	go func() {
		backoff := time.Second
		for {
			if ctx.Err() != nil {
				return
			}
			if err := f.readLoop(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[WARN] ws feed disconnected: %v, reconnecting in %v", err, backoff)
				select {
				case <-ctx.Done():
					return
				case <-time.After(backoff):
				}
				if backoff < 30*time.Second {
					backoff *= 2
				}
			} else {
				backoff = time.Second
			}
		}
	}()
}

type tickMsg struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func (f *WSFetcher) readLoop(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	log.Printf("[INFO] ws feed connected: %s", f.URL)

	sub := map[string]string{"op": "subscribe", "symbol": f.Symbol}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		var tick tickMsg
		if err := json.Unmarshal(data, &tick); err != nil {
			log.Printf("[WARN] ws feed: bad message: %v", err)
			continue
		}
		if tick.Price <= 0 {
			continue
		}
		f.mu.Lock()
		f.lastPrice = tick.Price
		f.lastSeen = time.Now()
		f.mu.Unlock()
	}
}

// LatestPrice returns the most recent streamed price, erroring when no tick
// has arrived yet or the stream has gone stale.
func (f *WSFetcher) LatestPrice(_ context.Context) (float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.lastPrice <= 0 {
		return 0, fmt.Errorf("no price received yet from %s", f.URL)
	}
	if time.Since(f.lastSeen) > f.staleAfter {
		return 0, fmt.Errorf("price stale: last tick %s ago", time.Since(f.lastSeen).Round(time.Second))
	}
	return f.lastPrice, nil
}
