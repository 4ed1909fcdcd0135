package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/idhash"
)

// TokenFeedConfig configures TokenFeed behavior.
type TokenFeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing control frames.
	WriteTimeout time.Duration
	// MaxBuffered caps the number of tokens held between drains.
	// Oldest entries are dropped once the cap is reached.
	MaxBuffered int
}

// DefaultTokenFeedConfig returns default feed configuration.
func DefaultTokenFeedConfig() TokenFeedConfig {
	return TokenFeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxBuffered:       10000,
	}
}

// TokenFeed consumes a WebSocket stream of newly minted tokens and buffers
// them until the next batch run drains the buffer. The feed never triggers
// detection itself.
type TokenFeed struct {
	endpoint string
	config   TokenFeedConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	buffer   []*domain.TokenRecord
	bufferMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// NewTokenFeed connects to the endpoint and starts buffering token events.
func NewTokenFeed(ctx context.Context, endpoint string, config *TokenFeedConfig) (*TokenFeed, error) {
	cfg := DefaultTokenFeedConfig()
	if config != nil {
		cfg = *config
	}

	f := &TokenFeed{
		endpoint: endpoint,
		config:   cfg,
		done:     make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(1)
	go f.readLoop()

	f.wg.Add(1)
	go f.pingLoop()

	return f, nil
}

// connect establishes the WebSocket connection.
func (f *TokenFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	f.conn = conn
	return nil
}

// Drain returns all buffered token records and clears the buffer.
func (f *TokenFeed) Drain() []*domain.TokenRecord {
	f.bufferMu.Lock()
	defer f.bufferMu.Unlock()

	drained := f.buffer
	f.buffer = nil
	return drained
}

// Buffered returns the number of tokens currently held.
func (f *TokenFeed) Buffered() int {
	f.bufferMu.Lock()
	defer f.bufferMu.Unlock()
	return len(f.buffer)
}

// Close closes the connection and stops background goroutines.
func (f *TokenFeed) Close() error {
	if f.closed.Swap(true) {
		return nil // Already closed
	}

	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	return nil
}

// tokenEvent is the wire format of a new-token notification.
type tokenEvent struct {
	Type      string   `json:"type"`
	Mint      string   `json:"mint"`
	Name      string   `json:"name"`
	Symbol    string   `json:"symbol"`
	Keywords  []string `json:"keywords,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// readLoop reads messages and buffers new-token events, reconnecting with
// exponential backoff on connection errors.
func (f *TokenFeed) readLoop() {
	defer f.wg.Done()

	reconnectDelay := f.config.ReconnectDelay

	for !f.closed.Load() {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			if !f.reconnect(reconnectDelay) {
				return
			}
			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > f.config.MaxReconnectDelay {
				reconnectDelay = f.config.MaxReconnectDelay
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}

			f.connMu.Lock()
			f.conn.Close()
			f.conn = nil
			f.connMu.Unlock()
			continue
		}

		// Reset delay on successful read
		reconnectDelay = f.config.ReconnectDelay

		f.handleMessage(message)
	}
}

// reconnect waits for the delay and dials again. Returns false on shutdown.
func (f *TokenFeed) reconnect(delay time.Duration) bool {
	select {
	case <-f.done:
		return false
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Failure leaves conn nil; readLoop retries with a longer delay.
	_ = f.connect(ctx)
	return true
}

// handleMessage parses and buffers a new-token event.
func (f *TokenFeed) handleMessage(message []byte) {
	var event tokenEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return
	}
	if event.Type != "newToken" {
		return
	}
	if ValidateMint(event.Mint) != nil {
		return
	}

	record := &domain.TokenRecord{
		TokenID:      idhash.ComputeTokenID(event.Mint),
		Mint:         event.Mint,
		Name:         event.Name,
		Symbol:       event.Symbol,
		Keywords:     event.Keywords,
		DiscoveredAt: event.Timestamp,
		UpdatedAt:    event.Timestamp,
	}

	f.bufferMu.Lock()
	f.buffer = append(f.buffer, record)
	if f.config.MaxBuffered > 0 && len(f.buffer) > f.config.MaxBuffered {
		f.buffer = f.buffer[len(f.buffer)-f.config.MaxBuffered:]
	}
	f.bufferMu.Unlock()
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (f *TokenFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				// Write errors surface in readLoop, which reconnects.
				_ = f.conn.WriteMessage(websocket.PingMessage, nil)
			}
			f.connMu.Unlock()
		}
	}
}
