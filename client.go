package mctext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"slices"
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/mctext/text"
)

// ErrClientClosed is returned by operations on a closed Client.
var ErrClientClosed = errors.New("mctext: client closed")

type Item struct {
	Key   string
	Value []byte
	Flags uint32
	Found bool // indicates whether the key was found in cache
}

type Querier interface {
	Get(ctx context.Context, key string) (Item, error)
	Set(ctx context.Context, key string, value []byte) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
	Stats(ctx context.Context) (string, error)
}

// Config holds the optional configuration of a Client.
type Config struct {
	// Dialer is the net.Dialer used to open the connection.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// Resolver resolves a host that is not an IPv4 literal.
	// If nil, net.DefaultResolver is used.
	Resolver Resolver

	// Logger receives request and connection events at debug level.
	// If nil, events are discarded.
	Logger *slog.Logger

	// NewCircuitBreaker creates the circuit breaker guarding the server.
	// Called once with the server address when the client is created.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(serverAddr string) *gobreaker.CircuitBreaker[[]byte]

	// for testing purposes only
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Client speaks the memcached text protocol over a single connection.
//
// Requests are serialized: each one is written and its response read in
// full before the next one starts. A Client is safe for concurrent use.
type Client struct {
	mu        sync.Mutex
	transport *Transport
	closed    bool

	breaker *gobreaker.CircuitBreaker[[]byte] // nil if not configured
	logger  *slog.Logger
	buffers *byteBufferPool

	stats clientStatsCollector
}

var _ Querier = (*Client)(nil)

// NewClient creates a client for the server at host:port. No connection is
// made until the first request or an explicit Connect.
func NewClient(host string, port uint16, config Config) *Client {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	transport := NewTransport(host, port, TransportConfig{
		Dialer:   config.Dialer,
		Resolver: config.Resolver,
		Logger:   logger,
		dial:     config.dial,
	})

	c := &Client{
		transport: transport,
		logger:    logger,
		buffers:   newByteBufferPool(256),
	}

	if config.NewCircuitBreaker != nil {
		c.breaker = config.NewCircuitBreaker(transport.Addr())
	}

	return c
}

// Addr returns the server address as host:port.
func (c *Client) Addr() string {
	return c.transport.Addr()
}

// Connect opens the connection ahead of the first request.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	return c.transport.Connect(ctx)
}

// Set stores value under key with zero flags and no expiration.
//
// Returns true only when the server replied exactly STORED. Any other reply,
// including NOT_STORED, an error line or a reply cut short by the server
// closing the connection, returns false with a nil error.
func (c *Client) Set(ctx context.Context, key string, value []byte) (bool, error) {
	c.logger.Debug("memcache: storing key", "key", key, "size", len(value))

	var stored bool
	err := c.do(ctx, text.NewSetRequest(key, value), text.SetChunkSize, func(resp []byte) error {
		stored = text.ParseSetResponse(resp) == text.ResultStored
		return nil
	})
	if err != nil {
		c.logger.Debug("memcache: failed to store key", "key", key, "error", err)
		return false, err
	}

	c.stats.recordSet(stored)
	if stored {
		c.logger.Debug("memcache: stored key", "key", key)
	} else {
		c.logger.Debug("memcache: key not stored", "key", key)
	}
	return stored, nil
}

// Get fetches key. A miss returns an Item with Found false and a nil error.
// The returned Value is owned by the caller.
func (c *Client) Get(ctx context.Context, key string) (Item, error) {
	c.logger.Debug("memcache: loading key", "key", key)

	item := Item{Key: key}
	err := c.do(ctx, text.NewGetRequest(key), text.GetChunkSize, func(resp []byte) error {
		res, err := text.ParseGetResponse(resp)
		if err != nil {
			return err
		}
		item.Found = res.Found
		item.Flags = res.Flags
		item.Value = res.Data
		return nil
	})
	if err != nil {
		c.logger.Debug("memcache: failed to load key", "key", key, "error", err)
		return Item{}, err
	}

	c.stats.recordGet(item.Found)
	if item.Found {
		c.logger.Debug("memcache: loaded key", "key", key, "size", len(item.Value))
	} else {
		c.logger.Debug("memcache: key not found", "key", key)
	}
	return item, nil
}

// Stats returns the server statistics as raw text: the STAT lines joined by
// CRLF, without the END marker.
func (c *Client) Stats(ctx context.Context) (string, error) {
	c.logger.Debug("memcache: requesting stats")

	var stats string
	err := c.do(ctx, text.NewStatsRequest(), text.StatsChunkSize, func(resp []byte) error {
		var err error
		stats, err = text.ParseStatsResponse(resp)
		return err
	})
	if err != nil {
		return "", err
	}

	c.stats.recordStats()
	return stats, nil
}

// StatsMap returns the server statistics keyed by name.
func (c *Client) StatsMap(ctx context.Context) (map[string]string, error) {
	stats, err := c.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return text.ParseStats(stats)
}

// PrintStats writes the server statistics text to w, followed by a newline.
func (c *Client) PrintStats(ctx context.Context, w io.Writer) error {
	stats, err := c.Stats(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, stats)
	return err
}

// Delete removes key. Returns false when the key did not exist.
func (c *Client) Delete(ctx context.Context, key string) (bool, error) {
	var deleted bool
	err := c.do(ctx, text.NewDeleteRequest(key), text.GetChunkSize, func(resp []byte) error {
		var err error
		deleted, err = text.ParseDeleteResponse(resp)
		return err
	})
	if err != nil {
		return false, err
	}

	c.stats.recordDelete()
	return deleted, nil
}

// FlushAll invalidates every item on the server.
func (c *Client) FlushAll(ctx context.Context) error {
	return c.do(ctx, text.NewFlushAllRequest(), text.GetChunkSize, text.ParseFlushAllResponse)
}

// Version returns the server version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var version string
	err := c.do(ctx, text.NewVersionRequest(), text.GetChunkSize, func(resp []byte) error {
		var err error
		version, err = text.ParseVersionResponse(resp)
		return err
	})
	return version, err
}

// Equal reports whether a and b hold the same bytes.
func (c *Client) Equal(a, b []byte) bool {
	return text.Equal(a, b)
}

// Counters returns a snapshot of the client operation counters.
func (c *Client) Counters() ClientStats {
	return c.stats.snapshot()
}

// Close closes the connection. Further operations return ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return c.transport.Close()
}

// do runs one request/response exchange under the client lock and hands the
// complete response to decode. Errors that leave the stream in an unknown
// state close the connection; the next request reconnects.
func (c *Client) do(ctx context.Context, req *text.Request, chunkSize int, decode func(resp []byte) error) error {
	if err := req.Validate(); err != nil {
		c.stats.recordError()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.stats.recordError()
		return ErrClientClosed
	}

	run := func() ([]byte, error) {
		resp, err := c.exchange(ctx, req, chunkSize)
		if err != nil {
			return nil, err
		}
		return nil, decode(resp)
	}

	var err error
	if c.breaker != nil {
		_, err = c.breaker.Execute(run)
	} else {
		_, err = run()
	}

	if err != nil {
		c.stats.recordError()
		if text.ShouldCloseConnection(err) && !isBreakerRejection(err) {
			_ = c.transport.Close()
		}
	}
	return err
}

// exchange writes req and reads its response.
func (c *Client) exchange(ctx context.Context, req *text.Request, chunkSize int) ([]byte, error) {
	buf := c.buffers.Get()
	defer c.buffers.Put(buf)

	buf.Grow(text.EncodedLen(req))
	wire, err := text.AppendRequest(buf.AvailableBuffer(), req)
	if err != nil {
		return nil, err
	}

	n, err := c.transport.Transmit(ctx, wire)
	c.stats.recordSent(n)
	if err != nil {
		return nil, err
	}
	if n != len(wire) {
		return nil, &text.TransmitIncompleteError{Sent: n, Want: len(wire)}
	}

	resp, err := c.receive(ctx, req.Command, chunkSize)
	if err != nil {
		var connErr *text.ConnectionError
		if len(resp) == 0 || !errors.As(err, &connErr) {
			return nil, err
		}

		// The server closed the connection after a partial reply. Set and
		// get replies are decoded from what arrived: a short set reply is
		// not stored, a get reply is found when its data block is complete.
		switch req.Command {
		case text.CmdSet, text.CmdGet:
			_ = c.transport.Close()
			return resp, nil
		case text.CmdStats:
			return nil, &text.ProtocolError{Message: "stats response missing END marker", Err: err}
		}
		return nil, err
	}

	// A set reply that filled its chunk without a line terminator leaves the
	// rest of the line unread.
	if req.Command == text.CmdSet && !bytes.HasSuffix(resp, []byte(text.CRLF)) {
		_ = c.transport.Close()
	}

	return resp, nil
}

// receive reads chunks of at most chunkSize bytes until the response to cmd
// is complete. Returns the bytes read so far alongside any error.
func (c *Client) receive(ctx context.Context, cmd text.CmdType, chunkSize int) ([]byte, error) {
	limit := text.MaxResponseSize(cmd)
	resp := make([]byte, 0, chunkSize)

	for {
		resp = slices.Grow(resp, chunkSize)
		n, err := c.transport.Receive(ctx, resp[len(resp):len(resp)+chunkSize])
		resp = resp[:len(resp)+n]
		c.stats.recordReceived(n)
		if err != nil {
			return resp, err
		}

		done, err := text.Complete(cmd, resp)
		if err != nil {
			return resp, err
		}
		if done {
			return resp, nil
		}
		if len(resp) >= limit {
			return resp, &text.ProtocolError{Message: fmt.Sprintf("%s response exceeds %d bytes", cmd, limit)}
		}
	}
}
