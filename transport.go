package mctext

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/pior/mctext/text"
)

// Resolver looks up host addresses. *net.Resolver implements it.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// TransportConfig holds the optional collaborators of a Transport.
type TransportConfig struct {
	// Dialer is used to open the TCP connection.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// Resolver resolves host when it is not an IPv4 literal.
	// If nil, net.DefaultResolver is used.
	Resolver Resolver

	// Logger receives connection events at debug level.
	// If nil, events are discarded.
	Logger *slog.Logger

	// for testing purposes only
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Transport owns a single TCP connection to one fixed host and port.
// It connects lazily on first use and is not safe for concurrent use.
type Transport struct {
	host     string
	port     uint16
	dial     func(ctx context.Context, network, addr string) (net.Conn, error)
	resolver Resolver
	logger   *slog.Logger

	conn net.Conn // nil until connected
}

// NewTransport creates an unconnected transport for host:port. host is a
// hostname or a dotted-quad IPv4 address.
func NewTransport(host string, port uint16, config TransportConfig) *Transport {
	dial := config.dial
	if dial == nil {
		dialer := config.Dialer
		if dialer == nil {
			dialer = &net.Dialer{}
		}
		dial = dialer.DialContext
	}

	resolver := config.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Transport{
		host:     host,
		port:     port,
		dial:     dial,
		resolver: resolver,
		logger:   logger,
	}
}

// Addr returns the configured endpoint as host:port.
func (t *Transport) Addr() string {
	return net.JoinHostPort(t.host, strconv.Itoa(int(t.port)))
}

// Connected reports whether the transport holds a live connection.
func (t *Transport) Connected() bool {
	return t.conn != nil
}

// Connect opens the connection if it is not open yet. It is a no-op when
// already connected.
//
// An IPv4 literal host is dialed directly; any other host is resolved and
// its first IPv4 address is dialed.
func (t *Transport) Connect(ctx context.Context) error {
	if t.conn != nil {
		return nil
	}

	ip, err := t.resolve(ctx)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(ip.String(), strconv.Itoa(int(t.port)))
	conn, err := t.dial(ctx, "tcp4", addr)
	if err != nil {
		return &text.ConnectionError{Op: "dial", Err: err}
	}

	t.conn = conn
	t.logger.Debug("tcp: connected", "host", t.host, "addr", addr)
	return nil
}

func (t *Transport) resolve(ctx context.Context) (net.IP, error) {
	if ip := net.ParseIP(t.host).To4(); ip != nil {
		return ip, nil
	}

	ips, err := t.resolver.LookupIP(ctx, "ip4", t.host)
	if err != nil {
		return nil, &text.ConnectionError{Op: "resolve", Err: err}
	}
	if len(ips) == 0 {
		return nil, &text.ConnectionError{Op: "resolve", Err: fmt.Errorf("no addresses found for %s", t.host)}
	}

	t.logger.Debug("tcp: resolved", "host", t.host, "ip", ips[0].String())
	return ips[0], nil
}

// Transmit connects if needed and writes all of p, looping over short
// writes. Returns the number of bytes written.
func (t *Transport) Transmit(ctx context.Context, p []byte) (int, error) {
	if err := t.Connect(ctx); err != nil {
		return 0, err
	}
	t.setDeadline(ctx)

	sent := 0
	for sent < len(p) {
		n, err := t.conn.Write(p[sent:])
		sent += n
		if err != nil {
			return sent, &text.ConnectionError{Op: "write", Err: err}
		}
		if n == 0 {
			return sent, &text.ConnectionError{Op: "write", Err: io.ErrShortWrite}
		}
	}

	t.logger.Debug("tcp: sent", "bytes", sent)
	return sent, nil
}

// Receive connects if needed and performs exactly one read into buf.
// A peer close is reported as a ConnectionError wrapping io.EOF; n may be
// non-zero alongside an error.
func (t *Transport) Receive(ctx context.Context, buf []byte) (int, error) {
	if err := t.Connect(ctx); err != nil {
		return 0, err
	}
	t.setDeadline(ctx)

	n, err := t.conn.Read(buf)
	if n > 0 {
		t.logger.Debug("tcp: received", "bytes", n)
	}
	if err != nil {
		return n, &text.ConnectionError{Op: "read", Err: err}
	}
	if n == 0 && len(buf) > 0 {
		return 0, &text.ConnectionError{Op: "read", Err: io.ErrNoProgress}
	}
	return n, nil
}

// setDeadline applies the context deadline to the socket, or clears it.
func (t *Transport) setDeadline(ctx context.Context) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetDeadline(deadline)
	} else {
		_ = t.conn.SetDeadline(time.Time{})
	}
}

// Close closes the connection. The next Connect, Transmit or Receive opens
// a new one. Closing an unconnected transport is a no-op.
func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.logger.Debug("tcp: closed", "host", t.host)
	return err
}
