package mctext

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/pior/mctext/internal/testutils"
)

// mockDialer hands out pre-built connections in order and records the
// addresses dialed.
type mockDialer struct {
	mu    sync.Mutex
	conns []net.Conn
	err   error
	addrs []string
}

func newMockDialer(conns ...net.Conn) *mockDialer {
	return &mockDialer{conns: conns}
}

func (d *mockDialer) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.addrs = append(d.addrs, network+"://"+addr)
	if d.err != nil {
		return nil, d.err
	}
	if len(d.conns) == 0 {
		return nil, &net.OpError{Op: "dial", Net: network, Err: net.UnknownNetworkError("no more mock connections")}
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

func (d *mockDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.addrs)
}

type resolverMock struct {
	mock.Mock
}

func (m *resolverMock) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	args := m.Called(ctx, network, host)
	ips, _ := args.Get(0).([]net.IP)
	return ips, args.Error(1)
}

// newMockClient creates a client whose connections come from the given mocks.
func newMockClient(t testing.TB, conns ...*testutils.ConnectionMock) (*Client, *mockDialer) {
	t.Helper()

	netConns := make([]net.Conn, len(conns))
	for i, c := range conns {
		netConns[i] = c
	}
	dialer := newMockDialer(netConns...)

	client := NewClient("127.0.0.1", 11211, Config{dial: dialer.dial})
	t.Cleanup(func() { _ = client.Close() })
	return client, dialer
}

// newServerClient starts a test server and a client connected to it.
func newServerClient(t testing.TB, opts ...testutils.ServerOption) (*Client, *testutils.Server) {
	t.Helper()

	server := testutils.NewServer(t, opts...)
	client := NewClient(server.Host(), server.Port(), Config{})
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}
