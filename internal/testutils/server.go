package testutils

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Server is an in-memory memcached speaking the subset of the text protocol
// used by the clients under test: get, gets, set, delete, flush_all, version,
// stats and quit.
// Unknown commands get "ERROR\r\n".
type Server struct {
	listener net.Listener

	mu          sync.Mutex
	items       map[string]serverItem
	casCounter  uint64
	connections int
	open        int
	commands    []string

	// replyChunk splits each reply into writes of this many bytes
	replyChunk int
}

type serverItem struct {
	flags uint32
	data  []byte
	cas   uint64
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithReplyChunk makes the server write replies in pieces of n bytes.
func WithReplyChunk(n int) ServerOption {
	return func(s *Server) {
		s.replyChunk = n
	}
}

// NewServer starts a server on 127.0.0.1 with a random port. It is closed
// when the test ends.
func NewServer(t testing.TB, opts ...ServerOption) *Server {
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start test server: %v", err)
	}

	s := &Server{
		listener: listener,
		items:    make(map[string]serverItem),
	}
	for _, opt := range opts {
		opt(s)
	}

	t.Cleanup(s.Close)

	go s.serve()
	return s
}

// Addr returns the listening address as host:port.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Host returns the listening IP address.
func (s *Server) Host() string {
	return s.listener.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listening port.
func (s *Server) Port() uint16 {
	return uint16(s.listener.Addr().(*net.TCPAddr).Port)
}

// Connections returns the number of accepted connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connections
}

// OpenConnections returns the number of connections not yet closed by the
// client.
func (s *Server) OpenConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.open
}

// Commands returns the command lines received so far, without data blocks.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.commands...)
}

// Close stops accepting connections.
func (s *Server) Close() {
	_ = s.listener.Close()
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.connections++
		s.open++
		s.mu.Unlock()

		go func(c net.Conn) {
			defer func() {
				_ = c.Close()
				s.mu.Lock()
				s.open--
				s.mu.Unlock()
			}()
			s.handle(c)
		}(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	r := bufio.NewReader(conn)

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSuffix(line, "\r\n")

		s.mu.Lock()
		s.commands = append(s.commands, line)
		s.mu.Unlock()

		fields := strings.Split(line, " ")
		var reply string

		switch fields[0] {
		case "get", "gets":
			reply = s.get(fields)
		case "set":
			reply, err = s.set(r, fields)
			if err != nil {
				return
			}
		case "delete":
			reply = s.delete(fields)
		case "flush_all":
			s.mu.Lock()
			clear(s.items)
			s.mu.Unlock()
			reply = "OK\r\n"
		case "version":
			reply = "VERSION 1.6.21-test\r\n"
		case "stats":
			reply = s.stats()
		case "quit":
			return
		default:
			reply = "ERROR\r\n"
		}

		if err := s.reply(conn, reply); err != nil {
			return
		}
	}
}

func (s *Server) reply(conn net.Conn, reply string) error {
	if s.replyChunk <= 0 {
		_, err := io.WriteString(conn, reply)
		return err
	}
	for len(reply) > 0 {
		n := min(s.replyChunk, len(reply))
		if _, err := io.WriteString(conn, reply[:n]); err != nil {
			return err
		}
		reply = reply[n:]
	}
	return nil
}

func (s *Server) get(fields []string) string {
	if len(fields) < 2 {
		return "ERROR\r\n"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	for _, key := range fields[1:] {
		item, ok := s.items[key]
		if !ok {
			continue
		}
		if fields[0] == "gets" {
			fmt.Fprintf(&b, "VALUE %s %d %d %d\r\n", key, item.flags, len(item.data), item.cas)
		} else {
			fmt.Fprintf(&b, "VALUE %s %d %d\r\n", key, item.flags, len(item.data))
		}
		b.Write(item.data)
		b.WriteString("\r\n")
	}
	b.WriteString("END\r\n")
	return b.String()
}

func (s *Server) set(r *bufio.Reader, fields []string) (string, error) {
	if len(fields) < 5 {
		return "ERROR\r\n", nil
	}
	flags, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return "CLIENT_ERROR bad command line format\r\n", nil
	}
	size, err := strconv.Atoi(fields[4])
	if err != nil || size < 0 {
		return "CLIENT_ERROR bad command line format\r\n", nil
	}

	block := make([]byte, size+2)
	if _, err := io.ReadFull(r, block); err != nil {
		return "", err
	}
	if string(block[size:]) != "\r\n" {
		return "CLIENT_ERROR bad data chunk\r\n", nil
	}

	s.mu.Lock()
	s.casCounter++
	s.items[fields[1]] = serverItem{flags: uint32(flags), data: block[:size], cas: s.casCounter}
	s.mu.Unlock()

	return "STORED\r\n", nil
}

func (s *Server) delete(fields []string) string {
	if len(fields) < 2 {
		return "ERROR\r\n"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[fields[1]]; !ok {
		return "NOT_FOUND\r\n"
	}
	delete(s.items, fields[1])
	return "DELETED\r\n"
}

func (s *Server) stats() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var size int
	for key, item := range s.items {
		size += len(key) + len(item.data)
	}

	var b strings.Builder
	b.WriteString("STAT pid 4242\r\n")
	b.WriteString("STAT version 1.6.21-test\r\n")
	fmt.Fprintf(&b, "STAT curr_connections %d\r\n", s.connections)
	fmt.Fprintf(&b, "STAT curr_items %d\r\n", len(s.items))
	fmt.Fprintf(&b, "STAT bytes %d\r\n", size)
	b.WriteString("STAT limit_maxbytes 67108864\r\n")
	b.WriteString("END\r\n")
	return b.String()
}
