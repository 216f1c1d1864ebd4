package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pior/mctext"
	"github.com/pior/mctext/internal/bench"
)

type Config struct {
	host        string
	port        uint
	requests    int
	key         string
	value       string
	valueSize   int
	client      string
	stats       bool
	metricsAddr string
	breaker     bool
	verbose     bool
}

func main() {
	config := Config{}
	flag.StringVar(&config.host, "host", "127.0.0.1", "memcache server host name or IPv4 address")
	flag.UintVar(&config.port, "port", 11211, "memcache server port")
	flag.IntVar(&config.requests, "n", 10000, "number of set+get request pairs")
	flag.StringVar(&config.key, "key", "x", "key written and read by every request")
	flag.StringVar(&config.value, "value", "abc", "value written by every set")
	flag.IntVar(&config.valueSize, "value-size", 0, "generate a random value of this many bytes instead of -value")
	flag.StringVar(&config.client, "client", "mctext", "client implementation: mctext or gomemcache")
	flag.BoolVar(&config.stats, "stats", true, "print server stats before the run")
	flag.StringVar(&config.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9100)")
	flag.BoolVar(&config.breaker, "breaker", false, "guard the mctext client with a circuit breaker")
	flag.BoolVar(&config.verbose, "verbose", false, "log every request at debug level")
	flag.Parse()

	if config.port == 0 || config.port > 65535 {
		log.Fatalf("Invalid port: %d", config.port)
	}
	if config.client != "mctext" && config.client != "gomemcache" {
		log.Fatalf("Invalid client: %s (must be 'mctext' or 'gomemcache')", config.client)
	}

	if err := run(config); err != nil {
		log.Fatal(err)
	}
}

// run executes the benchmark. Connections are closed before it returns.
func run(config Config) error {
	logger := slog.New(slog.DiscardHandler)
	if config.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	value := []byte(config.value)
	if config.valueSize > 0 {
		value = bench.Payload(config.valueSize, uint64(time.Now().UnixNano()))
	}

	fmt.Printf("Memcache Latency Test\n")
	fmt.Printf("=====================\n")
	fmt.Printf("Client:   %s\n", config.client)
	fmt.Printf("Server:   %s\n", net.JoinHostPort(config.host, strconv.Itoa(int(config.port))))
	fmt.Printf("Requests: %d\n", config.requests)
	fmt.Printf("Value:    %d bytes (%s)\n\n", len(value), bench.Fingerprint(value))

	ctx := context.Background()

	clientConfig := mctext.Config{Logger: logger}
	if config.breaker {
		clientConfig.NewCircuitBreaker = mctext.NewCircuitBreakerConfig(1, time.Minute, 5*time.Second)
	}
	client := mctext.NewClient(config.host, uint16(config.port), clientConfig)
	defer client.Close()

	if config.stats {
		if err := client.PrintStats(ctx, os.Stdout); err != nil {
			return fmt.Errorf("failed to read stats from memcache server: %w", err)
		}
		fmt.Println()
	}

	var exporter *bench.Exporter
	if config.metricsAddr != "" {
		exporter = bench.NewExporter()
		exporter.RegisterClient(client)
		go func() {
			if err := exporter.ServeHTTP(config.metricsAddr); err != nil {
				log.Fatalf("Metrics server failed: %v", err)
			}
		}()
		fmt.Printf("Serving metrics on %s/metrics\n\n", config.metricsAddr)
	}

	var cache bench.Cache
	switch config.client {
	case "gomemcache":
		cache = bench.NewGomemcacheCache(client.Addr())
	default:
		cache = bench.NewTextCache(client)
	}
	defer cache.Close()

	runConfig := bench.Config{
		Requests: config.requests,
		Key:      config.key,
		Value:    value,
		Logger:   logger,
	}
	if exporter != nil {
		runConfig.Observer = exporter
	}
	runner := bench.NewRunner(cache, runConfig)

	result, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("benchmark failed after %d requests: %w", result.Requests, err)
	}

	fmt.Println(result)
	fmt.Printf("\nset: %s\n", result.Set)
	fmt.Printf("get: %s\n", result.Get)

	if config.verbose {
		fmt.Println()
		runner.WriteMetrics(os.Stdout)
	}
	return nil
}
