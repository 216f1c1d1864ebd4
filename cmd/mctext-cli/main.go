package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pior/mctext"
	"github.com/pior/mctext/text"
)

func main() {
	host := flag.String("host", "127.0.0.1", "memcache server host name or IPv4 address")
	port := flag.Uint("port", 11211, "memcache server port")
	timeout := flag.Duration("timeout", 5*time.Second, "timeout of each command")
	flag.Parse()

	fmt.Println("Memcache CLI Tool")
	fmt.Println("================")
	fmt.Println("Commands: get <key>, set <key> <value>, delete <key>, stats, version, flush, quit")
	fmt.Println()

	client := mctext.NewClient(*host, uint16(*port), mctext.Config{})
	defer client.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		command := strings.ToLower(parts[0])
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)

		switch command {
		case "get":
			if len(parts) != 2 {
				fmt.Println("Usage: get <key>")
				break
			}
			handleGet(ctx, client, parts[1])

		case "set":
			if len(parts) != 3 {
				fmt.Println("Usage: set <key> <value>")
				break
			}
			handleSet(ctx, client, parts[1], parts[2])

		case "delete", "del":
			if len(parts) != 2 {
				fmt.Println("Usage: delete <key>")
				break
			}
			handleDelete(ctx, client, parts[1])

		case "stats":
			handleStats(ctx, client)

		case "version":
			handleVersion(ctx, client)

		case "flush":
			handleFlush(ctx, client)

		case "help":
			fmt.Println("Commands:")
			fmt.Println("  get <key>           - Get a value by key")
			fmt.Println("  set <key> <value>   - Set a key-value pair")
			fmt.Println("  delete <key>        - Delete a key")
			fmt.Println("  stats               - Show server statistics")
			fmt.Println("  version             - Show server version")
			fmt.Println("  flush               - Invalidate all items")
			fmt.Println("  quit                - Exit the CLI")

		case "quit", "exit":
			cancel()
			fmt.Println("Goodbye!")
			return

		default:
			fmt.Printf("Unknown command: %s. Type 'help' for available commands.\n", command)
		}

		cancel()
	}

	if err := scanner.Err(); err != nil {
		fmt.Printf("Error reading input: %v\n", err)
	}
}

func printError(err error, duration time.Duration) {
	var keyErr *text.InvalidKeyError
	if errors.As(err, &keyErr) {
		fmt.Printf("Invalid key: %s\n", keyErr.Message)
		return
	}
	fmt.Printf("Error: %v (took %v)\n", err, duration)
}

func handleGet(ctx context.Context, client *mctext.Client, key string) {
	start := time.Now()
	item, err := client.Get(ctx, key)
	duration := time.Since(start)

	if err != nil {
		printError(err, duration)
		return
	}
	if !item.Found {
		fmt.Printf("Key not found (took %v)\n", duration)
		return
	}

	fmt.Printf("Value: %s (took %v)\n", string(item.Value), duration)
	if item.Flags != 0 {
		fmt.Printf("Flags: %d\n", item.Flags)
	}
}

func handleSet(ctx context.Context, client *mctext.Client, key, value string) {
	start := time.Now()
	stored, err := client.Set(ctx, key, []byte(value))
	duration := time.Since(start)

	if err != nil {
		printError(err, duration)
		return
	}
	if !stored {
		fmt.Printf("Not stored (took %v)\n", duration)
		return
	}

	fmt.Printf("Stored successfully (took %v)\n", duration)
}

func handleDelete(ctx context.Context, client *mctext.Client, key string) {
	start := time.Now()
	deleted, err := client.Delete(ctx, key)
	duration := time.Since(start)

	if err != nil {
		printError(err, duration)
		return
	}
	if !deleted {
		fmt.Printf("Key not found (took %v)\n", duration)
		return
	}

	fmt.Printf("Delete successful (took %v)\n", duration)
}

func handleStats(ctx context.Context, client *mctext.Client) {
	start := time.Now()
	err := client.PrintStats(ctx, os.Stdout)
	duration := time.Since(start)

	if err != nil {
		printError(err, duration)
		return
	}

	counters := client.Counters()
	fmt.Println()
	fmt.Println("Client Statistics:")
	fmt.Printf("  Gets: %d (hits: %d)\n", counters.Gets, counters.GetHits)
	fmt.Printf("  Sets: %d (stored: %d)\n", counters.Sets, counters.SetsStored)
	fmt.Printf("  Deletes: %d\n", counters.Deletes)
	fmt.Printf("  Errors: %d\n", counters.Errors)
	fmt.Printf("  Bytes sent/received: %d/%d\n", counters.BytesSent, counters.BytesReceived)
}

func handleVersion(ctx context.Context, client *mctext.Client) {
	start := time.Now()
	version, err := client.Version(ctx)
	duration := time.Since(start)

	if err != nil {
		printError(err, duration)
		return
	}

	fmt.Printf("Version: %s (took %v)\n", version, duration)
}

func handleFlush(ctx context.Context, client *mctext.Client) {
	start := time.Now()
	err := client.FlushAll(ctx)
	duration := time.Since(start)

	if err != nil {
		printError(err, duration)
		return
	}

	fmt.Printf("Flush successful (took %v)\n", duration)
}
