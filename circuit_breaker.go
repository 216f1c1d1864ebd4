package mctext

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/mctext/text"
)

// NewCircuitBreakerConfig returns a function that creates a circuit breaker
// for a server address, suitable for Config.NewCircuitBreaker.
//
// Only errors that leave the connection unusable count as failures, whether
// raised on the wire or while decoding the reply. A SERVER_ERROR reply or an
// invalid key never trips the breaker.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(string) *gobreaker.CircuitBreaker[[]byte] {
	return func(serverAddr string) *gobreaker.CircuitBreaker[[]byte] {
		settings := gobreaker.Settings{
			Name:        serverAddr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: func(err error) bool {
				return !text.ShouldCloseConnection(err)
			},
		}
		return gobreaker.NewCircuitBreaker[[]byte](settings)
	}
}

// isBreakerRejection reports whether err was produced by the breaker itself
// without reaching the server.
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
