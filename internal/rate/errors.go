package rate

import (
	"errors"
	"fmt"
)

var (
	// ErrRedisUnavailable is an exported constant or variable used by the rate limiter.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrUnknownCategory is returned for a category the limiter was not configured with.
	ErrUnknownCategory = errors.New("unknown rate limit category")
)

func wrapUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}
