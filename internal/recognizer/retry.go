package recognizer

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

// Retrying re-runs a failed recognition a bounded number of times. Context
// errors and missing images are never retried.
type Retrying struct {
	next     Recognizer
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// NewRetrying wraps next so each page is tried up to retries+1 times.
func NewRetrying(next Recognizer, retries int, delay time.Duration, logger *slog.Logger) *Retrying {
	if retries < 0 {
		retries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{next: next, attempts: uint(retries) + 1, delay: delay, logger: logger}
}

// Recognize implements Recognizer.
func (r *Retrying) Recognize(ctx context.Context, img image.Image, profile Profile) (string, error) {
	var text string
	err := retry.Do(
		func() error {
			var err error
			text, err = r.next.Recognize(ctx, img, profile)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Debug("retrying recognition", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return "", err
	}
	return text, nil
}

func retryable(err error) bool {
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, ErrNilImage) &&
		!errors.Is(err, ErrGarbledOutput) &&
		!errors.Is(err, ErrNotAvailable)
}
