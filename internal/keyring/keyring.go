// Package keyring runs a unit of work against an ordered set of API keys,
// rotating to the next key when an attempt is rejected for quota reasons.
package keyring

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// ErrNoCredentials is returned when the key set is empty. The work function is
// never invoked in that case.
var ErrNoCredentials = errors.New("no credentials available")

// ExhaustedError is returned when every key was tried and the final attempt
// failed with a retryable error. Its message is the last attempt's message and
// it unwraps to that error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string { return e.Err.Error() }

func (e *ExhaustedError) Unwrap() error { return e.Err }

// IsExhausted reports whether err means every key hit its rate limit.
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}

// ParseKeys builds the credential set from a primary key and a comma-separated
// list of additional keys. The primary, when non-empty after trimming, is always
// first. Additional entries are trimmed, empties dropped, and entries equal to
// the primary removed; order is otherwise preserved.
func ParseKeys(primary, additional string) []string {
	primary = strings.TrimSpace(primary)

	keys := make([]string, 0, 1+strings.Count(additional, ","))
	if primary != "" {
		keys = append(keys, primary)
	}

	for _, k := range strings.Split(additional, ",") {
		k = strings.TrimSpace(k)
		if k == "" || k == primary {
			continue
		}
		keys = append(keys, k)
	}

	return keys
}

// Rotator executes work once per key, in order, until an attempt succeeds, a
// terminal error occurs, or the keys run out. A Rotator holds no per-call state
// and is safe for concurrent use.
type Rotator struct {
	classifier Classifier
	logger     *slog.Logger
}

// NewRotator creates a Rotator. A nil classifier selects MessageClassifier and a
// nil logger selects slog.Default().
func NewRotator(classifier Classifier, logger *slog.Logger) *Rotator {
	if classifier == nil {
		classifier = MessageClassifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rotator{classifier: classifier, logger: logger}
}

// Do runs work with each key in turn. See Execute.
func (r *Rotator) Do(ctx context.Context, keys []string, work func(ctx context.Context, key string) error) error {
	if len(keys) == 0 {
		return ErrNoCredentials
	}

	var lastErr error
	for i, key := range keys {
		err := work(ctx, key)
		if err == nil {
			return nil
		}
		lastErr = err

		if r.classifier.Classify(err) != Retryable {
			return err
		}
		if i == len(keys)-1 {
			break
		}

		r.logger.WarnContext(ctx, "api key rate limited, rotating to next key",
			"key_index", i,
			"next_key_index", i+1,
			"key_count", len(keys),
			"error", err,
		)
	}

	return &ExhaustedError{Attempts: len(keys), Err: lastErr}
}

// Execute runs work with each key of keys in order using rotator r and returns
// the first successful result.
func Execute[T any](ctx context.Context, r *Rotator, keys []string, work func(ctx context.Context, key string) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, keys, func(ctx context.Context, key string) error {
		v, err := work(ctx, key)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
