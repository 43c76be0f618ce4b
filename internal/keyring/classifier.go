package keyring

import "strings"

// Outcome is the classification of a failed attempt.
type Outcome int

const (
	// Terminal failures are returned to the caller without trying further keys.
	Terminal Outcome = iota
	// Retryable failures move on to the next key when one exists.
	Retryable
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case Retryable:
		return "retryable"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Classifier decides whether a failed attempt should be retried with the next key.
type Classifier interface {
	Classify(err error) Outcome
}

// ClassifierFunc adapts an ordinary function to the Classifier interface.
type ClassifierFunc func(err error) Outcome

// Classify calls f(err).
func (f ClassifierFunc) Classify(err error) Outcome { return f(err) }

// rateLimitMarkers are matched against the lower-cased error message.
var rateLimitMarkers = []string{
	"429",
	"quota",
	"too many requests",
	"rate limit",
}

// MessageClassifier treats an error as retryable when its message mentions a
// rate limit or quota. Upstream generative AI APIs report these only in prose.
type MessageClassifier struct{}

// Classify implements Classifier.
func (MessageClassifier) Classify(err error) Outcome {
	if IsRateLimitMessage(err) {
		return Retryable
	}
	return Terminal
}

// IsRateLimitMessage reports whether err's message contains one of the
// quota/rate-limit markers, ignoring case. A nil error never matches.
func IsRateLimitMessage(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Chain returns a Classifier that reports Retryable when any of cs does.
func Chain(cs ...Classifier) Classifier {
	return ClassifierFunc(func(err error) Outcome {
		for _, c := range cs {
			if c.Classify(err) == Retryable {
				return Retryable
			}
		}
		return Terminal
	})
}
