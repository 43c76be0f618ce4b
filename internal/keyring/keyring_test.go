package keyring

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingWork returns a work function that records the keys it was called
// with and answers from the results map (missing keys succeed with "ok:<key>").
func recordingWork(calls *[]string, results map[string]error) func(context.Context, string) (string, error) {
	return func(_ context.Context, key string) (string, error) {
		*calls = append(*calls, key)
		if err, ok := results[key]; ok && err != nil {
			return "", err
		}
		return "ok:" + key, nil
	}
}

func newTestRotator(buf *bytes.Buffer) *Rotator {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewRotator(nil, logger)
}

func TestExecute_SuccessShortCircuits(t *testing.T) {
	var calls []string
	r := newTestRotator(&bytes.Buffer{})

	got, err := Execute(context.Background(), r, []string{"A", "B", "C"}, recordingWork(&calls, nil))

	require.NoError(t, err)
	assert.Equal(t, "ok:A", got)
	assert.Equal(t, []string{"A"}, calls)
}

func TestExecute_RotatesOnRetryableFailure(t *testing.T) {
	var calls []string
	r := newTestRotator(&bytes.Buffer{})

	got, err := Execute(context.Background(), r, []string{"A", "B"}, recordingWork(&calls, map[string]error{
		"A": errors.New("daily quota exhausted"),
	}))

	require.NoError(t, err)
	assert.Equal(t, "ok:B", got)
	assert.Equal(t, []string{"A", "B"}, calls)
}

func TestExecute_TerminalFailureStopsRotation(t *testing.T) {
	var calls []string
	r := newTestRotator(&bytes.Buffer{})
	invalid := errors.New("invalid request")

	_, err := Execute(context.Background(), r, []string{"A", "B"}, recordingWork(&calls, map[string]error{
		"A": invalid,
	}))

	require.Error(t, err)
	assert.Same(t, invalid, err)
	assert.False(t, IsExhausted(err))
	assert.Equal(t, []string{"A"}, calls)
}

func TestExecute_ExhaustionPropagatesLastError(t *testing.T) {
	var calls []string
	r := newTestRotator(&bytes.Buffer{})
	errA := errors.New("rate limit exceeded")
	errB := errors.New("rate limit exceeded")

	_, err := Execute(context.Background(), r, []string{"A", "B"}, recordingWork(&calls, map[string]error{
		"A": errA,
		"B": errB,
	}))

	require.Error(t, err)
	assert.ErrorIs(t, err, errB)
	assert.NotErrorIs(t, err, errA)
	assert.Equal(t, "rate limit exceeded", err.Error())
	assert.True(t, IsExhausted(err))

	var ee *ExhaustedError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.Attempts)
	assert.Equal(t, []string{"A", "B"}, calls)
}

func TestExecute_EmptyKeySet(t *testing.T) {
	var calls []string
	r := newTestRotator(&bytes.Buffer{})

	_, err := Execute(context.Background(), r, nil, recordingWork(&calls, nil))

	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Empty(t, calls)
}

func TestExecute_SingleKeyRetryableIsExhausted(t *testing.T) {
	var calls []string
	r := newTestRotator(&bytes.Buffer{})

	_, err := Execute(context.Background(), r, []string{"only"}, recordingWork(&calls, map[string]error{
		"only": errors.New("429 Too Many Requests"),
	}))

	assert.True(t, IsExhausted(err))
	assert.Equal(t, []string{"only"}, calls)
}

func TestExecute_ScenarioThreeKeys(t *testing.T) {
	var calls []string
	var logs bytes.Buffer
	r := newTestRotator(&logs)

	got, err := Execute(context.Background(), r, []string{"k1", "k2", "k3"}, recordingWork(&calls, map[string]error{
		"k1": errors.New("Rate limit exceeded"),
		"k2": errors.New("quota"),
	}))

	require.NoError(t, err)
	assert.Equal(t, "ok:k3", got)
	assert.Equal(t, []string{"k1", "k2", "k3"}, calls)

	warnings := strings.Count(logs.String(), "level=WARN")
	assert.Equal(t, 2, warnings)
	assert.Contains(t, logs.String(), "key_index=0")
	assert.Contains(t, logs.String(), "key_index=1")
	assert.NotContains(t, logs.String(), "k1", "keys must never be logged")
}

func TestExecute_NoWarningForLastKey(t *testing.T) {
	var logs bytes.Buffer
	r := newTestRotator(&logs)

	_, err := Execute(context.Background(), r, []string{"A", "B"}, func(context.Context, string) (int, error) {
		return 0, errors.New("quota exceeded")
	})

	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(logs.String(), "level=WARN"))
}

func TestRotator_CustomClassifier(t *testing.T) {
	sentinel := errors.New("upstream said slow down")
	classifier := ClassifierFunc(func(err error) Outcome {
		if errors.Is(err, sentinel) {
			return Retryable
		}
		return Terminal
	})
	r := NewRotator(classifier, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	var calls []string
	err := r.Do(context.Background(), []string{"A", "B"}, func(_ context.Context, key string) error {
		calls = append(calls, key)
		if key == "A" {
			return sentinel
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, calls)
}

func TestParseKeys(t *testing.T) {
	tests := []struct {
		name       string
		primary    string
		additional string
		want       []string
	}{
		{name: "primary deduplicated from additional", primary: "X", additional: "X,Y", want: []string{"X", "Y"}},
		{name: "primary only", primary: "X", additional: "", want: []string{"X"}},
		{name: "additional only", primary: "", additional: "A, B", want: []string{"A", "B"}},
		{name: "whitespace primary ignored", primary: "   ", additional: "A", want: []string{"A"}},
		{name: "primary trimmed before comparison", primary: " X ", additional: "Y, X", want: []string{"X", "Y"}},
		{name: "empty entries dropped", primary: "X", additional: ",, Y ,,Z,", want: []string{"X", "Y", "Z"}},
		{name: "duplicates within additional kept", primary: "X", additional: "Y,Y", want: []string{"X", "Y", "Y"}},
		{name: "order preserved", primary: "P", additional: "C,A,B", want: []string{"P", "C", "A", "B"}},
		{name: "nothing configured", primary: "", additional: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKeys(tt.primary, tt.additional))
		})
	}
}
