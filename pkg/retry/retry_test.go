package retry

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	attempts := 0
	err := fastPolicy().Do(context.Background(), func(_ context.Context) error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := fastPolicy().Do(context.Background(), func(_ context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := fastPolicy().Do(context.Background(), func(_ context.Context) error {
		attempts++
		return errors.New("still broken")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_PermanentStopsEarly(t *testing.T) {
	attempts := 0
	err := fastPolicy().Do(context.Background(), func(_ context.Context) error {
		attempts++
		return Permanent(errors.New("bad request"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := Policy{MaxAttempts: 100, InitialDelay: 10 * time.Millisecond, MaxDelay: 10 * time.Millisecond}.
		Do(ctx, func(_ context.Context) error {
			attempts++
			cancel()
			return errors.New("transient")
		})

	require.Error(t, err)
	assert.LessOrEqual(t, attempts, 2)
}
