package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/wk-j/dev-team-sub001/internal/errors"
)

var errBusy = apperrors.Unavailable("store", errors.New("database is locked"))

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDo_Success(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SemanticErrorNotRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func(ctx context.Context) error {
		calls++
		return apperrors.InvalidState("assign", "item is blazing")
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, 1, calls)
}

func TestDo_BusyEventuallySucceeds(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_BusyAllFail(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(2), func(ctx context.Context) error {
		calls++
		return errBusy
	})
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, Config{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: time.Second}, func(ctx context.Context) error {
		calls++
		return errBusy
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), Config{}, func(ctx context.Context) error {
		calls++
		return errBusy
	})
	assert.Equal(t, 1, calls)
}

func TestConfig_Backoff(t *testing.T) {
	cfg := Config{BaseDelay: 20 * time.Millisecond, MaxDelay: 100 * time.Millisecond}
	assert.Equal(t, 20*time.Millisecond, cfg.Backoff(0))
	assert.Equal(t, 40*time.Millisecond, cfg.Backoff(1))
	assert.Equal(t, 80*time.Millisecond, cfg.Backoff(2))
	assert.Equal(t, 100*time.Millisecond, cfg.Backoff(3))
	assert.Equal(t, 100*time.Millisecond, cfg.Backoff(30))
}
