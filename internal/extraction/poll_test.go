package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPoll(attempts int) PollPolicy {
	return PollPolicy{Interval: time.Millisecond, MaxAttempts: attempts}
}

func TestPollCompletes(t *testing.T) {
	calls := 0
	err := fastPoll(5).Poll(context.Background(), func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPollTimesOut(t *testing.T) {
	calls := 0
	err := fastPoll(4).Poll(context.Background(), func(context.Context) (bool, error) {
		calls++
		return false, nil
	})

	assert.ErrorIs(t, err, ErrJobTimeout)
	assert.Equal(t, 4, calls)
}

func TestPollStopsOnFailure(t *testing.T) {
	calls := 0
	err := fastPoll(10).Poll(context.Background(), func(context.Context) (bool, error) {
		calls++
		return false, &JobFailedError{JobID: "job-1", Reason: "bad media"}
	})

	var failed *JobFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "job-1", failed.JobID)
	assert.False(t, errors.Is(err, ErrJobTimeout))
	assert.Equal(t, 1, calls)
}

func TestPollRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := PollPolicy{Interval: time.Hour, MaxAttempts: 3}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := policy.Poll(ctx, func(context.Context) (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJobFailedErrorMessage(t *testing.T) {
	assert.Equal(t, "extraction job j1 failed: unsupported format", (&JobFailedError{JobID: "j1", Reason: "unsupported format"}).Error())
	assert.Equal(t, "extraction job j1 failed", (&JobFailedError{JobID: "j1"}).Error())
}
