package schedulersvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestScheduler(t *testing.T) {
	s := New(nopLogger{})
	require.Error(t, s.Add("broken", "not a spec", func(context.Context) error { return nil }))
	require.NoError(t, s.Add("disabled", "", func(context.Context) error {
		t.Error("disabled job ran")
		return nil
	}))

	ran := make(chan struct{}, 10)
	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) error {
		assert.NoError(t, ctx.Err())
		ran <- struct{}{}
		return nil
	}))

	s.Start()
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
