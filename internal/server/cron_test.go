package server

import (
	"context"
	"io"
	"testing"
	"time"

	"CarValuator/internal/biz"
	"CarValuator/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = log.NewStdLogger(io.Discard)

type purgeRecorder struct {
	cutoffs chan time.Time
}

func (p *purgeRecorder) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	select {
	case p.cutoffs <- cutoff:
	default:
	}
	return 0, nil
}

func newRetentionTask(repo biz.ProviderLogRepo) *biz.ProviderLogRetentionTask {
	return biz.NewProviderLogRetentionTask(&conf.Audit{}, repo, testLogger)
}

func TestNewCronServer_DefaultSchedule(t *testing.T) {
	srv, err := NewCronServer(nil, newRetentionTask(&purgeRecorder{}), testLogger)
	require.NoError(t, err)
	require.Len(t, srv.Entries(), 1)

	require.NoError(t, srv.Start(context.Background()))
	defer srv.Stop(context.Background())

	next := srv.Entries()[0].Next
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.Equal(t, 0, next.Second())
}

func TestNewCronServer_InvalidSchedule(t *testing.T) {
	_, err := NewCronServer(&conf.Audit{PurgeSchedule: "every tuesday"}, newRetentionTask(&purgeRecorder{}), testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every tuesday")

	// Five field expressions are rejected, seconds are required.
	_, err = NewCronServer(&conf.Audit{PurgeSchedule: "0 3 * * *"}, newRetentionTask(&purgeRecorder{}), testLogger)
	assert.Error(t, err)
}

func TestCronServer_RunsPurge(t *testing.T) {
	repo := &purgeRecorder{cutoffs: make(chan time.Time, 1)}
	srv, err := NewCronServer(&conf.Audit{PurgeSchedule: "* * * * * *"}, newRetentionTask(repo), testLogger)
	require.NoError(t, err)

	require.NoError(t, srv.Start(context.Background()))

	select {
	case cutoff := <-repo.cutoffs:
		assert.WithinDuration(t, time.Now().Add(-biz.DefaultProviderLogRetention), cutoff, 5*time.Second)
	case <-time.After(3 * time.Second):
		t.Fatal("purge job did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Stop(ctx))
}
