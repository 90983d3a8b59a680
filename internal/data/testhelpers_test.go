package data

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"CarValuator/internal/conf"
	"CarValuator/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testLogger = log.NewStdLogger(io.Discard)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	return db, mock
}

func newTestData(t *testing.T, rdb *redis.Client) *Data {
	t.Helper()

	c := &conf.Data{Cache: &conf.Data_Cache{LocalSize: 16, Ttl: durationpb.New(time.Hour)}}
	var cache CacheClient
	if rdb != nil {
		cache = NewCacheClient(rdb)
	}
	d, cleanup, err := NewData(c, testLogger, rdb, cache)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return d
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []*model.ProviderCall
}

func (r *fakeRecorder) Record(_ context.Context, call *model.ProviderCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *fakeRecorder) Calls() []*model.ProviderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.ProviderCall(nil), r.calls...)
}
