package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CarValuator/internal/conf"
	"CarValuator/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

const defaultProviderLogBuffer = 1000

// ProviderLog is the GORM model for the provider_logs table.
type ProviderLog struct {
	ID                int64     `gorm:"primaryKey;column:id;autoIncrement"`
	VRM               string    `gorm:"column:vrm;type:varchar(7) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin;not null;index"`
	ProviderName      string    `gorm:"column:provider_name;type:varchar(32);not null"`
	RequestURL        string    `gorm:"column:request_url;type:varchar(512);not null"`
	ResponseCode      int       `gorm:"column:response_code;not null"`
	ErrorMessage      *string   `gorm:"column:error_message;type:text"`
	RequestDateTime   time.Time `gorm:"column:request_date_time;not null;index"`
	RequestDurationMs int64     `gorm:"column:request_duration_ms;not null"`
}

// TableName specifies the table name for GORM.
func (ProviderLog) TableName() string {
	return "provider_logs"
}

func newProviderLog(call *model.ProviderCall) *ProviderLog {
	entry := &ProviderLog{
		VRM:               call.VRM,
		ProviderName:      call.ProviderName,
		RequestURL:        call.RequestURL,
		ResponseCode:      call.ResponseCode,
		RequestDateTime:   call.RequestTime,
		RequestDurationMs: call.Duration.Milliseconds(),
	}
	if call.ErrorMessage != "" {
		msg := call.ErrorMessage
		entry.ErrorMessage = &msg
	}
	return entry
}

// ProviderCallRecorder receives one record per upstream provider call.
// Record must not block the caller.
type ProviderCallRecorder interface {
	Record(ctx context.Context, call *model.ProviderCall)
}

// ProviderLogRepo persists provider call records asynchronously and
// implements biz.ProviderLogRepo for retention.
type ProviderLogRepo struct {
	db      *gorm.DB
	logChan chan *ProviderLog
	done    chan struct{}

	mu     sync.RWMutex
	closed bool

	logger *log.Helper
}

// NewProviderLogRepo starts the background writer. The returned cleanup
// flushes queued records and stops it.
func NewProviderLogRepo(db *gorm.DB, c *conf.Audit, logger log.Logger) (*ProviderLogRepo, func(), error) {
	size := defaultProviderLogBuffer
	if c != nil && c.BufferSize > 0 {
		size = int(c.BufferSize)
	}

	r := &ProviderLogRepo{
		db:      db,
		logChan: make(chan *ProviderLog, size),
		done:    make(chan struct{}),
		logger:  log.NewHelper(logger),
	}

	go r.start()

	return r, r.Close, nil
}

func (r *ProviderLogRepo) start() {
	defer close(r.done)

	for entry := range r.logChan {
		if err := r.db.WithContext(context.Background()).Create(entry).Error; err != nil {
			r.logger.Errorw("msg", "failed to write provider log",
				"vrm", entry.VRM,
				"provider_name", entry.ProviderName,
				"error", err)
			continue
		}
		r.logger.Debugw("msg", "provider log written",
			"vrm", entry.VRM,
			"provider_name", entry.ProviderName)
	}
}

// Record queues call for persistence. When the buffer is full or the writer
// has stopped the record is dropped with a warning.
func (r *ProviderLogRepo) Record(_ context.Context, call *model.ProviderCall) {
	entry := newProviderLog(call)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Warnw("msg", "provider log writer stopped, dropping record",
			"vrm", entry.VRM,
			"provider_name", entry.ProviderName)
		return
	}

	select {
	case r.logChan <- entry:
	default:
		r.logger.Warnw("msg", "provider log channel full, dropping record",
			"vrm", entry.VRM,
			"provider_name", entry.ProviderName)
	}
}

// PurgeBefore deletes records whose request time is before cutoff.
func (r *ProviderLogRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("request_date_time < ?", cutoff).Delete(&ProviderLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete provider logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Close stops accepting records and waits for queued ones to be written.
func (r *ProviderLogRepo) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.logChan)
	r.mu.Unlock()

	<-r.done
	r.logger.Info("provider log writer stopped")
}
