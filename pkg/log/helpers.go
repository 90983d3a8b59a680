package log

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// slowRequestThreshold marks requests logged with a follow-up warning.
const slowRequestThreshold = 1000 // ms

// LogHelper extends log.Helper with typed entries. Each entry carries a
// "type" field so log pipelines can filter by category.
type LogHelper struct {
	*log.Helper
}

// NewLogHelper creates a LogHelper.
func NewLogHelper(logger log.Logger) *LogHelper {
	return &LogHelper{Helper: log.NewHelper(logger)}
}

func withType(msg, typ string, kvs []interface{}) []interface{} {
	all := make([]interface{}, 0, len(kvs)+4)
	all = append(all, "msg", msg)
	all = append(all, kvs...)
	return append(all, "type", typ)
}

// Startup logs a service lifecycle event.
func (h *LogHelper) Startup(msg string, kvs ...interface{}) {
	h.Infow(withType(msg, "startup", kvs)...)
}

// Success logs a completed operation.
func (h *LogHelper) Success(msg string, kvs ...interface{}) {
	h.Infow(withType(msg, "success", kvs)...)
}

// Database logs a storage operation at debug level.
func (h *LogHelper) Database(msg string, kvs ...interface{}) {
	h.Debugw(withType(msg, "database", kvs)...)
}

// Cache logs a cache operation at debug level.
func (h *LogHelper) Cache(msg string, kvs ...interface{}) {
	h.Debugw(withType(msg, "cache", kvs)...)
}

// Provider logs an outbound valuation provider call. Failed calls are
// logged at warn level.
func (h *LogHelper) Provider(ctx context.Context, provider, url string, status int, d time.Duration, callErr error) {
	msg := fmt.Sprintf("%s %s - %d (%dms)", provider, url, status, d.Milliseconds())
	kvs := []interface{}{
		"request_id", GetRequestID(ctx),
		"provider", provider,
		"provider_url", url,
		"status", status,
		"duration_ms", d.Milliseconds(),
	}
	if callErr != nil {
		kvs = append(kvs, "error", callErr.Error())
		h.Warnw(withType(msg, "provider", kvs)...)
		return
	}
	h.Infow(withType(msg, "provider", kvs)...)
}

// Failover logs a failover controller transition.
func (h *LogHelper) Failover(msg string, kvs ...interface{}) {
	h.Warnw(withType(msg, "failover", kvs)...)
}

// Request logs a served HTTP request and warns when it was slow.
func (h *LogHelper) Request(ctx context.Context, method, path string, status int, durationMs int64, kvs ...interface{}) {
	reqCtx := GetRequestContext(ctx)
	msg := fmt.Sprintf("%s %s - %d (%dms)", method, path, status, durationMs)

	all := append([]interface{}{
		"request_id", reqCtx.RequestID,
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", durationMs,
	}, kvs...)
	if reqCtx.VRM != "" {
		all = append(all, "vrm", reqCtx.VRM)
	}
	h.Infow(withType(msg, "request", all)...)

	if durationMs > slowRequestThreshold {
		h.Warnw(withType(fmt.Sprintf("slow request %s %s", method, path), "slow_request", []interface{}{
			"request_id", reqCtx.RequestID,
			"duration_ms", durationMs,
			"threshold_ms", slowRequestThreshold,
		})...)
	}
}
