// Package service defines the interfaces for domain services.
package service

import (
	"time"
)

// Metrics defines the interface for collecting business metrics.
// This abstraction allows the application layer to remain independent of the specific monitoring implementation (e.g., Prometheus).
// Metrics 定义了收集业务指标的接口。
type Metrics interface {
	// RecordTokenCreate records a token creation attempt.
	// RecordTokenCreate 记录令牌创建。
	RecordTokenCreate(success bool, duration time.Duration, errorCode string)

	// RecordTokenVerify records a verification outcome; errorCode is empty on success.
	// RecordTokenVerify 记录令牌验证结果。
	RecordTokenVerify(success bool, duration time.Duration, errorCode string)

	// RecordParamValidation records a parameter validation outcome per type.
	// RecordParamValidation 记录参数校验结果。
	RecordParamValidation(paramType string, valid bool)

	// RecordRateLimitHit records an event when a rate limit is triggered.
	// RecordRateLimitHit 记录触发速率限制的事件。
	RecordRateLimitHit(scope string)

	// RecordCacheAccess records a cache hit or miss.
	// RecordCacheAccess 记录缓存命中或未命中。
	RecordCacheAccess(cacheType string, hit bool)
}
