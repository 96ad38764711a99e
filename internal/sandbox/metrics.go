package sandbox

import (
	"sync/atomic"
	"time"
)

// Metrics는 sandbox 실행 메트릭을 수집합니다.
type Metrics struct {
	RunsTotal     int64
	RunsRejected  int64
	RunsSucceeded int64
	RunsFailed    int64
	RunsTimedOut  int64
	ErrorsTotal   int64

	// 타이밍 메트릭
	TotalExecutionTime int64 // 나노초
	ExecutedCount      int64
}

// RecordRejected는 정책에 의해 거부된 실행을 기록합니다.
func (m *Metrics) RecordRejected() {
	atomic.AddInt64(&m.RunsTotal, 1)
	atomic.AddInt64(&m.RunsRejected, 1)
}

// RecordExecution은 완료된 실행을 기록합니다.
func (m *Metrics) RecordExecution(result Result) {
	atomic.AddInt64(&m.RunsTotal, 1)
	atomic.AddInt64(&m.ExecutedCount, 1)
	atomic.AddInt64(&m.TotalExecutionTime, int64(result.Duration))

	switch {
	case result.TimedOut:
		atomic.AddInt64(&m.RunsTimedOut, 1)
	case result.ExitCode == 0:
		atomic.AddInt64(&m.RunsSucceeded, 1)
	default:
		atomic.AddInt64(&m.RunsFailed, 1)
	}
}

// RecordError는 인프라 에러를 기록합니다.
func (m *Metrics) RecordError() {
	atomic.AddInt64(&m.RunsTotal, 1)
	atomic.AddInt64(&m.ErrorsTotal, 1)
}

// GetSnapshot은 현재 메트릭 스냅샷을 반환합니다.
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RunsTotal:          atomic.LoadInt64(&m.RunsTotal),
		RunsRejected:       atomic.LoadInt64(&m.RunsRejected),
		RunsSucceeded:      atomic.LoadInt64(&m.RunsSucceeded),
		RunsFailed:         atomic.LoadInt64(&m.RunsFailed),
		RunsTimedOut:       atomic.LoadInt64(&m.RunsTimedOut),
		ErrorsTotal:        atomic.LoadInt64(&m.ErrorsTotal),
		AvgExecutionTimeMs: m.calculateAvgExecutionTime(),
	}
}

// Reset은 모든 메트릭을 초기화합니다.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RunsTotal, 0)
	atomic.StoreInt64(&m.RunsRejected, 0)
	atomic.StoreInt64(&m.RunsSucceeded, 0)
	atomic.StoreInt64(&m.RunsFailed, 0)
	atomic.StoreInt64(&m.RunsTimedOut, 0)
	atomic.StoreInt64(&m.ErrorsTotal, 0)
	atomic.StoreInt64(&m.TotalExecutionTime, 0)
	atomic.StoreInt64(&m.ExecutedCount, 0)
}

func (m *Metrics) calculateAvgExecutionTime() float64 {
	executed := atomic.LoadInt64(&m.ExecutedCount)
	if executed == 0 {
		return 0
	}
	totalNs := atomic.LoadInt64(&m.TotalExecutionTime)
	return float64(totalNs) / float64(executed) / float64(time.Millisecond)
}

// MetricsSnapshot은 메트릭 스냅샷입니다.
type MetricsSnapshot struct {
	RunsTotal          int64   `json:"runs_total"`
	RunsRejected       int64   `json:"runs_rejected"`
	RunsSucceeded      int64   `json:"runs_succeeded"`
	RunsFailed         int64   `json:"runs_failed"`
	RunsTimedOut       int64   `json:"runs_timed_out"`
	ErrorsTotal        int64   `json:"errors_total"`
	AvgExecutionTimeMs float64 `json:"avg_execution_time_ms"`
}
