package performance

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExportMetrics tracks clip export performance metrics
type ExportMetrics struct {
	TotalExports          int64
	FailedExports         int64
	TotalOutputSeconds    float64
	TotalTimeSavedSeconds float64
	TotalProcessingTime   time.Duration
	AvgProcessingTime     time.Duration
	MinProcessingTime     time.Duration
	MaxProcessingTime     time.Duration
	LastProcessingTime    time.Duration
	LastOutputSeconds     float64
	LastTimestamp         time.Time
}

// ExportTimer tracks timing for one export
type ExportTimer struct {
	StartTime      time.Time
	ProcessingTime time.Duration
}

// Monitor handles export performance tracking and reporting
type Monitor struct {
	logger    *zap.Logger
	metrics   ExportMetrics
	mu        sync.RWMutex
	benchmark bool
}

// NewMonitor creates a new performance monitor
func NewMonitor(logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		logger: logger,
		metrics: ExportMetrics{
			MinProcessingTime: time.Hour, // Initialize to large value
			LastTimestamp:     time.Now(),
		},
	}
}

// NewMonitorWithBenchmark creates a performance monitor with benchmark logging enabled
func NewMonitorWithBenchmark(logger *zap.Logger, benchmark bool) *Monitor {
	m := NewMonitor(logger)
	m.benchmark = benchmark
	return m
}

// StartExport begins timing one export
func (m *Monitor) StartExport() *ExportTimer {
	return &ExportTimer{StartTime: time.Now()}
}

// EndExport completes timing for a successful export and updates metrics
func (m *Monitor) EndExport(timer *ExportTimer, outputSeconds, timeSavedSeconds float64) {
	timer.ProcessingTime = time.Since(timer.StartTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.TotalExports++
	m.metrics.TotalOutputSeconds += outputSeconds
	m.metrics.TotalTimeSavedSeconds += timeSavedSeconds
	m.metrics.TotalProcessingTime += timer.ProcessingTime
	m.metrics.LastProcessingTime = timer.ProcessingTime
	m.metrics.LastOutputSeconds = outputSeconds
	m.metrics.LastTimestamp = time.Now()

	if timer.ProcessingTime < m.metrics.MinProcessingTime {
		m.metrics.MinProcessingTime = timer.ProcessingTime
	}
	if timer.ProcessingTime > m.metrics.MaxProcessingTime {
		m.metrics.MaxProcessingTime = timer.ProcessingTime
	}

	m.metrics.AvgProcessingTime = time.Duration(
		int64(m.metrics.TotalProcessingTime) / m.metrics.TotalExports,
	)

	if m.benchmark {
		m.logger.Info("export performance",
			zap.Duration("processing_time", timer.ProcessingTime),
			zap.Float64("output_seconds", outputSeconds),
			zap.Float64("time_saved_seconds", timeSavedSeconds),
			zap.Float64("speed_factor", outputSeconds/timer.ProcessingTime.Seconds()),
		)
	}
}

// RecordFailure counts an export that did not produce output
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.FailedExports++
	m.metrics.LastTimestamp = time.Now()
}

// GetMetrics returns a copy of current metrics
func (m *Monitor) GetMetrics() ExportMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.metrics
}

// Summary returns a formatted summary of export performance
func (m *Monitor) Summary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.metrics.TotalExports == 0 {
		return "No export metrics available"
	}

	return fmt.Sprintf(
		"Export Performance Summary:\n"+
			"  Total Exports: %d (%d failed)\n"+
			"  Avg Processing Time: %v\n"+
			"  Min/Max Processing Time: %v / %v\n"+
			"  Total Output Produced: %.1fs\n"+
			"  Total Silence Removed: %.1fs\n",
		m.metrics.TotalExports,
		m.metrics.FailedExports,
		m.metrics.AvgProcessingTime,
		m.metrics.MinProcessingTime,
		m.metrics.MaxProcessingTime,
		m.metrics.TotalOutputSeconds,
		m.metrics.TotalTimeSavedSeconds,
	)
}

// ResetMetrics clears all accumulated metrics
func (m *Monitor) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics = ExportMetrics{
		MinProcessingTime: time.Hour,
		LastTimestamp:     time.Now(),
	}

	m.logger.Info("export metrics reset")
}

// BenchmarkMode enables or disables per-export benchmark logging
func (m *Monitor) BenchmarkMode(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.benchmark = enabled
	m.logger.Info("benchmark mode", zap.Bool("enabled", enabled))
}

// LogCurrentMetrics logs the current export metrics
func (m *Monitor) LogCurrentMetrics() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.logger.Info("current export metrics",
		zap.Int64("total_exports", m.metrics.TotalExports),
		zap.Int64("failed_exports", m.metrics.FailedExports),
		zap.Duration("avg_processing_time", m.metrics.AvgProcessingTime),
		zap.Duration("last_processing_time", m.metrics.LastProcessingTime),
		zap.Float64("total_time_saved_seconds", m.metrics.TotalTimeSavedSeconds),
	)
}
