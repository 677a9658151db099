package health

import (
	"context"
	"fmt"
	"math"
	"runtime"
)

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// WarningThreshold is the percentage of allocated memory that triggers degraded status.
	// Value should be between 0 and 1. Default: 0.8 (80%)
	WarningThreshold float64

	// CriticalThreshold is the percentage of allocated memory that triggers unhealthy status.
	// Value should be between 0 and 1. Default: 0.95 (95%)
	CriticalThreshold float64

	// MaxAlloc is the maximum expected allocation in bytes.
	// If zero, uses the system's total memory (approximated).
	// Default: 0 (auto-detect)
	MaxAlloc uint64
}

// MemoryChecker reports heap usage against a ceiling.
type MemoryChecker struct {
	config MemoryCheckerConfig
}

// NewMemoryChecker creates a new memory health checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold + 0.1
		if config.CriticalThreshold > 1 {
			config.CriticalThreshold = 0.99
		}
	}

	return &MemoryChecker{config: config}
}

// Name returns the name of this checker.
func (m *MemoryChecker) Name() string {
	return "memory"
}

// Check performs the memory health check.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	maxAlloc := m.config.MaxAlloc
	if maxAlloc == 0 {
		// Without a configured ceiling, measure against memory obtained from the OS.
		maxAlloc = stats.Sys
	}

	if maxAlloc == 0 {
		return Healthy("memory stats unavailable").WithData(Data{
			{Key: "alloc_bytes", Value: stats.Alloc},
			{Key: "sys_bytes", Value: stats.Sys},
			{Key: "num_gc", Value: stats.NumGC},
		})
	}

	usageRatio := float64(stats.Alloc) / float64(maxAlloc)

	data := Data{
		{Key: "alloc_bytes", Value: stats.Alloc},
		{Key: "max_alloc_bytes", Value: maxAlloc},
		{Key: "usage_percent", Value: roundPercent(usageRatio)},
		{Key: "heap_in_use_bytes", Value: stats.HeapInuse},
		{Key: "heap_objects", Value: stats.HeapObjects},
		{Key: "num_gc", Value: stats.NumGC},
		{Key: "goroutines", Value: runtime.NumGoroutine()},
	}

	switch {
	case usageRatio >= m.config.CriticalThreshold:
		return Unhealthy(
			fmt.Sprintf("memory usage critical: %.1f%%", usageRatio*100),
			ErrCheckFailed,
		).WithData(data)
	case usageRatio >= m.config.WarningThreshold:
		return Degraded(
			fmt.Sprintf("memory usage high: %.1f%%", usageRatio*100),
		).WithData(data)
	default:
		return Healthy(
			fmt.Sprintf("memory usage normal: %.1f%%", usageRatio*100),
		).WithData(data)
	}
}

func roundPercent(ratio float64) float64 {
	return math.Round(ratio*1000) / 10
}

// ForceGC triggers a garbage collection before a measurement.
func (m *MemoryChecker) ForceGC() {
	runtime.GC()
}
