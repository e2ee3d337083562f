package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
)

// Stats is the snapshot a Profiler logs at the end of each interval.
type Stats struct {
	FPS              float64
	CommandsPerFrame float64
	HeapMB           float64
	AllocRateMB      float64
	SysMB            float64
	GCCount          uint32
	LastPauseUs      uint64
	MaxPauseUs       uint64
}

// Profiler tracks frame rate, executed pipeline commands and memory statistics for performance monitoring.
// Logs stats through the package logger at a configurable interval.
type Profiler struct {
	frameCount     int
	commandCount   int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		frameCount:     0,
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
}

// SetInterval sets how often Tick logs. Non-positive values log on every Tick.
func (p *Profiler) SetInterval(d time.Duration) {
	p.updateInterval = max(d, 0)
}

// AddCommands counts commands executed during the current frame.
func (p *Profiler) AddCommands(n int) {
	p.commandCount += n
}

// Last returns the stats logged by the most recent interval.
func (p *Profiler) Last() Stats {
	return p.last
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, commands per frame, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}
	seconds := max(elapsed.Seconds(), 1e-9)

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap bytes. TotalAlloc: cumulative heap bytes, tracks churn. Sys: bytes obtained from the OS.
	stats := Stats{
		FPS:              float64(p.frameCount) / seconds,
		CommandsPerFrame: float64(p.commandCount) / float64(p.frameCount),
		HeapMB:           float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:            float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB:      float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds,
		GCCount:          p.memStats.NumGC,
	}

	if gcCount := stats.GCCount; gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		stats.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			stats.MaxPauseUs = max(stats.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	common.Logger().Info("profiler",
		"fps", stats.FPS,
		"commands_per_frame", stats.CommandsPerFrame,
		"heap_mb", stats.HeapMB,
		"alloc_rate_mb_s", stats.AllocRateMB,
		"gc", stats.GCCount,
		"gc_last_us", stats.LastPauseUs,
		"gc_max_us", stats.MaxPauseUs,
		"sys_mb", stats.SysMB,
	)

	p.last = stats
	p.frameCount = 0
	p.commandCount = 0
	p.lastTime = currentTime
	p.lastGCCount = stats.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
