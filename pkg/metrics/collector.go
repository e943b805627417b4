package metrics

import (
	"context"
	"runtime"
	"time"
)

// StartSystemCollector samples runtime statistics until ctx is cancelled.
func StartSystemCollector(ctx context.Context) {
	go globalManager.collectSystem(ctx)
}

func (m *Manager) collectSystem(ctx context.Context) {
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()

	var lastNumGC uint32
	for {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		UpdateSystemMemoryUsage(ms.Alloc)
		UpdateSystemGoroutineCount(runtime.NumGoroutine())

		// PauseNs is a circular buffer of the most recent 256 pauses.
		for i := lastNumGC; i < ms.NumGC && ms.NumGC-i <= uint32(len(ms.PauseNs)); i++ {
			pause := ms.PauseNs[i%uint32(len(ms.PauseNs))]
			RecordSystemGCPauseTime(float64(pause) / float64(time.Millisecond))
		}
		lastNumGC = ms.NumGC

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
