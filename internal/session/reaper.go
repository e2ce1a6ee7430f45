package session

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/harrison001/NexusBot/internal/metrics"
)

// Reaper periodically evicts sessions whose last activity exceeds the idle
// threshold. The first sweep runs one full interval after Start, and the
// sweep loop is decoupled from request traffic.
type Reaper struct {
	store    *Store
	clock    clockwork.Clock
	interval time.Duration
	idleTTL  time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewReaper creates a reaper sweeping store every interval, evicting
// sessions idle for longer than idleTTL.
func NewReaper(store *Store, clock clockwork.Clock, interval, idleTTL time.Duration) *Reaper {
	return &Reaper{
		store:    store,
		clock:    clock,
		interval: interval,
		idleTTL:  idleTTL,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (r *Reaper) Start() {
	ticker := r.clock.NewTicker(r.interval)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ticker.Chan():
				r.Sweep()
			case <-r.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
	slog.Info("Session reaper started", "interval", r.interval, "idle_ttl", r.idleTTL)
}

// Stop terminates the sweep loop and waits for an in-flight sweep to finish.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.wg.Wait()
}

// Sweep runs one reaper cycle: evict every session idle past the
// threshold, then report. The live session count is always reported as it
// is the store's sole capacity signal.
func (r *Reaper) Sweep() {
	metrics.ReaperScansTotal.Inc()

	cutoff := r.clock.Now().Add(-r.idleTTL)
	evicted := r.store.EvictIdle(cutoff)

	if evicted > 0 {
		metrics.SessionsEvictedTotal.Add(float64(evicted))
		slog.Info("Evicted expired sessions", "evicted", evicted, "rss_mb", residentMemoryMB())
	} else {
		slog.Info("No expired sessions to evict")
	}

	live := r.store.Len()
	metrics.LiveSessions.Set(float64(live))
	slog.Info("Live sessions", "count", live)
}

// residentMemoryMB returns the current process RSS in megabytes, or -1 if
// it cannot be determined.
func residentMemoryMB() float64 {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return -1
	}
	mem, err := p.MemoryInfo()
	if err != nil || mem == nil {
		return -1
	}
	return float64(mem.RSS) / 1024 / 1024
}
