// internal/app/system/workers/realtimesweep.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// IdleSweeper is implemented by the realtime hub.
type IdleSweeper interface {
	SweepIdle(idle time.Duration) int
}

// RealtimeSweep is a background worker that closes realtime clients that
// have been silent for too long.
type RealtimeSweep struct {
	hub           IdleSweeper
	log           *zap.Logger
	interval      time.Duration
	idleThreshold time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// NewRealtimeSweep creates a new sweep worker.
//
// Parameters:
//   - hub: the realtime hub
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 1 minute)
//   - idleThreshold: how long a client must be silent before it is closed (e.g., 2 minutes)
func NewRealtimeSweep(hub IdleSweeper, logger *zap.Logger, interval, idleThreshold time.Duration) *RealtimeSweep {
	return &RealtimeSweep{
		hub:           hub,
		log:           logger,
		interval:      interval,
		idleThreshold: idleThreshold,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *RealtimeSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("realtime sweep worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("idle_threshold", w.idleThreshold))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to call twice.
func (w *RealtimeSweep) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("realtime sweep worker stopped")
	})
}

func (w *RealtimeSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *RealtimeSweep) sweep() {
	if n := w.hub.SweepIdle(w.idleThreshold); n > 0 {
		w.log.Info("closed idle realtime clients", zap.Int("count", n))
	}
}
