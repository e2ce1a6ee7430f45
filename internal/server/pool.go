package server

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/harrison001/NexusBot/internal/metrics"
)

// updateDispatcher routes one parsed update. Implemented by bot.Dispatcher.
type updateDispatcher interface {
	Dispatch(ctx context.Context, update tgbotapi.Update)
}

// DispatchPool decouples webhook acknowledgement from update processing:
// the handler enqueues and returns while a fixed set of workers drains the
// queue. The queue is bounded so backpressure is explicit: Enqueue
// reports failure when full instead of growing without limit.
type DispatchPool struct {
	dispatcher updateDispatcher
	queue      chan tgbotapi.Update

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDispatchPool creates a pool with the given queue capacity and starts
// its workers.
func NewDispatchPool(dispatcher updateDispatcher, queueSize, workers int) *DispatchPool {
	p := &DispatchPool{
		dispatcher: dispatcher,
		queue:      make(chan tgbotapi.Update, queueSize),
		stopCh:     make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Enqueue hands an update to the pool without blocking. Returns false when
// the queue is full.
func (p *DispatchPool) Enqueue(update tgbotapi.Update) bool {
	select {
	case p.queue <- update:
		metrics.DispatchQueueDepth.Set(float64(len(p.queue)))
		return true
	default:
		return false
	}
}

// Stop terminates the workers after they finish their current update.
// Queued but unstarted updates are dropped; Telegram re-delivers them.
func (p *DispatchPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
}

func (p *DispatchPool) run() {
	defer p.wg.Done()
	for {
		select {
		case update := <-p.queue:
			metrics.DispatchQueueDepth.Set(float64(len(p.queue)))
			p.dispatch(update)
		case <-p.stopCh:
			return
		}
	}
}

// dispatch shields the worker from handler panics: one poisoned update
// must not take a worker down.
func (p *DispatchPool) dispatch(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while processing update", "update_id", update.UpdateID, "panic", r)
		}
	}()
	p.dispatcher.Dispatch(context.Background(), update)
}
