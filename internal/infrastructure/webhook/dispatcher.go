package webhook

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	domhook "github.com/lanepay/lanepay/internal/domain/hook"
	"github.com/lanepay/lanepay/internal/observability"
	"github.com/lanepay/lanepay/internal/observability/logctx"
)

const componentWebhook = "webhook_dispatcher"

// Sender delivers a single billing event to an external consumer.
type Sender interface {
	Send(ctx context.Context, e domhook.Event) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, e domhook.Event) error

func (f SenderFunc) Send(ctx context.Context, e domhook.Event) error { return f(ctx, e) }

// Dispatcher decouples webhook delivery from the request path: hook handlers
// enqueue events and a background loop delivers them. The queue is in-memory
// and not durable; events still buffered at shutdown are dropped after the
// loop drains what it can.
type Dispatcher struct {
	mu        sync.Mutex // guards queue sends against close
	closed    bool
	queue     chan domhook.Event
	sender    Sender
	timeout   time.Duration
	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
	log       observability.Logger
}

func NewDispatcher(sender Sender, logger observability.Logger) *Dispatcher {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Dispatcher{
		queue:   make(chan domhook.Event, 1024),
		sender:  sender,
		timeout: 30 * time.Second,
		done:    make(chan struct{}),
		log:     logger.With(observability.F("component", componentWebhook)),
	}
}

// Handler returns a hook handler that enqueues events for delivery. It never
// blocks the emitting operation; a full queue or a stopped dispatcher drops
// the event with a warning.
func (d *Dispatcher) Handler() domhook.Handler {
	return func(ctx context.Context, e domhook.Event) error {
		if e == nil {
			return nil
		}

		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			logctx.FromOr(ctx, d.log).Warn("webhook_dispatcher_stopped_drop",
				observability.F("event", e.EventName()),
			)
			return nil
		}
		select {
		case d.queue <- e:
			d.mu.Unlock()
			return nil
		default:
			d.mu.Unlock()
			logctx.FromOr(ctx, d.log).Warn("webhook_queue_full",
				observability.F("event", e.EventName()),
			)
			return nil
		}
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		d.cancel = cancel
		go d.deliverLoop(bg)
		d.log.Info("webhook_dispatcher_started")
	})
}

func (d *Dispatcher) Stop(ctx context.Context) {
	d.stopOnce.Do(func() {
		// Flip the flag under the same lock handlers send under, so no
		// send can race the close below.
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.queue)
		select {
		case <-d.done:
		case <-ctx.Done():
		}
		if d.cancel != nil {
			d.cancel()
		}
		d.log.Info("webhook_dispatcher_stopped")
	})
}

func (d *Dispatcher) deliverLoop(ctx context.Context) {
	defer close(d.done)
	for e := range d.queue {
		d.deliver(ctx, e)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e domhook.Event) {
	name := e.EventName()
	logger := d.log.With(observability.F("event", name))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("webhook_sender_panic",
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, e); err != nil {
		logger.Warn("webhook_delivery_failed",
			observability.F("error", err),
		)
		return
	}
	logger.Debug("webhook_delivered")
}
