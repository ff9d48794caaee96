package hooks

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/lanepay/lanepay/internal/domain/billing"
	domhook "github.com/lanepay/lanepay/internal/domain/hook"
	"github.com/lanepay/lanepay/internal/observability"
	"github.com/lanepay/lanepay/internal/observability/logctx"
)

const componentHooks = "hooks"

// Registry is the lifecycle event sink: a fixed set of named events, each
// with zero or more handlers invoked synchronously in registration order.
// Handler failures are logged and isolated; emission never fails the caller.
type Registry struct {
	mu        sync.RWMutex
	subs      map[string][]domhook.Handler
	log       observability.Logger
	emissions observability.Counter // hook_emissions_total{event,outcome}
}

func NewRegistry(logger observability.Logger, tel observability.Telemetry) *Registry {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	subs := make(map[string][]domhook.Handler, len(billing.EventNames()))
	for _, name := range billing.EventNames() {
		subs[name] = nil
	}
	return &Registry{
		subs:      subs,
		log:       logger.With(observability.F("component", componentHooks)),
		emissions: tel.Counter(observability.MHookEmissions),
	}
}

// Subscribe registers a handler for one of the fixed event names. Unknown
// names are ignored; the event set is part of the contract, so a miss is
// almost always a typo and gets a warning.
func (r *Registry) Subscribe(eventName string, h domhook.Handler) {
	if h == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, known := r.subs[eventName]; !known {
		r.log.Warn("hook_event_unknown",
			observability.F("event", eventName),
		)
		return
	}
	r.subs[eventName] = append(r.subs[eventName], h)
}

// Emit invokes every handler for the event, in registration order, on the
// calling goroutine.
func (r *Registry) Emit(ctx context.Context, e domhook.Event) {
	if e == nil {
		return
	}
	name := e.EventName()

	r.mu.RLock()
	handlers := append([]domhook.Handler(nil), r.subs[name]...)
	r.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	logger := logctx.FromOr(ctx, r.log).With(observability.F("event", name))
	for _, h := range handlers {
		r.invoke(ctx, logger, name, h, e)
	}
}

func (r *Registry) invoke(ctx context.Context, logger observability.Logger, name string, h domhook.Handler, e domhook.Event) {
	outcome := "success"
	defer func() {
		if rec := recover(); rec != nil {
			outcome = "panic"
			logger.Error("hook_handler_panic",
				observability.F("event", name),
				observability.F("panic", rec),
				observability.F("stack", string(debug.Stack())),
			)
		}
		r.emissions.Add(1,
			observability.L("event", name),
			observability.L("outcome", outcome),
		)
	}()

	if err := h(ctx, e); err != nil {
		outcome = "error"
		logger.Warn("hook_handler_error",
			observability.F("error", err),
		)
	}
}
