package alert

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher fans out events to matching webhook configurations.
type Dispatcher struct {
	configs []Config
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher from webhook configurations.
// Returns nil if configs is empty; a nil Dispatcher drops every event.
func NewDispatcher(configs []Config, log *zap.Logger) *Dispatcher {
	if len(configs) == 0 {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{configs: configs, log: log}
}

// Dispatch sends the event to all webhooks whose Events list matches.
// Delivery runs in the background.
func (d *Dispatcher) Dispatch(event Event) {
	if d == nil {
		return
	}
	for _, cfg := range d.configs {
		if !matches(cfg.Events, event) {
			continue
		}
		d.wg.Add(1)
		go func(cfg Config) {
			defer d.wg.Done()
			if err := Send(context.Background(), cfg, event); err != nil {
				d.log.Warn("alert delivery failed",
					zap.String("url", cfg.URL),
					zap.String("eval_id", event.EvalID),
					zap.Error(err))
			}
		}(cfg)
	}
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// An empty Events list matches every block.
func matches(events []string, event Event) bool {
	if len(events) == 0 {
		return true
	}
	for _, e := range events {
		if e == EventBlock || e == event.Category {
			return true
		}
	}
	return false
}
