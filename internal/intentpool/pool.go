// Package intentpool keeps a fixed-size pool of warm intent processors
// spread across a configured set of model identities.
//
// WARM-UP:
// Warm builds size/len(models) processors per model (integer division, so a
// remainder leaves the pool under-provisioned). Warm-up processors start with
// the administrative context.
//
// ACQUIRE:
// An idle processor of the requested model is handed out directly. On a miss
// one idle processor of another model is evicted and a fresh processor is
// built for the requested model; the fresh one takes the evicted slot when it
// is released. Eviction picks the model with the most idle processors (ties
// broken by model name) and takes its longest-idle processor. With nothing
// idle the fresh processor is an overflow worker. Callers never wait for a
// worker.
//
// RELEASE:
// Every released processor goes back to its model's idle queue. Nothing is
// destroyed on release; an overflow worker joins the pool, so members may
// exceed the configured size after a burst.
//
// Removal and hand-off happen under one mutex, so two concurrent callers
// never receive the same processor. Model construction runs outside the
// mutex; if it fails the evicted processor is restored.
package intentpool

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/concave-dev/otto/internal/logging"
)

// WarmContext is the context warm-up processors start with.
const WarmContext = "admin"

// Pool hands out processors per model.
type Pool struct {
	size    int
	models  []string
	factory ModelFactory

	mu      sync.Mutex
	idle    map[string][]*Processor // per-model FIFO of idle processors
	members int                     // processors counted against size, idle or busy
}

// WorkerInfo describes one idle processor.
type WorkerInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Model   string `json:"model"`
	Context string `json:"context"`
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Size    int            `json:"size"`
	Members int            `json:"members"`
	Idle    map[string]int `json:"idle"`
	Workers []WorkerInfo   `json:"workers"`
}

// New creates an empty pool. Call Warm to populate it.
func New(size int, models []string, factory ModelFactory) (*Pool, error) {
	if size < 0 {
		return nil, fmt.Errorf("pool size cannot be negative, got %d", size)
	}
	if len(models) == 0 {
		return nil, errors.New("pool requires at least one model")
	}
	if factory == nil {
		return nil, errors.New("pool requires a model factory")
	}

	return &Pool{
		size:    size,
		models:  slices.Clone(models),
		factory: factory,
		idle:    make(map[string][]*Processor),
	}, nil
}

// Size returns the configured pool size.
func (p *Pool) Size() int {
	return p.size
}

// Models returns the configured model identities.
func (p *Pool) Models() []string {
	return slices.Clone(p.models)
}

// Warm builds the initial processors. A model that cannot be built is
// skipped and reported in the joined error; the others are still added.
func (p *Pool) Warm(ctx context.Context) error {
	perModel := p.size / len(p.models)
	if perModel == 0 {
		logging.Warn("Pool size %d is smaller than model count %d, no processors warmed", p.size, len(p.models))
		return nil
	}

	var errs []error
	for _, modelID := range p.models {
		for range perModel {
			if err := ctx.Err(); err != nil {
				return err
			}

			model, err := p.factory.Build(modelID)
			if err != nil {
				errs = append(errs, &ModelUnavailableError{Model: modelID, Err: err})
				break
			}

			proc := newProcessor(modelID, model, WarmContext)
			p.mu.Lock()
			proc.member = true
			p.members++
			p.pushIdle(proc)
			p.mu.Unlock()
		}
	}

	p.mu.Lock()
	logging.Info("Intent processor pool warmed: %d processors across %d models", p.members, len(p.models))
	p.mu.Unlock()

	return errors.Join(errs...)
}

// Acquire returns a processor for model. It only fails when a new processor
// has to be built and the model cannot be constructed.
func (p *Pool) Acquire(ctx context.Context, model string) (*Processor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if proc := p.popIdle(model); proc != nil {
		p.mu.Unlock()
		acquireTotal.WithLabelValues(model, "hit").Inc()
		logging.Debug("Acquired processor %s for %s", proc.Name, model)
		return proc, nil
	}

	// The evicted processor's membership moves to the fresh one, so the slot
	// stays reserved while the model is built outside the lock
	evicted := p.evict()
	p.mu.Unlock()

	logging.Info("No idle processor for model %s, creating new instance", model)

	built, err := p.factory.Build(model)
	if err != nil {
		if evicted != nil {
			p.mu.Lock()
			p.restoreIdle(evicted)
			p.mu.Unlock()
		}
		acquireTotal.WithLabelValues(model, "error").Inc()
		return nil, &ModelUnavailableError{Model: model, Err: err}
	}

	proc := newProcessor(model, built, "")
	if evicted != nil {
		evicted.member = false
		proc.member = true
		evictionsTotal.WithLabelValues(evicted.modelID).Inc()
		logging.Debug("Evicted idle %s processor %s for %s", evicted.modelID, evicted.Name, model)
	}

	acquireTotal.WithLabelValues(model, "miss").Inc()
	return proc, nil
}

// Release returns proc to its model's idle queue. Nil and already idle
// processors are ignored. An overflow processor becomes a pool member.
func (p *Pool) Release(proc *Processor) {
	if proc == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if proc.idle {
		logging.Debug("Ignoring release of idle processor %s", proc.Name)
		return
	}

	if !proc.member {
		proc.member = true
		p.members++
		logging.Debug("Overflow processor %s joined the pool (%d members)", proc.Name, p.members)
	}

	p.pushIdle(proc)
}

// Stats returns idle counts per model and the idle processors.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := Stats{
		Size:    p.size,
		Members: p.members,
		Idle:    make(map[string]int, len(p.idle)),
		Workers: []WorkerInfo{},
	}
	for _, model := range p.modelsWithIdle() {
		stats.Idle[model] = len(p.idle[model])
		for _, proc := range p.idle[model] {
			stats.Workers = append(stats.Workers, WorkerInfo{
				ID:      proc.ID.String(),
				Name:    proc.Name,
				Model:   model,
				Context: proc.Context(),
			})
		}
	}
	return stats
}

// Caller holds p.mu for the helpers below.

func (p *Pool) pushIdle(proc *Processor) {
	proc.idle = true
	p.idle[proc.modelID] = append(p.idle[proc.modelID], proc)
	idleWorkers.WithLabelValues(proc.modelID).Set(float64(len(p.idle[proc.modelID])))
}

func (p *Pool) restoreIdle(proc *Processor) {
	proc.idle = true
	p.idle[proc.modelID] = append([]*Processor{proc}, p.idle[proc.modelID]...)
	idleWorkers.WithLabelValues(proc.modelID).Set(float64(len(p.idle[proc.modelID])))
}

func (p *Pool) popIdle(model string) *Processor {
	queue := p.idle[model]
	if len(queue) == 0 {
		return nil
	}

	proc := queue[0]
	queue[0] = nil
	p.idle[model] = queue[1:]
	if len(p.idle[model]) == 0 {
		delete(p.idle, model)
	}

	proc.idle = false
	idleWorkers.WithLabelValues(model).Set(float64(len(p.idle[model])))
	return proc
}

// evict removes the longest-idle processor of the model with the most idle
// processors, or returns nil when nothing is idle.
func (p *Pool) evict() *Processor {
	victim := ""
	for _, model := range p.modelsWithIdle() {
		if victim == "" || len(p.idle[model]) > len(p.idle[victim]) {
			victim = model
		}
	}
	if victim == "" {
		return nil
	}
	return p.popIdle(victim)
}

func (p *Pool) modelsWithIdle() []string {
	models := make([]string, 0, len(p.idle))
	for model, queue := range p.idle {
		if len(queue) > 0 {
			models = append(models, model)
		}
	}
	slices.Sort(models)
	return models
}
