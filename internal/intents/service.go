// Package intents fulfils declared intents: it borrows a processor for the
// requested model, lets the configured engine turn the intent into network
// operations and records the outcome in the intent history.
package intents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/concave-dev/otto/internal/history"
	"github.com/concave-dev/otto/internal/intentpool"
	"github.com/concave-dev/otto/internal/logging"
)

// ErrNoEngine is returned by Declare when no engine is configured.
var ErrNoEngine = errors.New("no intent engine configured")

// ErrEmptyIntent is returned for a blank intent.
var ErrEmptyIntent = errors.New("intent cannot be empty")

// Result is what an engine produced for one intent.
type Result struct {
	Message    string   `json:"message"`
	Operations []string `json:"operations"`
}

// Engine turns one intent into network operations using proc's model. The
// processor's context names the declarer.
type Engine interface {
	Fulfil(ctx context.Context, proc *intentpool.Processor, intent string) (Result, error)
}

// Pool is the processor pool surface the service needs.
type Pool interface {
	Acquire(ctx context.Context, model string) (*intentpool.Processor, error)
	Release(proc *intentpool.Processor)
}

// Recorder is the history surface the service needs.
type Recorder interface {
	Save(ctx context.Context, intent, declarer string, operations []string, timestamp time.Time, opts ...history.SaveOption) (history.Record, error)
}

// Request is one declared intent.
type Request struct {
	Intent   string
	Declarer string
	Model    string // empty selects the service default
}

// Service wires the pool, engine and history together.
type Service struct {
	pool         Pool
	engine       Engine
	history      Recorder
	defaultModel string
	now          func() time.Time
}

// NewService creates a service. engine may be nil, in which case Declare
// fails with ErrNoEngine.
func NewService(pool Pool, engine Engine, recorder Recorder, defaultModel string) *Service {
	return &Service{
		pool:         pool,
		engine:       engine,
		history:      recorder,
		defaultModel: defaultModel,
		now:          time.Now,
	}
}

// HasEngine reports whether Declare can fulfil intents.
func (s *Service) HasEngine() bool {
	return s.engine != nil
}

// Declare fulfils req and records it. The processor is always returned to
// the pool; the history record is written only when the engine succeeded.
func (s *Service) Declare(ctx context.Context, req Request) (Result, error) {
	if s.engine == nil {
		return Result{}, ErrNoEngine
	}
	if strings.TrimSpace(req.Intent) == "" {
		return Result{}, ErrEmptyIntent
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	proc, err := s.pool.Acquire(ctx, model)
	if err != nil {
		return Result{}, err
	}

	proc.SetContext(req.Declarer)
	result, err := s.fulfil(ctx, proc, req.Intent)
	s.pool.Release(proc)
	if err != nil {
		return Result{}, fmt.Errorf("fulfil intent with %s: %w", model, err)
	}
	if result.Operations == nil {
		result.Operations = []string{}
	}

	if _, err := s.history.Save(ctx, req.Intent, req.Declarer, result.Operations, s.now(), history.WithModel(model)); err != nil {
		return result, err
	}

	logging.Info("Intent from %s fulfilled by %s with %d operations", req.Declarer, proc.Name, len(result.Operations))
	return result, nil
}

// fulfil runs the engine, turning a panic into an error so the processor is
// still released.
func (s *Service) fulfil(ctx context.Context, proc *intentpool.Processor, intent string) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("intent engine panicked: %v", r)
		}
	}()
	return s.engine.Fulfil(ctx, proc, intent)
}
