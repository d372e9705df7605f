package intentpool

import (
	"sync"

	"github.com/google/uuid"

	"github.com/concave-dev/otto/internal/names"
)

// Model is a chat handle bound to one model identity.
type Model interface {
	Identity() string
}

// ModelFactory constructs model handles by identity.
type ModelFactory interface {
	Build(identity string) (Model, error)
}

// ModelFactoryFunc adapts a function to ModelFactory.
type ModelFactoryFunc func(identity string) (Model, error)

// Build calls f.
func (f ModelFactoryFunc) Build(identity string) (Model, error) {
	return f(identity)
}

// Processor is a stateful worker bound to one model identity. Its context
// (the declarer on whose behalf it acts) belongs to whoever holds it.
type Processor struct {
	ID    uuid.UUID
	Name  string
	Model Model

	modelID string

	mu      sync.Mutex
	context string

	// Guarded by the pool mutex
	idle   bool
	member bool
}

func newProcessor(modelID string, model Model, context string) *Processor {
	return &Processor{
		ID:      uuid.New(),
		Name:    names.ForModel(modelID),
		Model:   model,
		modelID: modelID,
		context: context,
	}
}

// ModelIdentity returns the model identity the processor was built for.
func (p *Processor) ModelIdentity() string {
	return p.modelID
}

// SetContext sets the declarer the processor acts for.
func (p *Processor) SetContext(declarer string) {
	p.mu.Lock()
	p.context = declarer
	p.mu.Unlock()
}

// Context returns the declarer the processor acts for.
func (p *Processor) Context() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.context
}
