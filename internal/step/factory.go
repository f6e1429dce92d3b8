package step

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ErrTypeNotRegistered is returned when a workflow names a step type no
// constructor was registered for. It is a configuration error and surfaces
// before any step executes.
var ErrTypeNotRegistered = errors.New("step type not registered")

// Constructor builds a step instance from its declaration.
type Constructor func(name, description string, config map[string]any) (Step, error)

// Factory maps string type tags to step constructors. It decouples the
// engine, which only runs a list of steps, from the concrete step
// implementations the surrounding application supplies.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]Constructor)}
}

// Register associates a type tag with a constructor.
func (f *Factory) Register(typeTag string, ctor Constructor) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if typeTag == "" {
		return errors.New("step type tag must not be empty")
	}
	if ctor == nil {
		return errors.Errorf("constructor for step type %q is nil", typeTag)
	}
	if _, exists := f.constructors[typeTag]; exists {
		return errors.Errorf("step type %q already registered", typeTag)
	}
	f.constructors[typeTag] = ctor
	return nil
}

// Create instantiates a registered step type.
func (f *Factory) Create(typeTag, name, description string, config map[string]any) (Step, error) {
	f.mu.RLock()
	ctor, ok := f.constructors[typeTag]
	f.mu.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrTypeNotRegistered, "step type %q", typeTag)
	}
	s, err := ctor(name, description, config)
	if err != nil {
		return nil, errors.WithMessagef(err, "creating step %q of type %q", name, typeTag)
	}
	return s, nil
}

// Has checks whether a type tag is registered.
func (f *Factory) Has(typeTag string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, ok := f.constructors[typeTag]
	return ok
}

// Types returns the registered type tags in sorted order.
func (f *Factory) Types() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	tags := make([]string, 0, len(f.constructors))
	for tag := range f.constructors {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
