package permissions

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Capability is a grantable tier on an entity. Holding a capability also grants every
// capability it implies.
type Capability struct {
	ID          string
	Title       string
	Implies     []string
	Description string
}

// Registry holds the capabilities in registration order, which is also the order they are
// offered to sharing users.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]*Capability
	order        []string
}

var (
	errNilCapability   = errors.New("capability: nil definition")
	errEmptyID         = errors.New("capability: id is required")
	errDuplicateID     = errors.New("capability: already registered")
	errSelfImplication = errors.New("capability: cannot imply itself")
)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{capabilities: make(map[string]*Capability)}
}

// Register adds a capability definition.
func (r *Registry) Register(capability *Capability) error {
	if capability == nil {
		return errNilCapability
	}

	id := strings.TrimSpace(capability.ID)
	if id == "" {
		return errEmptyID
	}

	def := cloneCapability(capability)
	def.ID = id
	def.Title = strings.TrimSpace(def.Title)
	if def.Title == "" {
		def.Title = id
	}

	implies, err := normaliseIDs(def.Implies, id)
	if err != nil {
		return err
	}
	def.Implies = implies

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.capabilities[id]; exists {
		return fmt.Errorf("%w: %s", errDuplicateID, id)
	}

	r.capabilities[id] = def
	r.order = append(r.order, id)
	return nil
}

// Get returns a copy of the capability when registered.
func (r *Registry) Get(id string) (*Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	capability, ok := r.capabilities[id]
	if !ok {
		return nil, false
	}
	return cloneCapability(capability), true
}

// All returns copies of every capability in registration order.
func (r *Registry) All() []*Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Capability, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneCapability(r.capabilities[id]))
	}
	return out
}

// Validate ensures every implication references a known capability and that the graph has
// no cycles.
func (r *Registry) Validate() error {
	for _, capability := range r.All() {
		for _, implied := range capability.Implies {
			if _, ok := r.Get(implied); !ok {
				return fmt.Errorf("capability: %s implies unknown capability %s", capability.ID, implied)
			}
		}
		if _, err := r.ResolveImplied(capability.ID); err != nil {
			return err
		}
	}
	return nil
}

func cloneCapability(capability *Capability) *Capability {
	if capability == nil {
		return nil
	}

	cp := *capability
	if len(capability.Implies) > 0 {
		cp.Implies = append([]string(nil), capability.Implies...)
	}
	return &cp
}

func normaliseIDs(values []string, self string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(values))
	var result []string

	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if value == self {
			return nil, errSelfImplication
		}
		if _, exists := seen[value]; exists {
			continue
		}

		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result, nil
}
