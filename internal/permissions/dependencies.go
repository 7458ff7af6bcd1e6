package permissions

import (
	"fmt"
)

var (
	// ErrUnknownCapability indicates a capability lookup failed because it has not been registered.
	ErrUnknownCapability = fmt.Errorf("capability: unknown capability")
	// ErrCircularImplication signals that the implication graph contains a cycle.
	ErrCircularImplication = fmt.Errorf("capability: circular implication detected")
)

// ResolveImplied returns every capability transitively implied by capabilityID, excluding itself.
func (r *Registry) ResolveImplied(capabilityID string) ([]string, error) {
	root, ok := r.Get(capabilityID)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCapability, capabilityID)
	}

	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	var resolved []string

	var walk func(string) error
	walk = func(current string) error {
		capability, ok := r.Get(current)
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownCapability, current)
		}
		if recStack[current] {
			return fmt.Errorf("%w at %s", ErrCircularImplication, current)
		}
		if visited[current] {
			return nil
		}

		recStack[current] = true
		for _, implied := range capability.Implies {
			if err := walk(implied); err != nil {
				return err
			}
		}
		recStack[current] = false
		visited[current] = true

		if current != capabilityID {
			resolved = append(resolved, current)
		}
		return nil
	}

	recStack[capabilityID] = true
	for _, implied := range root.Implies {
		if err := walk(implied); err != nil {
			return nil, err
		}
	}

	return resolved, nil
}

// Expand returns the given capabilities together with everything they imply.
func (r *Registry) Expand(ids ...string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		implied, err := r.ResolveImplied(id)
		if err != nil {
			return nil, err
		}
		out[id] = struct{}{}
		for _, each := range implied {
			out[each] = struct{}{}
		}
	}
	return out, nil
}

// Implies reports whether holding granted also grants wanted.
func (r *Registry) Implies(granted, wanted string) (bool, error) {
	expanded, err := r.Expand(granted)
	if err != nil {
		return false, err
	}
	_, ok := expanded[wanted]
	return ok, nil
}
