package shares

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// EntityShareState is the sharing configuration of one entity as seen by one sharing user:
// who may be selected, with which capabilities, what is granted today, and what the user
// currently wants. Values are immutable; use ToBuilder to derive a modified copy.
type EntityShareState struct {
	entity                      string
	availableGrantees           []Grantee
	availableCapabilities       []Capability
	activeShares                []ActiveShare
	selectedGranteeCapabilities GranteeCapabilities
	missingDependencies         MissingDependencies
	validationResult            ValidationResult
}

// Entity returns the GRN of the shared entity.
func (s *EntityShareState) Entity() string {
	return s.entity
}

// AvailableGrantees returns every selectable grantee, re-sorted on each call.
func (s *EntityShareState) AvailableGrantees() []Grantee {
	return SortAndOrderGrantees(slices.Clone(s.availableGrantees), nil)
}

// AvailableCapabilities returns the selectable capabilities in server order.
func (s *EntityShareState) AvailableCapabilities() []Capability {
	return slices.Clone(s.availableCapabilities)
}

// ActiveShares returns the persisted grants. It is nil when they have not been loaded.
func (s *EntityShareState) ActiveShares() []ActiveShare {
	return slices.Clone(s.activeShares)
}

// SelectedGranteeCapabilities returns the selection the user wants to apply.
func (s *EntityShareState) SelectedGranteeCapabilities() GranteeCapabilities {
	return s.selectedGranteeCapabilities
}

// MissingDependencies returns, per grantee, the dependencies it cannot see.
func (s *EntityShareState) MissingDependencies() MissingDependencies {
	return s.missingDependencies.Clone()
}

// ValidationResult returns the server verdict on the selection.
func (s *EntityShareState) ValidationResult() ValidationResult {
	return s.validationResult.Clone()
}

// SelectedGrantees joins the selection with the available grantees and orders the result
// with the active shares, so grantees added since the last save come first. A selection
// whose grantee is unknown becomes an error grantee. The view is rebuilt on every call.
func (s *EntityShareState) SelectedGrantees() []SelectedGrantee {
	lookup := make(map[string]Grantee, len(s.availableGrantees))
	for _, g := range s.availableGrantees {
		if _, ok := lookup[g.ID]; !ok {
			lookup[g.ID] = g
		}
	}

	entries := s.selectedGranteeCapabilities.Entries()
	selected := make([]SelectedGrantee, 0, len(entries))
	for _, e := range entries {
		g, ok := lookup[e.GranteeID]
		if !ok {
			selected = append(selected, unresolvedGrantee(e.GranteeID, e.CapabilityID))
			continue
		}
		selected = append(selected, NewSelectedGrantee(g.ID, g.Title, g.Type, e.CapabilityID))
	}

	return SortAndOrderGrantees(selected, s.activeShares)
}

// UnselectedGrantees returns the available grantees that are not part of the selection.
func (s *EntityShareState) UnselectedGrantees() []Grantee {
	var out []Grantee
	for _, g := range s.AvailableGrantees() {
		if !s.selectedGranteeCapabilities.Has(g.ID) {
			out = append(out, g)
		}
	}
	return out
}

// HasErrorGrantees reports whether the selection references unknown grantees.
func (s *EntityShareState) HasErrorGrantees() bool {
	for _, g := range s.SelectedGrantees() {
		if g.Type == GranteeTypeError {
			return true
		}
	}
	return false
}

// ToBuilder returns a builder seeded with the state's values.
func (s *EntityShareState) ToBuilder() Builder {
	return Builder{state: *s}
}

// NewBuilder returns an empty builder.
func NewBuilder() Builder {
	return Builder{}
}

// Builder assembles an EntityShareState. Every setter returns a new Builder.
type Builder struct {
	state EntityShareState
}

func (b Builder) Entity(entity string) Builder {
	b.state.entity = entity
	return b
}

func (b Builder) AvailableGrantees(grantees []Grantee) Builder {
	b.state.availableGrantees = slices.Clone(grantees)
	return b
}

func (b Builder) AvailableCapabilities(capabilities []Capability) Builder {
	b.state.availableCapabilities = slices.Clone(capabilities)
	return b
}

// ActiveShares sets the persisted grants; nil means "not loaded".
func (b Builder) ActiveShares(activeShares []ActiveShare) Builder {
	b.state.activeShares = slices.Clone(activeShares)
	return b
}

func (b Builder) SelectedGranteeCapabilities(selection GranteeCapabilities) Builder {
	b.state.selectedGranteeCapabilities = selection
	return b
}

func (b Builder) MissingDependencies(missing MissingDependencies) Builder {
	b.state.missingDependencies = missing.Clone()
	return b
}

func (b Builder) ValidationResult(result ValidationResult) Builder {
	b.state.validationResult = result.Clone()
	return b
}

// Build validates the collected values and returns a new state.
func (b Builder) Build() (*EntityShareState, error) {
	s := b.state
	if err := s.validate(); err != nil {
		return nil, err
	}

	out := &EntityShareState{
		entity:                      s.entity,
		availableGrantees:           SortAndOrderGrantees(slices.Clone(s.availableGrantees), nil),
		availableCapabilities:       slices.Clone(s.availableCapabilities),
		activeShares:                slices.Clone(s.activeShares),
		selectedGranteeCapabilities: s.selectedGranteeCapabilities,
		missingDependencies:         s.missingDependencies.Clone(),
		validationResult:            s.validationResult.Clone(),
	}
	return out, nil
}

func (s *EntityShareState) validate() error {
	var errs []error

	if strings.TrimSpace(s.entity) == "" {
		errs = append(errs, errors.New("entity is required"))
	}
	for _, g := range s.availableGrantees {
		if err := g.validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range s.availableCapabilities {
		if err := c.validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, a := range s.activeShares {
		if err := a.validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, e := range s.selectedGranteeCapabilities.Entries() {
		if e.GranteeID == "" || e.CapabilityID == "" {
			errs = append(errs, fmt.Errorf("selection %q: grantee and capability are required", e.GranteeID))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("entity share state: %w", errors.Join(errs...))
	}
	return nil
}

// stateJSON is the wire shape exchanged with the sharing endpoints.
type stateJSON struct {
	Entity                           string              `json:"entity"`
	AvailableGrantees                []Grantee           `json:"available_grantees"`
	AvailableCapabilities            []Capability        `json:"available_capabilities"`
	ActiveShares                     []ActiveShare       `json:"active_shares"`
	SelectedGranteeCapabilities      GranteeCapabilities `json:"selected_grantee_capabilities"`
	MissingPermissionsOnDependencies MissingDependencies `json:"missing_permissions_on_dependencies"`
	ValidationResult                 ValidationResult    `json:"validation_result"`
}

// FromJSON decodes a wire payload into a validated state.
func FromJSON(data []byte) (*EntityShareState, error) {
	var s EntityShareState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// MarshalJSON renders the wire payload. Unloaded collections are rendered empty.
func (s *EntityShareState) MarshalJSON() ([]byte, error) {
	wire := stateJSON{
		Entity:                           s.entity,
		AvailableGrantees:                s.AvailableGrantees(),
		AvailableCapabilities:            s.AvailableCapabilities(),
		ActiveShares:                     s.ActiveShares(),
		SelectedGranteeCapabilities:      s.selectedGranteeCapabilities,
		MissingPermissionsOnDependencies: s.MissingDependencies(),
		ValidationResult:                 s.validationResult,
	}
	if wire.AvailableGrantees == nil {
		wire.AvailableGrantees = []Grantee{}
	}
	if wire.AvailableCapabilities == nil {
		wire.AvailableCapabilities = []Capability{}
	}
	if wire.ActiveShares == nil {
		wire.ActiveShares = []ActiveShare{}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes and validates a wire payload.
func (s *EntityShareState) UnmarshalJSON(data []byte) error {
	var wire stateJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("entity share state: decode: %w", err)
	}

	built, err := NewBuilder().
		Entity(wire.Entity).
		AvailableGrantees(wire.AvailableGrantees).
		AvailableCapabilities(wire.AvailableCapabilities).
		ActiveShares(wire.ActiveShares).
		SelectedGranteeCapabilities(wire.SelectedGranteeCapabilities).
		MissingDependencies(wire.MissingPermissionsOnDependencies).
		ValidationResult(wire.ValidationResult).
		Build()
	if err != nil {
		return err
	}

	*s = *built
	return nil
}
