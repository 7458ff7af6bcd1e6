package shares

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/buger/jsonparser"
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// GranteeCapability is one entry of a selection.
type GranteeCapability struct {
	GranteeID    string
	CapabilityID string
}

// GranteeCapabilities maps grantee ids to capability ids in insertion order.
// The zero value is an empty selection. Edits return a new value and leave the receiver untouched.
type GranteeCapabilities struct {
	m *linkedhashmap.Map
}

// NewGranteeCapabilities builds a selection from entries; a repeated grantee keeps its first position.
func NewGranteeCapabilities(entries ...GranteeCapability) GranteeCapabilities {
	m := linkedhashmap.New()
	for _, e := range entries {
		m.Put(e.GranteeID, e.CapabilityID)
	}
	return GranteeCapabilities{m: m}
}

// GranteeCapabilitiesFromMap builds a selection from a plain map, ordered by grantee id.
func GranteeCapabilitiesFromMap(values map[string]string) GranteeCapabilities {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	entries := make([]GranteeCapability, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, GranteeCapability{GranteeID: k, CapabilityID: values[k]})
	}
	return NewGranteeCapabilities(entries...)
}

// Len returns the number of selected grantees.
func (g GranteeCapabilities) Len() int {
	if g.m == nil {
		return 0
	}
	return g.m.Size()
}

// Get returns the capability selected for the grantee.
func (g GranteeCapabilities) Get(granteeID string) (string, bool) {
	if g.m == nil {
		return "", false
	}
	v, ok := g.m.Get(granteeID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Has reports whether the grantee is selected.
func (g GranteeCapabilities) Has(granteeID string) bool {
	_, ok := g.Get(granteeID)
	return ok
}

// Entries returns the selection in insertion order.
func (g GranteeCapabilities) Entries() []GranteeCapability {
	if g.m == nil {
		return nil
	}
	out := make([]GranteeCapability, 0, g.m.Size())
	it := g.m.Iterator()
	for it.Next() {
		out = append(out, GranteeCapability{GranteeID: it.Key().(string), CapabilityID: it.Value().(string)})
	}
	return out
}

// GranteeIDs returns the selected grantee ids in insertion order.
func (g GranteeCapabilities) GranteeIDs() []string {
	entries := g.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.GranteeID
	}
	return out
}

// ContainsCapability reports whether any grantee holds the capability.
func (g GranteeCapabilities) ContainsCapability(capabilityID string) bool {
	for _, e := range g.Entries() {
		if e.CapabilityID == capabilityID {
			return true
		}
	}
	return false
}

// Set returns a selection with the grantee mapped to the capability.
// An already selected grantee keeps its position.
func (g GranteeCapabilities) Set(granteeID, capabilityID string) GranteeCapabilities {
	m := g.clone()
	m.Put(granteeID, capabilityID)
	return GranteeCapabilities{m: m}
}

// Merge returns a selection with every entry of other applied on top of g.
func (g GranteeCapabilities) Merge(other GranteeCapabilities) GranteeCapabilities {
	m := g.clone()
	for _, e := range other.Entries() {
		m.Put(e.GranteeID, e.CapabilityID)
	}
	return GranteeCapabilities{m: m}
}

// Remove returns a selection without the grantee.
func (g GranteeCapabilities) Remove(granteeID string) GranteeCapabilities {
	m := g.clone()
	m.Remove(granteeID)
	return GranteeCapabilities{m: m}
}

// ToMap returns the selection as a plain map.
func (g GranteeCapabilities) ToMap() map[string]string {
	out := make(map[string]string, g.Len())
	for _, e := range g.Entries() {
		out[e.GranteeID] = e.CapabilityID
	}
	return out
}

// Equal reports whether both selections hold the same pairs, ignoring order.
func (g GranteeCapabilities) Equal(other GranteeCapabilities) bool {
	if g.Len() != other.Len() {
		return false
	}
	for _, e := range g.Entries() {
		if v, ok := other.Get(e.GranteeID); !ok || v != e.CapabilityID {
			return false
		}
	}
	return true
}

// MarshalJSON renders the selection as an object in insertion order.
func (g GranteeCapabilities) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range g.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.GranteeID)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.CapabilityID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keeping the document order of its keys.
func (g *GranteeCapabilities) UnmarshalJSON(data []byte) error {
	m := linkedhashmap.New()
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		g.m = m
		return nil
	}

	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType != jsonparser.String {
			return fmt.Errorf("capability for grantee %q must be a string", key)
		}
		capabilityID, err := jsonparser.ParseString(value)
		if err != nil {
			return fmt.Errorf("capability for grantee %q: %w", key, err)
		}
		m.Put(string(key), capabilityID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("selected grantee capabilities: %w", err)
	}

	g.m = m
	return nil
}

func (g GranteeCapabilities) clone() *linkedhashmap.Map {
	m := linkedhashmap.New()
	if g.m == nil {
		return m
	}
	it := g.m.Iterator()
	for it.Next() {
		m.Put(it.Key(), it.Value())
	}
	return m
}
