package shares

import "encoding/json"

// SharedEntity describes an entity a grantee would need to see for a share to be useful.
type SharedEntity struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Title  string    `json:"title"`
	Owners []Grantee `json:"owners"`
}

// MarshalJSON renders a missing owner list as an empty array.
func (e SharedEntity) MarshalJSON() ([]byte, error) {
	type plain SharedEntity
	if e.Owners == nil {
		e.Owners = []Grantee{}
	}
	return json.Marshal(plain(e))
}

// MissingDependencies maps a grantee id to the dependencies it cannot see.
type MissingDependencies map[string][]SharedEntity

// Clone returns a deep copy.
func (m MissingDependencies) Clone() MissingDependencies {
	out := make(MissingDependencies, len(m))
	for granteeID, entities := range m {
		cp := make([]SharedEntity, len(entities))
		for i, entity := range entities {
			entity.Owners = append([]Grantee(nil), entity.Owners...)
			cp[i] = entity
		}
		out[granteeID] = cp
	}
	return out
}

// For returns the dependencies missing for one grantee.
func (m MissingDependencies) For(granteeID string) []SharedEntity {
	return append([]SharedEntity(nil), m[granteeID]...)
}
