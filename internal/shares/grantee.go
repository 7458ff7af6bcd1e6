package shares

import (
	"fmt"
	"strings"
)

// GranteeType classifies a principal.
type GranteeType string

const (
	// GranteeTypeError marks a selection whose grantee could not be resolved.
	GranteeTypeError GranteeType = "error"
	// GranteeTypeGlobal is the "everyone" pseudo principal.
	GranteeTypeGlobal GranteeType = "global"
	// GranteeTypeTeam is a team of users.
	GranteeTypeTeam GranteeType = "team"
	// GranteeTypeUser is a single user.
	GranteeTypeUser GranteeType = "user"
)

// granteeTypeOrder is the display priority of the type groups.
var granteeTypeOrder = []GranteeType{
	GranteeTypeError,
	GranteeTypeGlobal,
	GranteeTypeTeam,
	GranteeTypeUser,
}

// Valid reports whether t is one of the known grantee types.
func (t GranteeType) Valid() bool {
	for _, known := range granteeTypeOrder {
		if t == known {
			return true
		}
	}
	return false
}

// Principal is anything the ordering algorithm can place: Grantee and SelectedGrantee.
type Principal interface {
	PrincipalID() string
	PrincipalTitle() string
	PrincipalType() GranteeType
}

// Grantee is a principal that may receive a capability on an entity.
type Grantee struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Type  GranteeType `json:"type"`
}

// NewGrantee builds a Grantee, rejecting an empty id or an unknown type.
func NewGrantee(id, title string, granteeType GranteeType) (Grantee, error) {
	g := Grantee{ID: strings.TrimSpace(id), Title: title, Type: granteeType}
	if err := g.validate(); err != nil {
		return Grantee{}, err
	}
	return g, nil
}

// WithTitle returns a copy of g carrying the given title.
func (g Grantee) WithTitle(title string) Grantee {
	g.Title = title
	return g
}

// WithType returns a copy of g carrying the given type.
func (g Grantee) WithType(granteeType GranteeType) Grantee {
	g.Type = granteeType
	return g
}

func (g Grantee) PrincipalID() string { return g.ID }
func (g Grantee) PrincipalTitle() string { return g.Title }
func (g Grantee) PrincipalType() GranteeType { return g.Type }

func (g Grantee) validate() error {
	if g.ID == "" {
		return fmt.Errorf("grantee: id is required")
	}
	if !g.Type.Valid() {
		return fmt.Errorf("grantee %s: invalid type %q", g.ID, g.Type)
	}
	return nil
}
