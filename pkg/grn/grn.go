package grn

import (
	"errors"
	"fmt"
	"strings"
)

const (
	prefix    = "grn"
	separator = ":"
	partCount = 6
)

var (
	// ErrInvalid reports a string that is not a well-formed GRN.
	ErrInvalid = errors.New("grn: invalid resource name")
	// ErrUnknownType reports a GRN whose type is not registered.
	ErrUnknownType = errors.New("grn: unknown type")
)

// GRN is a global resource name of the form grn:<cluster>:<tenant>:<scope>:<type>:<entity>.
type GRN struct {
	Cluster string
	Tenant  string
	Scope   string
	Type    string
	Entity  string
}

// Parse decodes a GRN string. The entity part may contain separators.
func Parse(value string) (GRN, error) {
	value = strings.TrimSpace(value)
	parts := strings.SplitN(value, separator, partCount)
	if len(parts) != partCount || parts[0] != prefix {
		return GRN{}, fmt.Errorf("%w: %q", ErrInvalid, value)
	}
	if parts[4] == "" || parts[5] == "" {
		return GRN{}, fmt.Errorf("%w: %q", ErrInvalid, value)
	}
	return GRN{
		Cluster: parts[1],
		Tenant:  parts[2],
		Scope:   parts[3],
		Type:    parts[4],
		Entity:  parts[5],
	}, nil
}

// MustParse is Parse for package-level constants.
func MustParse(value string) GRN {
	g, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return g
}

// New builds a GRN of the given type and entity in the default cluster, tenant and scope.
func New(grnType, entity string) GRN {
	return GRN{Type: grnType, Entity: entity}
}

// String renders the canonical form.
func (g GRN) String() string {
	return strings.Join([]string{prefix, g.Cluster, g.Tenant, g.Scope, g.Type, g.Entity}, separator)
}

// IsZero reports whether g carries no type and entity.
func (g GRN) IsZero() bool {
	return g.Type == "" && g.Entity == ""
}

// MarshalText implements encoding.TextMarshaler.
func (g GRN) MarshalText() ([]byte, error) {
	if g.IsZero() {
		return []byte{}, nil
	}
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GRN) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*g = GRN{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
