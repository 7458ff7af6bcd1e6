package shares

import (
	"errors"
	"strings"
)

// Capability is a named permission tier that can be granted on an entity.
type Capability struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NewCapability builds a Capability, rejecting an empty id.
func NewCapability(id, title string) (Capability, error) {
	c := Capability{ID: strings.TrimSpace(id), Title: title}
	if err := c.validate(); err != nil {
		return Capability{}, err
	}
	return c, nil
}

// WithTitle returns a copy of c carrying the given title.
func (c Capability) WithTitle(title string) Capability {
	c.Title = title
	return c
}

func (c Capability) validate() error {
	if c.ID == "" {
		return errors.New("capability: id is required")
	}
	return nil
}

// FindCapability returns the capability with the given id.
func FindCapability(capabilities []Capability, id string) (Capability, bool) {
	for _, c := range capabilities {
		if c.ID == id {
			return c, true
		}
	}
	return Capability{}, false
}
