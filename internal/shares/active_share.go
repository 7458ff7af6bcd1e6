package shares

import "fmt"

// ActiveShare is a persisted grant of a capability to a grantee.
type ActiveShare struct {
	Grant      string `json:"grant"`
	Grantee    string `json:"grantee"`
	Capability string `json:"capability"`
}

// NewActiveShare builds an ActiveShare; all three references are required.
func NewActiveShare(grant, grantee, capability string) (ActiveShare, error) {
	a := ActiveShare{Grant: grant, Grantee: grantee, Capability: capability}
	if err := a.validate(); err != nil {
		return ActiveShare{}, err
	}
	return a, nil
}

// WithCapability returns a copy of a carrying the given capability.
func (a ActiveShare) WithCapability(capability string) ActiveShare {
	a.Capability = capability
	return a
}

func (a ActiveShare) validate() error {
	switch {
	case a.Grant == "":
		return fmt.Errorf("active share: grant is required")
	case a.Grantee == "":
		return fmt.Errorf("active share %s: grantee is required", a.Grant)
	case a.Capability == "":
		return fmt.Errorf("active share %s: capability is required", a.Grant)
	}
	return nil
}

// findActiveShare returns the first active share for the grantee.
func findActiveShare(activeShares []ActiveShare, granteeID string) (ActiveShare, bool) {
	for _, share := range activeShares {
		if share.Grantee == granteeID {
			return share, true
		}
	}
	return ActiveShare{}, false
}
