package shares

import "fmt"

// CurrentState classifies a selected grantee against the active shares.
type CurrentState string

const (
	CurrentStateNew       CurrentState = "new"
	CurrentStateChanged   CurrentState = "changed"
	CurrentStateUnchanged CurrentState = "unchanged"
)

// SelectedGrantee joins a grantee with the capability currently selected for it.
// It is derived from EntityShareState and never sent over the wire.
type SelectedGrantee struct {
	Grantee
	CapabilityID string `json:"capability_id"`
}

// NewSelectedGrantee builds a SelectedGrantee without validation; error grantees are legal here.
func NewSelectedGrantee(id, title string, granteeType GranteeType, capabilityID string) SelectedGrantee {
	return SelectedGrantee{
		Grantee:      Grantee{ID: id, Title: title, Type: granteeType},
		CapabilityID: capabilityID,
	}
}

func unresolvedGrantee(granteeID, capabilityID string) SelectedGrantee {
	return NewSelectedGrantee(granteeID, fmt.Sprintf("not found %s (error)", granteeID), GranteeTypeError, capabilityID)
}

// CurrentState reports whether the grantee is new, has a changed capability, or is unchanged.
func (s SelectedGrantee) CurrentState(activeShares []ActiveShare) CurrentState {
	share, ok := findActiveShare(activeShares, s.ID)
	switch {
	case !ok:
		return CurrentStateNew
	case share.Capability != s.CapabilityID:
		return CurrentStateChanged
	default:
		return CurrentStateUnchanged
	}
}
