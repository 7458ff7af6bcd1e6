package services

import "context"

// GrantChecker evaluates grants on entities.
type GrantChecker interface {
	// Check reports whether the user holds capability on target.
	Check(ctx context.Context, userID, target, capability string) (bool, error)
	// GranteeHolds reports whether a grantee GRN holds capability on target.
	GranteeHolds(ctx context.Context, grantee, target, capability string) (bool, error)
}
