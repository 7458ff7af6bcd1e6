package permissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/internal/models"
	"github.com/sonvt1710/graylog2-server/pkg/grn"
)

// Checker evaluates grants. A user holds the capabilities granted to the user, to any of the
// user's teams and to everyone. Root users hold every capability.
type Checker struct {
	db       *gorm.DB
	registry *Registry
	now      func() time.Time
}

// NewChecker constructs a grant checker backed by the provided database.
func NewChecker(db *gorm.DB, registry *Registry) (*Checker, error) {
	if db == nil {
		return nil, errors.New("permission checker: db is required")
	}
	if registry == nil {
		return nil, errors.New("permission checker: registry is required")
	}
	return &Checker{db: db, registry: registry, now: utcNow}, nil
}

// Registry returns the capability registry the checker evaluates against.
func (c *Checker) Registry() *Registry {
	return c.registry
}

// Check reports whether the user holds capability on target.
func (c *Checker) Check(ctx context.Context, userID, target, capability string) (bool, error) {
	ctx = ensureContext(ctx)

	if _, ok := c.registry.Get(capability); !ok {
		return false, fmt.Errorf("%w %q", ErrUnknownCapability, capability)
	}

	user, err := c.loadUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.IsRoot {
		return true, nil
	}

	return c.holds(ctx, Principals(user), target, capability)
}

// Capabilities returns every capability the user holds on target, implied ones included.
func (c *Checker) Capabilities(ctx context.Context, userID, target string) (map[string]struct{}, error) {
	ctx = ensureContext(ctx)

	user, err := c.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsRoot {
		all := make(map[string]struct{})
		for _, capability := range c.registry.All() {
			all[capability.ID] = struct{}{}
		}
		return all, nil
	}

	granted, err := c.grantedCapabilities(ctx, Principals(user), target)
	if err != nil {
		return nil, err
	}
	return c.registry.Expand(granted...)
}

// GranteeHolds reports whether a grantee holds capability on target. User grantees are
// evaluated with their teams and everyone; a team or everyone only counts its own grants.
func (c *Checker) GranteeHolds(ctx context.Context, grantee, target, capability string) (bool, error) {
	ctx = ensureContext(ctx)

	parsed, err := grn.Parse(grantee)
	if err != nil {
		return false, fmt.Errorf("permission checker: %w", err)
	}

	if parsed.Type != grn.TypeUser {
		return c.holds(ctx, []string{parsed.String()}, target, capability)
	}

	user, err := c.loadUser(ctx, parsed.Entity)
	if err != nil {
		return false, err
	}
	if user.IsRoot {
		return true, nil
	}
	return c.holds(ctx, Principals(user), target, capability)
}

// Principals returns the grantee GRNs a user acts as: the user, each team and everyone.
func Principals(user *models.User) []string {
	out := make([]string, 0, len(user.Teams)+2)
	out = append(out, user.GRN())
	for i := range user.Teams {
		out = append(out, user.Teams[i].GRN())
	}
	return append(out, grn.Everyone.String())
}

func (c *Checker) holds(ctx context.Context, principals []string, target, capability string) (bool, error) {
	granted, err := c.grantedCapabilities(ctx, principals, target)
	if err != nil {
		return false, err
	}
	for _, each := range granted {
		ok, err := c.registry.Implies(each, capability)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *Checker) grantedCapabilities(ctx context.Context, principals []string, target string) ([]string, error) {
	var granted []string
	err := c.db.WithContext(ctx).
		Model(&models.Grant{}).
		Where("target = ? AND grantee IN ?", target, principals).
		Where("(expires_at IS NULL OR expires_at > ?)", c.now()).
		Pluck("capability", &granted).Error
	if err != nil {
		return nil, fmt.Errorf("permission checker: load grants: %w", err)
	}
	return granted, nil
}

func (c *Checker) loadUser(ctx context.Context, userID string) (*models.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("permission checker: user id is required")
	}

	var user models.User
	if err := c.db.WithContext(ctx).
		Preload("Teams").
		First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("permission checker: load user: %w", err)
	}
	return &user, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func utcNow() time.Time {
	return time.Now().UTC()
}
