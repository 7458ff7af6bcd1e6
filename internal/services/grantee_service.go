package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/internal/models"
	"github.com/sonvt1710/graylog2-server/internal/shares"
	"github.com/sonvt1710/graylog2-server/pkg/grn"
)

// EveryoneTitle is the display title of the global grantee.
const EveryoneTitle = "Everyone"

// EveryoneGrantee returns the pseudo grantee standing for all users.
func EveryoneGrantee() shares.Grantee {
	return shares.Grantee{ID: grn.Everyone.String(), Title: EveryoneTitle, Type: shares.GranteeTypeGlobal}
}

// GranteeDirectory indexes grantees by GRN.
type GranteeDirectory map[string]shares.Grantee

// Resolve returns the grantee for id. Unknown ids resolve to a grantee titled by its GRN.
func (d GranteeDirectory) Resolve(id string) shares.Grantee {
	if g, ok := d[id]; ok {
		return g
	}
	return shares.Grantee{ID: id, Title: id, Type: granteeTypeOf(id)}
}

// GranteeService lists the principals that entities can be shared with.
type GranteeService struct {
	db *gorm.DB
}

// NewGranteeService constructs a GranteeService.
func NewGranteeService(db *gorm.DB) (*GranteeService, error) {
	if db == nil {
		return nil, errors.New("grantee service: db is required")
	}
	return &GranteeService{db: db}, nil
}

// Available returns everyone, every team and every active user. Users and teams are loaded
// concurrently.
func (s *GranteeService) Available(ctx context.Context) ([]shares.Grantee, error) {
	ctx = ensureContext(ctx)

	var (
		users []models.User
		teams []models.Team
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.db.WithContext(gctx).Where("is_active = ?", true).Order("username ASC").Find(&users).Error; err != nil {
			return fmt.Errorf("grantee service: load users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.db.WithContext(gctx).Order("name ASC").Find(&teams).Error; err != nil {
			return fmt.Errorf("grantee service: load teams: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]shares.Grantee, 0, len(users)+len(teams)+1)
	out = append(out, EveryoneGrantee())
	for i := range teams {
		out = append(out, shares.Grantee{ID: teams[i].GRN(), Title: teams[i].Name, Type: shares.GranteeTypeTeam})
	}
	for i := range users {
		out = append(out, shares.Grantee{ID: users[i].GRN(), Title: users[i].DisplayName(), Type: shares.GranteeTypeUser})
	}
	return out, nil
}

// Directory returns the available grantees indexed by GRN.
func (s *GranteeService) Directory(ctx context.Context) (GranteeDirectory, error) {
	grantees, err := s.Available(ctx)
	if err != nil {
		return nil, err
	}
	return NewGranteeDirectory(grantees), nil
}

// NewGranteeDirectory indexes grantees; the first grantee with a given id wins.
func NewGranteeDirectory(grantees []shares.Grantee) GranteeDirectory {
	dir := make(GranteeDirectory, len(grantees))
	for _, g := range grantees {
		if _, exists := dir[g.ID]; !exists {
			dir[g.ID] = g
		}
	}
	return dir
}
