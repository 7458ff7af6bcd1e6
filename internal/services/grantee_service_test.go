package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonvt1710/graylog2-server/internal/shares"
	"github.com/sonvt1710/graylog2-server/pkg/grn"
)

func TestGranteeServiceAvailable(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	jane, err := svc.users.Create(ctx, CreateUserInput{
		Username:  "jane",
		Email:     "jane@example.com",
		Password:  "p@ssW0rd!",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	bob := svc.createUser(t, "bob")

	inactive := false
	_, err = svc.users.Create(ctx, CreateUserInput{
		Username: "dormant",
		Email:    "dormant@example.com",
		Password: "p@ssW0rd!",
		IsActive: &inactive,
	})
	require.NoError(t, err)

	team, err := svc.teams.Create(ctx, CreateTeamInput{Name: "Infra"})
	require.NoError(t, err)

	grantees, err := svc.grantees.Available(ctx)
	require.NoError(t, err)
	require.Equal(t, []shares.Grantee{
		{ID: grn.Everyone.String(), Title: EveryoneTitle, Type: shares.GranteeTypeGlobal},
		{ID: team.GRN(), Title: "Infra", Type: shares.GranteeTypeTeam},
		{ID: bob.GRN(), Title: "bob", Type: shares.GranteeTypeUser},
		{ID: jane.GRN(), Title: "Jane Doe", Type: shares.GranteeTypeUser},
	}, grantees)
}

func TestGranteeDirectoryResolve(t *testing.T) {
	dir := NewGranteeDirectory([]shares.Grantee{
		EveryoneGrantee(),
		{ID: "grn::::user:u1", Title: "first", Type: shares.GranteeTypeUser},
		{ID: "grn::::user:u1", Title: "second", Type: shares.GranteeTypeUser},
	})

	require.Equal(t, "first", dir.Resolve("grn::::user:u1").Title)
	require.Equal(t, EveryoneTitle, dir.Resolve(grn.Everyone.String()).Title)

	unknown := dir.Resolve("grn::::team:t9")
	require.Equal(t, "grn::::team:t9", unknown.Title)
	require.Equal(t, shares.GranteeTypeTeam, unknown.Type)

	require.Equal(t, shares.GranteeTypeError, dir.Resolve("garbage").Type)
}
