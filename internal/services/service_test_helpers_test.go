package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/internal/database/testutil"
	"github.com/sonvt1710/graylog2-server/internal/models"
	"github.com/sonvt1710/graylog2-server/internal/permissions"
	"github.com/sonvt1710/graylog2-server/pkg/grn"
)

type testServices struct {
	db       *gorm.DB
	users    *UserService
	teams    *TeamService
	grantees *GranteeService
	entities *EntityService
	audits   *ShareAuditService
	shares   *EntityShareService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	registry := permissions.NewBuiltinRegistry()

	checker, err := permissions.NewChecker(db, registry)
	require.NoError(t, err)

	users, err := NewUserService(db, WithPasswordCost(bcrypt.MinCost))
	require.NoError(t, err)
	teams, err := NewTeamService(db)
	require.NoError(t, err)
	grantees, err := NewGranteeService(db)
	require.NoError(t, err)
	entities, err := NewEntityService(db, grn.NewBuiltinRegistry(), checker)
	require.NoError(t, err)
	audits, err := NewShareAuditService(db)
	require.NoError(t, err)
	sharing, err := NewEntityShareService(db, checker, registry, grantees, entities, audits)
	require.NoError(t, err)

	return &testServices{
		db:       db,
		users:    users,
		teams:    teams,
		grantees: grantees,
		entities: entities,
		audits:   audits,
		shares:   sharing,
	}
}

func (s *testServices) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := s.users.Create(context.Background(), CreateUserInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "p@ssW0rd!",
	})
	require.NoError(t, err)
	return user
}

func (s *testServices) createEntity(t *testing.T, owner *models.User, id, title string) *models.Entity {
	t.Helper()
	entity, err := s.entities.Create(context.Background(), owner.ID, CreateEntityInput{GRN: id, Title: title})
	require.NoError(t, err)
	return entity
}
