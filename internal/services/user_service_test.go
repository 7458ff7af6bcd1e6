package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/sonvt1710/graylog2-server/pkg/errors"
)

func TestUserServiceCreateAndAuthenticate(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	user, err := svc.users.Create(ctx, CreateUserInput{
		Username:  "jane",
		Email:     "Jane@Example.com",
		Password:  "p@ssW0rd!",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "jane@example.com", user.Email)
	require.NotEqual(t, "p@ssW0rd!", user.Password)
	require.True(t, user.IsActive)

	authed, err := svc.users.Authenticate(ctx, "jane", "p@ssW0rd!")
	require.NoError(t, err)
	require.Equal(t, user.ID, authed.ID)
	require.NotNil(t, authed.LastLoginAt)

	authed, err = svc.users.Authenticate(ctx, "JANE@example.com", "p@ssW0rd!")
	require.NoError(t, err)
	require.Equal(t, user.ID, authed.ID)

	_, err = svc.users.Authenticate(ctx, "jane", "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.users.Authenticate(ctx, "nobody", "p@ssW0rd!")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestUserServiceCreateValidation(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.users.Create(ctx, CreateUserInput{Email: "a@example.com", Password: "x"})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = svc.users.Create(ctx, CreateUserInput{Username: "a", Password: "x"})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = svc.users.Create(ctx, CreateUserInput{Username: "a", Email: "a@example.com"})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	svc.createUser(t, "taken")
	_, err = svc.users.Create(ctx, CreateUserInput{Username: "taken", Email: "other@example.com", Password: "x"})
	require.ErrorIs(t, err, ErrUserExists)
}

func TestUserServiceInactiveUsers(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	inactive := false
	user, err := svc.users.Create(ctx, CreateUserInput{
		Username: "dormant",
		Email:    "dormant@example.com",
		Password: "p@ssW0rd!",
		IsActive: &inactive,
	})
	require.NoError(t, err)
	require.False(t, user.IsActive)

	loaded, err := svc.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, loaded.IsActive)

	_, err = svc.users.Authenticate(ctx, "dormant", "p@ssW0rd!")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	activated, err := svc.users.SetActive(ctx, user.ID, true)
	require.NoError(t, err)
	require.True(t, activated.IsActive)

	_, err = svc.users.Authenticate(ctx, "dormant", "p@ssW0rd!")
	require.NoError(t, err)
}

func TestUserServiceRootCannotBeDeactivated(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	root, err := svc.users.Create(ctx, CreateUserInput{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "p@ssW0rd!",
		IsRoot:   true,
	})
	require.NoError(t, err)

	_, err = svc.users.SetActive(ctx, root.ID, false)
	require.ErrorIs(t, err, ErrRootUserImmutable)

	_, err = svc.users.SetActive(ctx, "missing", false)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserServiceListAndCount(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	svc.createUser(t, "charlie")
	svc.createUser(t, "alice")
	svc.createUser(t, "bob")

	total, err := svc.users.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)

	users, total, err := svc.users.List(ctx, ListUsersOptions{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, users, 2)
	require.Equal(t, "alice", users[0].Username)
	require.Equal(t, "bob", users[1].Username)

	users, total, err = svc.users.List(ctx, ListUsersOptions{Query: "CHAR"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "charlie", users[0].Username)
}
