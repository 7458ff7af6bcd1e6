package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	require.NoError(t, base.BeforeCreate(nil))
	require.NotEmpty(t, base.ID)

	keep := BaseModel{ID: "fixed"}
	require.NoError(t, keep.BeforeCreate(nil))
	require.Equal(t, "fixed", keep.ID)
}

func TestEmbeddedModelsUseBaseBeforeCreate(t *testing.T) {
	cases := []struct {
		name  string
		model func() *BaseModel
	}{
		{"user", func() *BaseModel { return &(&User{}).BaseModel }},
		{"team", func() *BaseModel { return &(&Team{}).BaseModel }},
		{"entity", func() *BaseModel { return &(&Entity{}).BaseModel }},
		{"grant", func() *BaseModel { return &(&Grant{}).BaseModel }},
		{"share_audit", func() *BaseModel { return &(&ShareAudit{}).BaseModel }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model := tc.model()
			require.NoError(t, model.BeforeCreate(nil))
			require.NotEmpty(t, model.ID)
		})
	}
}

func TestPrincipalGRNs(t *testing.T) {
	user := &User{BaseModel: BaseModel{ID: "u1"}, Username: "jdoe"}
	team := &Team{BaseModel: BaseModel{ID: "t1"}}
	grant := &Grant{BaseModel: BaseModel{ID: "g1"}}

	require.Equal(t, "grn::::user:u1", user.GRN())
	require.Equal(t, "grn::::team:t1", team.GRN())
	require.Equal(t, "grn::::grant:g1", grant.GRN())
}

func TestUserDisplayName(t *testing.T) {
	require.Equal(t, "jdoe", (&User{Username: "jdoe"}).DisplayName())
	require.Equal(t, "Jane Doe", (&User{Username: "jdoe", FirstName: "Jane", LastName: " Doe"}).DisplayName())
	require.Equal(t, "Jane", (&User{Username: "jdoe", FirstName: "Jane"}).DisplayName())
}

func TestEntityBeforeSave(t *testing.T) {
	entity := &Entity{GRN: " grn::::stream:s1 ", Title: " Errors "}
	require.NoError(t, entity.BeforeSave(nil))
	require.Equal(t, "grn::::stream:s1", entity.GRN)
	require.Equal(t, "stream", entity.Type)
	require.Equal(t, "Errors", entity.Title)

	require.Error(t, (&Entity{GRN: "stream:s1", Title: "x"}).BeforeSave(nil))
	require.Error(t, (&Entity{GRN: "grn::::stream:s1"}).BeforeSave(nil))
}

func TestEntityDependencyBeforeSave(t *testing.T) {
	require.NoError(t, (&EntityDependency{EntityGRN: "grn::::dashboard:d1", DependencyGRN: "grn::::stream:s1"}).BeforeSave(nil))
	require.Error(t, (&EntityDependency{EntityGRN: "grn::::dashboard:d1", DependencyGRN: "grn::::dashboard:d1"}).BeforeSave(nil))
	require.Error(t, (&EntityDependency{EntityGRN: "grn::::dashboard:d1", DependencyGRN: "s1"}).BeforeSave(nil))
}

func TestGrantBeforeSave(t *testing.T) {
	grant := &Grant{Grantee: "grn::::user:u1", Target: "grn::::stream:s1", Capability: " view ", CreatedBy: "u2"}
	require.NoError(t, grant.BeforeSave(nil))
	require.Equal(t, "view", grant.Capability)
	require.Equal(t, "u2", grant.UpdatedBy)

	require.Error(t, (&Grant{Grantee: "u1", Target: "grn::::stream:s1", Capability: "view", CreatedBy: "u2"}).BeforeSave(nil))
	require.Error(t, (&Grant{Grantee: "grn::::user:u1", Target: "grn::::stream:s1", CreatedBy: "u2"}).BeforeSave(nil))
	require.Error(t, (&Grant{Grantee: "grn::::user:u1", Target: "grn::::stream:s1", Capability: "view"}).BeforeSave(nil))
}

func TestGrantExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	require.False(t, (&Grant{}).Expired(now))
	require.True(t, (&Grant{ExpiresAt: &past}).Expired(now))
	require.True(t, (&Grant{ExpiresAt: &now}).Expired(now))
	require.False(t, (&Grant{ExpiresAt: &future}).Expired(now))
}
