package shares

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGranteeCapabilities_ZeroValue(t *testing.T) {
	var selection GranteeCapabilities

	require.Zero(t, selection.Len())
	require.False(t, selection.Has("x"))
	require.Empty(t, selection.Entries())

	out, err := json.Marshal(selection)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(out))
}

func TestGranteeCapabilities_EditsReturnNewValues(t *testing.T) {
	base := NewGranteeCapabilities(
		GranteeCapability{GranteeID: "a", CapabilityID: "view"},
		GranteeCapability{GranteeID: "b", CapabilityID: "own"},
	)

	added := base.Set("c", "manage")
	changed := added.Set("a", "own")
	removed := changed.Remove("b")

	require.Equal(t, []string{"a", "b"}, base.GranteeIDs())
	require.Equal(t, []string{"a", "b", "c"}, added.GranteeIDs())
	require.Equal(t, []string{"a", "b", "c"}, changed.GranteeIDs())
	require.Equal(t, []string{"a", "c"}, removed.GranteeIDs())

	capability, ok := changed.Get("a")
	require.True(t, ok)
	require.Equal(t, "own", capability)

	capability, _ = base.Get("a")
	require.Equal(t, "view", capability)
}

func TestGranteeCapabilities_Merge(t *testing.T) {
	base := NewGranteeCapabilities(GranteeCapability{GranteeID: "a", CapabilityID: "view"})
	other := NewGranteeCapabilities(
		GranteeCapability{GranteeID: "b", CapabilityID: "own"},
		GranteeCapability{GranteeID: "a", CapabilityID: "manage"},
	)

	merged := base.Merge(other)
	require.Equal(t, []GranteeCapability{
		{GranteeID: "a", CapabilityID: "manage"},
		{GranteeID: "b", CapabilityID: "own"},
	}, merged.Entries())
	require.True(t, merged.ContainsCapability("own"))
	require.False(t, base.ContainsCapability("own"))
}

func TestGranteeCapabilities_JSONKeepsDocumentOrder(t *testing.T) {
	var selection GranteeCapabilities
	require.NoError(t, json.Unmarshal([]byte(`{"zeta": "view", "alpha": "own", "mid": "manage"}`), &selection))

	require.Equal(t, []string{"zeta", "alpha", "mid"}, selection.GranteeIDs())

	out, err := json.Marshal(selection)
	require.NoError(t, err)
	require.Equal(t, `{"zeta":"view","alpha":"own","mid":"manage"}`, string(out))
}

func TestGranteeCapabilities_UnmarshalNullAndErrors(t *testing.T) {
	var selection GranteeCapabilities
	require.NoError(t, json.Unmarshal([]byte(`null`), &selection))
	require.Zero(t, selection.Len())

	require.Error(t, json.Unmarshal([]byte(`{"a": true}`), &selection))
	require.Error(t, json.Unmarshal([]byte(`{"a": ["view"]}`), &selection))
}

func TestGranteeCapabilities_EscapedKeys(t *testing.T) {
	selection := NewGranteeCapabilities(GranteeCapability{GranteeID: `quote"d`, CapabilityID: "view"})

	out, err := json.Marshal(selection)
	require.NoError(t, err)

	var plain map[string]string
	require.NoError(t, json.Unmarshal(out, &plain))
	require.Equal(t, map[string]string{`quote"d`: "view"}, plain)
}

func TestGranteeCapabilities_EqualIgnoresOrder(t *testing.T) {
	a := GranteeCapabilitiesFromMap(map[string]string{"x": "view", "y": "own"})
	b := NewGranteeCapabilities(
		GranteeCapability{GranteeID: "y", CapabilityID: "own"},
		GranteeCapability{GranteeID: "x", CapabilityID: "view"},
	)

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(b.Set("x", "manage")))
	require.False(t, a.Equal(b.Remove("y")))
	require.Equal(t, []string{"x", "y"}, a.GranteeIDs())
}

func TestSelectedGrantee_CurrentState(t *testing.T) {
	active := []ActiveShare{{Grant: "g1", Grantee: "u1", Capability: "view"}}

	require.Equal(t, CurrentStateUnchanged, NewSelectedGrantee("u1", "U1", GranteeTypeUser, "view").CurrentState(active))
	require.Equal(t, CurrentStateChanged, NewSelectedGrantee("u1", "U1", GranteeTypeUser, "own").CurrentState(active))
	require.Equal(t, CurrentStateNew, NewSelectedGrantee("u2", "U2", GranteeTypeUser, "view").CurrentState(active))
}

func TestValueObjectConstructors(t *testing.T) {
	_, err := NewCapability(" ", "Viewer")
	require.Error(t, err)

	capability, err := NewCapability("view", "Viewer")
	require.NoError(t, err)
	require.Equal(t, "Reader", capability.WithTitle("Reader").Title)
	require.Equal(t, "Viewer", capability.Title)

	_, err = NewGrantee("", "Nobody", GranteeTypeUser)
	require.Error(t, err)
	_, err = NewGrantee("u1", "Robot", GranteeType("robot"))
	require.Error(t, err)

	grantee, err := NewGrantee("u1", "Jane", GranteeTypeUser)
	require.NoError(t, err)
	require.Equal(t, GranteeTypeTeam, grantee.WithType(GranteeTypeTeam).Type)

	_, err = NewActiveShare("g1", "", "view")
	require.Error(t, err)
	share, err := NewActiveShare("g1", "u1", "view")
	require.NoError(t, err)
	require.Equal(t, "own", share.WithCapability("own").Capability)

	found, ok := FindCapability([]Capability{capability}, "view")
	require.True(t, ok)
	require.Equal(t, capability, found)
	_, ok = FindCapability([]Capability{capability}, "own")
	require.False(t, ok)
}

func TestValidationResult_Helpers(t *testing.T) {
	var result ValidationResult

	failed := result.
		WithError("selected_grantee_capabilities", "first").
		WithError("selected_grantee_capabilities", "second").
		WithContext("selected_grantee_capabilities", "grn::::user:jane")

	require.False(t, result.Failed)
	require.Nil(t, result.Errors)
	require.True(t, failed.Failed)
	require.Equal(t, []string{"first", "second"}, failed.FieldErrors("selected_grantee_capabilities"))
	require.Equal(t, []string{"grn::::user:jane"}, failed.ErrorContext["selected_grantee_capabilities"])

	out, err := json.Marshal(result)
	require.NoError(t, err)
	require.JSONEq(t, `{"failed": false, "errors": {}, "error_context": {}}`, string(out))
}

func TestMissingDependencies_CloneIsDeep(t *testing.T) {
	missing := MissingDependencies{
		"u1": {{ID: "grn::::stream:s1", Type: "stream", Title: "S1", Owners: []Grantee{{ID: "u2", Title: "Owner", Type: GranteeTypeUser}}}},
	}

	cp := missing.Clone()
	cp["u1"][0].Owners[0].Title = "changed"
	cp["u1"][0].Title = "changed"

	require.Equal(t, "Owner", missing["u1"][0].Owners[0].Title)
	require.Equal(t, "S1", missing.For("u1")[0].Title)
	require.Empty(t, missing.For("u2"))

	out, err := json.Marshal(SharedEntity{ID: "x", Type: "stream", Title: "X"})
	require.NoError(t, err)
	require.JSONEq(t, `{"id": "x", "type": "stream", "title": "X", "owners": []}`, string(out))
}
