package shares

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const (
	everyoneGRN = "grn::::builtin-team:everyone"
	janeGRN     = "grn::::user:jane"
	bobGRN      = "grn::::user:bob"
	infraGRN    = "grn::::team:infra"
	streamGRN   = "grn::::stream:57bc9188e62a2373778d9e03"
)

const statePayload = `{
  "entity": "grn::::stream:57bc9188e62a2373778d9e03",
  "available_grantees": [
    {"id": "grn::::user:jane", "title": "Jane Doe", "type": "user"},
    {"id": "grn::::team:infra", "title": "Infra", "type": "team"},
    {"id": "grn::::builtin-team:everyone", "title": "Everyone", "type": "global"},
    {"id": "grn::::user:bob", "title": "bob", "type": "user"}
  ],
  "available_capabilities": [
    {"id": "view", "title": "Viewer"},
    {"id": "manage", "title": "Manager"},
    {"id": "own", "title": "Owner"}
  ],
  "active_shares": [
    {"grant": "grn::::grant:g1", "grantee": "grn::::user:jane", "capability": "own"},
    {"grant": "grn::::grant:g2", "grantee": "grn::::team:infra", "capability": "view"}
  ],
  "selected_grantee_capabilities": {
    "grn::::user:jane": "own",
    "grn::::team:infra": "view"
  },
  "missing_permissions_on_dependencies": {
    "grn::::team:infra": [
      {
        "id": "grn::::output:o1",
        "type": "output",
        "title": "Archive output",
        "owners": [{"id": "grn::::user:jane", "title": "Jane Doe", "type": "user"}]
      }
    ]
  },
  "validation_result": {
    "failed": false,
    "errors": {},
    "error_context": {}
  }
}`

func granteeIDs[T Principal](grantees []T) []string {
	out := make([]string, len(grantees))
	for i, g := range grantees {
		out[i] = g.PrincipalID()
	}
	return out
}

func mustState(t *testing.T, payload string) *EntityShareState {
	t.Helper()
	state, err := FromJSON([]byte(payload))
	require.NoError(t, err)
	return state
}

func TestEntityShareState_RoundTrip(t *testing.T) {
	state := mustState(t, statePayload)

	out, err := json.Marshal(state)
	require.NoError(t, err)

	var want, got map[string]any
	require.NoError(t, json.Unmarshal([]byte(statePayload), &want))
	require.NoError(t, json.Unmarshal(out, &got))

	require.ElementsMatch(t, want["available_grantees"], got["available_grantees"])
	delete(want, "available_grantees")
	delete(got, "available_grantees")

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	require.NotContains(t, string(out), "selected_grantees")
}

func TestEntityShareState_FromJSONSortsAvailableGrantees(t *testing.T) {
	state := mustState(t, statePayload)

	require.Equal(t, []string{everyoneGRN, infraGRN, bobGRN, janeGRN}, granteeIDs(state.AvailableGrantees()))
}

func TestSortAndOrderGrantees_GroupsByType(t *testing.T) {
	grantees := []Grantee{
		{ID: "u-bob", Title: "Bob", Type: GranteeTypeUser},
		{ID: "t-infra", Title: "Infra", Type: GranteeTypeTeam},
		{ID: "g-everyone", Title: "Everyone", Type: GranteeTypeGlobal},
		{ID: "e-ghost", Title: "Ghost", Type: GranteeTypeError},
	}

	ordered := SortAndOrderGrantees(grantees, nil)
	require.Equal(t, []string{"e-ghost", "g-everyone", "t-infra", "u-bob"}, granteeIDs(ordered))

	state, err := NewBuilder().Entity(streamGRN).AvailableGrantees(grantees).Build()
	require.NoError(t, err)
	require.Equal(t, []string{"e-ghost", "g-everyone", "t-infra", "u-bob"}, granteeIDs(state.AvailableGrantees()))
}

func TestSortAndOrderGrantees_TitlesIgnoreCase(t *testing.T) {
	grantees := []Grantee{
		{ID: "3", Title: "carol", Type: GranteeTypeUser},
		{ID: "1", Title: "Alice", Type: GranteeTypeUser},
		{ID: "2", Title: "bob", Type: GranteeTypeUser},
		{ID: "4", Title: "Dave", Type: GranteeTypeUser},
	}

	ordered := SortAndOrderGrantees(grantees, nil)
	require.Equal(t, []string{"1", "2", "3", "4"}, granteeIDs(ordered))
}

func TestSortAndOrderGrantees_NewBeforeExisting(t *testing.T) {
	u1 := Grantee{ID: "u1", Title: "Aaron", Type: GranteeTypeUser}
	u2 := Grantee{ID: "u2", Title: "Zed", Type: GranteeTypeUser}
	active := []ActiveShare{{Grant: "g1", Grantee: "u1", Capability: "view"}}

	ordered := SortAndOrderGrantees([]Grantee{u1, u2}, active)
	require.Equal(t, []string{"u2", "u1"}, granteeIDs(ordered))
}

func TestSortAndOrderGrantees_NewGranteesReversed(t *testing.T) {
	grantees := []Grantee{
		{ID: "a", Title: "A", Type: GranteeTypeUser},
		{ID: "b", Title: "B", Type: GranteeTypeTeam},
		{ID: "c", Title: "C", Type: GranteeTypeUser},
		{ID: "d", Title: "D", Type: GranteeTypeGlobal},
	}
	active := []ActiveShare{
		{Grant: "g1", Grantee: "c", Capability: "view"},
		{Grant: "g2", Grantee: "c", Capability: "view"},
		{Grant: "g3", Grantee: "d", Capability: "view"},
		{Grant: "g4", Grantee: "ghost", Capability: "own"},
	}

	ordered := SortAndOrderGrantees(grantees, active)
	require.Equal(t, []string{"b", "a", "d", "c"}, granteeIDs(ordered))
}

func TestSortAndOrderGrantees_EmptyActiveSharesMarksAllNew(t *testing.T) {
	grantees := []Grantee{
		{ID: "a", Title: "A", Type: GranteeTypeUser},
		{ID: "b", Title: "B", Type: GranteeTypeUser},
	}

	require.Equal(t, []string{"b", "a"}, granteeIDs(SortAndOrderGrantees(grantees, []ActiveShare{})))
	require.Equal(t, []string{"a", "b"}, granteeIDs(SortAndOrderGrantees(grantees, nil)))
}

func TestSortAndOrderGrantees_UnknownTypesTrail(t *testing.T) {
	grantees := []Grantee{
		{ID: "x", Title: "A", Type: GranteeType("robot")},
		{ID: "u", Title: "B", Type: GranteeTypeUser},
	}

	require.Equal(t, []string{"u", "x"}, granteeIDs(SortAndOrderGrantees(grantees, nil)))
}

func TestEntityShareState_ErrorGrantee(t *testing.T) {
	state, err := NewBuilder().
		Entity(streamGRN).
		AvailableGrantees([]Grantee{{ID: janeGRN, Title: "Jane", Type: GranteeTypeUser}}).
		ActiveShares([]ActiveShare{}).
		SelectedGranteeCapabilities(NewGranteeCapabilities(GranteeCapability{GranteeID: "ghost-id", CapabilityID: "viewer"})).
		Build()
	require.NoError(t, err)

	selected := state.SelectedGrantees()
	require.Len(t, selected, 1)
	require.Equal(t, GranteeTypeError, selected[0].Type)
	require.True(t, strings.Contains(selected[0].Title, "ghost-id"))
	require.Equal(t, "not found ghost-id (error)", selected[0].Title)
	require.Equal(t, "viewer", selected[0].CapabilityID)
	require.True(t, state.HasErrorGrantees())
}

func TestEntityShareState_DerivedViewsAreDeterministic(t *testing.T) {
	state := mustState(t, statePayload)

	require.Equal(t, state.AvailableGrantees(), state.AvailableGrantees())
	require.Equal(t, state.SelectedGrantees(), state.SelectedGrantees())

	first := state.AvailableGrantees()
	first[0].Title = "mutated"
	require.NotEqual(t, "mutated", state.AvailableGrantees()[0].Title)
}

func TestEntityShareState_BuilderDoesNotMutateOriginal(t *testing.T) {
	state := mustState(t, statePayload)
	before := state.SelectedGranteeCapabilities().ToMap()

	updated, err := state.ToBuilder().
		SelectedGranteeCapabilities(state.SelectedGranteeCapabilities().Set(bobGRN, "view").Remove(infraGRN)).
		Build()
	require.NoError(t, err)

	require.Equal(t, before, state.SelectedGranteeCapabilities().ToMap())
	require.Equal(t, map[string]string{janeGRN: "own", bobGRN: "view"}, updated.SelectedGranteeCapabilities().ToMap())
	require.NotSame(t, state, updated)
}

func TestEntityShareState_AddEveryoneAsViewer(t *testing.T) {
	state, err := NewBuilder().
		Entity(streamGRN).
		AvailableGrantees([]Grantee{{ID: "everyone", Title: "Everyone", Type: GranteeTypeGlobal}}).
		ActiveShares([]ActiveShare{}).
		SelectedGranteeCapabilities(NewGranteeCapabilities()).
		Build()
	require.NoError(t, err)
	require.Empty(t, state.SelectedGrantees())

	next, err := state.ToBuilder().
		SelectedGranteeCapabilities(state.SelectedGranteeCapabilities().Set("everyone", "viewer")).
		Build()
	require.NoError(t, err)

	want := []SelectedGrantee{NewSelectedGrantee("everyone", "Everyone", GranteeTypeGlobal, "viewer")}
	got := next.SelectedGrantees()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("selected grantees mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, CurrentStateNew, got[0].CurrentState(next.ActiveShares()))
}

func TestEntityShareState_SelectedGranteesOrder(t *testing.T) {
	state := mustState(t, statePayload)

	next, err := state.ToBuilder().
		SelectedGranteeCapabilities(state.SelectedGranteeCapabilities().
			Set(bobGRN, "view").
			Set(everyoneGRN, "view").
			Set(janeGRN, "manage")).
		Build()
	require.NoError(t, err)

	selected := next.SelectedGrantees()
	require.Equal(t, []string{everyoneGRN, bobGRN, infraGRN, janeGRN}, granteeIDs(selected))

	states := make(map[string]CurrentState, len(selected))
	for _, g := range selected {
		states[g.ID] = g.CurrentState(next.ActiveShares())
	}
	require.Equal(t, map[string]CurrentState{
		everyoneGRN: CurrentStateNew,
		bobGRN:      CurrentStateNew,
		infraGRN:    CurrentStateUnchanged,
		janeGRN:     CurrentStateChanged,
	}, states)
}

func TestEntityShareState_UnselectedGrantees(t *testing.T) {
	state := mustState(t, statePayload)

	require.Equal(t, []string{everyoneGRN, bobGRN}, granteeIDs(state.UnselectedGrantees()))
}

func TestEntityShareState_NullActiveSharesMeansNotLoaded(t *testing.T) {
	payload := strings.Replace(statePayload, `"active_shares": [
    {"grant": "grn::::grant:g1", "grantee": "grn::::user:jane", "capability": "own"},
    {"grant": "grn::::grant:g2", "grantee": "grn::::team:infra", "capability": "view"}
  ]`, `"active_shares": null`, 1)
	state := mustState(t, payload)

	require.Nil(t, state.ActiveShares())
	require.Equal(t, []string{infraGRN, janeGRN}, granteeIDs(state.SelectedGrantees()))

	out, err := json.Marshal(state)
	require.NoError(t, err)
	require.Contains(t, string(out), `"active_shares":[]`)
}

func TestFromJSON_RejectsMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"missing entity":       `{"available_grantees": []}`,
		"grantee without id":   `{"entity": "e", "available_grantees": [{"title": "x", "type": "user"}]}`,
		"grantee bad type":     `{"entity": "e", "available_grantees": [{"id": "x", "title": "x", "type": "robot"}]}`,
		"capability no id":     `{"entity": "e", "available_capabilities": [{"title": "Viewer"}]}`,
		"share without grant":  `{"entity": "e", "active_shares": [{"grantee": "x", "capability": "view"}]}`,
		"selection non string": `{"entity": "e", "selected_grantee_capabilities": {"x": 1}}`,
		"selection empty cap":  `{"entity": "e", "selected_grantee_capabilities": {"x": ""}}`,
		"not json":             `{"entity":`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromJSON([]byte(payload))
			require.Error(t, err)
		})
	}
}

func TestFromJSON_MinimalPayload(t *testing.T) {
	state := mustState(t, `{"entity": "grn::::dashboard:d1"}`)

	require.Equal(t, "grn::::dashboard:d1", state.Entity())
	require.Empty(t, state.AvailableGrantees())
	require.Zero(t, state.SelectedGranteeCapabilities().Len())
	require.False(t, state.ValidationResult().Failed)
	require.NotNil(t, state.MissingDependencies())
}

func TestEntityShareState_CarriesValidationAndDependencies(t *testing.T) {
	payload := strings.Replace(statePayload, `"failed": false,
    "errors": {},
    "error_context": {}`, `"failed": true,
    "errors": {"selected_grantee_capabilities": ["Removing the following owners <[grn::::user:jane]> will leave the entity ownerless."]},
    "error_context": {"selected_grantee_capabilities": ["grn::::user:jane"]}`, 1)
	state := mustState(t, payload)

	result := state.ValidationResult()
	require.True(t, result.Failed)
	require.Len(t, result.FieldErrors("selected_grantee_capabilities"), 1)
	require.Equal(t, []string{janeGRN}, result.ErrorContext["selected_grantee_capabilities"])

	missing := state.MissingDependencies().For(infraGRN)
	require.Len(t, missing, 1)
	require.Equal(t, "Archive output", missing[0].Title)
	require.Equal(t, janeGRN, missing[0].Owners[0].ID)
}
