package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testharbor/testharbor/types"
)

func TestSerializeDeserialize(t *testing.T) {
	h := types.TestCaseHandle{
		ID:          "pkg.TestLogin",
		DisplayName: "login with valid credentials",
		MethodName:  "TestLogin",
		ClassName:   "pkg",
		Traits:      map[string][]string{"category": {"smoke", "auth"}},
	}

	token, err := Serialize(h)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	back, err := Deserialize(token)
	require.NoError(t, err)
	assert.Equal(t, h, back)
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	_, err := Deserialize("{not json")
	require.Error(t, err)
}

func TestRoundTripPreservesIdentityAndOrder(t *testing.T) {
	cases := []types.TestCaseHandle{
		{ID: "a.Test1", MethodName: "Test1", ClassName: "a"},
		{ID: "a.Test2", MethodName: "Test2", ClassName: "a",
			Traits: map[string][]string{"owner": {"infra"}}},
		{ID: "b.Test1", MethodName: "Test1", ClassName: "b"},
	}

	out, err := RoundTrip(cases)
	require.NoError(t, err)
	assert.Equal(t, cases, out)
}

func TestRoundTripEmpty(t *testing.T) {
	out, err := RoundTrip(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
