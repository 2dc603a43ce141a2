package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testharbor/testharbor/types"
)

func TestParseTestListOutput(t *testing.T) {
	output := []byte(`TestLogin
TestLogout
TestTokenRefresh
ok  	example.com/auth	0.015s
`)
	names := parseTestListOutput(output)
	assert.Equal(t, []string{"TestLogin", "TestLogout", "TestTokenRefresh"}, names)
}

func TestParseTestListOutputNoTestFiles(t *testing.T) {
	names := parseTestListOutput([]byte("?   \texample.com/auth\t[no test files]\n"))
	assert.Empty(t, names)
}

func TestRunPattern(t *testing.T) {
	cases := []types.TestCaseHandle{
		{MethodName: "TestLogin"},
		{MethodName: "TestLogout"},
	}
	assert.Equal(t, "^(TestLogin|TestLogout)$", runPattern(cases))
}

func TestRunPatternQuotesMetaCharacters(t *testing.T) {
	cases := []types.TestCaseHandle{{MethodName: "TestA.B"}}
	assert.Equal(t, `^(TestA\.B)$`, runPattern(cases))
}

func TestTraitsFor(t *testing.T) {
	rules := []types.TraitRule{
		{Pattern: "TestSlow*", Name: "category", Value: "slow"},
		{Pattern: "Test*", Name: "suite", Value: "auth"},
		{Pattern: "TestNever*", Name: "category", Value: "never"},
	}

	traits := traitsFor("TestSlowMigration", rules)
	assert.Equal(t, map[string][]string{
		"category": {"slow"},
		"suite":    {"auth"},
	}, traits)

	assert.Nil(t, traitsFor("BenchmarkX", rules), "no matching rule yields no trait map")
}

func TestResolvePackagePath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"),
		[]byte("module example.com/myapp\n\ngo 1.22\n"), 0o644))
	sub := filepath.Join(root, "internal", "auth")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	e := NewGoTestEngine(GoTestConfig{})

	t.Run("module root", func(t *testing.T) {
		got, err := e.resolvePackagePath(root)
		require.NoError(t, err)
		assert.Equal(t, "example.com/myapp", got)
	})

	t.Run("nested package", func(t *testing.T) {
		got, err := e.resolvePackagePath(sub)
		require.NoError(t, err)
		assert.Equal(t, "example.com/myapp/internal/auth", got)
	})

	t.Run("broken module file", func(t *testing.T) {
		broken := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(broken, "go.mod"),
			[]byte("not a module file"), 0o644))
		_, err := e.resolvePackagePath(broken)
		require.Error(t, err)
	})
}
