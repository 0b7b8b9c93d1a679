package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// UpdateGoldenEnv is the environment variable which, set to a non empty value, refreshes golden files.
const UpdateGoldenEnv = "TESTS_UPDATE_GOLDEN"

// GoldenPath returns the golden file path for the current test: testdata/golden/<TestName>/<subtest>.
func GoldenPath(t *testing.T) string {
	t.Helper()

	parts := strings.SplitN(t.Name(), "/", 2)
	p := filepath.Join("testdata", "golden", parts[0])
	if len(parts) == 2 {
		p = filepath.Join(p, strings.ReplaceAll(parts[1], "/", "_"))
	}
	return p
}

// LoadWithUpdateFromGolden returns the content of the golden file of the current test.
// The golden file is first overwritten with got when UpdateGoldenEnv is set.
func LoadWithUpdateFromGolden(t *testing.T, got string) string {
	t.Helper()

	p := GoldenPath(t)
	if os.Getenv(UpdateGoldenEnv) != "" {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0750), "Setup: could not create golden directory")
		require.NoError(t, os.WriteFile(p, []byte(got), 0600), "Setup: could not update golden file")
	}

	want, err := os.ReadFile(p)
	require.NoError(t, err, "Setup: could not read golden file %q", p)
	return string(want)
}
