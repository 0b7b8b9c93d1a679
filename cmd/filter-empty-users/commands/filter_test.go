package commands_test

import (
	"bytes"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/results-tools/filter-empty-users/cmd/filter-empty-users/commands"
	"github.com/results-tools/filter-empty-users/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	wantFiltered = `{"results":[{"userId":"u2","startTime":200,"endTime":300}]}`
	wantText     = "Number of objects before deletion: 3\nNumber of objects after deletion: 1\nNumber of empty users: 2\n"
)

// hacky way to allow us to reset the default logger.
var defaultLogger = *slog.Default()

func TestFilter(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args    []string
		fixture string
		// config is written to a configuration file passed with --config. %PATH% is replaced by the result set path.
		config string
		noPath bool
		noFile bool

		wantOut      string
		wantFile     string
		wantErr      bool
		wantUsageErr bool
	}{
		"Filter result set":         {wantOut: wantText, wantFile: wantFiltered},
		"Filter verbose":            {args: []string{"-v"}, wantOut: wantText, wantFile: wantFiltered},
		"Filter debug":              {args: []string{"-vv"}, wantOut: wantText, wantFile: wantFiltered},
		"Dry run":                   {args: []string{"--dry-run"}, wantOut: wantText},
		"Dry run short flag":        {args: []string{"-d"}, wantOut: wantText},
		"JSON report":               {args: []string{"--format", "json"}, wantOut: `{"original":3,"retained":1,"removed":2}` + "\n", wantFile: wantFiltered},
		"YAML report":               {args: []string{"-f", "yaml"}, wantOut: "original: 3\nretained: 1\nremoved: 2\n", wantFile: wantFiltered},
		"TOML report":               {args: []string{"-f", "TOML"}, wantOut: "original = 3\nretained = 1\nremoved = 2\n", wantFile: wantFiltered},
		"Path from config file":     {noPath: true, config: "path: %PATH%\n", wantOut: wantText, wantFile: wantFiltered},
		"Format from config file":   {config: "format: json\n", wantOut: `{"original":3,"retained":1,"removed":2}` + "\n", wantFile: wantFiltered},
		"Dry run from config file":  {config: "dry-run: true\n", wantOut: wantText},
		"Flag overrides config":     {args: []string{"-f", "text"}, config: "format: json\n", wantOut: wantText, wantFile: wantFiltered},
		"Argument overrides config": {config: "path: does-not-exist.json\n", wantOut: wantText, wantFile: wantFiltered},

		// Usage errors
		"Error on missing path":         {noPath: true, wantErr: true, wantUsageErr: true},
		"Error on empty path in config": {noPath: true, config: "path: \"\"\n", wantErr: true, wantUsageErr: true},
		"Error on too many paths":       {args: []string{"other.json"}, wantErr: true, wantUsageErr: true},
		"Error on bad flag":             {args: []string{"--bad-flag"}, wantErr: true, wantUsageErr: true},
		"Error on unknown format":       {args: []string{"--format", "xml"}, wantErr: true, wantUsageErr: true},

		// Runtime errors
		"Error on missing file":          {noFile: true, wantErr: true},
		"Error on invalid JSON":          {fixture: "truncated.json", wantErr: true},
		"Error on unknown format config": {config: "format: xml\n", wantErr: true},
		"Error on invalid config file":   {config: "format: [\n", wantErr: true},
		"Error on missing config file":   {args: []string{"--config", "does-not-exist.yaml"}, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, "results.json")

			fixture := tc.fixture
			if fixture == "" {
				fixture = "results.json"
			}
			var orig []byte
			if !tc.noFile {
				testutils.CopyFile(t, filepath.Join("testdata", fixture), path, 0600)
				var err error
				orig, err = os.ReadFile(path)
				require.NoError(t, err, "Setup: could not read result set")
			}

			var args []string
			if !tc.noPath {
				args = append(args, path)
			}
			args = append(args, tc.args...)
			if tc.config != "" {
				conf := filepath.Join(dir, "config.yaml")
				content := bytes.ReplaceAll([]byte(tc.config), []byte("%PATH%"), []byte(path))
				require.NoError(t, os.WriteFile(conf, content, 0600), "Setup: could not write config file")
				args = append(args, "--config", conf)
			}

			app, err := commands.New()
			require.NoError(t, err, "Setup: could not create app")
			var out, errOut bytes.Buffer
			app.SetOutput(&out, &errOut)
			app.SetArgs(args...)

			err = app.Run()
			if tc.wantErr {
				require.Error(t, err, "Run should return an error")
				assert.Equal(t, tc.wantUsageErr, app.UsageError(), "UsageError should report the kind of error")
				if orig != nil {
					got, err := os.ReadFile(path)
					require.NoError(t, err, "Setup: could not read result set")
					assert.Equal(t, string(orig), string(got), "A failed run should leave the result set untouched")
				}
				return
			}
			require.NoError(t, err, "Run should not return an error")
			assert.False(t, app.UsageError(), "UsageError should be false on success")
			assert.Equal(t, tc.wantOut, out.String(), "Run should print the expected report")

			want := tc.wantFile
			if want == "" {
				want = string(orig)
			}
			got, err := os.ReadFile(path)
			require.NoError(t, err, "Setup: could not read result set")
			assert.Equal(t, want, string(got), "Run should leave the result set in the expected state")
		})
	}
}

func TestFilterPathFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	testutils.CopyFile(t, filepath.Join("testdata", "results.json"), path, 0600)
	t.Setenv("FILTER_EMPTY_USERS_PATH", path)
	t.Setenv("FILTER_EMPTY_USERS_FORMAT", "json")

	app, err := commands.New()
	require.NoError(t, err, "Setup: could not create app")
	var out bytes.Buffer
	app.SetOutput(&out, &bytes.Buffer{})
	app.SetArgs()

	require.NoError(t, app.Run(), "Run should not return an error")
	assert.Equal(t, `{"original":3,"retained":1,"removed":2}`+"\n", out.String(), "Run should use the environment configuration")
	assert.Equal(t, path, app.Config().Path, "The path should come from the environment")

	got, err := os.ReadFile(path)
	require.NoError(t, err, "Setup: could not read result set")
	assert.Equal(t, wantFiltered, string(got), "Run should filter the result set from the environment")
}

func TestFilterJSONLogs(t *testing.T) {
	logWriter, logFlags := log.Writer(), log.Flags()
	t.Cleanup(func() {
		slog.SetDefault(&defaultLogger)
		log.SetOutput(logWriter)
		log.SetFlags(logFlags)
		slog.SetLogLoggerLevel(slog.LevelWarn)
	})

	path := filepath.Join(t.TempDir(), "results.json")
	testutils.CopyFile(t, filepath.Join("testdata", "results.json"), path, 0600)

	app, err := commands.New()
	require.NoError(t, err, "Setup: could not create app")
	var out, errOut bytes.Buffer
	app.SetOutput(&out, &errOut)
	app.SetArgs(path, "--json-logs", "-v")

	require.NoError(t, app.Run(), "Run should not return an error")
	assert.Equal(t, wantText, out.String(), "Logs should not be mixed with the report")
	assert.Contains(t, errOut.String(), `"msg":"Filtered result set"`, "Logs should be JSON formatted on stderr")
	assert.Contains(t, errOut.String(), `"run":"`, "Logs should carry the run identifier")
}
