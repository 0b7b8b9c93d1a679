// Package commands is the filter-empty-users command line.
package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"github.com/results-tools/filter-empty-users/internal/cli"
	"github.com/results-tools/filter-empty-users/internal/constants"
	"github.com/results-tools/filter-empty-users/internal/results"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// App represents the application.
type App struct {
	cmd    *cobra.Command
	viper  *viper.Viper
	config appConfig
}

// appConfig holds the merged flags, environment and configuration file settings.
type appConfig struct {
	Verbosity int            `mapstructure:"verbose"`
	JSONLogs  bool           `mapstructure:"json-logs"`
	Path      string         `mapstructure:"path"`
	DryRun    bool           `mapstructure:"dry-run"`
	Format    results.Format `mapstructure:"format"`
}

// New registers commands and returns a new App.
func New() (*App, error) {
	a := App{config: appConfig{Format: results.FormatText}}

	a.cmd = &cobra.Command{
		Use:   constants.CmdName + " [PATH]",
		Short: "Remove empty users from a survey result set",
		Long: `Remove empty users from a survey result set.

PATH is a JSON document of the form {"results": [...]}. Records whose only fields are "userId" and "startTime"
are removed, and the file is overwritten with the remaining records, compactly encoded.

If PATH is not provided, the "path" configuration key or the FILTER_EMPTY_USERS_PATH environment variable is used.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			// Set verbosity before loading config
			cli.SetSlog(a.cmd.ErrOrStderr(), a.config.Verbosity, a.config.JSONLogs)
			if err := cli.InitViperConfig(constants.CmdName, a.cmd, a.viper); err != nil {
				return err
			}
			if err := a.viper.Unmarshal(&a.config, viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc())); err != nil {
				return fmt.Errorf("unable to decode configuration into struct: %w", err)
			}

			cli.SetSlog(a.cmd.ErrOrStderr(), a.config.Verbosity, a.config.JSONLogs)
			slog.Debug("Got app config", "config", a.config)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.config.Path = args[0]
			}
			if a.config.Path == "" {
				a.cmd.SilenceUsage = false
				return errors.New("no result set path provided, pass PATH or set the path configuration key")
			}

			return a.run()
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	cli.InstallConfigFlag(a.cmd)
	installRootCmd(&a)

	if err := a.viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return nil, err
	}
	if err := a.viper.BindPFlags(a.cmd.Flags()); err != nil {
		return nil, err
	}

	return &a, nil
}

func installRootCmd(app *App) {
	cmd := app.cmd

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	cmd.PersistentFlags().BoolVar(&app.config.JSONLogs, "json-logs", false, "enable JSON formatted logs on stderr")

	cmd.Flags().BoolVarP(&app.config.DryRun, "dry-run", "d", false, "report what would be removed without writing the file")
	cmd.Flags().VarP(&app.config.Format, "format", "f", fmt.Sprintf("report format, one of %v", results.Formats))

	if err := cmd.MarkPersistentFlagFilename(cli.ConfigFlag, "yaml", "yml", "toml", "json"); err != nil {
		panic(fmt.Sprintf("failed to mark config flag as filename: %v", err))
	}
}

// Run executes the command and associated process, returning an error if any.
func (a App) Run() error {
	return a.cmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// RootCmd returns the root command.
func (a App) RootCmd() cobra.Command {
	return *a.cmd
}

// run filters the configured result set and prints the report.
func (a App) run() error {
	log := slog.Default().With("run", uuid.NewString())

	report, err := results.FilterEmptyRecords(a.config.Path,
		results.WithDryRun(a.config.DryRun),
		results.WithLogger(log))
	if err != nil {
		return err
	}

	return report.Write(a.cmd.OutOrStdout(), a.config.Format)
}
