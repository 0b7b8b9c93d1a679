package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigFlag is the name of the flag selecting a configuration file.
const ConfigFlag = "config"

// InitViperConfig loads the configuration file and the environment for cmdName into vip.
//
// An explicit --config file must exist. Otherwise, cmdName.{yaml,toml,json} is looked up in the
// current directory and then in the user configuration directory, and a missing file is not an error.
func InitViperConfig(cmdName string, cmd *cobra.Command, vip *viper.Viper) error {
	if p, err := cmd.Flags().GetString(ConfigFlag); err == nil && p != "" {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("invalid configuration file: %w", err)
		}
		vip.SetConfigFile(p)
	} else {
		vip.SetConfigName(cmdName)
		vip.AddConfigPath(".")
		if d, err := os.UserConfigDir(); err != nil {
			slog.Debug("No user configuration directory, not adding it as a config dir", "error", err)
		} else {
			vip.AddConfigPath(filepath.Join(d, cmdName))
		}
	}

	if err := vip.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if !errors.As(err, &e) {
			return fmt.Errorf("invalid configuration file: %w", err)
		}
		slog.Debug("No configuration file, using defaults, environment and flags only")
	} else {
		slog.Info("Using configuration file", "file", vip.ConfigFileUsed())
	}

	return bindEnv(envPrefix(cmdName), vip)
}

// InstallConfigFlag adds the config flag to the command.
func InstallConfigFlag(cmd *cobra.Command) *string {
	return cmd.PersistentFlags().String(ConfigFlag, "", "use a specific configuration file")
}

// envPrefix returns the environment variable prefix for cmdName: "filter-empty-users" gives "FILTER_EMPTY_USERS".
func envPrefix(cmdName string) string {
	return strings.ToUpper(strings.ReplaceAll(cmdName, "-", "_"))
}

// bindEnv binds every PREFIX_* variable present in the environment so that Unmarshal sees them.
// AutomaticEnv alone only applies to Get calls, see https://github.com/spf13/viper/pull/1429.
func bindEnv(prefix string, vip *viper.Viper) error {
	vip.SetEnvPrefix(prefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	vip.AutomaticEnv()

	for _, e := range os.Environ() {
		name, _, _ := strings.Cut(e, "=")
		if !strings.HasPrefix(name, prefix+"_") {
			continue
		}

		k := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, prefix+"_"), "_", "-"))
		if err := vip.BindEnv(k, name); err != nil {
			return fmt.Errorf("could not bind environment variable %s: %w", name, err)
		}
	}

	return nil
}
