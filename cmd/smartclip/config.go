package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/smartclip/internal/logging"
)

// bindViper lets every flag of cmd come from smartclip.toml or the
// environment as well as the command line. --data-dir, for example, can be
// set as data-dir in the file or as SMARTCLIP_DATA_DIR. A flag on the command
// line wins over the environment, which wins over the file.
//
// smartclip.toml is looked up in ~/.config/smartclip and then
// /etc/smartclip unless --config names a file. A missing file is fine.
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("smartclip")
		v.SetConfigType("toml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "smartclip"))
		}
		v.AddConfigPath("/etc/smartclip/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("SMARTCLIP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the daemon's log flags. A daemon launched at login
// has no terminal, so it logs JSON at info unless told otherwise.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "running in a terminal: tinted logs at debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info at login, debug in a terminal)")
	cmd.Flags().String("log-file", "", "append logs to this file instead of stderr")
}

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "smartclip.toml to read instead of the default locations")
}

// setupLogging reads logging flags from viper and configures slog. The
// returned func closes the log file, if one was opened.
func setupLogging(v *viper.Viper) (func(), error) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	return resolveLogging(interactive, v.GetString("log-format"), v.GetString("log-level"), v.GetString("log-file"))
}
