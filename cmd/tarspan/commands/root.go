// Package commands builds the tarspan CLI command tree.
package commands

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

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tarspan",
	Short: "Pack file trees into capacity-bounded tar segments",
	Long: `tarspan packs files into plain GNU tar archives that never exceed a
fixed byte budget. Every entry's exact archive footprint is computed
before any data is read, so a segment is complete the moment it is
written: no splitting, no truncation, no follow-up volume needed to
read it.

Entries that do not fit the current segment are deferred to a
continuation list in input order; feeding that list to the next run
continues the span where the previous segment left off.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/tarspan/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	if err := viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintln(os.Stderr, "bind log-level flag:", err)
		os.Exit(1)
	}
}

// initConfig loads the config file and TARSPAN_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(filepath.Join(dir, "tarspan"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("TARSPAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "config error:", err)
			os.Exit(1)
		}
	}
}

// newLogger builds the CLI logger at the configured level, writing to
// stderr so command output stays parseable.
func newLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(viper.GetString("log_level")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
