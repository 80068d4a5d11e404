// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the harvester CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/harvester/internal/logging"
	"github.com/pdiddy/harvester/internal/secrets"
	"github.com/pdiddy/harvester/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is built from --log-level and --log-format before any command runs.
	logger = logging.Discard()

	// loadedSecrets holds credentials read from the secrets directory at startup.
	loadedSecrets secrets.Secrets
)

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// configError marks err as invalid configuration or usage.
func configError(err error) error {
	return &exitError{code: types.ExitConfig, err: err}
}

// exitCode maps a command error to the process exit code. Errors without
// an explicit code are runtime failures and never share the exhausted code.
func exitCode(err error) int {
	if err == nil {
		return types.ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return types.ExitFailure
}

// rootCmd is the base command for the harvester CLI.
var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Find documents about topics and feed their text to a learning endpoint",
	Long: `harvester picks a topic from a topic file, searches the web and academic
indices for documents about it, extracts their text, and posts the text in
chunks to an ingestion endpoint. If a topic yields nothing it tries another,
up to a fixed number of attempts.

Subcommands expose each stage on its own: search finds candidates, extract
downloads one document, history lists what earlier runs fed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(os.Stderr, viper.GetString("log.format"), viper.GetString("log.level"))
		if err != nil {
			return configError(err)
		}
		logger = l
		slog.SetDefault(l)

		s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", "missing", s.Missing())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return configError(err)
	})

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./harvester.yaml or ~/.config/harvester/harvester.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("secrets-dir", secrets.DefaultDir, "directory of secret key files")

	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
	viper.BindPFlag("secrets_dir", pf.Lookup("secrets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "harvester"))
		}
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("HARVESTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(exitCode(err))
}
