// Package cli wires the thin command-line shell around the policy engine,
// context tracker and MCP supervisor. Per spec.md §1 this surface is out of
// scope as hard engineering; it exists only to exercise the core packages
// at their public boundaries.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tarkdev/tarkcore/internal/config"
	"github.com/tarkdev/tarkcore/pkg/logger"
)

// GlobalFlags holds flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

type contextKey struct{}

// NewRootCmd builds the root "tark" command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tark",
		Short: "tark - policy-gated coding agent runtime core",
		Long: `tark is the policy engine, context tracker and MCP supervisor
that mediate tool calls for an interactive coding agent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}

			configPath := globalFlags.ConfigPath
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logLevel := cfg.Log.Level
			if globalFlags.Verbose {
				logLevel = "debug"
			}
			if globalFlags.Quiet {
				logLevel = "error"
			}
			if err := logger.Init(logger.LogConfig{
				Level:  logLevel,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			}); err != nil {
				return err
			}

			policyPath := cfg.Policy.DBPath
			if policyPath == "" {
				policyPath, err = config.DefaultDataPath()
				if err != nil {
					return err
				}
			}

			log := logger.Get()
			cliCtx := NewCLIContext(cfg, configPath, log, policyPath, globalFlags.Verbose, globalFlags.Quiet)
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, cliCtx))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cliCtx := GetCLIContext(cmd); cliCtx != nil {
				return cliCtx.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "quiet mode")

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewPolicyCmd())
	rootCmd.AddCommand(NewMCPCmd())

	return rootCmd
}

// GetCLIContext retrieves the CLIContext stashed on cmd by the root
// command's PersistentPreRunE, or nil if it isn't present (e.g. version,
// help, or a command invoked outside the root tree in tests).
func GetCLIContext(cmd *cobra.Command) *CLIContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cliCtx, _ := ctx.Value(contextKey{}).(*CLIContext)
	return cliCtx
}
