package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tarkdev/tarkcore/internal/config"
	"github.com/tarkdev/tarkcore/internal/mcpsup"
	"github.com/tarkdev/tarkcore/internal/policyconfig"
)

// NewMCPCmd builds the "mcp" command group: syncing tool policies from
// TOML config and exercising one configured server's lifecycle.
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Manage MCP server policies and connections",
	}
	cmd.AddCommand(newMCPSyncCmd())
	cmd.AddCommand(newMCPListCmd())
	return cmd
}

func newMCPSyncCmd() *cobra.Command {
	var workspaceRoot string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync MCP tool policies from the user and workspace mcp.toml files into the policy DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("mcp sync: no CLI context")
			}
			store, _, err := cliCtx.GetPolicy()
			if err != nil {
				return err
			}

			userPath := cliCtx.Config.MCP.ConfigPath
			if userPath == "" {
				userPath, err = config.DefaultMCPConfigPath()
				if err != nil {
					return err
				}
			}
			if workspaceRoot == "" {
				workspaceRoot = "."
			}
			workspacePath := config.WorkspaceMCPConfigPath(workspaceRoot)

			if err := policyconfig.SyncFromFiles(store, userPath, workspacePath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced MCP policies from %s and %s\n", userPath, workspacePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceRoot, "workspace", "", "workspace root containing .tark/policy/mcp.toml")
	return cmd
}

func newMCPListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <server-id>",
		Short: "Spawn a configured MCP server and list the tools it discovers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("mcp list: no CLI context")
			}
			serverID := args[0]
			serverCfg, ok := cliCtx.Config.MCP.Servers[serverID]
			if !ok {
				return fmt.Errorf("mcp list: no server configured with id %q", serverID)
			}
			store, _, err := cliCtx.GetPolicy()
			if err != nil {
				return err
			}

			sup, err := mcpsup.New(serverID, mcpsup.ServerConfig{
				Command: serverCfg.Command,
				Args:    serverCfg.Args,
				Env:     serverCfg.Env,
				WorkDir: serverCfg.WorkDir,
			}, store, nil)
			if err != nil {
				return fmt.Errorf("mcp list: spawn %s: %w", serverID, err)
			}
			defer sup.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if err := sup.Initialize(ctx); err != nil {
				return fmt.Errorf("mcp list: initialize %s: %w", serverID, err)
			}
			tools, err := sup.Discover(ctx)
			if err != nil {
				return fmt.Errorf("mcp list: discover %s: %w", serverID, err)
			}
			for _, t := range tools {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.Name, t.Policy.RiskLevel, t.Description)
			}
			return nil
		},
	}
	return cmd
}
