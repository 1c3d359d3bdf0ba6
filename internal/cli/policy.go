package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarkdev/tarkcore/internal/policy/types"
)

// NewPolicyCmd builds the "policy" command group: a thin boundary over
// policy.Engine for scripting and debugging approval decisions from a
// shell, per spec.md §1's CLI-is-glue scoping.
func NewPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect and query the tool-approval policy engine",
	}
	cmd.AddCommand(newPolicyCheckCmd())
	cmd.AddCommand(newPolicyToolsCmd())
	return cmd
}

func newPolicyCheckCmd() *cobra.Command {
	var mode, trust, workDir, session string

	cmd := &cobra.Command{
		Use:   "check <tool> <command>",
		Short: "Run one tool invocation through check_approval and print the decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("policy check: no CLI context")
			}
			_, engine, err := cliCtx.GetPolicy()
			if err != nil {
				return err
			}

			modeID, err := types.ParseModeID(mode)
			if err != nil {
				return err
			}
			trustID, err := types.ParseTrustID(trust)
			if err != nil {
				return err
			}

			decision, err := engine.Check(args[0], args[1], workDir, modeID, trustID)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(decision, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(types.ModeBuild), "agent mode (ask|plan|build)")
	cmd.Flags().StringVar(&trust, "trust", string(types.TrustBalanced), "trust level (balanced|careful|manual)")
	cmd.Flags().StringVar(&workDir, "workdir", ".", "workspace root for in_workdir classification")
	cmd.Flags().StringVar(&session, "session", "", "session id (reserved for pattern scoping)")

	return cmd
}

func newPolicyToolsCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List tools available in a mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("policy tools: no CLI context")
			}
			_, engine, err := cliCtx.GetPolicy()
			if err != nil {
				return err
			}

			modeID, err := types.ParseModeID(mode)
			if err != nil {
				return err
			}
			tools, err := engine.AvailableTools(modeID)
			if err != nil {
				return err
			}
			for _, t := range tools {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t.ToolID, t.Category)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(types.ModeBuild), "agent mode (ask|plan|build)")
	return cmd
}
