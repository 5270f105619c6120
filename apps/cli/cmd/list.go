package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/courierhq/courier/packages/workspace"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections and environments in a workspace",
	Long: `List every collection, its requests, and every environment in a
courier workspace.

Examples:
  courier list
  courier list --dir ./api-tests`,
	RunE: listCommand,
}

var listDirFlag string

func init() {
	listCmd.Flags().StringVar(&listDirFlag, "dir", getEnvString("COURIER_DIR", "."), "Workspace directory (env: COURIER_DIR)")
}

func listCommand(cmd *cobra.Command, args []string) error {
	ws, err := workspace.Load(listDirFlag)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Workspace: %s\n", ws.Manifest.Name)

	fmt.Fprintf(cmd.OutOrStdout(), "\nCollections:\n")
	if len(ws.Collections) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "  (none)\n")
	}
	for _, c := range ws.Collections {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s (%d requests)\n", c.Name, c.Size())
		for _, req := range c.Requests {
			fmt.Fprintf(cmd.OutOrStdout(), "    - %s: %s %s\n", req.Name, req.Method, req.URL)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nEnvironments:\n")
	if len(ws.Environments) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "  (none)\n")
	}
	for _, env := range ws.Environments {
		marker := " "
		if env.Name == ws.Manifest.ActiveEnv {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %s (%d variables)\n", marker, env.Name, len(env.Variables))
	}

	return nil
}
