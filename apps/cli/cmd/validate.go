package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/courierhq/courier/packages/workspace"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate workspace files without executing",
	Long: `Load every collection and environment in a workspace and report
what fails to parse or carries an invalid request.

Examples:
  courier validate
  courier validate --dir ./api-tests`,
	RunE: validateCommand,
}

var validateDirFlag string

func init() {
	validateCmd.Flags().StringVar(&validateDirFlag, "dir", getEnvString("COURIER_DIR", "."), "Workspace directory (env: COURIER_DIR)")
}

func validateCommand(cmd *cobra.Command, args []string) error {
	ws, err := workspace.Load(validateDirFlag)
	if err != nil {
		return err
	}

	for _, c := range ws.Collections {
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: collection %s (%d requests)\n", c.Name, c.Size())
	}
	for _, env := range ws.Environments {
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: environment %s\n", env.Name)
	}

	if ws.Manifest.ActiveEnv != "" && ws.Environment(ws.Manifest.ActiveEnv) == nil {
		return fmt.Errorf("manifest names active environment %q but no such file exists", ws.Manifest.ActiveEnv)
	}
	return nil
}
