package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/courierhq/courier/packages/workspace"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Inspect and mutate environments",
}

var envDirFlag string

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List environments and their variables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := workspace.Load(envDirFlag)
		if err != nil {
			return err
		}

		for _, env := range ws.Environments {
			marker := " "
			if env.Name == ws.Manifest.ActiveEnv {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, env.Name)

			names := make([]string, 0, len(env.Variables))
			for name := range env.Variables {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "    %s = %s\n", name, env.Variables[name])
			}
		}
		return nil
	},
}

var envUseCmd = &cobra.Command{
	Use:     "use <name>",
	Aliases: []string{"activate"},
	Short:   "Make an environment the active one",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := workspace.Load(envDirFlag)
		if err != nil {
			return err
		}
		if err := ws.SetActiveEnv(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Active environment: %s\n", args[0])
		return nil
	},
}

var envSetCmd = &cobra.Command{
	Use:   "set <env> <name> <value>",
	Short: "Set a variable in an environment",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := workspace.Load(envDirFlag)
		if err != nil {
			return err
		}

		env := ws.Environment(args[0])
		if env == nil {
			return fmt.Errorf("environment %q not found in workspace", args[0])
		}
		env.Variables[args[1]] = args[2]
		if err := workspace.SaveEnvironment(envDirFlag, env); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s.%s = %s\n", args[0], args[1], args[2])
		return nil
	},
}

var envUnsetCmd = &cobra.Command{
	Use:   "unset <env> <name>",
	Short: "Remove a variable from an environment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := workspace.Load(envDirFlag)
		if err != nil {
			return err
		}

		env := ws.Environment(args[0])
		if env == nil {
			return fmt.Errorf("environment %q not found in workspace", args[0])
		}
		delete(env.Variables, args[1])
		return workspace.SaveEnvironment(envDirFlag, env)
	},
}

func init() {
	envCmd.PersistentFlags().StringVar(&envDirFlag, "dir", getEnvString("COURIER_DIR", "."), "Workspace directory (env: COURIER_DIR)")
	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envUseCmd)
	envCmd.AddCommand(envSetCmd)
	envCmd.AddCommand(envUnsetCmd)
}
