package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/courierhq/courier/packages/model"
	"github.com/courierhq/courier/packages/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Initialize a new courier workspace",
	Long: `Initialize a courier workspace in the current directory.

This creates:
  - courier.yaml            - Workspace manifest
  - environments/dev.yaml   - Example environment
  - collections/smoke.yaml  - Example collection

Examples:
  courier init
  courier init my-api`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	name := filepath.Base(cwd)
	if len(args) == 1 {
		name = args[0]
	}

	if err := workspace.Init(cwd, name); err != nil {
		return err
	}

	env := model.NewEnvironment("dev")
	env.Variables["baseUrl"] = "http://localhost:3000"
	if err := workspace.SaveEnvironment(cwd, env); err != nil {
		return fmt.Errorf("failed to create example environment: %w", err)
	}

	c := model.NewCollection("smoke", "example smoke checks")
	health := model.NewHttpRequest(c.ID, "health check", model.MethodGet, "{{baseUrl}}/health")
	health.Tests = `test "is healthy" status == 200`
	create := model.NewHttpRequest(c.ID, "create resource", model.MethodPost, "{{baseUrl}}/resources")
	create.Body = `{"name": "example"}`
	create.BodyType = model.BodyJSON
	create.PostScript = "set resourceId body.id"
	create.Tests = `test "created" status == 201
test "has id" body.id exists`
	fetch := model.NewHttpRequest(c.ID, "fetch resource", model.MethodGet, "{{baseUrl}}/resources/{{resourceId}}")
	fetch.Tests = `test "found" status == 200`
	c.Requests = append(c.Requests, health, create, fetch)
	if err := workspace.SaveCollection(cwd, c); err != nil {
		return fmt.Errorf("failed to create example collection: %w", err)
	}

	ws, err := workspace.Load(cwd)
	if err != nil {
		return err
	}
	if err := ws.SetActiveEnv("dev"); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Workspace %q initialized.\n", name)
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'courier run smoke' to execute the example collection.\n")
	return nil
}
