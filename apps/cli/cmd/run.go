package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/courierhq/courier/packages/httpx"
	"github.com/courierhq/courier/packages/model"
	"github.com/courierhq/courier/packages/output"
	"github.com/courierhq/courier/packages/runner"
	"github.com/courierhq/courier/packages/workspace"
)

var runCmd = &cobra.Command{
	Use:   "run [collection...]",
	Short: "Run collections against the active environment",
	Long: `Run one or more collections from a courier workspace. With no
arguments every collection runs, in name order.

Examples:
  courier run
  courier run users
  courier run users orders --env staging
  courier run users --rate 5 --bail
  courier run users --watch
  courier run users --output json`,
	RunE: runCommand,
}

// WatchDebounceDelay is the debounce delay for file watch events
const WatchDebounceDelay = 300 * time.Millisecond

var (
	dirFlag           string
	envFlag           string
	timeoutFlag       string
	scriptTimeoutFlag string
	bailFlag          bool
	rateFlag          float64
	watchFlag         bool
	outputFlag        string
	noColorFlag       bool
	insecureFlag      bool
	proxyFlag         string
	verboseFlag       bool
	saveEnvFlag       bool
)

func init() {
	runCmd.Flags().StringVar(&dirFlag, "dir", getEnvString("COURIER_DIR", "."), "Workspace directory (env: COURIER_DIR)")
	runCmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("COURIER_ENV", ""), "Environment to activate, overriding the manifest (env: COURIER_ENV)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("COURIER_TIMEOUT", "30s"), "Request timeout (e.g., 30s, 1m) (env: COURIER_TIMEOUT)")
	runCmd.Flags().StringVar(&scriptTimeoutFlag, "script-timeout", getEnvString("COURIER_SCRIPT_TIMEOUT", "5s"), "Per-script wall-clock budget (env: COURIER_SCRIPT_TIMEOUT)")
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("COURIER_BAIL", false), "Stop a collection at its first failed request (env: COURIER_BAIL)")
	runCmd.Flags().Float64VarP(&rateFlag, "rate", "r", 0, "Throttle to N requests per second; 0 disables")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch workspace files for changes and re-run")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("COURIER_OUTPUT", "console"), "Output format: console, json (env: COURIER_OUTPUT)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("COURIER_NO_COLOR", false), "Disable colored output (env: COURIER_NO_COLOR)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("COURIER_INSECURE", false), "Disable SSL certificate validation (env: COURIER_INSECURE)")
	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("COURIER_PROXY", ""), "Proxy URL for HTTP requests (env: COURIER_PROXY)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")
	runCmd.Flags().BoolVar(&saveEnvFlag, "save-env", false, "Write environment mutations back to the workspace after the run")
}

func runCommand(cmd *cobra.Command, args []string) error {
	timeout, err := time.ParseDuration(timeoutFlag)
	if err != nil {
		return fmt.Errorf("invalid --timeout: %w", err)
	}
	scriptTimeout, err := time.ParseDuration(scriptTimeoutFlag)
	if err != nil {
		return fmt.Errorf("invalid --script-timeout: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func() (failed int, err error) {
		ws, err := workspace.Load(dirFlag)
		if err != nil {
			return 0, err
		}

		store, err := ws.Store()
		if err != nil {
			return 0, err
		}
		if envFlag != "" {
			env := ws.Environment(envFlag)
			if env == nil {
				return 0, fmt.Errorf("environment %q not found in workspace", envFlag)
			}
			if err := store.Activate(env.ID); err != nil {
				return 0, err
			}
		}

		collections, err := selectCollections(ws, args)
		if err != nil {
			return 0, err
		}

		clientOpts := []httpx.ClientOption{
			httpx.WithTimeout(timeout),
			httpx.WithValidateSSL(!insecureFlag),
		}
		if proxyFlag != "" {
			clientOpts = append(clientOpts, httpx.WithProxy(proxyFlag))
		}

		r := runner.New(httpx.NewClient(clientOpts...), store, &runner.Config{
			ScriptTimeout: scriptTimeout,
			Rate:          rateFlag,
			Bail:          bailFlag,
		})

		for _, c := range collections {
			result := r.RunCollection(ctx, c)
			if err := renderResult(cmd, result); err != nil {
				return failed, err
			}
			failed += result.Failed
			if result.Cancelled {
				break
			}
		}

		if saveEnvFlag {
			if active := store.ActiveEnvironment(); active != nil {
				if err := workspace.SaveEnvironment(dirFlag, active); err != nil {
					fmt.Fprintf(os.Stderr, "warning: failed to save environment: %v\n", err)
				}
			}
		}
		return failed, nil
	}

	failed, err := runOnce()
	if err != nil {
		return err
	}

	if !watchFlag {
		if failed > 0 {
			os.Exit(ExitTestFailure)
		}
		return nil
	}

	return watchWorkspace(ctx, cmd, runOnce)
}

func selectCollections(ws *workspace.Workspace, names []string) ([]*model.Collection, error) {
	if len(names) == 0 {
		if len(ws.Collections) == 0 {
			return nil, fmt.Errorf("no collections found in workspace %s", dirFlag)
		}
		return ws.Collections, nil
	}

	var collections []*model.Collection
	for _, name := range names {
		c := ws.Collection(name)
		if c == nil {
			return nil, fmt.Errorf("collection %q not found in workspace", name)
		}
		collections = append(collections, c)
	}
	return collections, nil
}

func renderResult(cmd *cobra.Command, result *runner.RunResult) error {
	switch strings.ToLower(outputFlag) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(cmd.OutOrStdout())).FormatResult(result)
	case "console":
		output.NewConsoleFormatter(
			output.WithWriter(cmd.OutOrStdout()),
			output.WithVerbose(verboseFlag),
			output.WithNoColor(noColorFlag),
		).FormatResult(result)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", outputFlag)
	}
}

func watchWorkspace(ctx context.Context, cmd *cobra.Command, runOnce func() (int, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range []string{dirFlag, filepath.Join(dirFlag, "collections"), filepath.Join(dirFlag, "environments")} {
		if _, err := os.Stat(dir); err == nil {
			if err := watcher.Add(dir); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to watch %s: %v\n", dir, err)
			}
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isWorkspaceFile(event.Name) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running...\n", event.Name)
				if _, err := runOnce(); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}

func isWorkspaceFile(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
