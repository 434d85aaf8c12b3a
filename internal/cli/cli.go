// Package cli implements the dispatchctl ops tool: manual sync triggering
// and status inspection against a running dispatch API.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Flags are shared by all subcommands.
type Flags struct {
	// Endpoint is the base URL of the dispatch API.
	Endpoint string
	// Secret is the bearer secret configured on the API (API_SECRET_KEY).
	Secret string
}

// CommandFactory builds commands with an injectable HTTP client so tests can
// stub the transport.
type CommandFactory struct {
	HTTPClient *http.Client
}

var defaultCommandFactory = CommandFactory{
	HTTPClient: &http.Client{Timeout: 30 * time.Second},
}

var flgs = &Flags{}

var rootCmd = defaultCommandFactory.CreateRootCommand()

func setDefaultFlags(c *cobra.Command, flgs *Flags) {
	c.Flags().StringVar(&flgs.Endpoint, "endpoint", "http://localhost:8080", "base URL of the dispatch API")
	c.Flags().StringVar(&flgs.Secret, "secret", os.Getenv("API_SECRET_KEY"), "bearer secret for protected endpoints")
}

func (f CommandFactory) CreateRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatchctl",
		Short: "Operate the freight in-transit dispatch service",
		Long:  `dispatchctl triggers and inspects in-transit sync cycles on a running dispatch API.`,
	}
}

func (f CommandFactory) CreateSyncCommand(flgs *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Trigger one in-transit sync cycle",
		Long:  `Trigger one in-transit sync cycle. The cycle runs in the background; use status to see the result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.call(cmd.OutOrStdout(), http.MethodPost, flgs, "/sync-in-transit")
		},
	}
}

func (f CommandFactory) CreateStatusCommand(flgs *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a sync is running and its last result",
		Long:  `Show whether a sync is running and its last result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.call(cmd.OutOrStdout(), http.MethodGet, flgs, "/sync-status")
		},
	}
}

func (f CommandFactory) call(out io.Writer, method string, flgs *Flags, path string) error {
	req, err := http.NewRequest(method, flgs.Endpoint+path, nil)
	if err != nil {
		return err
	}
	if flgs.Secret != "" {
		req.Header.Set("Authorization", "Bearer "+flgs.Secret)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("api returned %d: %s", resp.StatusCode, body)
	}

	var pretty json.RawMessage = body
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

func init() {
	syncCmd := defaultCommandFactory.CreateSyncCommand(flgs)
	setDefaultFlags(syncCmd, flgs)
	rootCmd.AddCommand(syncCmd)

	statusCmd := defaultCommandFactory.CreateStatusCommand(flgs)
	setDefaultFlags(statusCmd, flgs)
	rootCmd.AddCommand(statusCmd)
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
