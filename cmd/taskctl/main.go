// Package main implements taskctl, a command-line client for the taskmaster
// HTTP API.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the taskmaster HTTP server
	serverURL string
	// timeout bounds each request; routed requests wait on the model
	timeout time.Duration
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "taskctl",
	Short: "CLI for the taskmaster to-do server",
	Long: `taskctl talks to a running taskmaster server.

It lists, adds, completes and removes tasks directly, or sends a free-form
instruction through the language model router with "ask".`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "taskmaster server URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "request timeout")
	rootCmd.AddCommand(listCmd, addCmd, doneCmd, rmCmd, askCmd, healthCmd)
}

func newClient() *Client {
	return NewClient(serverURL, timeout)
}
