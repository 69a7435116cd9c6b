// Taskmaster is a to-do list daemon that routes natural-language instructions
// to task commands through a language model.
//
// Configuration is loaded from ~/.config/taskmaster/config.yaml (if present)
// and environment variables. See internal/config for details.
//
// Usage:
//
//	# Start the HTTP server
//	taskmaster
//
//	# Serve MCP over stdio
//	taskmaster mcp
//
//	# Configure via environment
//	SERVER_HTTP_PORT=9090 OPENAI_API_KEY=sk-... taskmaster
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/taskmaster/config.yaml)")
	flag.Parse()
	args := flag.Args()

	mode := modeServe
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		case "mcp":
			mode = modeStdio
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  taskmaster           Start the HTTP server\n")
			fmt.Fprintf(os.Stderr, "  taskmaster mcp       Serve MCP tools over stdio\n")
			fmt.Fprintf(os.Stderr, "  taskmaster version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch mode {
	case modeStdio:
		err = runStdio(ctx, *configPath)
	default:
		err = run(ctx, *configPath)
	}
	if err != nil {
		log.Fatalf("taskmaster: %v", err)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("taskmaster by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}
