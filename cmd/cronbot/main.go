// Package main is the entry point for the cronbot CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/flemzord/cronbot/pkg/app"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cronbot",
		Short:         "A chat-driven scheduler for named cron jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		versionCmd(),
		startCmd(),
		configCmd(),
		nextCmd(),
		execCmd(),
		composeCmd(),
		mcpCmd(),
		serviceCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cronbot %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler and every configured surface",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := runParams(cmd)

			// Under a service manager, hand control to the service
			// runtime so it can deliver stop requests.
			if !service.Interactive() {
				s, err := newService(params)
				if err != nil {
					return err
				}
				return s.Run()
			}

			return app.Run(contextOr(cmd.Context()), params)
		},
	}
	addRunFlags(cmd)
	return cmd
}

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the scheduler and serve MCP tools on stdio",
		Long: "Run the scheduler and expose cron_command, cron_list and cron_next\n" +
			"as Model Context Protocol tools on stdin/stdout. Logs go to stderr.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := runParams(cmd)
			params.MCP = true
			return app.Run(contextOr(cmd.Context()), params)
		},
	}
	addRunFlags(cmd)
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	cmd.Flags().String("log-level", "", "Override log.level (debug, info, warn, error)")
	cmd.Flags().String("data-dir", "", "Directory for persistent data")
}

func runParams(cmd *cobra.Command) app.RunParams {
	cfgPath, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	return app.RunParams{
		ConfigPath: cfgPath,
		Version:    version,
		Commit:     commit,
		Date:       date,
		DataDir:    dataDir,
		LogLevel:   level,
	}
}

// contextOr returns ctx, or a background context when cobra ran without one.
func contextOr(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
