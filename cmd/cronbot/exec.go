package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/flemzord/cronbot/internal/action"
	"github.com/flemzord/cronbot/internal/command"
	"github.com/flemzord/cronbot/internal/job"
	"github.com/flemzord/cronbot/pkg/app"
	"github.com/spf13/cobra"
)

func execCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <command...>",
		Short: "Validate a cron command offline and print every violation",
		Long: "Validate a cron command against an empty registry and the built-in\n" +
			"and configured commands, without contacting a running instance.",
		Example: `  cronbot exec -- cron job standup 0 30 9 '*' '*' 1-5 echo standup
  cronbot exec -c cronbot.yaml -- save report 0 0 8 1 '*' '*' report`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			logger := app.NewCLILogger(slog.LevelWarn)
			catalog := action.NewCatalog(nil, logger)
			if cfgPath != "" {
				cfg, _, err := app.LoadConfig(cfgPath)
				if err != nil {
					return err
				}
				if err := catalog.Apply(cfg.Actions); err != nil {
					return err
				}
			}

			in := command.New(command.Deps{
				Registry: job.NewRegistry(),
				Commands: catalog,
				Logger:   logger,
			})
			op, err := in.Parse(command.Tokenize(strings.Join(args, " ")))
			if err != nil {
				for _, msg := range command.Messages(err) {
					fmt.Fprintln(cmd.ErrOrStderr(), msg)
				}
				return errors.New("command rejected")
			}
			printOperation(cmd.OutOrStdout(), op)
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Configuration file providing extra commands")
	return cmd
}

func printOperation(w io.Writer, op command.Operation) {
	fmt.Fprintf(w, "operation: %s\n", op.Op)
	if op.Name != "" {
		fmt.Fprintf(w, "name:      %s\n", op.Name)
	}
	if op.Pattern.IsZero() {
		return
	}
	fmt.Fprintf(w, "pattern:   %s (canonical %s)\n", op.Pattern.Source(), op.Pattern)
	fmt.Fprintf(w, "command:   %s\n", op.Action)
	next, _ := op.Pattern.NextN(time.Now(), 3)
	for _, t := range next {
		fmt.Fprintf(w, "next:      %s\n", t.Format(time.RFC3339))
	}
}
