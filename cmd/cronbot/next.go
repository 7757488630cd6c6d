package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/flemzord/cronbot/internal/cron"
	"github.com/spf13/cobra"
)

const maxPreview = 100

func nextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next <sec> <min> <hour> <mday> <month> <wday>",
		Short: "Print the upcoming occurrences of a pattern",
		Example: `  cronbot next 0 30 9 '*' '*' 1-5
  cronbot next "0 0 12 1 0 *" -n 3 --tz Europe/Paris`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("count")
			tz, _ := cmd.Flags().GetString("tz")
			if n < 1 || n > maxPreview {
				return fmt.Errorf("--count must be between 1 and %d", maxPreview)
			}

			loc := time.Local
			if tz != "" {
				var err error
				if loc, err = time.LoadLocation(tz); err != nil {
					return fmt.Errorf("--tz: %w", err)
				}
			}

			p, err := cron.Parse(strings.Join(args, " "))
			if err != nil {
				return err
			}
			times, err := p.NextN(time.Now().In(loc), n)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", p)
			for _, t := range times {
				fmt.Fprintf(out, "  %s\n", t.Format("Mon 2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}
	cmd.Flags().IntP("count", "n", 5, "Number of occurrences")
	cmd.Flags().String("tz", "", "IANA timezone (default: local)")
	return cmd
}
