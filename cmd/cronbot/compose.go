package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/flemzord/cronbot/internal/cron"
	"github.com/flemzord/cronbot/internal/job"
	"github.com/spf13/cobra"
)

// composition holds the answers of the compose form.
type composition struct {
	Op      string
	Name    string
	Pattern string
	Command string
	Args    string
}

// Text renders the composition as a cron command line.
func (c composition) Text() string {
	parts := []string{"cron", c.Op, c.Name, strings.Join(strings.Fields(c.Pattern), " "), c.Command}
	if args := strings.TrimSpace(c.Args); args != "" {
		parts = append(parts, args)
	}
	return strings.Join(parts, " ")
}

func composeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Build a cron command interactively",
		Long: "Walk through a form to build a job, save or test command. The result\n" +
			"is printed, or posted to a running gateway with --submit.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			submit, _ := cmd.Flags().GetString("submit")
			token, _ := cmd.Flags().GetString("token")
			if token == "" {
				token = os.Getenv("CRONBOT_TOKEN")
			}

			var c composition
			if err := composeForm(&c).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}

			text := c.Text()
			if submit == "" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			ctx, cancel := context.WithTimeout(contextOr(cmd.Context()), 30*time.Second)
			defer cancel()
			return submitCommand(ctx, http.DefaultClient, submit, token, text, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("submit", "", "Gateway base URL to post the command to")
	cmd.Flags().String("token", "", "Gateway bearer token (default $CRONBOT_TOKEN)")
	return cmd
}

func composeForm(c *composition) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Operation").
				Options(
					huh.NewOption("job: schedule now", "job"),
					huh.NewOption("save: store without scheduling", "save"),
					huh.NewOption("test: run once now", "test"),
				).
				Value(&c.Op),
			huh.NewInput().
				Title("Job name").
				Value(&c.Name).
				Validate(job.ValidateName),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Pattern").
				Description("sec min hour mday(1-31) month(0-11) wday(0-6)").
				Placeholder("0 30 9 * * 1-5").
				Value(&c.Pattern).
				Validate(validatePattern),
			huh.NewInput().
				Title("Command").
				Placeholder("echo").
				Value(&c.Command).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" || strings.ContainsAny(s, " \t") {
						return errors.New("enter a single command word")
					}
					return nil
				}),
			huh.NewInput().
				Title("Arguments").
				Value(&c.Args),
		),
	)
}

// validatePattern reports the first problem with a pattern typed in the
// form, including patterns that never fire.
func validatePattern(s string) error {
	p, err := cron.Parse(s)
	if err != nil {
		return err
	}
	_, err = p.Next(time.Now())
	return err
}

// submitCommand posts text to the gateway's command endpoint and prints
// the reply or every violation.
func submitCommand(ctx context.Context, client *http.Client, baseURL, token, text string, out io.Writer) error {
	body, err := json.Marshal(map[string]string{"text": text, "channel": "cli"})
	if err != nil {
		return err
	}
	url := strings.TrimRight(baseURL, "/") + "/api/commands"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submitting command: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		OK     bool     `json:"ok"`
		Reply  string   `json:"reply"`
		Errors []string `json:"errors"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	if !result.OK {
		for _, msg := range result.Errors {
			fmt.Fprintln(out, msg)
		}
		return fmt.Errorf("gateway rejected the command (%s)", resp.Status)
	}
	fmt.Fprintln(out, result.Reply)
	return nil
}
